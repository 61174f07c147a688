package jsonlocale

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/pitabwire/jsonlocale/localization"
	"github.com/pitabwire/jsonlocale/localization/source"
)

// WithSources appends sources to the manifest in the order given.
// Any source option turns off discovery from the configuration.
func WithSources(sources ...source.Source) Option {
	return func(_ context.Context, s *Service) {
		s.sourcesSet = true
		s.manifest = append(s.manifest, sources...)
	}
}

// WithDirectory appends the <name>.<culture>.json files found in dir.
// A missing directory adds nothing.
func WithDirectory(dir, name string) Option {
	return func(ctx context.Context, s *Service) {
		s.sourcesSet = true

		manifest, err := source.ScanDirectory(ctx, dir, name)
		if err != nil {
			s.Log(ctx).WithError(err).WithField("dir", dir).Error("could not scan translations directory")
			s.AddStartupError(fmt.Errorf("scan directory %s: %w", dir, err))
			return
		}
		s.manifest = append(s.manifest, manifest...)
	}
}

// WithFS appends the files of fsys under prefix named <name>_<culture>.json,
// typically from an embed.FS.
func WithFS(fsys fs.FS, prefix, name string) Option {
	return func(ctx context.Context, s *Service) {
		s.sourcesSet = true

		manifest, err := source.ScanFS(ctx, fsys, prefix, name)
		if err != nil {
			s.Log(ctx).WithError(err).WithField("prefix", prefix).Error("could not scan embedded translations")
			s.AddStartupError(fmt.Errorf("scan embedded files %s: %w", prefix, err))
			return
		}
		s.manifest = append(s.manifest, manifest...)
	}
}

// WithBucket opens the bucket at bucketURL and appends the objects under prefix named
// <name>.<culture>.json. The bucket stays open until Close.
func WithBucket(bucketURL, prefix, name string) Option {
	return func(ctx context.Context, s *Service) {
		s.sourcesSet = true

		log := s.Log(ctx).WithField("bucket", bucketURL)

		bucket, err := source.OpenBucket(ctx, bucketURL)
		if err != nil {
			log.WithError(err).Error("could not open translations bucket")
			s.AddStartupError(fmt.Errorf("open bucket %s: %w", bucketURL, err))
			return
		}
		s.addBucket(bucket)

		manifest, err := source.ScanBucket(ctx, bucket, prefix, name)
		if err != nil {
			log.WithError(err).Error("could not list translations bucket")
			s.AddStartupError(fmt.Errorf("list bucket %s: %w", bucketURL, err))
			return
		}
		s.manifest = append(s.manifest, manifest...)
	}
}

// WithManifestFile appends the sources listed by a YAML or TOML manifest file.
func WithManifestFile(path string) Option {
	return func(ctx context.Context, s *Service) {
		s.sourcesSet = true

		manifest, err := source.LoadManifestFile(ctx, path)
		if err != nil {
			s.Log(ctx).WithError(err).WithField("manifest", path).Error("could not read translations manifest")
			s.AddStartupError(fmt.Errorf("manifest %s: %w", path, err))
			return
		}
		s.manifest = append(s.manifest, manifest...)
	}
}

// WithBuildOptions applies store options after the ones derived from the configuration.
func WithBuildOptions(opts ...localization.BuildOption) Option {
	return func(_ context.Context, s *Service) {
		s.buildOpts = append(s.buildOpts, opts...)
	}
}

// WithLocalizerOptions applies localizer options after the ones derived from the configuration.
func WithLocalizerOptions(opts ...localization.Option) Option {
	return func(_ context.Context, s *Service) {
		s.localizerOpts = append(s.localizerOpts, opts...)
	}
}
