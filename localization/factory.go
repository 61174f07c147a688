package localization

import (
	"context"
	"errors"
	"sync"

	"github.com/pitabwire/jsonlocale/localization/source"
)

var ErrEmptyResourceName = errors.New("resource name is empty")

// ManifestLoader discovers the sources of one named resource, e.g. by calling
// source.ScanDirectory(ctx, dir, name).
type ManifestLoader func(ctx context.Context, name string) (source.Manifest, error)

// Factory builds and caches one Localizer per resource name.
type Factory struct {
	loader        ManifestLoader
	buildOpts     []BuildOption
	localizerOpts []Option

	mu         sync.Mutex
	localizers map[string]*Localizer
}

func NewFactory(loader ManifestLoader, buildOpts []BuildOption, opts ...Option) *Factory {
	return &Factory{
		loader:        loader,
		buildOpts:     buildOpts,
		localizerOpts: opts,
		localizers:    make(map[string]*Localizer),
	}
}

// Create returns the Localizer for name, building it on first use.
//
// Load failures that left a usable store are returned next to the Localizer and the
// Localizer is cached; a later Create returns it without the error. A failure with no store,
// such as an unreadable directory or a strict build, is not cached.
func (f *Factory) Create(ctx context.Context, name string) (*Localizer, error) {
	if name == "" {
		return nil, ErrEmptyResourceName
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if l, ok := f.localizers[name]; ok {
		return l, nil
	}

	manifest, err := f.loader(ctx, name)
	if err != nil {
		return nil, err
	}

	store, err := Build(ctx, manifest, f.buildOpts...)
	if store == nil {
		return nil, err
	}

	l := NewLocalizer(store, f.localizerOpts...)
	f.localizers[name] = l
	return l, err
}

// Names lists the resources built so far.
func (f *Factory) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	names := make([]string, 0, len(f.localizers))
	for name := range f.localizers {
		names = append(names, name)
	}
	return names
}
