package source

import (
	"context"
	"errors"
	"io"
	"path"

	"github.com/pitabwire/util"
	"gocloud.dev/blob"
	// Registered bucket drivers: file:// and mem://.
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
)

// OpenBucket opens a blob bucket by url, e.g. "file:///srv/locales" or "mem://".
func OpenBucket(ctx context.Context, bucketURL string) (*blob.Bucket, error) {
	return blob.OpenBucket(ctx, bucketURL)
}

type bucketSource struct {
	culture string
	bucket  *blob.Bucket
	key     string
}

// Bucket returns a source reading key from bucket.
// The bucket stays owned by the caller and must outlive every Open.
func Bucket(culture string, bucket *blob.Bucket, key string) Source {
	return &bucketSource{culture: culture, bucket: bucket, key: key}
}

func (b *bucketSource) Culture() string  { return b.culture }
func (b *bucketSource) Location() string { return b.key }

func (b *bucketSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return b.bucket.NewReader(ctx, b.key, nil)
}

// ScanBucket lists objects under prefix named <name>.<culture>.json.
// Objects come back in the lexical key order the bucket lists them in.
func ScanBucket(ctx context.Context, bucket *blob.Bucket, prefix, name string) (Manifest, error) {
	log := util.Log(ctx).WithField("prefix", prefix).WithField("resource", name)
	log.Debug("scanning bucket for translation files")

	pattern := dottedPattern(name)

	manifest := Manifest{}
	iter := bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if obj.IsDir {
			continue
		}

		culture, ok := matchCulture(pattern, path.Base(obj.Key))
		if !ok {
			continue
		}

		manifest = append(manifest, Bucket(culture, bucket, obj.Key))
	}

	log.WithField("count", len(manifest)).Debug("translation objects found")
	return manifest, nil
}
