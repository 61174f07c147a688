// Package source describes where translation documents come from.
//
// A Manifest is an ordered list of sources, each bound to one culture. The order matters:
// when two sources of the same culture define the same key, the later source wins.
// Manifests can be written by hand or discovered with ScanDirectory, ScanFS, ScanBucket
// or LoadManifestFile.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
)

var (
	ErrNoCulture  = errors.New("source has no culture")
	ErrNoLocation = errors.New("source has no location")
)

// Source is a single JSON document holding the templates of one culture.
type Source interface {
	Culture() string
	Location() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Manifest is an ordered set of sources.
type Manifest []Source

// Cultures returns the distinct cultures in manifest order.
func (m Manifest) Cultures() []string {
	seen := map[string]struct{}{}
	var cultures []string
	for _, src := range m {
		if _, ok := seen[src.Culture()]; ok {
			continue
		}
		seen[src.Culture()] = struct{}{}
		cultures = append(cultures, src.Culture())
	}
	return cultures
}

// Validate checks every source names a culture and a location.
func (m Manifest) Validate() error {
	var errs []error
	for i, src := range m {
		if src.Culture() == "" {
			errs = append(errs, fmt.Errorf("manifest entry %d (%s): %w", i, src.Location(), ErrNoCulture))
		}
		if src.Location() == "" {
			errs = append(errs, fmt.Errorf("manifest entry %d (%s): %w", i, src.Culture(), ErrNoLocation))
		}
	}
	return errors.Join(errs...)
}

type fileSource struct {
	culture string
	path    string
}

// File returns a source reading the document at path on the local file system.
func File(culture, path string) Source {
	return &fileSource{culture: culture, path: path}
}

func (f *fileSource) Culture() string  { return f.culture }
func (f *fileSource) Location() string { return f.path }

func (f *fileSource) Open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(f.path)
}

type fsSource struct {
	culture string
	fsys    fs.FS
	name    string
}

// FS returns a source reading name from fsys, usually an embed.FS.
func FS(culture string, fsys fs.FS, name string) Source {
	return &fsSource{culture: culture, fsys: fsys, name: name}
}

func (f *fsSource) Culture() string  { return f.culture }
func (f *fsSource) Location() string { return f.name }

func (f *fsSource) Open(_ context.Context) (io.ReadCloser, error) {
	return f.fsys.Open(f.name)
}

type bytesSource struct {
	culture  string
	location string
	data     []byte
}

// Bytes returns a source over an in memory document. location is only used for reporting.
func Bytes(culture, location string, data []byte) Source {
	return &bytesSource{culture: culture, location: location, data: data}
}

func (b *bytesSource) Culture() string  { return b.culture }
func (b *bytesSource) Location() string { return b.location }

func (b *bytesSource) Open(_ context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

// dottedPattern matches <name>.<culture>.json and captures the culture.
func dottedPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(name) + `\.(?P<culture>[a-zA-Z0-9_-]+)\.json$`)
}

// underscorePattern matches <name>_<culture>.json at the end of a resource name.
func underscorePattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(^|[./])` + regexp.QuoteMeta(name) + `_(?P<culture>[a-zA-Z-]+)\.json$`)
}

func matchCulture(r *regexp.Regexp, candidate string) (string, bool) {
	m := r.FindStringSubmatch(candidate)
	if m == nil {
		return "", false
	}
	return m[r.SubexpIndex("culture")], true
}
