package source

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pitabwire/util"
)

// ScanDirectory lists the files named <name>.<culture>.json directly inside dir.
// A missing directory yields an empty manifest and no error.
// Files are returned in lexical order, which is also their merge order.
func ScanDirectory(ctx context.Context, dir, name string) (Manifest, error) {
	log := util.Log(ctx).WithField("path", dir).WithField("resource", name)
	log.Debug("scanning directory for translation files")

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug("translation directory does not exist")
			return Manifest{}, nil
		}
		return nil, err
	}

	pattern := dottedPattern(name)

	manifest := Manifest{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		culture, ok := matchCulture(pattern, entry.Name())
		if !ok {
			continue
		}

		manifest = append(manifest, File(culture, filepath.Join(dir, entry.Name())))
	}

	log.WithField("count", len(manifest)).Debug("translation files found")
	return manifest, nil
}
