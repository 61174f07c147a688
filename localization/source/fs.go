package source

import (
	"context"
	"errors"
	"io/fs"
	"strings"

	"github.com/pitabwire/util"
)

// ScanFS walks fsys for documents whose path starts with prefix and whose
// name ends in <name>_<culture>.json. This is the replacement for resources
// compiled into the binary: pass an embed.FS and the folder holding the files.
//
// Both "locales/Strings_en.json" and dotted names such as
// "locales/App.Resources.Strings_en.json" match. A prefix naming a directory
// matches whole path segments only, so "locales" does not cover "localesX/".
func ScanFS(ctx context.Context, fsys fs.FS, prefix, name string) (Manifest, error) {
	log := util.Log(ctx).WithField("prefix", prefix).WithField("resource", name)
	log.Debug("scanning embedded files for translations")

	pattern := underscorePattern(name)

	root := "."
	if dir := strings.TrimSuffix(prefix, "/"); dir != "" && isDir(fsys, dir) {
		root = dir
		prefix = dir + "/"
	}

	manifest := Manifest{}
	err := fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}

		log.WithField("file", path).Debug("scanning resource")

		if !strings.HasPrefix(path, prefix) {
			return nil
		}

		culture, ok := matchCulture(pattern, path)
		if !ok {
			return nil
		}

		manifest = append(manifest, FS(culture, fsys, path))
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Manifest{}, nil
		}
		return nil, err
	}

	return manifest, nil
}

func isDir(fsys fs.FS, name string) bool {
	info, err := fs.Stat(fsys, name)
	return err == nil && info.IsDir()
}
