package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var ErrUnsupportedManifest = errors.New("unsupported manifest format, use .yaml, .yml or .toml")

type manifestEntry struct {
	Culture  string `yaml:"culture"  toml:"culture"`
	Location string `yaml:"location" toml:"location"`
}

type manifestDocument struct {
	Sources []manifestEntry `yaml:"sources" toml:"sources"`
}

// LoadManifestFile reads an explicit list of culture/location pairs.
//
//	sources:
//	  - culture: en
//	    location: Strings.en.json
//
// Relative locations are resolved against the manifest's own directory.
func LoadManifestFile(_ context.Context, manifestPath string) (Manifest, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("could not read manifest %s: %w", manifestPath, err)
	}

	doc, err := decodeManifest(filepath.Ext(manifestPath), data)
	if err != nil {
		return nil, fmt.Errorf("could not parse manifest %s: %w", manifestPath, err)
	}

	base := filepath.Dir(manifestPath)

	manifest := make(Manifest, 0, len(doc.Sources))
	for _, entry := range doc.Sources {
		location := entry.Location
		if location != "" && !filepath.IsAbs(location) {
			location = filepath.Join(base, location)
		}
		manifest = append(manifest, File(strings.TrimSpace(entry.Culture), location))
	}

	err = manifest.Validate()
	if err != nil {
		return nil, err
	}

	return manifest, nil
}

func decodeManifest(ext string, data []byte) (*manifestDocument, error) {
	var doc manifestDocument

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err := yaml.Unmarshal(data, &doc)
		if err != nil {
			return nil, err
		}
	case ".toml":
		_, err := toml.Decode(string(data), &doc)
		if err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnsupportedManifest
	}

	return &doc, nil
}
