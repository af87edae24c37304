package sources

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Source describes one reference database in the manifest.
type Source struct {
	Name      string `yaml:"name" json:"name"`
	Label     string `yaml:"label" json:"label"`
	Shorthand string `yaml:"shorthand" json:"shorthand"`
	File      string `yaml:"file" json:"file"`
}

// Manifest lists every bundled reference database.
type Manifest struct {
	Sources []Source `yaml:"sources"`
}

// LoadManifest reads and parses sources.yaml from dir.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, "sources.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to read sources manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse sources manifest: %w", err)
	}

	for i, s := range m.Sources {
		if s.Name == "" {
			return nil, fmt.Errorf("sources manifest entry %d has no name", i)
		}
		if s.File == "" {
			m.Sources[i].File = s.Name + ".json"
		}
		if s.Shorthand == "" {
			m.Sources[i].Shorthand = s.Name
		}
	}

	return &m, nil
}

// Names returns the source names in manifest order.
func (m *Manifest) Names() []string {
	names := make([]string, len(m.Sources))
	for i, s := range m.Sources {
		names[i] = s.Name
	}
	return names
}

// Lookup returns the manifest entry for a source name.
func (m *Manifest) Lookup(name string) (Source, bool) {
	for _, s := range m.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return Source{}, false
}
