// Package catalog holds the fixed search anchors and keywords walked by a population run.
package catalog

import (
	_ "embed"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Anchor is a fixed geographic search origin, usually a city centre.
type Anchor struct {
	Name      string  `yaml:"name"`
	Latitude  float64 `yaml:"lat"`
	Longitude float64 `yaml:"lng"`
}

// Catalog is the immutable anchor × keyword search plan for one run.
type Catalog struct {
	Anchors  []Anchor `yaml:"anchors"`
	Keywords []string `yaml:"keywords"`
}

// Default returns the embedded Italian catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from a YAML file. An empty path yields the default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, eris.Wrap(err, "catalog: parse")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that the catalog can drive a run.
func (c *Catalog) Validate() error {
	if len(c.Anchors) == 0 {
		return eris.New("catalog: no anchors")
	}
	if len(c.Keywords) == 0 {
		return eris.New("catalog: no keywords")
	}

	seen := make(map[string]bool, len(c.Anchors))
	for i, a := range c.Anchors {
		if strings.TrimSpace(a.Name) == "" {
			return eris.Errorf("catalog: anchor %d has no name", i)
		}
		if seen[a.Name] {
			return eris.Errorf("catalog: duplicate anchor %q", a.Name)
		}
		seen[a.Name] = true
		if a.Latitude < -90 || a.Latitude > 90 {
			return eris.Errorf("catalog: anchor %q latitude %v out of range", a.Name, a.Latitude)
		}
		if a.Longitude < -180 || a.Longitude > 180 {
			return eris.Errorf("catalog: anchor %q longitude %v out of range", a.Name, a.Longitude)
		}
	}

	for i, k := range c.Keywords {
		if strings.TrimSpace(k) == "" {
			return eris.Errorf("catalog: keyword %d is blank", i)
		}
	}
	return nil
}

// Pairs is the number of nearby searches a full run would issue.
func (c *Catalog) Pairs() int {
	return len(c.Anchors) * len(c.Keywords)
}
