package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Loader handles loading and parsing of the synthetic catalog.
// An empty path selects the embedded catalog.
type Loader struct {
	filePath string
}

// NewLoader creates a new catalog loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the catalog file
func (l *Loader) Load() (*Catalog, error) {
	data := defaultCatalog
	if l.filePath != "" {
		var err error
		data, err = os.ReadFile(l.filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog file: %w", err)
		}
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog yaml: %w", err)
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Default returns the embedded catalog. It panics if the embedded file is
// broken, which can only happen at build time.
func Default() *Catalog {
	c, err := NewLoader("").Load()
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

func (c *Catalog) validate() error {
	if len(c.Archetypes) == 0 {
		return fmt.Errorf("catalog has no archetypes")
	}
	for i, a := range c.Archetypes {
		if a.Type == "" || a.Title == "" {
			return fmt.Errorf("archetype %d (%q) needs a type and a title", i, a.Name)
		}
	}

	seen := make(map[string]bool, len(c.Seed))
	for _, s := range c.Seed {
		if s.ID == "" {
			return fmt.Errorf("seed entry %q has no id", s.Title)
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate seed id %q", s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}
