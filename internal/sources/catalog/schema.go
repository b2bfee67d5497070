package catalog

// Catalog is the top-level structure of catalog.yaml
type Catalog struct {
	Archetypes []Archetype `yaml:"archetypes"`
	Seed       []SeedEntry `yaml:"seed"`
}

// Archetype describes one kind of synthetic event the generator can produce.
// Title and Context may reference {{placeholders}} resolved from Fields.
type Archetype struct {
	Name     string              `yaml:"name"`
	Type     string              `yaml:"type"`
	Title    string              `yaml:"title"`
	Context  string              `yaml:"context"`
	Actions  []string            `yaml:"actions,omitempty"`
	EntityID string              `yaml:"entityId,omitempty"`
	Fields   map[string][]string `yaml:"fields,omitempty"`
}

// SeedEntry is a fixed announcement served as last-known-good data before
// any backend fetch has succeeded.
type SeedEntry struct {
	ID         string   `yaml:"id"`
	Type       string   `yaml:"type"`
	Title      string   `yaml:"title"`
	Context    string   `yaml:"context"`
	MinutesAgo int      `yaml:"minutesAgo"`
	IsRead     bool     `yaml:"isRead,omitempty"`
	IsArchived bool     `yaml:"isArchived,omitempty"`
	EntityID   string   `yaml:"entityId,omitempty"`
	Actions    []string `yaml:"actions,omitempty"`
}
