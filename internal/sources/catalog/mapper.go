package catalog

import (
	"math/rand"
	"regexp"
	"sort"
	"time"

	"github.com/MrSnakeDoc/herald/internal/domain"
)

var placeholder = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// Mapper converts catalog entries into domain announcements
type Mapper struct {
	now func() time.Time
}

// NewMapper creates a new mapper. A nil clock means time.Now.
func NewMapper(now func() time.Time) *Mapper {
	if now == nil {
		now = time.Now
	}
	return &Mapper{now: now}
}

// MapSeed converts the seed entries, classified and newest first.
func (m *Mapper) MapSeed(c *Catalog) []domain.Announcement {
	now := m.now()
	out := make([]domain.Announcement, 0, len(c.Seed))
	for _, s := range c.Seed {
		a := domain.Announcement{
			ID:         s.ID,
			Type:       s.Type,
			Title:      s.Title,
			Context:    s.Context,
			Timestamp:  now.Add(-time.Duration(s.MinutesAgo) * time.Minute),
			IsRead:     s.IsRead,
			IsArchived: s.IsArchived,
			EntityID:   s.EntityID,
			Actions:    append([]string(nil), s.Actions...),
		}
		a.Classify()
		out = append(out, a)
	}

	// seed order in the file is not trusted
	sort.Slice(out, func(i, j int) bool { return domain.Newer(out[i], out[j]) })
	return out
}

// Instantiate builds a raw announcement from an archetype, resolving
// placeholders with values drawn from r. The caller assigns the ID.
func (m *Mapper) Instantiate(a Archetype, id string, r *rand.Rand) domain.RawAnnouncement {
	keys := make([]string, 0, len(a.Fields))
	for key := range a.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	values := make(map[string]string, len(keys))
	for _, key := range keys {
		if options := a.Fields[key]; len(options) > 0 {
			values[key] = options[r.Intn(len(options))]
		}
	}

	ts := m.now()
	return domain.RawAnnouncement{
		ID:        id,
		Type:      a.Type,
		Title:     expand(a.Title, values),
		Context:   expand(a.Context, values),
		Timestamp: &ts,
		EntityID:  a.EntityID,
		Actions:   append([]string(nil), a.Actions...),
	}
}

// expand replaces {{key}} with its value; unknown keys become empty strings.
func expand(s string, values map[string]string) string {
	return placeholder.ReplaceAllStringFunc(s, func(match string) string {
		key := placeholder.FindStringSubmatch(match)[1]
		return values[key]
	})
}
