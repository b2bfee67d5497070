package domain

import (
	"encoding/json"
	"time"
)

// Announcement is the unit of delivery: one notification-worthy event.
//
// It is NOT tied to the socket, the REST backend or the synthetic catalog.
// All inputs are normalized into this structure before entering the store.
//
// An Announcement is uniquely identified by its ID.
type Announcement struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the opaque identifier, stable across transport and storage.
	ID string `json:"id"`

	// Type is the raw event kind as produced by the source.
	// Example: sale, inventory, debt
	Type string `json:"type"`

	// Category is derived from Type through Classify.
	// Producers never set it directly.
	Category Category `json:"category"`

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	Title   string `json:"title"`
	Context string `json:"context"`

	// Timestamp is when the event occurred. The store sorts on it, newest first.
	Timestamp time.Time `json:"timestamp"`

	// EntityID references the business object the event concerns.
	EntityID string `json:"entityId,omitempty"`

	// Actions are advisory action identifiers for the UI (e.g. view_invoice).
	Actions []string `json:"actions,omitempty"`

	// Payload is forwarded untouched from the producer.
	Payload json.RawMessage `json:"payload,omitempty"`

	// ─────────────────────────────
	// State (monotonic through normal operation)
	// ─────────────────────────────

	IsRead     bool `json:"isRead"`
	IsArchived bool `json:"isArchived"`
}

// Classify sets Category from Type.
func (a *Announcement) Classify() {
	a.Category = Classify(a.Type)
}

// Clone returns a deep copy so callers never share slices with the store.
func (a Announcement) Clone() Announcement {
	out := a
	if a.Actions != nil {
		out.Actions = append([]string(nil), a.Actions...)
	}
	if a.Payload != nil {
		out.Payload = append(json.RawMessage(nil), a.Payload...)
	}
	return out
}

// Equal reports whether two announcements carry the same observable state.
func (a Announcement) Equal(b Announcement) bool {
	if a.ID != b.ID || a.Type != b.Type || a.Category != b.Category ||
		a.Title != b.Title || a.Context != b.Context || a.EntityID != b.EntityID ||
		a.IsRead != b.IsRead || a.IsArchived != b.IsArchived ||
		!a.Timestamp.Equal(b.Timestamp) || string(a.Payload) != string(b.Payload) ||
		len(a.Actions) != len(b.Actions) {
		return false
	}
	for i := range a.Actions {
		if a.Actions[i] != b.Actions[i] {
			return false
		}
	}
	return true
}

// Newer reports whether a sorts before b in the feed: timestamp descending,
// ties broken by ID descending so the order is total.
func Newer(a, b Announcement) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	return a.ID > b.ID
}

// Filter selects a view of the feed.
type Filter struct {
	// Archived selects the archive view. The two views are disjoint.
	Archived bool
	// Category narrows the default view. Ignored in the archive view.
	Category Category
	// UnreadOnly keeps only entries with IsRead=false.
	UnreadOnly bool

	// Page is 1-based. Zero Limit means no pagination.
	Page  int
	Limit int

	// Role and CompanyID are forwarded to the backend only.
	Role      string
	CompanyID string
}

// Pagination mirrors the backend pagination block.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// TotalPages returns how many pages of limit entries hold total entries,
// without overflowing for large limits.
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return pages
}
