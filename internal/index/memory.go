package index

import (
	"sort"
	"sync"

	"github.com/MrSnakeDoc/herald/internal/domain"
)

// MemoryIndex is the in-memory announcement store and the single source of
// truth for reads. Entries are only reachable through its methods; every
// returned value is a copy.
type MemoryIndex struct {
	mu    sync.RWMutex
	items map[string]domain.Announcement // ID -> Announcement
}

// NewMemoryIndex creates an empty store
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		items: make(map[string]domain.Announcement),
	}
}

// Replace hydrates the store with a full list, dropping everything else.
func (idx *MemoryIndex) Replace(items []domain.Announcement) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.items = make(map[string]domain.Announcement, len(items))
	for _, a := range items {
		idx.items[a.ID] = a.Clone()
	}
}

// Upsert inserts or replaces by ID. It returns the previous entry, if any.
func (idx *MemoryIndex) Upsert(a domain.Announcement) (domain.Announcement, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	prev, existed := idx.items[a.ID]
	idx.items[a.ID] = a.Clone()
	return prev, existed
}

// Remove deletes by ID. Removing an unknown ID is a no-op.
func (idx *MemoryIndex) Remove(id string) (domain.Announcement, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	prev, existed := idx.items[id]
	if existed {
		delete(idx.items, id)
	}
	return prev, existed
}

// Get returns a copy of the entry.
func (idx *MemoryIndex) Get(id string) (domain.Announcement, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	a, ok := idx.items[id]
	if !ok {
		return domain.Announcement{}, false
	}
	return a.Clone(), true
}

// MarkRead sets IsRead on one entry. changed is false when the entry is
// missing or already read; prev is the pre-call state for reverts.
func (idx *MemoryIndex) MarkRead(id string) (prev domain.Announcement, changed bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	a, ok := idx.items[id]
	if !ok || a.IsRead {
		return domain.Announcement{}, false
	}
	prev = a.Clone()
	a.IsRead = true
	idx.items[id] = a
	return prev, true
}

// MarkAllRead sets IsRead on every entry and returns the pre-call state of
// the entries that actually changed.
func (idx *MemoryIndex) MarkAllRead() []domain.Announcement {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var changed []domain.Announcement
	for id, a := range idx.items {
		if a.IsRead {
			continue
		}
		changed = append(changed, a.Clone())
		a.IsRead = true
		idx.items[id] = a
	}
	sortNewestFirst(changed)
	return changed
}

// Archive sets IsArchived. changed is false when missing or already archived.
func (idx *MemoryIndex) Archive(id string) (prev domain.Announcement, changed bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	a, ok := idx.items[id]
	if !ok || a.IsArchived {
		return domain.Announcement{}, false
	}
	prev = a.Clone()
	a.IsArchived = true
	idx.items[id] = a
	return prev, true
}

// List returns a sorted snapshot of one view.
func (idx *MemoryIndex) List(f domain.Filter) []domain.Announcement {
	idx.mu.RLock()
	out := make([]domain.Announcement, 0, len(idx.items))
	for _, a := range idx.items {
		if !matches(a, f) {
			continue
		}
		out = append(out, a.Clone())
	}
	idx.mu.RUnlock()

	sortNewestFirst(out)
	return paginate(out, f.Page, f.Limit)
}

// All returns every entry of both views, newest first.
func (idx *MemoryIndex) All() []domain.Announcement {
	idx.mu.RLock()
	out := make([]domain.Announcement, 0, len(idx.items))
	for _, a := range idx.items {
		out = append(out, a.Clone())
	}
	idx.mu.RUnlock()

	sortNewestFirst(out)
	return out
}

// Count returns the number of entries matching the filter, ignoring pagination.
func (idx *MemoryIndex) Count(f domain.Filter) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := 0
	for _, a := range idx.items {
		if matches(a, f) {
			n++
		}
	}
	return n
}

// Len returns the total number of entries in both views.
func (idx *MemoryIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.items)
}

// UnreadCount counts unread entries of the default view. When scope is
// given, only those IDs are considered.
func (idx *MemoryIndex) UnreadCount(scope ...string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(scope) > 0 {
		n := 0
		seen := make(map[string]bool, len(scope))
		for _, id := range scope {
			if seen[id] {
				continue
			}
			seen[id] = true
			if a, ok := idx.items[id]; ok && !a.IsArchived && !a.IsRead {
				n++
			}
		}
		return n
	}

	n := 0
	for _, a := range idx.items {
		if !a.IsArchived && !a.IsRead {
			n++
		}
	}
	return n
}

// UnreadByCategory returns the unread counters of the default view. Every
// category is present, zero included.
func (idx *MemoryIndex) UnreadByCategory() map[domain.Category]int {
	counts := make(map[domain.Category]int, len(domain.Categories))
	for _, c := range domain.Categories {
		counts[c] = 0
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	for _, a := range idx.items {
		if !a.IsArchived && !a.IsRead {
			counts[a.Category]++
		}
	}
	return counts
}

func matches(a domain.Announcement, f domain.Filter) bool {
	if a.IsArchived != f.Archived {
		return false
	}
	if !f.Archived && f.Category != "" && a.Category != f.Category {
		return false
	}
	if f.UnreadOnly && a.IsRead {
		return false
	}
	return true
}

func sortNewestFirst(items []domain.Announcement) {
	sort.Slice(items, func(i, j int) bool {
		return domain.Newer(items[i], items[j])
	})
}

func paginate(items []domain.Announcement, page, limit int) []domain.Announcement {
	if limit <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	if page > domain.TotalPages(len(items), limit) {
		return []domain.Announcement{}
	}
	start := (page - 1) * limit
	end := len(items)
	if limit < end-start {
		end = start + limit
	}
	return items[start:end]
}
