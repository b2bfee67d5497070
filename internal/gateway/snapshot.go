package gateway

import (
	"context"

	"github.com/MrSnakeDoc/herald/internal/domain"
	"github.com/MrSnakeDoc/herald/internal/logger"
)

// SnapshotStore persists the last known-good list outside the process.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, items []domain.Announcement) error
}

// RestoreSnapshot replaces the snapshot, e.g. with a copy loaded from Redis
// at startup. An empty list keeps the current one.
func (c *Client) RestoreSnapshot(items []domain.Announcement) {
	if len(items) == 0 {
		return
	}
	c.snapshot.Replace(items)
	c.logger.Info("snapshot restored", logger.Int("count", len(items)))
}

// absorb folds a successful list response into the snapshot. A complete
// response is authoritative for its view, so entries of that view missing
// from it are dropped.
func (c *Client) absorb(ctx context.Context, f domain.Filter, items []domain.Announcement) {
	if f.Limit <= 0 && !f.UnreadOnly {
		keep := make(map[string]bool, len(items))
		for _, a := range items {
			keep[a.ID] = true
		}
		view := domain.Filter{Archived: f.Archived, Category: f.Category}
		for _, old := range c.snapshot.List(view) {
			if !keep[old.ID] {
				c.snapshot.Remove(old.ID)
			}
		}
	}
	for _, a := range items {
		c.snapshot.Upsert(a)
	}
	c.persist(ctx)
}

// Observe folds a pushed event into the snapshot, so a backend outage serves
// what the socket last said rather than what the last list returned.
func (c *Client) Observe(kind domain.EventKind, a domain.Announcement) {
	switch kind {
	case domain.EventDelete:
		if _, ok := c.snapshot.Remove(a.ID); !ok {
			return
		}
	case domain.EventNew, domain.EventUpdate:
		c.snapshot.Upsert(a)
	default:
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	c.persist(ctx)
}

// persist saves the snapshot (best effort).
func (c *Client) persist(ctx context.Context) {
	if c.snapshots == nil {
		return
	}
	if err := c.snapshots.SaveSnapshot(ctx, c.snapshot.All()); err != nil {
		c.logger.Warn("failed to persist snapshot", logger.Error(err))
	}
}

// fromSnapshot serves a list request locally.
func (c *Client) fromSnapshot(f domain.Filter) Page {
	items := c.snapshot.List(f)
	total := c.snapshot.Count(f)
	return Page{
		Items:      items,
		Pagination: paginationFor(f, total),
		Stale:      true,
	}
}

func paginationFor(f domain.Filter, total int) domain.Pagination {
	p := domain.Pagination{Page: f.Page, Limit: f.Limit, Total: total, TotalPages: 1}
	if p.Page < 1 {
		p.Page = 1
	}
	if f.Limit > 0 {
		p.TotalPages = domain.TotalPages(total, f.Limit)
	}
	if p.Limit <= 0 {
		p.Limit = total
	}
	return p
}
