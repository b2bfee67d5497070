package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/MrSnakeDoc/herald/internal/domain"
	"github.com/MrSnakeDoc/herald/internal/logger"
)

// Page is one list result.
type Page struct {
	Items      []domain.Announcement
	Pagination domain.Pagination
	// Stale is true when the page was served from the snapshot.
	Stale bool
}

type listData struct {
	Notifications []domain.RawAnnouncement `json:"notifications"`
	Pagination    *domain.Pagination       `json:"pagination,omitempty"`
}

type markReadBody struct {
	NotificationIDs []string `json:"notificationIds,omitempty"`
	All             bool     `json:"all,omitempty"`
}

type snoozeBody struct {
	DurationMs int64 `json:"durationMs"`
}

// List fetches one view. It never fails: on any backend problem the
// snapshot is served instead, flagged Stale.
func (c *Client) List(ctx context.Context, f domain.Filter) Page {
	if c.Offline() {
		return c.fromSnapshot(f)
	}

	resp, err := c.do(ctx, http.MethodGet, "/", listQuery(f), nil)
	if err != nil {
		c.logger.Warn("list failed, serving snapshot", logger.Error(err))
		return c.fromSnapshot(f)
	}
	if !resp.ok() {
		c.logger.Warn("list failed, serving snapshot",
			logger.Int("status", resp.status),
			logger.Error(resp.failure()))
		return c.fromSnapshot(f)
	}

	var data listData
	if err := resp.decode(&data); err != nil {
		c.logger.Warn("list response unreadable, serving snapshot", logger.Error(err))
		return c.fromSnapshot(f)
	}

	items := make([]domain.Announcement, 0, len(data.Notifications))
	for _, raw := range data.Notifications {
		a, err := raw.Normalize(c.userID)
		if err != nil {
			c.logger.Debug("skipping malformed announcement", logger.Error(err))
			continue
		}
		items = append(items, a)
	}
	sort.Slice(items, func(i, j int) bool { return domain.Newer(items[i], items[j]) })

	c.absorb(ctx, f, items)

	pagination := paginationFor(f, len(items))
	if data.Pagination != nil {
		pagination = *data.Pagination
	}
	return Page{Items: items, Pagination: pagination}
}

// Get fetches a single announcement, falling back to the snapshot.
func (c *Client) Get(ctx context.Context, id string) (domain.Announcement, error) {
	if c.Offline() {
		return c.getSnapshot(id)
	}

	resp, err := c.do(ctx, http.MethodGet, "/"+url.PathEscape(id), nil, nil)
	if err == nil && resp.status == http.StatusNotFound {
		return domain.Announcement{}, &Error{Op: "get", Status: resp.status, Err: errors.New(id), kind: ErrNotFound}
	}
	if err == nil && resp.ok() {
		var raw domain.RawAnnouncement
		if err = resp.decode(&raw); err == nil {
			var a domain.Announcement
			if a, err = raw.Normalize(c.userID); err == nil {
				c.snapshot.Upsert(a)
				return a, nil
			}
		}
	} else if err == nil {
		err = resp.failure()
	}

	c.logger.Warn("get failed, trying snapshot",
		logger.String("id", id),
		logger.Error(err))
	return c.getSnapshot(id)
}

// MarkRead marks the given ids read on the backend.
func (c *Client) MarkRead(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := c.mutate(ctx, "mark-read", http.MethodPost, "/mark-read", markReadBody{NotificationIDs: ids}); err != nil {
		return err
	}
	for _, id := range ids {
		c.snapshot.MarkRead(id)
	}
	return nil
}

// MarkAllRead marks every announcement read on the backend.
func (c *Client) MarkAllRead(ctx context.Context) error {
	if err := c.mutate(ctx, "mark-read", http.MethodPost, "/mark-read", markReadBody{All: true}); err != nil {
		return err
	}
	c.snapshot.MarkAllRead()
	return nil
}

// Archive moves an announcement to the archive view on the backend.
func (c *Client) Archive(ctx context.Context, id string) error {
	if err := c.mutate(ctx, "archive", http.MethodPost, "/"+url.PathEscape(id)+"/archive", nil); err != nil {
		return err
	}
	c.snapshot.Archive(id)
	return nil
}

// Delete removes an announcement on the backend.
func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.mutate(ctx, "delete", http.MethodDelete, "/"+url.PathEscape(id), nil); err != nil {
		return err
	}
	c.snapshot.Remove(id)
	return nil
}

// Snooze hides an announcement on the backend for d. Backends without the
// endpoint answer 404, 405 or 501, reported as ErrUnsupported.
func (c *Client) Snooze(ctx context.Context, id string, d time.Duration) error {
	if c.Offline() {
		return nil
	}

	body := snoozeBody{DurationMs: d.Milliseconds()}
	resp, err := c.do(ctx, http.MethodPatch, "/"+url.PathEscape(id)+"/snooze", nil, body)
	if err != nil {
		return &Error{Op: "snooze", Err: err, kind: ErrMutationFailed}
	}

	switch resp.status {
	case http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusNotImplemented:
		return &Error{Op: "snooze", Status: resp.status, Err: resp.failure(), kind: ErrUnsupported}
	}
	return checkMutation("snooze", resp)
}

// mutate runs a mutating call. Offline clients accept every mutation.
func (c *Client) mutate(ctx context.Context, op, method, path string, body interface{}) error {
	if c.Offline() {
		return nil
	}

	resp, err := c.do(ctx, method, path, nil, body)
	if err != nil {
		return &Error{Op: op, Err: err, kind: ErrMutationFailed}
	}
	return checkMutation(op, resp)
}

func checkMutation(op string, resp *response) error {
	if !resp.ok() {
		return &Error{Op: op, Status: resp.status, Err: resp.failure(), kind: ErrMutationFailed}
	}
	if err := resp.decode(nil); err != nil {
		return &Error{Op: op, Status: resp.status, Err: err, kind: ErrMutationFailed}
	}
	return nil
}

func (c *Client) getSnapshot(id string) (domain.Announcement, error) {
	if a, ok := c.snapshot.Get(id); ok {
		return a, nil
	}
	return domain.Announcement{}, &Error{Op: "get", Err: errors.New(id), kind: ErrNotFound}
}

func listQuery(f domain.Filter) url.Values {
	q := url.Values{}
	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		q.Set("page", strconv.Itoa(page))
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.UnreadOnly {
		q.Set("unreadOnly", "true")
	}
	if f.Category != "" && !f.Archived {
		q.Set("category", string(f.Category))
	}
	if f.Archived {
		q.Set("archived", "true")
	}
	if f.Role != "" {
		q.Set("role", f.Role)
	}
	if f.CompanyID != "" {
		q.Set("companyId", f.CompanyID)
	}
	return q
}
