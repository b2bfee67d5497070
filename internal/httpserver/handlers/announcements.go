package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/herald/internal/announcer"
	"github.com/MrSnakeDoc/herald/internal/domain"
	"github.com/MrSnakeDoc/herald/internal/httpserver/deps"
)

// ListAnnouncements serves one view of the feed.
//
//	GET /api/announcements?category=&archived=&unreadOnly=&page=&limit=
func ListAnnouncements(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseFilter(r)
		if err != nil {
			fail(w, http.StatusBadRequest, err.Error())
			return
		}
		ok(w, d.Announcer.GetAnnouncements(r.Context(), f))
	}
}

type unreadResponse struct {
	Count      int                     `json:"count"`
	ByCategory map[domain.Category]int `json:"byCategory"`
}

// UnreadCount returns the unread counters. ?ids=a,b restricts the total to
// the given ids.
func UnreadCount(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var scope []string
		if ids := r.URL.Query().Get("ids"); ids != "" {
			for _, id := range strings.Split(ids, ",") {
				if id = strings.TrimSpace(id); id != "" {
					scope = append(scope, id)
				}
			}
		}
		ok(w, unreadResponse{
			Count:      d.Announcer.UnreadCount(scope...),
			ByCategory: d.Announcer.UnreadByCategory(),
		})
	}
}

// GetAnnouncement serves one entry.
func GetAnnouncement(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := d.Announcer.GetAnnouncement(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, announcer.ErrNotFound) {
				fail(w, http.StatusNotFound, err.Error())
				return
			}
			mutationFailed(w, r, d, "get", err)
			return
		}
		ok(w, a)
	}
}

type markReadRequest struct {
	IDs []string `json:"ids"`
	All bool     `json:"all"`
}

// MarkRead marks the given ids read, or everything with {"all":true}.
func MarkRead(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req markReadRequest
		if err := decodeBody(r, &req); err != nil {
			fail(w, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}

		if req.All {
			if err := d.Announcer.MarkAllAsRead(r.Context()); err != nil {
				mutationFailed(w, r, d, "mark-all-read", err)
				return
			}
			ok(w, nil)
			return
		}

		if len(req.IDs) == 0 {
			fail(w, http.StatusBadRequest, "ids or all is required")
			return
		}
		for _, id := range req.IDs {
			if err := d.Announcer.MarkAsRead(r.Context(), id); err != nil {
				mutationFailed(w, r, d, "mark-read", err)
				return
			}
		}
		ok(w, nil)
	}
}

// Archive moves one entry to the archive view.
func Archive(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Announcer.Archive(r.Context(), chi.URLParam(r, "id")); err != nil {
			mutationFailed(w, r, d, "archive", err)
			return
		}
		ok(w, nil)
	}
}

// Delete removes one entry.
func Delete(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Announcer.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			mutationFailed(w, r, d, "delete", err)
			return
		}
		ok(w, nil)
	}
}

// maxSnoozeMs is the longest snooze a time.Duration can hold.
const maxSnoozeMs = math.MaxInt64 / int64(time.Millisecond)

type snoozeRequest struct {
	DurationMs int64 `json:"durationMs"`
}

// Snooze hides one entry for durationMs.
func Snooze(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req snoozeRequest
		if err := decodeBody(r, &req); err != nil {
			fail(w, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}

		if req.DurationMs > maxSnoozeMs {
			fail(w, http.StatusBadRequest, fmt.Sprintf("durationMs must be <= %d", maxSnoozeMs))
			return
		}

		dur := time.Duration(req.DurationMs) * time.Millisecond
		if err := d.Announcer.Snooze(r.Context(), chi.URLParam(r, "id"), dur); err != nil {
			mutationFailed(w, r, d, "snooze", err)
			return
		}
		ok(w, nil)
	}
}

// maxPageLimit caps the page size a client may ask for.
const maxPageLimit = 100

func parseFilter(r *http.Request) (domain.Filter, error) {
	q := r.URL.Query()
	var f domain.Filter
	var err error

	if f.Category, err = domain.ParseCategory(q.Get("category")); err != nil {
		return f, err
	}
	if f.Archived, err = parseBool(q.Get("archived")); err != nil {
		return f, fmt.Errorf("archived: %w", err)
	}
	if f.UnreadOnly, err = parseBool(q.Get("unreadOnly")); err != nil {
		return f, fmt.Errorf("unreadOnly: %w", err)
	}
	if f.Page, err = parseCount(q.Get("page")); err != nil {
		return f, fmt.Errorf("page: %w", err)
	}
	if f.Limit, err = parseCount(q.Get("limit")); err != nil {
		return f, fmt.Errorf("limit: %w", err)
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}
	return f, nil
}

func parseBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}

func parseCount(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("must be >= 0, got %d", n)
	}
	return n, nil
}
