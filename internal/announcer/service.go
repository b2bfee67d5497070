// Package announcer is the single entry point for announcement consumers. It
// composes the store, the subscriber bus, the transport and the gateway, and
// owns the optimistic mutation protocol.
package announcer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/herald/internal/bus"
	"github.com/MrSnakeDoc/herald/internal/domain"
	"github.com/MrSnakeDoc/herald/internal/gateway"
	"github.com/MrSnakeDoc/herald/internal/index"
	"github.com/MrSnakeDoc/herald/internal/logger"
	"github.com/MrSnakeDoc/herald/internal/scheduler"
	"github.com/MrSnakeDoc/herald/internal/transport"
)

var (
	// ErrNotFound is returned by GetAnnouncement for unknown ids.
	ErrNotFound = errors.New("announcement not found")
	// ErrInvalidDuration is returned by Snooze for non-positive durations.
	ErrInvalidDuration = errors.New("snooze duration must be positive")
)

// Gateway is the subset of the persistence gateway the service needs.
type Gateway interface {
	List(ctx context.Context, f domain.Filter) gateway.Page
	Get(ctx context.Context, id string) (domain.Announcement, error)
	MarkRead(ctx context.Context, ids []string) error
	MarkAllRead(ctx context.Context) error
	Archive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Snooze(ctx context.Context, id string, d time.Duration) error
	// Observe keeps the last known-good list in step with pushed events.
	Observe(kind domain.EventKind, a domain.Announcement)
}

// TransportFactory builds the transport around the service's inbound handler.
type TransportFactory func(handler transport.Handler) transport.Transport

// Options tunes the service. Zero values pick the defaults.
type Options struct {
	UserID    string // resolves readBy on inbound events
	Role      string // forwarded on list calls
	CompanyID string // forwarded on list calls

	PollInterval        time.Duration
	SnoozeCheckInterval time.Duration

	Now func() time.Time
}

// Page is one view of the feed.
type Page struct {
	Items      []domain.Announcement `json:"notifications"`
	Pagination domain.Pagination     `json:"pagination"`
}

// Status is a point-in-time view of the service state.
type Status struct {
	Connected bool             `json:"connected"`
	Transport transport.Status `json:"transport"`
	Mode      transport.Mode   `json:"mode"`
	Hydrated  bool             `json:"hydrated"`
	LastSync  time.Time        `json:"lastSync"`
	Count     int              `json:"count"`
	Unread    int              `json:"unread"`
	Snoozed   int              `json:"snoozed"`

	Delivered     int64 `json:"delivered"`     // inbound events from the transport
	Subscribers   int   `json:"subscribers"`   // live registrations, all kinds
	HandlerPanics int64 `json:"handlerPanics"` // subscriber callbacks that panicked
}

// Service is the announcement facade. All methods are safe for concurrent
// use. Subscribers run synchronously on the goroutine that produced the event
// and must not call Disconnect from inside a callback.
type Service struct {
	opts      Options
	store     *index.MemoryIndex
	bus       *bus.Bus
	gateway   Gateway
	transport transport.Transport
	refresher *scheduler.FeedRefresher
	snoozes   *scheduler.SnoozeReleaser
	logger    logger.Logger

	lifecycle sync.Mutex // serializes Connect and Disconnect
	active    atomic.Bool
	hydrated  atomic.Bool
	lastSync  atomic.Int64 // unix nanos of the last Refresh
	cancel    context.CancelFunc
}

// New wires a service. The store and bus may be shared with other readers.
func New(
	opts Options,
	store *index.MemoryIndex,
	events *bus.Bus,
	gw Gateway,
	newTransport TransportFactory,
	log logger.Logger,
) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}
	if store == nil {
		store = index.NewMemoryIndex()
	}
	if events == nil {
		events = bus.New(log)
	}

	s := &Service{
		opts:    opts,
		store:   store,
		bus:     events,
		gateway: gw,
		logger:  log,
	}
	s.transport = newTransport(s.handleInbound)
	s.refresher = scheduler.NewFeedRefresher(s, s.transportConnected, log, opts.PollInterval)
	s.snoozes = scheduler.NewSnoozeReleaser(log, opts.SnoozeCheckInterval, s.resurface)
	return s
}

// ─────────────────────────────
// Lifecycle
// ─────────────────────────────

// Connect starts the transport and the background tasks. A transport that
// cannot reach its endpoint leaves the service connected at this level but
// serving reads from the gateway.
func (s *Service) Connect(ctx context.Context, credential string) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.active.Load() {
		return nil
	}

	s.active.Store(true)
	if err := s.transport.Connect(ctx, credential); err != nil {
		s.active.Store(false)
		return fmt.Errorf("connect transport: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	_ = s.refresher.Start(runCtx)
	_ = s.snoozes.Start(runCtx)

	s.logger.Info("announcer connected",
		logger.String("mode", string(s.transport.Mode())),
		logger.String("transport", string(s.transport.Status())))
	return nil
}

// Disconnect stops the transport and the background tasks. No event is
// emitted by the service once it returns.
func (s *Service) Disconnect() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if !s.active.Swap(false) {
		return
	}

	// cancel first so an in-flight poll gives up its retries
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.transport.Disconnect()
	s.refresher.Stop()
	s.snoozes.Stop()

	s.logger.Info("announcer disconnected")
}

// Status reports the service state.
func (s *Service) Status() Status {
	return Status{
		Connected: s.active.Load(),
		Transport: s.transport.Status(),
		Mode:      s.transport.Mode(),
		Hydrated:  s.hydrated.Load(),
		LastSync:  s.LastSync(),
		Count:     s.store.Len(),
		Unread:    s.store.UnreadCount(),
		Snoozed:   s.snoozes.Len(),

		Delivered:     s.transport.Delivered(),
		Subscribers:   s.subscribers(),
		HandlerPanics: s.bus.Panics(),
	}
}

func (s *Service) subscribers() int {
	n := 0
	for _, kind := range domain.EventKinds {
		n += s.bus.Count(kind)
	}
	return n
}

// LastSync returns when the feed was last reconciled with the gateway.
func (s *Service) LastSync() time.Time {
	n := s.lastSync.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func (s *Service) transportConnected() bool {
	return s.transport.Status() == transport.StatusConnected
}

// ─────────────────────────────
// Subscriptions and reads
// ─────────────────────────────

// On registers cb for one event kind and returns its unsubscribe function.
func (s *Service) On(kind domain.EventKind, cb func(domain.Event)) func() {
	return s.bus.On(kind, cb)
}

// GetAnnouncements returns one view of the feed. The store is refreshed from
// the gateway first when it was never hydrated or the transport is down.
func (s *Service) GetAnnouncements(ctx context.Context, f domain.Filter) Page {
	if !s.hydrated.Load() || !s.transportConnected() {
		_ = s.Refresh(ctx)
	}

	total := s.store.Count(f)
	pagination := domain.Pagination{Page: f.Page, Limit: f.Limit, Total: total, TotalPages: 1}
	if pagination.Page < 1 {
		pagination.Page = 1
	}
	if f.Limit > 0 {
		pagination.TotalPages = domain.TotalPages(total, f.Limit)
	} else {
		pagination.Limit = total
	}

	return Page{Items: s.store.List(f), Pagination: pagination}
}

// GetAnnouncement returns one entry from the store, or from the gateway when
// the store does not know it. Snoozed entries are not found.
func (s *Service) GetAnnouncement(ctx context.Context, id string) (domain.Announcement, error) {
	if a, ok := s.store.Get(id); ok {
		return a, nil
	}
	if s.snoozes.Pending(id) {
		return domain.Announcement{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	a, err := s.gateway.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return domain.Announcement{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return domain.Announcement{}, err
	}
	return a, nil
}

// UnreadCount counts unread entries of the default view, optionally limited
// to the given ids.
func (s *Service) UnreadCount(scope ...string) int {
	return s.store.UnreadCount(scope...)
}

// UnreadByCategory returns the unread counters per category.
func (s *Service) UnreadByCategory() map[domain.Category]int {
	return s.store.UnreadByCategory()
}

// Refresh reconciles the store with the gateway: unseen entries are emitted
// as new, changed ones as update. When the backend answered with complete
// lists, entries it no longer knows are removed and emitted as delete.
func (s *Service) Refresh(ctx context.Context) error {
	started := s.opts.Now()
	base := domain.Filter{Role: s.opts.Role, CompanyID: s.opts.CompanyID}
	inbox := s.gateway.List(ctx, base)
	base.Archived = true
	archive := s.gateway.List(ctx, base)

	seen := make(map[string]bool, len(inbox.Items)+len(archive.Items))
	added, updated, removed := 0, 0, 0

	for _, page := range []gateway.Page{inbox, archive} {
		for _, a := range page.Items {
			seen[a.ID] = true
			if s.snoozes.Pending(a.ID) {
				if !page.Stale {
					s.snoozes.Update(a)
				}
				continue
			}

			cur, known := s.store.Get(a.ID)
			if known {
				// the snapshot may lag behind events already applied
				if page.Stale {
					continue
				}
				a = keepAcknowledged(cur, a)
				if cur.Equal(a) {
					continue
				}
			}

			if _, existed := s.store.Upsert(a); existed {
				s.emitLive(domain.EventUpdate, a)
				updated++
				continue
			}
			s.emitLive(domain.EventNew, a)
			added++
		}
	}

	if complete(inbox) && complete(archive) {
		for _, a := range s.store.All() {
			// entries that arrived while the lists were in flight are kept
			if seen[a.ID] || !a.Timestamp.Before(started) {
				continue
			}
			if prev, ok := s.store.Remove(a.ID); ok {
				s.emitLive(domain.EventDelete, prev)
				removed++
			}
		}
	}

	s.hydrated.Store(true)
	s.lastSync.Store(s.opts.Now().UnixNano())
	s.logger.Debug("feed refreshed",
		logger.Bool("stale", inbox.Stale || archive.Stale),
		logger.Int("added", added),
		logger.Int("updated", updated),
		logger.Int("removed", removed))
	return ctx.Err()
}

// keepAcknowledged returns next with the read and archived flags of cur
// carried over: once set they are never cleared by a refresh.
func keepAcknowledged(cur, next domain.Announcement) domain.Announcement {
	next.IsRead = next.IsRead || cur.IsRead
	next.IsArchived = next.IsArchived || cur.IsArchived
	return next
}

// complete reports whether a page is the whole view as the backend sees it.
func complete(p gateway.Page) bool {
	return !p.Stale && p.Pagination.TotalPages <= 1
}

func (s *Service) emit(kind domain.EventKind, a domain.Announcement) {
	s.bus.Emit(kind, domain.Event{Kind: kind, Announcement: a.Clone()})
}

// emitLive is used for changes the caller did not ask for. They are only
// published while connected.
func (s *Service) emitLive(kind domain.EventKind, a domain.Announcement) {
	if !s.active.Load() {
		return
	}
	s.emit(kind, a)
}
