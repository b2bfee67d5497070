package announcer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/herald/internal/domain"
	"github.com/MrSnakeDoc/herald/internal/gateway"
	"github.com/MrSnakeDoc/herald/internal/transport"
)

// ─────────────────────────────
// Fakes
// ─────────────────────────────

type fakeTransport struct {
	mu        sync.Mutex
	handler   transport.Handler
	status    transport.Status
	reachable bool
	creds     []string
	pushed    atomic.Int64
}

func (f *fakeTransport) Connect(_ context.Context, credential string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creds = append(f.creds, credential)
	if f.reachable {
		f.status = transport.StatusConnected
	}
	return nil
}

func (f *fakeTransport) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = transport.StatusDisconnected
}

func (f *fakeTransport) Status() transport.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status == "" {
		return transport.StatusDisconnected
	}
	return f.status
}

func (f *fakeTransport) Mode() transport.Mode { return transport.ModeLive }

func (f *fakeTransport) Delivered() int64 { return f.pushed.Load() }

// push delivers an event the way a transport goroutine would.
func (f *fakeTransport) push(kind domain.EventKind, raw domain.RawAnnouncement) {
	f.pushed.Add(1)
	f.handler(domain.InboundEvent{Kind: kind, Raw: raw})
}

type fakeGateway struct {
	mu      sync.Mutex
	inbox   []domain.Announcement
	archive []domain.Announcement
	stale   bool
	fail    map[string]error
	calls   map[string]int
	byID    map[string]domain.Announcement
	// block makes List wait for its context
	block    bool
	observed []string
}

func newFakeGateway(items ...domain.Announcement) *fakeGateway {
	g := &fakeGateway{fail: map[string]error{}, calls: map[string]int{}, byID: map[string]domain.Announcement{}}
	g.set(items...)
	return g
}

func (g *fakeGateway) set(items ...domain.Announcement) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inbox, g.archive = nil, nil
	for _, a := range items {
		if a.IsArchived {
			g.archive = append(g.archive, a)
		} else {
			g.inbox = append(g.inbox, a)
		}
	}
}

func (g *fakeGateway) failWith(op string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail[op] = err
}

func (g *fakeGateway) count(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

func (g *fakeGateway) record(op string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[op]++
	return g.fail[op]
}

func (g *fakeGateway) List(ctx context.Context, f domain.Filter) gateway.Page {
	g.mu.Lock()
	g.calls["list"]++
	block := g.block
	g.mu.Unlock()
	if block {
		<-ctx.Done()
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	src := g.inbox
	if f.Archived {
		src = g.archive
	}
	items := make([]domain.Announcement, len(src))
	copy(items, src)
	return gateway.Page{
		Items:      items,
		Pagination: domain.Pagination{Page: 1, Limit: len(items), Total: len(items), TotalPages: 1},
		Stale:      g.stale,
	}
}

func (g *fakeGateway) Get(_ context.Context, id string) (domain.Announcement, error) {
	if err := g.record("get"); err != nil {
		return domain.Announcement{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if a, ok := g.byID[id]; ok {
		return a, nil
	}
	return domain.Announcement{}, fmt.Errorf("get: %w", gateway.ErrNotFound)
}

func (g *fakeGateway) MarkRead(context.Context, []string) error { return g.record("mark-read") }
func (g *fakeGateway) MarkAllRead(context.Context) error        { return g.record("mark-all-read") }
func (g *fakeGateway) Archive(context.Context, string) error    { return g.record("archive") }
func (g *fakeGateway) Delete(context.Context, string) error     { return g.record("delete") }
func (g *fakeGateway) Snooze(context.Context, string, time.Duration) error {
	return g.record("snooze")
}

func (g *fakeGateway) Observe(kind domain.EventKind, a domain.Announcement) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.observed = append(g.observed, string(kind)+":"+a.ID)
}

func (g *fakeGateway) observations() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.observed...)
}

// recorder captures every emitted event in order.
type recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recorder) handle(ev domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) all() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Event(nil), r.events...)
}

func (r *recorder) kinds() []string {
	var out []string
	for _, ev := range r.all() {
		out = append(out, string(ev.Kind)+":"+ev.Announcement.ID)
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type harness struct {
	svc *Service
	tr  *fakeTransport
	gw  *fakeGateway
	rec *recorder
}

var baseTime = time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

func item(id, typ string, minutesAgo int) domain.Announcement {
	a := domain.Announcement{
		ID:        id,
		Type:      typ,
		Title:     "title " + id,
		Timestamp: baseTime.Add(-time.Duration(minutesAgo) * time.Minute),
	}
	a.Classify()
	return a
}

func raw(id, typ string) domain.RawAnnouncement {
	ts := baseTime
	return domain.RawAnnouncement{ID: id, Type: typ, Title: "title " + id, Timestamp: &ts}
}

func newHarness(t *testing.T, opts Options, items ...domain.Announcement) *harness {
	t.Helper()

	h := &harness{
		tr:  &fakeTransport{reachable: true},
		gw:  newFakeGateway(items...),
		rec: &recorder{},
	}
	if opts.SnoozeCheckInterval == 0 {
		opts.SnoozeCheckInterval = time.Hour
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Hour
	}
	h.svc = New(opts, nil, nil, h.gw, func(handler transport.Handler) transport.Transport {
		h.tr.handler = handler
		return h.tr
	}, nil)

	for _, kind := range domain.EventKinds {
		h.svc.On(kind, h.rec.handle)
	}

	require.NoError(t, h.svc.Connect(context.Background(), "secret"))
	t.Cleanup(h.svc.Disconnect)

	// hydrate, then start every test from a clean event log
	h.svc.GetAnnouncements(context.Background(), domain.Filter{})
	h.rec.reset()
	return h
}

func ids(items []domain.Announcement) []string {
	out := make([]string, len(items))
	for i, a := range items {
		out[i] = a.ID
	}
	return out
}

// ─────────────────────────────
// Lifecycle and reads
// ─────────────────────────────

func TestConnect_passes_credential_and_is_idempotent(t *testing.T) {
	h := newHarness(t, Options{})

	require.NoError(t, h.svc.Connect(context.Background(), "other"))

	assert.Equal(t, []string{"secret"}, h.tr.creds)
	st := h.svc.Status()
	assert.True(t, st.Connected)
	assert.Equal(t, transport.StatusConnected, st.Transport)
	assert.True(t, st.Hydrated)
	assert.False(t, st.LastSync.IsZero())
}

func TestGetAnnouncements_views(t *testing.T) {
	archived := item("arch", "sale", 1)
	archived.IsArchived = true
	h := newHarness(t, Options{},
		item("old", "debt", 30),
		item("new", "sale", 1),
		item("mid", "promotion", 10),
		archived,
	)
	ctx := context.Background()

	page := h.svc.GetAnnouncements(ctx, domain.Filter{})
	assert.Equal(t, []string{"new", "mid", "old"}, ids(page.Items))
	assert.Equal(t, 3, page.Pagination.Total)

	arch := h.svc.GetAnnouncements(ctx, domain.Filter{Archived: true, Category: domain.CategoryDebts})
	assert.Equal(t, []string{"arch"}, ids(arch.Items), "category is ignored in the archive view")

	debts := h.svc.GetAnnouncements(ctx, domain.Filter{Category: domain.CategoryDebts})
	assert.Equal(t, []string{"old"}, ids(debts.Items))

	paged := h.svc.GetAnnouncements(ctx, domain.Filter{Page: 2, Limit: 2})
	assert.Equal(t, []string{"old"}, ids(paged.Items))
	assert.Equal(t, 2, paged.Pagination.TotalPages)
}

func TestGetAnnouncements_refreshes_while_transport_down(t *testing.T) {
	h := newHarness(t, Options{}, item("a", "sale", 1))
	h.tr.Disconnect()
	before := h.gw.count("list")

	h.gw.set(item("a", "sale", 1), item("b", "debt", 0))
	page := h.svc.GetAnnouncements(context.Background(), domain.Filter{})

	assert.Equal(t, []string{"b", "a"}, ids(page.Items))
	assert.Equal(t, before+2, h.gw.count("list"), "one list per view")
	assert.Equal(t, []string{"new:b"}, h.rec.kinds())
}

func TestGetAnnouncements_serves_cached_data_when_backend_stale(t *testing.T) {
	h := newHarness(t, Options{}, item("a", "sale", 1))
	h.tr.Disconnect()
	h.gw.mu.Lock()
	h.gw.stale = true
	h.gw.inbox = nil
	h.gw.mu.Unlock()

	page := h.svc.GetAnnouncements(context.Background(), domain.Filter{})

	assert.Equal(t, []string{"a"}, ids(page.Items), "a stale empty list must not wipe the feed")
	assert.Empty(t, h.rec.all())
}

func TestRefresh_reconciles(t *testing.T) {
	changed := item("keep", "sale", 5)
	h := newHarness(t, Options{}, changed, item("gone", "sale", 6))

	changed.Title = "edited"
	h.gw.set(changed, item("fresh", "debt", 1))
	require.NoError(t, h.svc.Refresh(context.Background()))

	assert.ElementsMatch(t, []string{"update:keep", "new:fresh", "delete:gone"}, h.rec.kinds())
	got, err := h.svc.GetAnnouncement(context.Background(), "keep")
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Title)
}

func TestRefresh_stale_snapshot_keeps_pushed_state(t *testing.T) {
	h := newHarness(t, Options{}, item("a", "sale", 1))

	pushed := raw("a", "sale")
	pushed.IsRead = true
	pushed.IsArchived = true
	h.tr.push(domain.EventUpdate, pushed)
	assert.Equal(t, []string{"update:a"}, h.gw.observations())

	h.tr.Disconnect()
	h.gw.mu.Lock()
	h.gw.stale = true
	h.gw.mu.Unlock()
	h.rec.reset()

	ctx := context.Background()
	h.svc.GetAnnouncements(ctx, domain.Filter{})

	got, err := h.svc.GetAnnouncement(ctx, "a")
	require.NoError(t, err)
	assert.True(t, got.IsRead)
	assert.True(t, got.IsArchived)
	assert.Empty(t, h.svc.GetAnnouncements(ctx, domain.Filter{}).Items)
	assert.Empty(t, h.rec.all())
}

func TestRefresh_never_clears_read_or_archived(t *testing.T) {
	h := newHarness(t, Options{}, item("a", "sale", 1), item("b", "sale", 2))
	ctx := context.Background()

	require.NoError(t, h.svc.MarkAsRead(ctx, "a"))
	require.NoError(t, h.svc.Archive(ctx, "b"))
	h.rec.reset()

	// the backend has not caught up yet
	edited := item("a", "sale", 1)
	edited.Title = "edited"
	h.gw.set(edited, item("b", "sale", 2))
	require.NoError(t, h.svc.Refresh(ctx))

	assert.Equal(t, []string{"update:a"}, h.rec.kinds())
	a, err := h.svc.GetAnnouncement(ctx, "a")
	require.NoError(t, err)
	assert.True(t, a.IsRead)
	assert.Equal(t, "edited", a.Title)
	assert.Equal(t, []string{"b"}, ids(h.svc.GetAnnouncements(ctx, domain.Filter{Archived: true}).Items))
}

func TestDisconnect_interrupts_running_poll(t *testing.T) {
	h := newHarness(t, Options{PollInterval: 5 * time.Millisecond}, item("a", "sale", 1))
	h.gw.mu.Lock()
	h.gw.block = true
	h.gw.mu.Unlock()
	before := h.gw.count("list")
	h.tr.Disconnect()

	require.Eventually(t, func() bool { return h.gw.count("list") > before }, time.Second, time.Millisecond)

	done := make(chan struct{})
	go func() {
		h.svc.Disconnect()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Disconnect waited for the poll to finish on its own")
	}
}

func TestStatus_reports_counters(t *testing.T) {
	h := newHarness(t, Options{})
	h.svc.On(domain.EventNew, func(domain.Event) { panic("broken subscriber") })

	h.tr.push(domain.EventNew, raw("a", "sale"))

	st := h.svc.Status()
	assert.Equal(t, int64(1), st.Delivered)
	assert.Equal(t, int64(1), st.HandlerPanics)
	assert.Equal(t, len(domain.EventKinds)+1, st.Subscribers)
}

func TestGetAnnouncement(t *testing.T) {
	h := newHarness(t, Options{}, item("a", "sale", 1))
	h.gw.byID["remote"] = item("remote", "debt", 100)
	ctx := context.Background()

	a, err := h.svc.GetAnnouncement(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", a.ID)
	assert.Equal(t, 0, h.gw.count("get"), "known ids are served from the store")

	r, err := h.svc.GetAnnouncement(ctx, "remote")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryDebts, r.Category)

	_, err = h.svc.GetAnnouncement(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnreadCount(t *testing.T) {
	read := item("r", "sale", 1)
	read.IsRead = true
	archived := item("x", "sale", 1)
	archived.IsArchived = true
	h := newHarness(t, Options{}, item("a", "sale", 1), item("b", "debt", 2), read, archived)

	assert.Equal(t, 2, h.svc.UnreadCount())
	assert.Equal(t, 1, h.svc.UnreadCount("b", "r", "x", "b"))
	assert.Equal(t, 1, h.svc.UnreadByCategory()[domain.CategoryDebts])
	assert.Equal(t, 0, h.svc.UnreadByCategory()[domain.CategorySocial])
}

// ─────────────────────────────
// Inbound events
// ─────────────────────────────

func TestInbound_classifies_and_emits(t *testing.T) {
	h := newHarness(t, Options{})

	h.tr.push(domain.EventNew, raw("d1", "DEBT"))

	events := h.rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventNew, events[0].Kind)
	assert.Equal(t, domain.CategoryDebts, events[0].Announcement.Category)

	stored, err := h.svc.GetAnnouncement(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryDebts, stored.Category)
}

func TestInbound_new_for_known_id_is_an_update(t *testing.T) {
	h := newHarness(t, Options{}, item("a", "sale", 1))

	h.tr.push(domain.EventNew, raw("a", "sale"))
	h.tr.push(domain.EventUpdate, raw("b", "sale"))

	assert.Equal(t, []string{"update:a", "new:b"}, h.rec.kinds())
	assert.Equal(t, 2, len(h.svc.GetAnnouncements(context.Background(), domain.Filter{}).Items))
}

func TestInbound_delete(t *testing.T) {
	h := newHarness(t, Options{}, item("a", "sale", 1))

	h.tr.push(domain.EventDelete, domain.RawAnnouncement{ID: "unknown"})
	h.tr.push(domain.EventDelete, domain.RawAnnouncement{ID: "a"})
	h.tr.push(domain.EventDelete, domain.RawAnnouncement{ID: "a"})

	assert.Equal(t, []string{"delete:a"}, h.rec.kinds())
	_, err := h.svc.GetAnnouncement(context.Background(), "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInbound_readBy_resolves_read_state(t *testing.T) {
	h := newHarness(t, Options{UserID: "u7"})

	r := raw("a", "sale")
	r.ReadBy = []string{"u1", "u7"}
	h.tr.push(domain.EventNew, r)

	events := h.rec.all()
	require.Len(t, events, 1)
	assert.True(t, events[0].Announcement.IsRead)
}

func TestInbound_malformed_is_dropped(t *testing.T) {
	h := newHarness(t, Options{})

	h.tr.push(domain.EventNew, domain.RawAnnouncement{Type: "sale"})

	assert.Empty(t, h.rec.all())
}

func TestInbound_dropped_after_disconnect(t *testing.T) {
	h := newHarness(t, Options{})

	h.svc.Disconnect()
	h.tr.push(domain.EventNew, raw("late", "sale"))

	assert.Empty(t, h.rec.all())
	assert.False(t, h.svc.Status().Connected)
}

func TestSubscribers_each_receive_once(t *testing.T) {
	h := newHarness(t, Options{})

	var mu sync.Mutex
	counts := map[string]int{}
	for _, name := range []string{"badge", "feed", "toast"} {
		name := name
		h.svc.On(domain.EventNew, func(domain.Event) {
			mu.Lock()
			counts[name]++
			mu.Unlock()
		})
	}
	unsub := h.svc.On(domain.EventNew, func(domain.Event) { panic("broken subscriber") })

	h.tr.push(domain.EventNew, raw("a", "sale"))
	unsub()
	unsub()
	h.tr.push(domain.EventNew, raw("b", "sale"))

	assert.Equal(t, map[string]int{"badge": 2, "feed": 2, "toast": 2}, counts)
}

func TestSubscriber_may_call_back_into_service(t *testing.T) {
	h := newHarness(t, Options{})
	done := make(chan struct{})

	h.svc.On(domain.EventNew, func(ev domain.Event) {
		_ = h.svc.MarkAsRead(context.Background(), ev.Announcement.ID)
		close(done)
	})
	go h.tr.push(domain.EventNew, raw("a", "sale"))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("re-entrant call deadlocked")
	}
	assert.Equal(t, 0, h.svc.UnreadCount())
}

// ─────────────────────────────
// Mutations
// ─────────────────────────────

func TestMarkAsRead(t *testing.T) {
	h := newHarness(t, Options{}, item("a", "sale", 1))
	ctx := context.Background()

	require.NoError(t, h.svc.MarkAsRead(ctx, "a"))
	require.NoError(t, h.svc.MarkAsRead(ctx, "a"))
	require.NoError(t, h.svc.MarkAsRead(ctx, "missing"))

	events := h.rec.all()
	require.Len(t, events, 1, "repeat and unknown ids emit nothing")
	assert.Equal(t, domain.EventUpdate, events[0].Kind)
	assert.True(t, events[0].Announcement.IsRead)
	assert.Equal(t, 1, h.gw.count("mark-read"), "no-ops make no network call")
	assert.Equal(t, 0, h.svc.UnreadCount())
}

func TestMarkAsRead_failure_reverts(t *testing.T) {
	h := newHarness(t, Options{}, item("a", "sale", 1))
	h.gw.failWith("mark-read", fmt.Errorf("mark-read: %w", gateway.ErrMutationFailed))

	err := h.svc.MarkAsRead(context.Background(), "a")

	require.ErrorIs(t, err, gateway.ErrMutationFailed)
	events := h.rec.all()
	require.Len(t, events, 2)
	assert.True(t, events[0].Announcement.IsRead)
	assert.Equal(t, domain.EventUpdate, events[1].Kind)
	assert.False(t, events[1].Announcement.IsRead, "corrective event carries the pre-call state")
	assert.Equal(t, 1, h.svc.UnreadCount())
}

func TestMarkAllAsRead(t *testing.T) {
	read := item("r", "sale", 3)
	read.IsRead = true
	h := newHarness(t, Options{}, item("a", "sale", 1), item("b", "debt", 2), read)
	ctx := context.Background()

	h.gw.failWith("mark-all-read", fmt.Errorf("x: %w", gateway.ErrMutationFailed))
	require.Error(t, h.svc.MarkAllAsRead(ctx))
	assert.Equal(t, 2, h.svc.UnreadCount(), "failed mark-all is reverted")
	assert.Equal(t, []string{"update:a", "update:b", "update:a", "update:b"}, h.rec.kinds())

	h.rec.reset()
	h.gw.failWith("mark-all-read", nil)
	require.NoError(t, h.svc.MarkAllAsRead(ctx))
	assert.Equal(t, 0, h.svc.UnreadCount())
	assert.Equal(t, []string{"update:a", "update:b"}, h.rec.kinds())

	h.rec.reset()
	require.NoError(t, h.svc.MarkAllAsRead(ctx))
	assert.Empty(t, h.rec.all())
	assert.Equal(t, 2, h.gw.count("mark-all-read"))
}

func TestArchive(t *testing.T) {
	h := newHarness(t, Options{}, item("a", "sale", 1), item("b", "sale", 2))
	ctx := context.Background()

	require.NoError(t, h.svc.Archive(ctx, "a"))
	require.NoError(t, h.svc.Archive(ctx, "a"))

	assert.Equal(t, []string{"b"}, ids(h.svc.GetAnnouncements(ctx, domain.Filter{}).Items))
	assert.Equal(t, []string{"a"}, ids(h.svc.GetAnnouncements(ctx, domain.Filter{Archived: true}).Items))
	assert.Equal(t, 1, h.gw.count("archive"))

	h.gw.failWith("archive", fmt.Errorf("x: %w", gateway.ErrMutationFailed))
	require.Error(t, h.svc.Archive(ctx, "b"))
	assert.Equal(t, []string{"b"}, ids(h.svc.GetAnnouncements(ctx, domain.Filter{}).Items))
	assert.Equal(t, []string{"update:a", "update:b", "update:b"}, h.rec.kinds())
}

func TestDelete(t *testing.T) {
	h := newHarness(t, Options{}, item("a", "sale", 1), item("b", "sale", 2))
	ctx := context.Background()

	require.NoError(t, h.svc.Delete(ctx, "a"))
	require.NoError(t, h.svc.Delete(ctx, "a"))
	assert.Equal(t, 1, h.gw.count("delete"))

	h.gw.failWith("delete", fmt.Errorf("x: %w", gateway.ErrMutationFailed))
	require.Error(t, h.svc.Delete(ctx, "b"))

	assert.Equal(t, []string{"delete:a", "delete:b", "new:b"}, h.rec.kinds())
	assert.Equal(t, []string{"b"}, ids(h.svc.GetAnnouncements(ctx, domain.Filter{}).Items))
}

func TestSnooze_resurfaces(t *testing.T) {
	h := newHarness(t, Options{SnoozeCheckInterval: 2 * time.Millisecond}, item("a", "sale", 1))
	h.gw.failWith("snooze", fmt.Errorf("snooze: %w", gateway.ErrUnsupported))
	ctx := context.Background()

	require.NoError(t, h.svc.Snooze(ctx, "a", 20*time.Millisecond))
	assert.Empty(t, h.svc.GetAnnouncements(ctx, domain.Filter{}).Items)
	_, err := h.svc.GetAnnouncement(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, h.svc.Status().Snoozed)

	require.Eventually(t, func() bool {
		return len(h.rec.all()) == 2
	}, time.Second, 2*time.Millisecond)

	assert.Equal(t, []string{"delete:a", "new:a"}, h.rec.kinds())
	assert.Equal(t, 0, h.svc.Status().Snoozed)
}

func TestSnooze_failure_reverts(t *testing.T) {
	h := newHarness(t, Options{}, item("a", "sale", 1))
	h.gw.failWith("snooze", fmt.Errorf("snooze: %w", gateway.ErrMutationFailed))

	err := h.svc.Snooze(context.Background(), "a", time.Hour)

	require.ErrorIs(t, err, gateway.ErrMutationFailed)
	assert.Equal(t, []string{"delete:a", "new:a"}, h.rec.kinds())
	assert.Equal(t, 0, h.svc.Status().Snoozed)
	assert.Equal(t, 1, h.svc.UnreadCount())
}

func TestSnooze_edge_cases(t *testing.T) {
	h := newHarness(t, Options{}, item("a", "sale", 1))
	ctx := context.Background()

	assert.ErrorIs(t, h.svc.Snooze(ctx, "a", 0), ErrInvalidDuration)
	require.NoError(t, h.svc.Snooze(ctx, "missing", time.Hour))
	assert.Equal(t, 0, h.gw.count("snooze"))

	require.NoError(t, h.svc.Snooze(ctx, "a", time.Hour))
	require.NoError(t, h.svc.Snooze(ctx, "a", 2*time.Hour))
	assert.Equal(t, 1, h.gw.count("snooze"), "re-snoozing only moves the deadline")

	// live updates refresh the hidden copy without surfacing it
	h.tr.push(domain.EventUpdate, raw("a", "sale"))
	assert.Equal(t, []string{"delete:a"}, h.rec.kinds())

	// a delete cancels the snooze
	h.tr.push(domain.EventDelete, domain.RawAnnouncement{ID: "a"})
	assert.Equal(t, 0, h.svc.Status().Snoozed)
	assert.Equal(t, []string{"delete:a"}, h.rec.kinds())
}

func TestDelete_snoozed_entry(t *testing.T) {
	h := newHarness(t, Options{}, item("a", "sale", 1))
	ctx := context.Background()

	require.NoError(t, h.svc.Snooze(ctx, "a", time.Hour))
	require.NoError(t, h.svc.Delete(ctx, "a"))

	assert.Equal(t, 1, h.gw.count("delete"))
	assert.Equal(t, 0, h.svc.Status().Snoozed)
	assert.Equal(t, []string{"delete:a"}, h.rec.kinds())
}

func TestRefresh_skips_snoozed(t *testing.T) {
	h := newHarness(t, Options{}, item("a", "sale", 1))
	ctx := context.Background()

	require.NoError(t, h.svc.Snooze(ctx, "a", time.Hour))
	require.NoError(t, h.svc.Refresh(ctx))

	assert.Empty(t, h.svc.GetAnnouncements(ctx, domain.Filter{}).Items)
	assert.Equal(t, []string{"delete:a"}, h.rec.kinds())
}
