// Package bus fans announcement events out to in-process subscribers.
package bus

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/MrSnakeDoc/herald/internal/domain"
	"github.com/MrSnakeDoc/herald/internal/logger"
)

// Handler receives one event.
type Handler func(domain.Event)

type subscription struct {
	id     uint64
	fn     Handler
	active atomic.Bool
}

// Bus is a synchronous registry keyed by event kind. Emit runs every handler
// inline, in registration order, before returning.
type Bus struct {
	mu     sync.Mutex
	subs   map[domain.EventKind][]*subscription
	nextID uint64
	panics atomic.Int64
	logger logger.Logger
}

// New creates an empty bus. A nil logger discards panic reports.
func New(log logger.Logger) *Bus {
	if log == nil {
		log = logger.Nop()
	}
	return &Bus{
		subs:   make(map[domain.EventKind][]*subscription),
		logger: log,
	}
}

// On registers fn for kind and returns a function removing exactly that
// registration. Calling the returned function more than once is harmless.
func (b *Bus) On(kind domain.EventKind, fn Handler) func() {
	b.mu.Lock()
	b.nextID++
	sub := &subscription{id: b.nextID, fn: fn}
	sub.active.Store(true)
	b.subs[kind] = append(b.subs[kind], sub)
	b.mu.Unlock()

	return func() { b.remove(kind, sub) }
}

func (b *Bus) remove(kind domain.EventKind, sub *subscription) {
	if !sub.active.Swap(false) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.subs[kind]
	for i, s := range list {
		if s.id == sub.id {
			// copy so snapshots held by in-flight emits stay intact
			next := make([]*subscription, 0, len(list)-1)
			next = append(next, list[:i]...)
			next = append(next, list[i+1:]...)
			b.subs[kind] = next
			return
		}
	}
}

// Emit delivers ev to every handler registered for kind at the time of the
// call. Handlers removed during this emit are skipped; handlers added during
// it wait for the next one. A panicking handler does not stop the others.
func (b *Bus) Emit(kind domain.EventKind, ev domain.Event) {
	b.mu.Lock()
	snapshot := b.subs[kind]
	b.mu.Unlock()

	for _, sub := range snapshot {
		if !sub.active.Load() {
			continue
		}
		b.invoke(kind, sub, ev)
	}
}

func (b *Bus) invoke(kind domain.EventKind, sub *subscription, ev domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.panics.Add(1)
			b.logger.Error("subscriber panicked",
				logger.String("kind", string(kind)),
				logger.String("announcement_id", ev.Announcement.ID),
				logger.String("panic", fmt.Sprint(r)))
		}
	}()
	sub.fn(ev)
}

// Count returns the number of live registrations for kind.
func (b *Bus) Count(kind domain.EventKind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[kind])
}

// Panics returns how many handler invocations panicked so far.
func (b *Bus) Panics() int64 {
	return b.panics.Load()
}
