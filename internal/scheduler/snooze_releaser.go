package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/herald/internal/domain"
	"github.com/MrSnakeDoc/herald/internal/logger"
)

const (
	// DefaultSnoozeCheckInterval is how often due snoozes are released.
	DefaultSnoozeCheckInterval = 15 * time.Second
)

type snoozed struct {
	announcement domain.Announcement
	until        time.Time
}

// SnoozeReleaser keeps snoozed announcements aside and hands them back once
// their snooze expires.
type SnoozeReleaser struct {
	logger   logger.Logger
	interval time.Duration
	release  func(domain.Announcement)
	now      func() time.Time
	task     task

	mu      sync.Mutex
	pending map[string]snoozed
}

// NewSnoozeReleaser creates a releaser. release is called once per due entry,
// from the releaser goroutine.
func NewSnoozeReleaser(
	log logger.Logger,
	interval time.Duration,
	release func(domain.Announcement),
) *SnoozeReleaser {
	if interval <= 0 {
		interval = DefaultSnoozeCheckInterval
	}
	if log == nil {
		log = logger.Nop()
	}

	return &SnoozeReleaser{
		logger:   log,
		interval: interval,
		release:  release,
		now:      time.Now,
		pending:  make(map[string]snoozed),
	}
}

// Start begins the periodic release check
func (sr *SnoozeReleaser) Start(ctx context.Context) error {
	if sr.task.start(ctx, sr.interval, sr.Collect) {
		sr.logger.Debug("snooze releaser started",
			logger.Duration("interval", sr.interval))
	}
	return nil
}

// Stop stops the releaser and waits for a running check to finish.
// Pending snoozes are kept.
func (sr *SnoozeReleaser) Stop() {
	sr.task.stop()
}

// Add snoozes a until the given time. A second Add for the same id replaces
// the first.
func (sr *SnoozeReleaser) Add(a domain.Announcement, until time.Time) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	sr.pending[a.ID] = snoozed{announcement: a.Clone(), until: until}
}

// Cancel forgets a pending snooze. It reports whether one existed.
func (sr *SnoozeReleaser) Cancel(id string) bool {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	_, ok := sr.pending[id]
	delete(sr.pending, id)
	return ok
}

// Update replaces the content of a pending snooze, keeping its deadline.
// It reports whether id was pending.
func (sr *SnoozeReleaser) Update(a domain.Announcement) bool {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	s, ok := sr.pending[a.ID]
	if !ok {
		return false
	}
	s.announcement = a.Clone()
	sr.pending[a.ID] = s
	return true
}

// Take removes a pending snooze and returns it.
func (sr *SnoozeReleaser) Take(id string) (domain.Announcement, time.Time, bool) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	s, ok := sr.pending[id]
	if !ok {
		return domain.Announcement{}, time.Time{}, false
	}
	delete(sr.pending, id)
	return s.announcement, s.until, true
}

// Pending reports whether id is currently snoozed.
func (sr *SnoozeReleaser) Pending(id string) bool {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	_, ok := sr.pending[id]
	return ok
}

// Len returns the number of pending snoozes.
func (sr *SnoozeReleaser) Len() int {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	return len(sr.pending)
}

// Collect releases every snooze that is due, oldest deadline first.
func (sr *SnoozeReleaser) Collect(_ context.Context) {
	due := sr.takeDue(sr.now())
	if len(due) == 0 {
		return
	}

	for _, a := range due {
		sr.release(a)
	}

	sr.logger.Info("released snoozed announcements",
		logger.Int("count", len(due)))
}

func (sr *SnoozeReleaser) takeDue(now time.Time) []domain.Announcement {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	var entries []snoozed
	for id, s := range sr.pending {
		if s.until.After(now) {
			continue
		}
		entries = append(entries, s)
		delete(sr.pending, id)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].until.Before(entries[j].until)
	})

	out := make([]domain.Announcement, len(entries))
	for i, s := range entries {
		out[i] = s.announcement
	}
	return out
}
