package announcer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/herald/internal/domain"
	"github.com/MrSnakeDoc/herald/internal/gateway"
	"github.com/MrSnakeDoc/herald/internal/logger"
)

// Every mutation follows the same protocol: change the store, emit, call the
// gateway, and on failure put the pre-call entry back and emit a corrective
// event. Calls that would not change anything return nil without touching
// the network.

// MarkAsRead marks one entry read.
func (s *Service) MarkAsRead(ctx context.Context, id string) error {
	prev, changed := s.store.MarkRead(id)
	if !changed {
		return nil
	}

	next := prev.Clone()
	next.IsRead = true
	s.emit(domain.EventUpdate, next)

	if err := s.gateway.MarkRead(ctx, []string{id}); err != nil {
		s.revert(prev, domain.EventUpdate, "mark-read", err)
		return fmt.Errorf("mark %s read: %w", id, err)
	}
	return nil
}

// MarkAllAsRead marks every unread entry read.
func (s *Service) MarkAllAsRead(ctx context.Context) error {
	prevs := s.store.MarkAllRead()
	if len(prevs) == 0 {
		return nil
	}

	for _, prev := range prevs {
		next := prev.Clone()
		next.IsRead = true
		s.emit(domain.EventUpdate, next)
	}

	if err := s.gateway.MarkAllRead(ctx); err != nil {
		for _, prev := range prevs {
			s.revert(prev, domain.EventUpdate, "mark-all-read", err)
		}
		return fmt.Errorf("mark all read: %w", err)
	}
	return nil
}

// Archive moves one entry to the archive view.
func (s *Service) Archive(ctx context.Context, id string) error {
	prev, changed := s.store.Archive(id)
	if !changed {
		return nil
	}

	next := prev.Clone()
	next.IsArchived = true
	s.emit(domain.EventUpdate, next)

	if err := s.gateway.Archive(ctx, id); err != nil {
		s.revert(prev, domain.EventUpdate, "archive", err)
		return fmt.Errorf("archive %s: %w", id, err)
	}
	return nil
}

// Delete removes one entry. Deleting a snoozed entry deletes it for good.
func (s *Service) Delete(ctx context.Context, id string) error {
	if hidden, until, ok := s.snoozes.Take(id); ok {
		if err := s.gateway.Delete(ctx, id); err != nil {
			s.snoozes.Add(hidden, until)
			return fmt.Errorf("delete %s: %w", id, err)
		}
		return nil
	}

	prev, existed := s.store.Remove(id)
	if !existed {
		return nil
	}
	s.emit(domain.EventDelete, prev)

	if err := s.gateway.Delete(ctx, id); err != nil {
		s.revert(prev, domain.EventNew, "delete", err)
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// Snooze hides one entry for d. It comes back as a new event once d has
// elapsed, even when the backend has no snooze support.
func (s *Service) Snooze(ctx context.Context, id string, d time.Duration) error {
	if d <= 0 {
		return ErrInvalidDuration
	}

	until := s.opts.Now().Add(d)
	if s.snoozes.Pending(id) {
		if hidden, _, ok := s.snoozes.Take(id); ok {
			s.snoozes.Add(hidden, until)
		}
		return nil
	}

	prev, existed := s.store.Remove(id)
	if !existed {
		return nil
	}
	s.snoozes.Add(prev, until)
	s.emit(domain.EventDelete, prev)

	err := s.gateway.Snooze(ctx, id, d)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gateway.ErrUnsupported):
		s.logger.Info("backend has no snooze, snoozing locally",
			logger.String("id", id),
			logger.Duration("duration", d))
		return nil
	}

	// the releaser may already have put it back
	if s.snoozes.Cancel(id) {
		s.revert(prev, domain.EventNew, "snooze", err)
	}
	return fmt.Errorf("snooze %s: %w", id, err)
}

func (s *Service) revert(prev domain.Announcement, kind domain.EventKind, op string, cause error) {
	s.logger.Warn("reverting optimistic change",
		logger.String("op", op),
		logger.String("id", prev.ID),
		logger.Error(cause))

	s.store.Upsert(prev)
	s.emit(kind, prev)
}
