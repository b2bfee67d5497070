package announcer

import (
	"github.com/MrSnakeDoc/herald/internal/domain"
	"github.com/MrSnakeDoc/herald/internal/logger"
)

// handleInbound applies one transport event to the store and publishes it.
// It runs on the transport goroutine.
func (s *Service) handleInbound(ev domain.InboundEvent) {
	if !s.active.Load() {
		s.logger.Debug("dropping event while disconnected",
			logger.String("kind", string(ev.Kind)))
		return
	}

	a, err := ev.Raw.Normalize(s.opts.UserID)
	if err != nil {
		s.logger.Warn("dropping malformed event",
			logger.String("kind", string(ev.Kind)),
			logger.Error(err))
		return
	}

	switch ev.Kind {
	case domain.EventNew, domain.EventUpdate:
		s.gateway.Observe(ev.Kind, a)
		s.upsert(a)
	case domain.EventDelete:
		s.gateway.Observe(ev.Kind, a)
		s.remove(a.ID)
	default:
		s.logger.Warn("dropping event of unknown kind",
			logger.String("kind", string(ev.Kind)))
	}
}

// upsert stores a and emits new or update depending on whether the id was
// already known. A snoozed entry only gets its hidden copy refreshed.
func (s *Service) upsert(a domain.Announcement) {
	if s.snoozes.Update(a) {
		return
	}

	if _, existed := s.store.Upsert(a); existed {
		s.emitLive(domain.EventUpdate, a)
		return
	}
	s.emitLive(domain.EventNew, a)
}

// remove drops id from the store. A delete for an unknown id is ignored; a
// delete for a snoozed id cancels the snooze.
func (s *Service) remove(id string) {
	if s.snoozes.Cancel(id) {
		s.logger.Debug("snooze cancelled by delete", logger.String("id", id))
		return
	}

	prev, existed := s.store.Remove(id)
	if !existed {
		return
	}
	s.emitLive(domain.EventDelete, prev)
}

// resurface puts an expired snooze back into the feed.
func (s *Service) resurface(a domain.Announcement) {
	s.logger.Debug("snooze expired", logger.String("id", a.ID))
	if _, existed := s.store.Upsert(a); existed {
		s.emitLive(domain.EventUpdate, a)
		return
	}
	s.emitLive(domain.EventNew, a)
}
