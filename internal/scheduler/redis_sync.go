package scheduler

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/herald/internal/domain"
	"github.com/MrSnakeDoc/herald/internal/logger"
)

// SnapshotLoader reads a persisted snapshot.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context) ([]domain.Announcement, error)
}

// SnapshotTarget receives a restored snapshot.
type SnapshotTarget interface {
	RestoreSnapshot(items []domain.Announcement)
}

// SnapshotSyncer restores the last known-good list from Redis on startup
type SnapshotSyncer struct {
	store  SnapshotLoader
	target SnapshotTarget
	logger logger.Logger
}

// NewSnapshotSyncer creates a new snapshot syncer
func NewSnapshotSyncer(
	store SnapshotLoader,
	target SnapshotTarget,
	log logger.Logger,
) *SnapshotSyncer {
	if log == nil {
		log = logger.Nop()
	}
	return &SnapshotSyncer{
		store:  store,
		target: target,
		logger: log,
	}
}

// Sync loads the snapshot from Redis and hands it to the target
func (ss *SnapshotSyncer) Sync(ctx context.Context) error {
	ss.logger.Info("restoring snapshot from redis")

	items, err := ss.store.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	if len(items) == 0 {
		ss.logger.Info("no snapshot found in redis")
		return nil
	}

	ss.target.RestoreSnapshot(items)

	ss.logger.Info("restored snapshot from redis",
		logger.Int("count", len(items)))

	return nil
}
