package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/herald/internal/logger"
)

const (
	// DefaultPollInterval is the REST polling period while the live
	// transport is down.
	DefaultPollInterval = 30 * time.Second
)

// Refresher reconciles the feed with the backend.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// FeedRefresher polls the backend while the transport is disconnected, so
// the feed keeps moving without a socket.
type FeedRefresher struct {
	target    Refresher
	connected func() bool
	logger    logger.Logger
	interval  time.Duration
	task      task
}

// NewFeedRefresher creates a new refresher. connected reports the transport
// state; ticks are skipped while it returns true.
func NewFeedRefresher(
	target Refresher,
	connected func() bool,
	log logger.Logger,
	interval time.Duration,
) *FeedRefresher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if log == nil {
		log = logger.Nop()
	}

	return &FeedRefresher{
		target:    target,
		connected: connected,
		logger:    log,
		interval:  interval,
	}
}

// Start begins the periodic polling
func (fr *FeedRefresher) Start(ctx context.Context) error {
	if fr.task.start(ctx, fr.interval, fr.Poll) {
		fr.logger.Debug("feed refresher started",
			logger.Duration("interval", fr.interval))
	}
	return nil
}

// Stop stops the refresher and waits for a running poll to finish.
func (fr *FeedRefresher) Stop() {
	fr.task.stop()
}

// Poll refreshes once unless the transport is connected.
func (fr *FeedRefresher) Poll(ctx context.Context) {
	if fr.connected != nil && fr.connected() {
		return
	}

	if err := fr.target.Refresh(ctx); err != nil {
		fr.logger.Warn("feed refresh failed", logger.Error(err))
	}
}
