package scheduler

import (
	"context"
	"sync"
	"time"
)

// task runs fn on every tick until stopped. Unlike a bare goroutine it can
// be restarted, and stop waits for the loop to exit.
type task struct {
	mu     sync.Mutex
	stopCh chan struct{}
	done   chan struct{}
}

func (t *task) start(ctx context.Context, interval time.Duration, fn func(context.Context)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopCh != nil {
		return false
	}

	stopCh := make(chan struct{})
	done := make(chan struct{})
	t.stopCh, t.done = stopCh, done

	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn(ctx)
			case <-stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return true
}

func (t *task) stop() {
	t.mu.Lock()
	stopCh, done := t.stopCh, t.done
	t.stopCh, t.done = nil, nil
	t.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-done
}

func (t *task) running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopCh != nil
}
