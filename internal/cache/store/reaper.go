package store

import (
	"context"
	"sync"
	"time"

	"PlaceCache/internal/logger"
	"PlaceCache/internal/models"
)

// reaper periodically removes expired entries from a backend that has no native expiry
type reaper struct {
	interval time.Duration
	target   string
	logger   logger.Service
	reap     func(ctx context.Context) (int64, error)

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

func newReaper(interval time.Duration, target string, log logger.Service, reap func(ctx context.Context) (int64, error)) *reaper {
	return &reaper{
		interval: interval,
		target:   target,
		logger:   log,
		reap:     reap,
		stop:     make(chan struct{}),
	}
}

// start launches the background loop; it runs until close is called
func (r *reaper) start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		reapCtx := logger.NewInternalContext()

		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(reapCtx, 30*time.Second)
				removed, err := r.reap(ctx)
				cancel()
				r.report(reapCtx, removed, err)
			}
		}
	}()
}

func (r *reaper) report(ctx context.Context, removed int64, err error) {
	if r.logger == nil {
		return
	}
	if err != nil {
		r.logger.LogError(ctx, logger.OpCacheReap, r.target, "Failed to reap expired cache entries", err, models.LogSeverityLow, nil)
		return
	}
	if removed > 0 {
		r.logger.LogSuccess(ctx, logger.OpCacheReap, r.target, "Reaped expired cache entries", map[string]interface{}{
			"removed": removed,
		})
	}
}

// close stops the loop and waits for an in-progress pass to finish; safe to call repeatedly
func (r *reaper) close() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
	r.wg.Wait()
}
