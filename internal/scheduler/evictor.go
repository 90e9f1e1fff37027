package scheduler

import (
	"context"
	"log/slog"
	"time"
)

type idleEvictor interface {
	EvictIdle(maxIdle time.Duration) int
}

// Evictor periodically drops wizards that have been idle for longer than
// maxIdle. Evicted drafts stay in the draft store and are restored on the
// user's next request.
type Evictor struct {
	wizards  idleEvictor
	interval time.Duration
	maxIdle  time.Duration
	logger   *slog.Logger
}

func NewEvictor(wizards idleEvictor, interval, maxIdle time.Duration, logger *slog.Logger) *Evictor {
	return &Evictor{
		wizards:  wizards,
		interval: interval,
		maxIdle:  maxIdle,
		logger:   logger,
	}
}

// Start blocks until ctx is done.
func (e *Evictor) Start(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.logger.Info("evictor started", "interval", e.interval, "max_idle", e.maxIdle)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("evictor stopped")
			return
		case <-ticker.C:
			e.tick()
		}
	}
}

func (e *Evictor) tick() {
	if n := e.wizards.EvictIdle(e.maxIdle); n > 0 {
		e.logger.Info("idle wizards evicted", "count", n)
	}
}
