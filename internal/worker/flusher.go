package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/telemetryhub/relay/internal/queue"
)

// Flusher owns the drain trigger. It runs ProcessQueue on a fixed interval
// and whenever Kick is called (network-recovery, manual flush). Both
// triggers fire on the same goroutine, so drains never overlap — which is
// what lets the queue manager skip re-entrancy guards.
type Flusher struct {
	manager  *queue.Manager
	interval time.Duration
	kick     chan struct{}
	logger   *zap.Logger
}

func NewFlusher(manager *queue.Manager, interval time.Duration, logger *zap.Logger) *Flusher {
	return &Flusher{
		manager:  manager,
		interval: interval,
		kick:     make(chan struct{}, 1),
		logger:   logger,
	}
}

// Kick requests an opportunistic drain. Non-blocking: if a kick is already
// pending it is coalesced with it.
func (f *Flusher) Kick() {
	select {
	case f.kick <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled, draining once per trigger.
func (f *Flusher) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	f.logger.Info("flusher started", zap.Duration("interval", f.interval))

	for {
		select {
		case <-ctx.Done():
			f.logger.Info("flusher stopping")
			return
		case <-ticker.C:
			f.manager.ProcessQueue(ctx)
		case <-f.kick:
			f.manager.ProcessQueue(ctx)
		}
	}
}
