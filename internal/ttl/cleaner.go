package ttl

import (
	"context"
	"time"

	"redis-server/internal/logs"
	"redis-server/internal/metrics"
)

// Store defines the minimal contract required by the expiry sweeper.
// This keeps the sweeper decoupled from the concrete store implementation.
type Store interface {
	RemoveExpired(now time.Time) int
}

// Cleaner periodically sweeps expired keys out of the store, reclaiming
// memory for keys that no read ever touches again.
type Cleaner struct {
	store    Store
	interval time.Duration
	logger   *logs.Logger
	metrics  *metrics.Registry
}

// NewCleaner creates a new expiry sweeper.
func NewCleaner(
	store Store,
	interval time.Duration,
	logger *logs.Logger,
	metricsRegistry *metrics.Registry,
) *Cleaner {
	return &Cleaner{
		store:    store,
		interval: interval,
		logger:   logger,
		metrics:  metricsRegistry,
	}
}

// Start runs the sweep loop until the context is cancelled.
// It blocks and should typically be run in a separate goroutine.
func (c *Cleaner) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.runOnce(time.Now())
		case <-ctx.Done():
			c.logger.Debug("expiry sweeper stopped")
			return
		}
	}
}

// runOnce performs a single sweep cycle at the given instant.
func (c *Cleaner) runOnce(now time.Time) {
	removed := c.store.RemoveExpired(now)

	c.metrics.Inc(metrics.SweepRunsTotal)
	if removed > 0 {
		c.metrics.Add(metrics.SweepKeysRemovedTotal, int64(removed))
		c.logger.Infof("expiry sweeper removed %d keys", removed)
	}
}
