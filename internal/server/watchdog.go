package server

import (
	"context"
	"time"

	"redis-server/internal/logs"
	"redis-server/internal/metrics"
)

// Watchdog periodically disconnects clients that have gone idle, so
// abandoned connections cannot pin server resources forever.
type Watchdog struct {
	registry *Registry
	timeout  time.Duration
	logger   *logs.Logger
	metrics  *metrics.Registry
}

// NewWatchdog creates an idle-connection watchdog.
func NewWatchdog(
	registry *Registry,
	timeout time.Duration,
	logger *logs.Logger,
	metricsRegistry *metrics.Registry,
) *Watchdog {
	return &Watchdog{
		registry: registry,
		timeout:  timeout,
		logger:   logger,
		metrics:  metricsRegistry,
	}
}

// Start begins the reap loop.
// Stops immediately when the ctx is cancelled.
func (w *Watchdog) Start(ctx context.Context) {
	interval := w.timeout / 2
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.runOnce(time.Now())
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watchdog) runOnce(now time.Time) {
	closed := w.registry.CloseIdle(now.Add(-w.timeout))
	if closed > 0 {
		w.metrics.Add(metrics.ConnectionsIdleClosedTotal, int64(closed))
		w.logger.Infof("closed %d idle connections", closed)
	}
}
