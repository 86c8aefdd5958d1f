package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"redis-server/internal/api"
	"redis-server/internal/command"
	"redis-server/internal/logs"
	"redis-server/internal/metrics"
	"redis-server/internal/server"
	"redis-server/internal/store"
	"redis-server/internal/ttl"
)

func main() {
	defaults := server.DefaultConfig()

	var (
		addr          = flag.String("addr", defaults.Addr, "TCP listen address for the client protocol")
		debugAddr     = flag.String("debug-addr", defaults.DebugAddr, "HTTP debug interface address (empty disables it)")
		maxClients    = flag.Int("max-clients", defaults.MaxClients, "maximum concurrent client connections (0 = unlimited)")
		idleTimeout   = flag.Duration("idle-timeout", defaults.IdleTimeout, "disconnect clients idle this long (0 = never)")
		sweepInterval = flag.Duration("sweep-interval", defaults.SweepInterval, "background expiry sweep period (0 = lazy expiry only)")
		logLevel      = flag.String("log-level", "info", "minimum log level (debug, info, warn, error)")
		logBuffer     = flag.Int("log-buffer", 1000, "log entries kept for the debug interface")
	)
	flag.Parse()

	level, err := logs.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}

	cfg := server.Config{
		Addr:          *addr,
		DebugAddr:     *debugAddr,
		MaxClients:    *maxClients,
		IdleTimeout:   *idleTimeout,
		SweepInterval: *sweepInterval,
	}

	// Logger
	logger := logs.NewLogger(*logBuffer, level)

	// Metrics
	metricsRegistry := metrics.NewRegistry()

	// Store + engine
	st := store.NewStore(metricsRegistry)
	engine := command.NewEngine(st, metricsRegistry)

	// Client tracking
	clients := server.NewRegistry()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Expiry sweeper
	if cfg.SweepInterval > 0 {
		cleaner := ttl.NewCleaner(st, cfg.SweepInterval, logger, metricsRegistry)
		go cleaner.Start(ctx)
	}

	// Idle-connection watchdog
	if cfg.IdleTimeout > 0 {
		watchdog := server.NewWatchdog(clients, cfg.IdleTimeout, logger, metricsRegistry)
		go watchdog.Start(ctx)
	}

	// Debug API
	if cfg.DebugAddr != "" {
		handler := api.NewHandler(st, metricsRegistry, logger, clients)
		mux := http.NewServeMux()

		debugServer := &http.Server{
			Addr:    cfg.DebugAddr,
			Handler: api.RegisterRoutes(mux, handler),
		}

		go func() {
			logger.Infof("debug interface on %s", cfg.DebugAddr)
			if err := debugServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("debug server: %v", err)
			}
		}()
		go func() {
			<-ctx.Done()
			debugServer.Close()
		}()
	}

	srv := server.New(cfg, engine, clients, logger, metricsRegistry)
	if err := srv.Start(ctx); err != nil {
		log.Fatal(err)
	}
}
