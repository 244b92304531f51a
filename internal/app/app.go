// Package app provides the top-level application lifecycle management for the
// sibyl settlement service. It wires together all dependencies (stores,
// caches, blob storage, the engine, and notifications) and runs the HTTP API
// until shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sibyl-protocol/sibyl/internal/config"
	"github.com/sibyl-protocol/sibyl/internal/engine"
	"github.com/sibyl-protocol/sibyl/internal/server"
	"github.com/sibyl-protocol/sibyl/internal/server/handler"
	"github.com/sibyl-protocol/sibyl/internal/server/ws"
)

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, starts the engine's
// HTTP and WebSocket surface plus the background jobs, and blocks until the
// context is cancelled. On return it runs all registered cleanup functions.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("storage", a.cfg.Storage),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	eng := engine.New(engine.Deps{
		Tx:        deps.Tx,
		Protocols: deps.Protocols,
		Markets:   deps.Markets,
		Positions: deps.Positions,
		Ledger:    deps.Ledger,
		Audit:     deps.Audit,
		Locks:     deps.Locks,
		Bus:       deps.SignalBus,
		Notifier:  deps.Notifier,
	}, a.logger)

	g, ctx := errgroup.WithContext(ctx)

	// WebSocket hub — requires the Redis signal bus.
	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, a.logger)
		g.Go(func() error {
			return hub.Run(ctx)
		})
	}

	srv := server.NewServer(
		server.Config{
			Port:            a.cfg.Server.Port,
			CORSOrigins:     a.cfg.Server.CORSOrigins,
			APIKey:          a.cfg.Server.APIKey,
			RateLimit:       a.cfg.Server.RateLimit,
			RateLimitWindow: a.cfg.Server.RateLimitWindow.Duration,
		},
		server.Handlers{
			Health:    handler.NewHealthHandler(a.logger),
			Protocol:  handler.NewProtocolHandler(eng, a.logger),
			Markets:   handler.NewMarketHandler(eng, deps.MarketCache, a.logger),
			Positions: handler.NewPositionHandler(eng, deps.MarketCache, a.logger),
			Swap:      handler.NewSwapHandler(eng, a.logger),
		},
		hub,
		deps.RateLimiter,
		a.logger,
	)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Audit-log archival.
	if deps.Archiver != nil {
		retention := time.Duration(a.cfg.Archive.RetentionDays) * 24 * time.Hour
		interval := a.cfg.Archive.Interval.Duration
		g.Go(func() error {
			return deps.Archiver.Run(ctx, interval, retention)
		})
	}

	return g.Wait()
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
