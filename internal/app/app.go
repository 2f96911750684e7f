// Package app provides top-level application lifecycle management: it wires
// stores, caches, the sync pipeline, and the HTTP server together and runs
// them until shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dondie52/agriconnect/internal/config"
	"github.com/dondie52/agriconnect/internal/pipeline"
	"github.com/dondie52/agriconnect/internal/server"
	"github.com/dondie52/agriconnect/internal/server/handler"
	"github.com/dondie52/agriconnect/internal/server/ws"
	"github.com/dondie52/agriconnect/internal/service"
)

// shutdownTimeout bounds how long in-flight HTTP requests may run after the
// stop signal.
const shutdownTimeout = 10 * time.Second

// App is the root application object. It owns the configuration, logger, and
// a list of cleanup functions called in reverse order on shutdown.
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

// Run wires all dependencies, starts the sync scheduler, the optional
// archiver, and the HTTP server, and blocks until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	deps, cleanup, err := Wire(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	loc, err := time.LoadLocation(a.cfg.Sync.Timezone)
	if err != nil {
		return fmt.Errorf("app: load timezone %q: %w", a.cfg.Sync.Timezone, err)
	}

	hub := ws.NewHub(a.logger)

	alerts := pipeline.NewAlertDispatcher(deps.Users, deps.Notifications, a.cfg.Sync.AlertThresholdPct, a.logger)
	orchestrator := pipeline.NewOrchestrator(pipeline.OrchestratorDeps{
		Crops:       deps.Crops,
		Regions:     deps.Regions,
		Prices:      deps.Prices,
		History:     deps.History,
		Fetcher:     deps.Fetcher,
		Fallback:    pipeline.NewFluctuationGenerator(deps.Prices),
		Mapper:      pipeline.NewMapper(a.cfg.Sync.FallbackRegion),
		Alerts:      alerts,
		Cache:       deps.PriceCache,
		Broadcaster: hub,
		Ops:         deps.Ops,
	}, a.logger)

	scheduler := pipeline.NewScheduler(orchestrator, pipeline.SchedulerConfig{
		IntervalHours: a.cfg.Sync.IntervalHours,
		Location:      loc,
		BootDelay:     time.Duration(a.cfg.Sync.BootDelaySec) * time.Second,
	}, a.logger)

	priceSvc := service.NewPriceService(deps.Prices, deps.PriceCache, a.logger)

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}, server.Handlers{
		Health: handler.NewHealthHandler(deps.DB),
		Prices: handler.NewPriceHandler(priceSvc, a.logger),
		Sync:   handler.NewSyncHandler(scheduler, priceSvc, a.logger),
	}, hub, a.logger)

	scheduler.Start(ctx)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start()
	})

	if deps.Archiver != nil {
		g.Go(func() error {
			deps.Archiver.RunLoop(ctx, 24*time.Hour)
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		scheduler.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("server shutdown failed", slog.String("error", err.Error()))
		}
		return ctx.Err()
	})

	return g.Wait()
}

// Close tears down all resources in reverse registration order. Safe to call
// multiple times.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
