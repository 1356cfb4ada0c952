// Package server builds the application dependency graph and runs the HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/stplive/stp-live/internal/aggregate"
	"github.com/stplive/stp-live/internal/api"
	"github.com/stplive/stp-live/internal/cache"
	"github.com/stplive/stp-live/internal/clock/system"
	"github.com/stplive/stp-live/internal/config"
	"github.com/stplive/stp-live/internal/fetcher"
	collyfetcher "github.com/stplive/stp-live/internal/fetcher/colly"
	headlessfetcher "github.com/stplive/stp-live/internal/fetcher/headless"
	"github.com/stplive/stp-live/internal/headless/detector"
	"github.com/stplive/stp-live/internal/logging"
	"github.com/stplive/stp-live/internal/pipeline"
	"github.com/stplive/stp-live/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

// App contains the application's dependencies.
type App struct {
	cfg            config.Config
	logger         *zap.Logger
	aggregator     *aggregate.Service
	apiServer      *api.Server
	closeHeadless  func()
	tracerShutdown func(context.Context) error
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)

	app := &App{cfg: cfg, logger: logger}

	tp, err := telemetry.InitTracerProvider(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("tracer init failed: %w", err)
	}
	app.tracerShutdown = tp.Shutdown

	clock := system.New()
	app.aggregator = aggregate.New(
		app.setupFetcher(clock),
		cache.New(cfg.Cache.MaxEntries, clock, logger),
		clock,
		cfg,
		logger,
	)
	app.apiServer = api.NewServer(app.aggregator, logger)

	logger.Info("application built",
		zap.Int("port", cfg.Server.Port),
		zap.Bool("headless", cfg.Headless.Enabled),
		zap.Bool("tracing", cfg.Tracing.Enabled),
		zap.Int("race_sources", len(cfg.Races.Sources)),
	)
	return app, nil
}

func (a *App) setupFetcher(clock pipeline.Clock) pipeline.Fetcher {
	probe := collyfetcher.New(collyfetcher.Config{
		UserAgent:      a.cfg.HTTP.UserAgent,
		AcceptLanguage: a.cfg.HTTP.AcceptLanguage,
		Timeout:        a.cfg.FetchTimeout(),
		Clock:          clock,
	})
	a.logger.Info("using colly probe fetcher",
		zap.String("user_agent", a.cfg.HTTP.UserAgent),
		zap.Float64("host_rps", a.cfg.HTTP.HostRPS),
	)
	if !a.cfg.Headless.Enabled {
		return fetcher.NewPaced(probe, a.cfg.HTTP.HostRPS, a.cfg.HTTP.HostBurst)
	}

	var headless pipeline.Fetcher
	browser, err := headlessfetcher.NewChromedp(headlessfetcher.Config{
		MaxParallel:       a.cfg.Headless.MaxParallel,
		UserAgent:         a.cfg.HTTP.UserAgent,
		AcceptLanguage:    a.cfg.HTTP.AcceptLanguage,
		NavigationTimeout: a.cfg.NavTimeout(),
		Clock:             clock,
	})
	if err != nil {
		a.logger.Warn("headless fetcher init failed; promotion disabled", zap.Error(err))
		headless = headlessfetcher.NewNoop()
	} else {
		a.closeHeadless = browser.Close
		headless = browser
		a.logger.Info("using headless fetcher", zap.Int("max_parallel", a.cfg.Headless.MaxParallel))
	}
	detect := detector.NewHeuristic(0, a.cfg.Headless.PromotionThresh)
	promoting := fetcher.NewPromoting(probe, headless, detect, a.logger)
	return fetcher.NewPaced(promoting, a.cfg.HTTP.HostRPS, a.cfg.HTTP.HostBurst)
}

// Aggregator exposes the feature service for one-shot commands.
func (a *App) Aggregator() *aggregate.Service {
	return a.aggregator
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Handler returns the HTTP handler.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Run starts the HTTP server and blocks until the context is canceled or a signal arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	return a.Close(shutdownCtx)
}

// Close releases the browser and flushes telemetry.
func (a *App) Close(ctx context.Context) error {
	if a.closeHeadless != nil {
		a.closeHeadless()
	}
	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
	return nil
}
