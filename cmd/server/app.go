package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/phrazzld/ladder-api/internal/config"
	"github.com/phrazzld/ladder-api/internal/events"
	"github.com/phrazzld/ladder-api/internal/platform/metrics"
	"github.com/phrazzld/ladder-api/internal/platform/postgres"
	"github.com/phrazzld/ladder-api/internal/platform/redis"
	"github.com/phrazzld/ladder-api/internal/service/auth"
	"github.com/phrazzld/ladder-api/internal/service/leaderboard"
	"github.com/phrazzld/ladder-api/internal/service/progress"
	"github.com/phrazzld/ladder-api/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// application holds the shared dependencies of the server and closes them
// on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	cache  io.Closer

	registry *prometheus.Registry
	metrics  *metrics.Metrics

	jwtService         auth.JWTService
	progressService    progress.Service
	leaderboardService leaderboard.Service
}

// newApplication wires stores, cache, services and events on top of an
// open database.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config:   cfg,
		logger:   logger,
		db:       db,
		registry: newRegistry(),
	}
	app.metrics = metrics.New(app.registry)

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	backend, err := app.setupCache(ctx)
	if err != nil {
		return nil, err
	}
	// One instance serves both reads and invalidation so builds racing a
	// credit are not cached.
	snapshots := leaderboard.NewGenerationCache(backend)

	app.leaderboardService = leaderboard.NewService(
		postgres.NewPostgresLeaderboardStore(db, logger),
		logger,
		leaderboard.WithCache(snapshots),
		leaderboard.WithMetrics(app.metrics),
		leaderboard.WithSize(cfg.Leaderboard.Size),
	)

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(leaderboard.NewInvalidationHandler(snapshots, logger))

	stores := postgres.NewStores(db, logger)
	app.progressService = progress.NewService(
		store.NewSQLTransactor(db, stores),
		stores,
		logger,
		progress.WithMetrics(app.metrics),
		progress.WithEmitter(emitter),
	)

	logger.Info("Application initialized successfully")
	return app, nil
}

// setupCache connects to Redis when enabled. Without Redis snapshots are
// rebuilt on every request.
func (app *application) setupCache(ctx context.Context) (leaderboard.SnapshotCache, error) {
	if !app.config.Redis.Enabled {
		app.logger.Info("Leaderboard cache disabled")
		return leaderboard.NopCache{}, nil
	}

	client, err := redis.NewClient(ctx, app.config.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.cache = client
	app.logger.Info("Leaderboard cache connected",
		slog.String("addr", app.config.Redis.Addr),
		slog.Duration("ttl", app.config.Leaderboard.CacheTTL()))
	return redis.NewLeaderboardCache(client, app.config.Leaderboard.CacheTTL(), app.logger), nil
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Run serves HTTP until ctx is canceled, then releases resources.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.cache != nil {
		if err := app.cache.Close(); err != nil {
			app.logger.Error("Error closing redis connection", slog.String("error", err.Error()))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", slog.String("error", err.Error()))
		}
	}
	app.logger.Info("Application shutdown completed")
}
