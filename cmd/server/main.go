// Package main implements the entry point for the Ladder API server, the
// scoring and progression engine of the course platform.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/ladder-api/internal/config"
	"github.com/phrazzld/ladder-api/internal/platform/logger"
	"github.com/phrazzld/ladder-api/internal/platform/postgres"
)

func main() {
	migrate := flag.String("migrate", "", "run a goose command (up, down, status, version, redo) and exit")
	skipMigrations := flag.Bool("skip-migrations", false, "do not apply pending migrations at startup")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, *migrate, *skipMigrations)
	stop()
	if err != nil {
		log.Fatalf("ladder-api: %v", err)
	}
}

// run loads configuration, connects to the database and either executes a
// migration command or serves HTTP until ctx is canceled.
func run(ctx context.Context, migrateCmd string, skipMigrations bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	l.Info("Server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.Bool("redis_enabled", cfg.Redis.Enabled))

	db, err := setupAppDatabase(ctx, cfg.Database, l)
	if err != nil {
		return err
	}

	if migrateCmd != "" {
		defer func() { _ = db.Close() }()
		if err := postgres.Migrate(ctx, db, migrateCmd, l); err != nil {
			return fmt.Errorf("migration %q failed: %w", migrateCmd, err)
		}
		l.Info("Migration command completed", slog.String("command", migrateCmd))
		return nil
	}

	if !skipMigrations {
		if err := postgres.Migrate(ctx, db, "up", l); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	app, err := newApplication(ctx, cfg, l, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags]\n\n", os.Args[0])
		fmt.Fprintln(flag.CommandLine.Output(), "Configuration is read from config.yaml and LADDER_* environment variables.")
		flag.PrintDefaults()
	}
}
