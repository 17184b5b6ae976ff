package testdb

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/ladder-api/internal/platform/logger"
	"github.com/phrazzld/ladder-api/internal/platform/postgres"
	"github.com/stretchr/testify/require"
)

// TestTimeout bounds setup and cleanup statements.
const TestTimeout = 10 * time.Second

// migrateOnce applies migrations once per test binary.
var (
	migrateOnce sync.Once
	migrateErr  error
)

// GetTestDatabaseURL returns LADDER_TEST_DB_URL, falling back to DATABASE_URL.
func GetTestDatabaseURL() string {
	if u := os.Getenv("LADDER_TEST_DB_URL"); u != "" {
		return u
	}
	return os.Getenv("DATABASE_URL")
}

// IsIntegrationTestEnvironment reports whether a test database is configured.
func IsIntegrationTestEnvironment() bool {
	return GetTestDatabaseURL() != ""
}

// Open connects to the test database, migrates it and registers cleanup
// that truncates all tables and closes the pool. The test is skipped when
// no database is configured.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	if !IsIntegrationTestEnvironment() {
		t.Skip("LADDER_TEST_DB_URL not set; skipping database test")
	}

	db, err := sql.Open("pgx", GetTestDatabaseURL())
	require.NoError(t, err, "failed to open test database")

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()
	require.NoError(t, db.PingContext(ctx), "failed to ping test database")

	migrateOnce.Do(func() {
		migrateErr = postgres.Migrate(ctx, db, "up", logger.New(os.Stderr, slog.LevelWarn))
	})
	require.NoError(t, migrateErr, "failed to migrate test database")

	Reset(t, db)
	t.Cleanup(func() {
		Reset(t, db)
		_ = db.Close()
	})
	return db
}

// Reset removes every row from the application tables.
func Reset(t *testing.T, db *sql.DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()
	_, err := db.ExecContext(ctx,
		`TRUNCATE user_exercise_progress, exercises, lessons, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err, "failed to truncate test tables")
}

// WithTx runs fn inside a transaction that is always rolled back.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.Begin()
	require.NoError(t, err, "failed to begin transaction")
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("failed to roll back test transaction: %v", err)
		}
	}()

	fn(t, tx)
}
