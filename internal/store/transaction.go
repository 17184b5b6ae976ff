package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/ladder-api/internal/platform/logger"
	"github.com/phrazzld/ladder-api/internal/redact"
)

// TxFn is a function that executes within a database transaction.
// The transaction is committed if the function returns nil, or rolled back if it returns an error.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// RunInTransaction executes the given function within a database transaction.
// If the function returns an error or panics, the transaction is rolled back.
// Otherwise, the transaction is committed.
func RunInTransaction(ctx context.Context, db *sql.DB, fn TxFn) error {
	log := logger.FromContext(ctx)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction",
			slog.String("error", redact.Error(err)))
		return fmt.Errorf("%w: begin: %v", ErrTransactionFailed, err)
	}

	defer func() {
		if p := recover(); p != nil {
			if txErr := tx.Rollback(); txErr != nil {
				log.Error("failed to roll back transaction after panic",
					slog.String("error", redact.Error(txErr)),
					slog.Any("panic", p))
			} else {
				log.Error("rolled back transaction after panic",
					slog.Any("panic", p))
			}
			// ALLOW-PANIC: Propagating caught panic from transaction
			panic(p)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			log.Error("failed to roll back transaction",
				slog.String("rollback_error", rollbackErr.Error()),
				slog.String("original_error", err.Error()))
			return fmt.Errorf(
				"error rolling back transaction: %v (original error: %w)",
				rollbackErr,
				err,
			)
		}
		log.Debug("rolled back transaction due to error",
			slog.String("error", redact.Error(err)))
		return err
	}

	if err = tx.Commit(); err != nil {
		log.Error("failed to commit transaction",
			slog.String("error", redact.Error(err)))
		return fmt.Errorf("%w: commit: %v", ErrTransactionFailed, err)
	}

	log.Debug("transaction committed successfully")
	return nil
}

// Stores groups the stores a unit of work operates on.
type Stores struct {
	Exercises ExerciseStore
	Lessons   LessonStore
	Progress  ProgressStore
	Users     UserStore
}

// WithTx binds every store in the group to the transaction.
func (s Stores) WithTx(tx *sql.Tx) Stores {
	return Stores{
		Exercises: s.Exercises.WithTx(tx),
		Lessons:   s.Lessons.WithTx(tx),
		Progress:  s.Progress.WithTx(tx),
		Users:     s.Users.WithTx(tx),
	}
}

// Transactor runs a function against a set of stores bound to a single
// transaction. The function's writes commit together or not at all.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Stores) error) error
}

// SQLTransactor implements Transactor on top of RunInTransaction.
type SQLTransactor struct {
	db     *sql.DB
	stores Stores
}

// NewSQLTransactor creates a Transactor that opens transactions on db and
// binds stores to them.
func NewSQLTransactor(db *sql.DB, stores Stores) *SQLTransactor {
	if db == nil {
		panic("db cannot be nil")
	}
	return &SQLTransactor{db: db, stores: stores}
}

// WithinTx implements Transactor.
func (t *SQLTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Stores) error) error {
	return RunInTransaction(ctx, t.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, t.stores.WithTx(tx))
	})
}
