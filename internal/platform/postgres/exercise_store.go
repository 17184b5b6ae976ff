package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/ladder-api/internal/domain"
	"github.com/phrazzld/ladder-api/internal/platform/logger"
	"github.com/phrazzld/ladder-api/internal/redact"
	"github.com/phrazzld/ladder-api/internal/store"
)

const exerciseColumns = `id, lesson_id, kind, title, points, order_index, is_locked, explanation, variant, created_at, updated_at`

// PostgresExerciseStore implements store.ExerciseStore.
type PostgresExerciseStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresExerciseStore creates an exercise store on a pool or transaction.
// If logger is nil, the default logger is used.
func NewPostgresExerciseStore(db store.DBTX, logger *slog.Logger) *PostgresExerciseStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresExerciseStore{
		db:     db,
		logger: logger.With(slog.String("component", "exercise_store")),
	}
}

var _ store.ExerciseStore = (*PostgresExerciseStore)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExercise(row rowScanner) (*domain.Exercise, error) {
	var (
		e       domain.Exercise
		kind    string
		variant []byte
	)
	if err := row.Scan(
		&e.ID,
		&e.LessonID,
		&kind,
		&e.Title,
		&e.Points,
		&e.OrderIndex,
		&e.IsLocked,
		&e.Explanation,
		&variant,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	v, err := domain.DecodeVariant(domain.ExerciseKind(kind), variant)
	if err != nil {
		return nil, store.NewStoreError("exercise", "scan", "undecodable variant",
			fmt.Errorf("%w: %w", store.ErrInvalidEntity, err))
	}
	e.Variant = v
	if err := e.Validate(); err != nil {
		return nil, store.NewStoreError("exercise", "scan", "stored exercise is invalid",
			fmt.Errorf("%w: %w", store.ErrInvalidEntity, err))
	}
	return &e, nil
}

// GetByID implements store.ExerciseStore.GetByID.
func (s *PostgresExerciseStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Exercise, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + exerciseColumns + ` FROM exercises WHERE id = $1`
	e, err := scanExercise(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("exercise not found", slog.String("exercise_id", id.String()))
			return nil, store.ErrExerciseNotFound
		}
		log.Error("failed to get exercise",
			slog.String("error", redact.Error(err)),
			slog.String("exercise_id", id.String()))
		return nil, MapError(err)
	}
	return e, nil
}

// NextInLesson implements store.ExerciseStore.NextInLesson.
func (s *PostgresExerciseStore) NextInLesson(
	ctx context.Context,
	lessonID uuid.UUID,
	afterOrder int,
) (*domain.Exercise, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + exerciseColumns + `
		FROM exercises
		WHERE lesson_id = $1 AND order_index > $2
		ORDER BY order_index ASC
		LIMIT 1
	`
	e, err := scanExercise(s.db.QueryRowContext(ctx, query, lessonID, afterOrder))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrExerciseNotFound
		}
		log.Error("failed to get next exercise",
			slog.String("error", redact.Error(err)),
			slog.String("lesson_id", lessonID.String()),
			slog.Int("after_order", afterOrder))
		return nil, MapError(err)
	}
	return e, nil
}

// Unlock implements store.ExerciseStore.Unlock.
func (s *PostgresExerciseStore) Unlock(ctx context.Context, id uuid.UUID) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE exercises
		SET is_locked = FALSE, updated_at = NOW()
		WHERE id = $1 AND is_locked
	`, id)
	if err != nil {
		log.Error("failed to unlock exercise",
			slog.String("error", redact.Error(err)),
			slog.String("exercise_id", id.String()))
		return false, MapError(err)
	}

	if err := CheckRowsAffected(result, nil); err == nil {
		log.Debug("exercise unlocked", slog.String("exercise_id", id.String()))
		return true, nil
	} else if !store.IsNotFoundError(err) {
		return false, err
	}

	// Nothing changed: the exercise is either already open or missing.
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM exercises WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return false, MapError(err)
	}
	if !exists {
		return false, store.ErrExerciseNotFound
	}
	return false, nil
}

// WithTx implements store.ExerciseStore.WithTx.
func (s *PostgresExerciseStore) WithTx(tx *sql.Tx) store.ExerciseStore {
	return &PostgresExerciseStore{db: tx, logger: s.logger}
}
