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

const lessonColumns = `id, course_id, title, order_index, is_locked, created_at, updated_at`

// PostgresLessonStore implements store.LessonStore.
type PostgresLessonStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresLessonStore creates a lesson store on a pool or transaction.
func NewPostgresLessonStore(db store.DBTX, logger *slog.Logger) *PostgresLessonStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresLessonStore{
		db:     db,
		logger: logger.With(slog.String("component", "lesson_store")),
	}
}

var _ store.LessonStore = (*PostgresLessonStore)(nil)

func scanLesson(row rowScanner) (*domain.Lesson, error) {
	var l domain.Lesson
	if err := row.Scan(
		&l.ID,
		&l.CourseID,
		&l.Title,
		&l.OrderIndex,
		&l.IsLocked,
		&l.CreatedAt,
		&l.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := l.Validate(); err != nil {
		return nil, store.NewStoreError("lesson", "scan", "stored lesson is invalid",
			fmt.Errorf("%w: %w", store.ErrInvalidEntity, err))
	}
	return &l, nil
}

// GetByID implements store.LessonStore.GetByID.
func (s *PostgresLessonStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lesson, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	l, err := scanLesson(s.db.QueryRowContext(ctx,
		`SELECT `+lessonColumns+` FROM lessons WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("lesson not found", slog.String("lesson_id", id.String()))
			return nil, store.ErrLessonNotFound
		}
		log.Error("failed to get lesson",
			slog.String("error", redact.Error(err)),
			slog.String("lesson_id", id.String()))
		return nil, MapError(err)
	}
	return l, nil
}

// NextInCourse implements store.LessonStore.NextInCourse.
func (s *PostgresLessonStore) NextInCourse(
	ctx context.Context,
	courseID uuid.UUID,
	afterOrder int,
) (*domain.Lesson, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	l, err := scanLesson(s.db.QueryRowContext(ctx, `
		SELECT `+lessonColumns+`
		FROM lessons
		WHERE course_id = $1 AND order_index > $2
		ORDER BY order_index ASC
		LIMIT 1
	`, courseID, afterOrder))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrLessonNotFound
		}
		log.Error("failed to get next lesson",
			slog.String("error", redact.Error(err)),
			slog.String("course_id", courseID.String()))
		return nil, MapError(err)
	}
	return l, nil
}

// Unlock implements store.LessonStore.Unlock.
func (s *PostgresLessonStore) Unlock(ctx context.Context, id uuid.UUID) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE lessons
		SET is_locked = FALSE, updated_at = NOW()
		WHERE id = $1 AND is_locked
	`, id)
	if err != nil {
		log.Error("failed to unlock lesson",
			slog.String("error", redact.Error(err)),
			slog.String("lesson_id", id.String()))
		return false, MapError(err)
	}

	if err := CheckRowsAffected(result, nil); err == nil {
		log.Debug("lesson unlocked", slog.String("lesson_id", id.String()))
		return true, nil
	} else if !store.IsNotFoundError(err) {
		return false, err
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM lessons WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return false, MapError(err)
	}
	if !exists {
		return false, store.ErrLessonNotFound
	}
	return false, nil
}

// WithTx implements store.LessonStore.WithTx.
func (s *PostgresLessonStore) WithTx(tx *sql.Tx) store.LessonStore {
	return &PostgresLessonStore{db: tx, logger: s.logger}
}
