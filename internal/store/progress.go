package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/ladder-api/internal/domain"
)

// ProgressStore persists UserExerciseProgress rows, one per user and exercise.
type ProgressStore interface {
	// Acquire returns the progress row for the user and exercise, creating an
	// untouched row stamped with now if none exists. Inside a transaction the
	// row stays locked against concurrent writers until the transaction ends,
	// so a caller can read IsCompleted and update the row without racing.
	// Returns ErrUserNotFound or ErrExerciseNotFound if either side is missing.
	Acquire(ctx context.Context, userID, exerciseID uuid.UUID, now time.Time) (*domain.UserExerciseProgress, error)

	// Get retrieves the progress row for the user and exercise.
	// Returns ErrProgressNotFound if the user never submitted an answer.
	Get(ctx context.Context, userID, exerciseID uuid.UUID) (*domain.UserExerciseProgress, error)

	// Update writes every mutable field of an existing row.
	// Returns ErrProgressNotFound if the row does not exist.
	Update(ctx context.Context, progress *domain.UserExerciseProgress) error

	// LessonStatus returns every exercise of the lesson ordered by order
	// index, outer joined with the user's progress rows.
	LessonStatus(ctx context.Context, userID, lessonID uuid.UUID) ([]domain.ExerciseStatus, error)

	// WithTx returns a new ProgressStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ProgressStore
}
