package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/ladder-api/internal/domain"
)

// ExerciseStore defines the read model for exercises plus the one write the
// engine performs on them: clearing the lock flag.
type ExerciseStore interface {
	// GetByID retrieves an exercise by its unique ID.
	// Returns ErrExerciseNotFound if the exercise does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Exercise, error)

	// NextInLesson returns the exercise with the smallest order index greater
	// than afterOrder within the lesson.
	// Returns ErrExerciseNotFound if there is none.
	NextInLesson(ctx context.Context, lessonID uuid.UUID, afterOrder int) (*domain.Exercise, error)

	// Unlock clears the lock flag if it is still set and reports whether
	// this call changed it. Returns ErrExerciseNotFound if the exercise
	// does not exist.
	Unlock(ctx context.Context, id uuid.UUID) (bool, error)

	// WithTx returns a new ExerciseStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ExerciseStore
}
