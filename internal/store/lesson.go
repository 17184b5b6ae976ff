package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/ladder-api/internal/domain"
)

// LessonStore defines the read model for lessons plus lock flag updates.
type LessonStore interface {
	// GetByID retrieves a lesson by its unique ID.
	// Returns ErrLessonNotFound if the lesson does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lesson, error)

	// NextInCourse returns the lesson with the smallest order index greater
	// than afterOrder within the course.
	// Returns ErrLessonNotFound if there is none.
	NextInCourse(ctx context.Context, courseID uuid.UUID, afterOrder int) (*domain.Lesson, error)

	// Unlock clears the lock flag if it is still set and reports whether
	// this call changed it. Returns ErrLessonNotFound if the lesson does
	// not exist.
	Unlock(ctx context.Context, id uuid.UUID) (bool, error)

	// WithTx returns a new LessonStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) LessonStore
}
