package progress

import (
	"errors"
	"fmt"

	"github.com/phrazzld/ladder-api/internal/store"
)

var (
	// ErrNotFound is the class of every missing-entity error of this package.
	ErrNotFound = errors.New("not found")

	// ErrExerciseNotFound indicates the submitted exercise does not exist.
	ErrExerciseNotFound = fmt.Errorf("exercise %w", ErrNotFound)

	// ErrLessonNotFound indicates the lesson does not exist.
	ErrLessonNotFound = fmt.Errorf("lesson %w", ErrNotFound)

	// ErrUserNotFound indicates the submitting user does not exist.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)

	// ErrLessonLocked indicates a submission to a locked lesson by a user
	// whose role cannot bypass locks. API layer maps this to 403.
	ErrLessonLocked = errors.New("lesson is locked")
)

// ServiceError wraps an unexpected failure with the operation it broke.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("progress service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("progress service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{Operation: operation, Message: message, Err: err}
}

// mapStoreError translates store not-found errors into this package's
// sentinels and leaves everything else untouched.
func mapStoreError(err error) error {
	if !store.IsNotFoundError(err) {
		return err
	}
	switch {
	case errors.Is(err, store.ErrExerciseNotFound):
		return ErrExerciseNotFound
	case errors.Is(err, store.ErrLessonNotFound):
		return ErrLessonNotFound
	case errors.Is(err, store.ErrUserNotFound):
		return ErrUserNotFound
	default:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
}

// isCallerFault reports whether err is an expected outcome to log at Warn.
func isCallerFault(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrLessonLocked)
}
