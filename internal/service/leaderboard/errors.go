package leaderboard

import (
	"fmt"

	"github.com/phrazzld/ladder-api/internal/domain"
)

// ErrInvalidTimeFrame is returned for a time frame outside domain.TimeFrames.
var ErrInvalidTimeFrame = domain.ErrInvalidTimeFrame

// ServiceError wraps a failure of a leaderboard operation.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("leaderboard service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("leaderboard service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{Operation: operation, Message: message, Err: err}
}
