package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lesson is an ordered group of exercises inside a course.
type Lesson struct {
	ID         uuid.UUID `json:"id"`
	CourseID   uuid.UUID `json:"course_id"`
	Title      string    `json:"title"`
	OrderIndex int       `json:"order_index"`
	IsLocked   bool      `json:"is_locked"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Validate checks if the Lesson has valid data.
func (l *Lesson) Validate() error {
	if l.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if l.CourseID == uuid.Nil {
		return NewValidationError("course_id", "cannot be empty", ErrInvalidID)
	}
	if l.OrderIndex < 0 {
		return NewValidationError("order_index", "cannot be negative", nil)
	}
	return nil
}
