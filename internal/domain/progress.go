package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserExerciseProgress is the single row that records one user's
// relationship to one exercise.
//
// Once IsCompleted is true, PointsEarned and CompletedAt never change again.
type UserExerciseProgress struct {
	UserID        uuid.UUID  `json:"user_id"`
	ExerciseID    uuid.UUID  `json:"exercise_id"`
	IsCompleted   bool       `json:"is_completed"`
	PointsEarned  int        `json:"points_earned"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Attempts      int        `json:"attempts"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewUserExerciseProgress creates an untouched progress row.
func NewUserExerciseProgress(userID, exerciseID uuid.UUID, now time.Time) *UserExerciseProgress {
	now = now.UTC()
	return &UserExerciseProgress{
		UserID:     userID,
		ExerciseID: exerciseID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// RecordAttempt applies one graded submission to the row and returns the
// points newly credited by it. Only the first correct attempt credits
// points; every later attempt returns 0 and leaves the completion fields as
// they were.
func (p *UserExerciseProgress) RecordAttempt(correct bool, points int, now time.Time) int {
	now = now.UTC()
	p.Attempts++
	p.LastAttemptAt = &now
	p.UpdatedAt = now

	if !correct || p.IsCompleted {
		return 0
	}

	completedAt := now
	p.IsCompleted = true
	p.PointsEarned = points
	p.CompletedAt = &completedAt
	return points
}
