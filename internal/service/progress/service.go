package progress

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/ladder-api/internal/domain"
)

// SubmissionResult is the graded outcome of one answer submission.
// An incorrect answer is a normal result, not an error.
type SubmissionResult struct {
	IsCorrect bool `json:"is_correct"`
	// PointsEarned is the exercise's points when the answer is correct, else 0.
	PointsEarned int `json:"points_earned"`
	// XPAwarded is what this call credited to the user's total: the points
	// on the first correct answer, 0 on every other call.
	XPAwarded        int     `json:"xp_awarded"`
	AlreadyCompleted bool    `json:"already_completed"`
	CorrectAnswer    *string `json:"correct_answer"`
	Explanation      string  `json:"explanation,omitempty"`
	// NextExercise reports the cascade outcome; nil for incorrect answers.
	NextExercise   *UnlockResult          `json:"next_exercise,omitempty"`
	LessonProgress domain.ProgressSummary `json:"lesson_progress"`
}

// CompletionResult is the outcome of a lesson completion request.
type CompletionResult struct {
	CurrentLessonID      uuid.UUID     `json:"current_lesson_id"`
	IsCompleted          bool          `json:"is_completed"`
	EarnedXP             int           `json:"earned_xp"`
	TotalPossibleXP      int           `json:"total_possible_xp"`
	CompletionPercentage float64       `json:"completion_percentage"`
	RequiredThreshold    float64       `json:"required_threshold"`
	IsLastInCourse       bool          `json:"is_last_in_course"`
	NextLesson           *UnlockResult `json:"next_lesson,omitempty"`
}

// LessonProgress is a lesson summary plus the status of every exercise.
type LessonProgress struct {
	LessonID uuid.UUID `json:"lesson_id"`
	domain.ProgressSummary
	Exercises map[uuid.UUID]domain.ExerciseStatus `json:"exercises"`
}

// Service is the progress engine.
type Service interface {
	// SubmitAnswer grades answer against the exercise, records the attempt
	// and credits XP on the first correct answer.
	//
	// Returns ErrExerciseNotFound, ErrUserNotFound, or ErrLessonLocked when
	// the owning lesson is locked and the user cannot bypass locks.
	SubmitAnswer(ctx context.Context, userID, exerciseID uuid.UUID, answer string) (*SubmissionResult, error)

	// CompleteLesson checks the lesson against the completion threshold and
	// unlocks the next lesson of the course when it is met.
	// Returns ErrLessonNotFound if the lesson does not exist.
	CompleteLesson(ctx context.Context, userID, lessonID uuid.UUID) (*CompletionResult, error)

	// GetLessonProgress summarizes the user's progress through a lesson.
	// Returns ErrLessonNotFound if the lesson does not exist.
	GetLessonProgress(ctx context.Context, userID, lessonID uuid.UUID) (*LessonProgress, error)
}
