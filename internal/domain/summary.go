package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// CompletionThreshold is the earned/possible XP ratio a lesson needs before
// it counts as completed and unlocks its successor.
const CompletionThreshold = 0.70

// ExerciseStatus is one exercise of a lesson joined with the user's progress
// row for it. Exercises the user never attempted have zero progress fields.
type ExerciseStatus struct {
	ExerciseID   uuid.UUID  `json:"exercise_id"`
	OrderIndex   int        `json:"order_index"`
	Points       int        `json:"points"`
	IsLocked     bool       `json:"is_locked"`
	IsCompleted  bool       `json:"is_completed"`
	PointsEarned int        `json:"points_earned"`
	Attempts     int        `json:"attempts"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// ProgressSummary aggregates a user's progress through one lesson.
type ProgressSummary struct {
	CompletedExercises int `json:"completed_exercises"`
	TotalExercises     int `json:"total_exercises"`
	EarnedXP           int `json:"earned_xp"`
	TotalPossibleXP    int `json:"total_possible_xp"`
	// CompletionPercentage is a ratio in [0,1] rounded to two decimals.
	CompletionPercentage float64 `json:"completion_percentage"`
	MeetsThreshold       bool    `json:"meets_threshold"`
}

// SummarizeLesson folds the joined exercise rows of a lesson into a summary.
// A lesson with no possible XP is vacuously complete.
func SummarizeLesson(rows []ExerciseStatus) ProgressSummary {
	var s ProgressSummary
	for _, r := range rows {
		s.TotalExercises++
		s.TotalPossibleXP += r.Points
		if r.IsCompleted {
			s.CompletedExercises++
			s.EarnedXP += r.PointsEarned
		}
	}

	ratio := 1.0
	if s.TotalPossibleXP > 0 {
		ratio = float64(s.EarnedXP) / float64(s.TotalPossibleXP)
	}
	s.MeetsThreshold = ratio >= CompletionThreshold
	s.CompletionPercentage = math.Round(ratio*100) / 100
	return s
}
