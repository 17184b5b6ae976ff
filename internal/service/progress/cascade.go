package progress

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/ladder-api/internal/domain"
	"github.com/phrazzld/ladder-api/internal/platform/logger"
	"github.com/phrazzld/ladder-api/internal/store"
)

// UnlockOutcome describes what the cascade did with a successor.
type UnlockOutcome string

// Unlock outcomes.
const (
	// OutcomeLast means there is no successor.
	OutcomeLast UnlockOutcome = "last"
	// OutcomeUnlocked means this call flipped the successor to unlocked.
	OutcomeUnlocked UnlockOutcome = "unlocked"
	// OutcomeAlreadyUnlocked means the successor was already open.
	OutcomeAlreadyUnlocked UnlockOutcome = "already_unlocked"
	// OutcomeNotEligible means the predecessor's condition is not met and the
	// successor was left untouched.
	OutcomeNotEligible UnlockOutcome = "not_eligible"
)

// UnlockResult names the successor and what happened to it. ID and Title
// are empty when Outcome is OutcomeLast.
type UnlockResult struct {
	Outcome UnlockOutcome `json:"unlock"`
	ID      uuid.UUID     `json:"id"`
	Title   string        `json:"title"`
}

// UnlockCascade advances lock flags from one unit to its successor.
// Locked to unlocked is the only transition; nothing is ever re-locked.
type UnlockCascade struct {
	exercises store.ExerciseStore
	lessons   store.LessonStore
	metrics   Recorder
	logger    *slog.Logger
}

// NewUnlockCascade creates a cascade over the given stores.
func NewUnlockCascade(
	exercises store.ExerciseStore,
	lessons store.LessonStore,
	metrics Recorder,
	logger *slog.Logger,
) *UnlockCascade {
	if exercises == nil {
		panic("exercises cannot be nil")
	}
	if lessons == nil {
		panic("lessons cannot be nil")
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UnlockCascade{
		exercises: exercises,
		lessons:   lessons,
		metrics:   metrics,
		logger:    logger.With(slog.String("component", "unlock_cascade")),
	}
}

// UnlockNextExercise unlocks the exercise that follows completed in its lesson.
func (c *UnlockCascade) UnlockNextExercise(ctx context.Context, completed *domain.Exercise) (UnlockResult, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	next, err := c.exercises.NextInLesson(ctx, completed.LessonID, completed.OrderIndex)
	if err != nil {
		if errors.Is(err, store.ErrExerciseNotFound) {
			return UnlockResult{Outcome: OutcomeLast}, nil
		}
		return UnlockResult{}, NewServiceError("unlock_next_exercise", "failed to find next exercise", err)
	}

	result := UnlockResult{Outcome: OutcomeAlreadyUnlocked, ID: next.ID, Title: next.Title}
	if !next.IsLocked {
		return result, nil
	}

	changed, err := c.exercises.Unlock(ctx, next.ID)
	if err != nil {
		return UnlockResult{}, NewServiceError("unlock_next_exercise", "failed to unlock exercise", err)
	}
	if changed {
		result.Outcome = OutcomeUnlocked
		c.metrics.ObserveUnlock("exercise")
		log.Info("exercise unlocked",
			slog.String("exercise_id", next.ID.String()),
			slog.String("after_exercise_id", completed.ID.String()))
	}
	return result, nil
}

// UnlockNextLesson unlocks the lesson that follows lesson in its course when
// eligible is true. An ineligible call only names the successor.
func (c *UnlockCascade) UnlockNextLesson(ctx context.Context, lesson *domain.Lesson, eligible bool) (UnlockResult, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	next, err := c.lessons.NextInCourse(ctx, lesson.CourseID, lesson.OrderIndex)
	if err != nil {
		if errors.Is(err, store.ErrLessonNotFound) {
			return UnlockResult{Outcome: OutcomeLast}, nil
		}
		return UnlockResult{}, NewServiceError("unlock_next_lesson", "failed to find next lesson", err)
	}

	result := UnlockResult{Outcome: OutcomeNotEligible, ID: next.ID, Title: next.Title}
	if !eligible {
		return result, nil
	}
	if !next.IsLocked {
		result.Outcome = OutcomeAlreadyUnlocked
		return result, nil
	}

	changed, err := c.lessons.Unlock(ctx, next.ID)
	if err != nil {
		return UnlockResult{}, NewServiceError("unlock_next_lesson", "failed to unlock lesson", err)
	}
	result.Outcome = OutcomeAlreadyUnlocked
	if changed {
		result.Outcome = OutcomeUnlocked
		c.metrics.ObserveUnlock("lesson")
		log.Info("lesson unlocked",
			slog.String("lesson_id", next.ID.String()),
			slog.String("after_lesson_id", lesson.ID.String()))
	}
	return result, nil
}
