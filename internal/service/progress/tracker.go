package progress

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/ladder-api/internal/domain"
	"github.com/phrazzld/ladder-api/internal/domain/grading"
	"github.com/phrazzld/ladder-api/internal/events"
	"github.com/phrazzld/ladder-api/internal/platform/logger"
	"github.com/phrazzld/ladder-api/internal/store"
)

var _ Service = (*tracker)(nil)

// tracker implements Service.
type tracker struct {
	tx      store.Transactor
	stores  store.Stores
	cascade *UnlockCascade
	opts    options
	logger  *slog.Logger
}

// NewService creates the progress engine. stores are used outside
// transactions for reads and unlocks; tx opens the submission transaction.
func NewService(tx store.Transactor, stores store.Stores, logger *slog.Logger, opts ...Option) Service {
	if tx == nil {
		panic("tx cannot be nil")
	}
	if stores.Exercises == nil || stores.Lessons == nil || stores.Progress == nil || stores.Users == nil {
		panic("stores cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &tracker{
		tx:      tx,
		stores:  stores,
		cascade: NewUnlockCascade(stores.Exercises, stores.Lessons, o.metrics, logger),
		opts:    o,
		logger:  logger.With(slog.String("component", "progress_service")),
	}
}

// graded is what the submission transaction hands back after commit.
type graded struct {
	exercise         *domain.Exercise
	correct          bool
	xpAwarded        int
	alreadyCompleted bool
}

// SubmitAnswer implements Service.SubmitAnswer.
func (s *tracker) SubmitAnswer(
	ctx context.Context,
	userID, exerciseID uuid.UUID,
	answer string,
) (*SubmissionResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", userID.String()),
		slog.String("exercise_id", exerciseID.String()))

	var g graded
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx store.Stores) error {
		exercise, err := tx.Exercises.GetByID(ctx, exerciseID)
		if err != nil {
			return mapStoreError(err)
		}
		lesson, err := tx.Lessons.GetByID(ctx, exercise.LessonID)
		if err != nil {
			return mapStoreError(err)
		}
		if lesson.IsLocked {
			bypass, err := tx.Users.CanBypassLocks(ctx, userID)
			if err != nil {
				return mapStoreError(err)
			}
			if !bypass {
				return ErrLessonLocked
			}
		}

		correct := grading.Validate(exercise, answer)

		now := s.opts.now()
		p, err := tx.Progress.Acquire(ctx, userID, exerciseID, now)
		if err != nil {
			return mapStoreError(err)
		}
		wasCompleted := p.IsCompleted
		gained := p.RecordAttempt(correct, exercise.Points, now)
		if err := tx.Progress.Update(ctx, p); err != nil {
			return NewServiceError("submit_answer", "failed to update progress", err)
		}
		if gained > 0 {
			if err := tx.Users.AddPoints(ctx, userID, gained); err != nil {
				return NewServiceError("submit_answer", "failed to credit points", mapStoreError(err))
			}
		}

		g = graded{
			exercise:         exercise,
			correct:          correct,
			xpAwarded:        gained,
			alreadyCompleted: wasCompleted,
		}
		return nil
	})
	if err != nil {
		s.logFailure(log, "submission failed", err)
		return nil, err
	}

	s.opts.metrics.ObserveSubmission(g.correct)
	s.opts.metrics.ObserveXPAwarded(g.xpAwarded)
	log.Debug("answer graded",
		slog.Bool("correct", g.correct),
		slog.Int("xp_awarded", g.xpAwarded),
		slog.Bool("already_completed", g.alreadyCompleted))

	result := &SubmissionResult{
		IsCorrect:        g.correct,
		XPAwarded:        g.xpAwarded,
		AlreadyCompleted: g.alreadyCompleted,
		Explanation:      g.exercise.Explanation,
	}
	if g.correct {
		result.PointsEarned = g.exercise.Points
		next, err := s.cascade.UnlockNextExercise(ctx, g.exercise)
		if err != nil {
			log.Error("unlock cascade failed", slog.String("error", err.Error()))
			return nil, err
		}
		result.NextExercise = &next
		if next.Outcome == OutcomeUnlocked {
			s.emit(ctx, events.TypeExerciseUnlocked, userID, events.Unlocked{ID: next.ID})
		}
	} else {
		reveal := g.exercise.RevealAnswer()
		result.CorrectAnswer = &reveal
	}

	summary, err := s.summarize(ctx, userID, g.exercise.LessonID)
	if err != nil {
		log.Error("failed to summarize lesson", slog.String("error", err.Error()))
		return nil, err
	}
	result.LessonProgress = summary

	if g.xpAwarded > 0 {
		s.emit(ctx, events.TypeExerciseCompleted, userID, events.ExerciseCompleted{
			ExerciseID:   g.exercise.ID,
			LessonID:     g.exercise.LessonID,
			PointsEarned: g.xpAwarded,
		})
	}
	return result, nil
}

// CompleteLesson implements Service.CompleteLesson.
func (s *tracker) CompleteLesson(ctx context.Context, userID, lessonID uuid.UUID) (*CompletionResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", userID.String()),
		slog.String("lesson_id", lessonID.String()))

	lesson, err := s.stores.Lessons.GetByID(ctx, lessonID)
	if err != nil {
		err = mapStoreError(err)
		s.logFailure(log, "failed to load lesson", err)
		return nil, err
	}

	summary, err := s.summarize(ctx, userID, lessonID)
	if err != nil {
		log.Error("failed to summarize lesson", slog.String("error", err.Error()))
		return nil, err
	}

	next, err := s.cascade.UnlockNextLesson(ctx, lesson, summary.MeetsThreshold)
	if err != nil {
		log.Error("unlock cascade failed", slog.String("error", err.Error()))
		return nil, err
	}
	if next.Outcome == OutcomeUnlocked {
		s.emit(ctx, events.TypeLessonUnlocked, userID, events.Unlocked{ID: next.ID})
	}

	result := &CompletionResult{
		CurrentLessonID:      lesson.ID,
		IsCompleted:          summary.MeetsThreshold,
		EarnedXP:             summary.EarnedXP,
		TotalPossibleXP:      summary.TotalPossibleXP,
		CompletionPercentage: summary.CompletionPercentage,
		RequiredThreshold:    domain.CompletionThreshold,
		IsLastInCourse:       next.Outcome == OutcomeLast,
	}
	if next.Outcome != OutcomeLast {
		result.NextLesson = &next
	}

	log.Debug("lesson completion evaluated",
		slog.Bool("completed", result.IsCompleted),
		slog.Float64("completion_percentage", result.CompletionPercentage),
		slog.String("next_lesson", string(next.Outcome)))
	return result, nil
}

// GetLessonProgress implements Service.GetLessonProgress.
func (s *tracker) GetLessonProgress(ctx context.Context, userID, lessonID uuid.UUID) (*LessonProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", userID.String()),
		slog.String("lesson_id", lessonID.String()))

	if _, err := s.stores.Lessons.GetByID(ctx, lessonID); err != nil {
		err = mapStoreError(err)
		s.logFailure(log, "failed to load lesson", err)
		return nil, err
	}

	rows, err := s.stores.Progress.LessonStatus(ctx, userID, lessonID)
	if err != nil {
		log.Error("failed to load lesson status", slog.String("error", err.Error()))
		return nil, NewServiceError("get_lesson_progress", "failed to load lesson status", err)
	}

	exercises := make(map[uuid.UUID]domain.ExerciseStatus, len(rows))
	for _, r := range rows {
		exercises[r.ExerciseID] = r
	}
	return &LessonProgress{
		LessonID:        lessonID,
		ProgressSummary: domain.SummarizeLesson(rows),
		Exercises:       exercises,
	}, nil
}

// summarize computes the lesson summary from the outer join of the lesson's
// exercises with the user's progress rows.
func (s *tracker) summarize(ctx context.Context, userID, lessonID uuid.UUID) (domain.ProgressSummary, error) {
	rows, err := s.stores.Progress.LessonStatus(ctx, userID, lessonID)
	if err != nil {
		return domain.ProgressSummary{}, NewServiceError("summarize_lesson", "failed to load lesson status", err)
	}
	return domain.SummarizeLesson(rows), nil
}

// emit publishes an event after commit. Failures are logged and dropped.
func (s *tracker) emit(ctx context.Context, eventType string, userID uuid.UUID, payload interface{}) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	ev, err := events.NewProgressEvent(eventType, userID, payload, s.opts.now())
	if err != nil {
		log.Error("failed to build event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
		return
	}
	if err := s.opts.emitter.EmitEvent(ctx, ev); err != nil {
		log.Warn("event handler failed",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
	}
}

func (s *tracker) logFailure(log *slog.Logger, msg string, err error) {
	if isCallerFault(err) {
		log.Warn(msg, slog.String("error", err.Error()))
		return
	}
	log.Error(msg, slog.String("error", err.Error()))
}
