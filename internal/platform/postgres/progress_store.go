package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/ladder-api/internal/domain"
	"github.com/phrazzld/ladder-api/internal/platform/logger"
	"github.com/phrazzld/ladder-api/internal/redact"
	"github.com/phrazzld/ladder-api/internal/store"
)

// Foreign key constraints of user_exercise_progress, as named by PostgreSQL.
const (
	progressUserFK     = "user_exercise_progress_user_id_fkey"
	progressExerciseFK = "user_exercise_progress_exercise_id_fkey"
)

const progressColumns = `user_id, exercise_id, is_completed, points_earned, completed_at,
	attempts, last_attempt_at, created_at, updated_at`

// PostgresProgressStore implements store.ProgressStore.
type PostgresProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProgressStore creates a progress store on a pool or transaction.
func NewPostgresProgressStore(db store.DBTX, logger *slog.Logger) *PostgresProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "progress_store")),
	}
}

var _ store.ProgressStore = (*PostgresProgressStore)(nil)

func scanProgress(row rowScanner) (*domain.UserExerciseProgress, error) {
	var (
		p             domain.UserExerciseProgress
		completedAt   sql.NullTime
		lastAttemptAt sql.NullTime
	)
	if err := row.Scan(
		&p.UserID,
		&p.ExerciseID,
		&p.IsCompleted,
		&p.PointsEarned,
		&completedAt,
		&p.Attempts,
		&lastAttemptAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.CompletedAt = nullTimePtr(completedAt)
	p.LastAttemptAt = nullTimePtr(lastAttemptAt)
	return &p, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

// Acquire implements store.ProgressStore.Acquire.
//
// The insert is a no-op when the row exists. A concurrent inserter of the
// same key blocks on the primary key until the first transaction ends, and
// the SELECT ... FOR UPDATE then reads the committed row and holds its lock.
func (s *PostgresProgressStore) Acquire(
	ctx context.Context,
	userID, exerciseID uuid.UUID,
	now time.Time,
) (*domain.UserExerciseProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", userID.String()),
		slog.String("exercise_id", exerciseID.String()))

	now = now.UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_exercise_progress (user_id, exercise_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_id, exercise_id) DO NOTHING
	`, userID, exerciseID, now)
	if err != nil {
		switch foreignKeyConstraint(err) {
		case progressUserFK:
			log.Warn("progress insert references unknown user")
			return nil, store.ErrUserNotFound
		case progressExerciseFK:
			log.Warn("progress insert references unknown exercise")
			return nil, store.ErrExerciseNotFound
		}
		log.Error("failed to insert progress row", slog.String("error", redact.Error(err)))
		return nil, MapError(err)
	}

	p, err := scanProgress(s.db.QueryRowContext(ctx, `
		SELECT `+progressColumns+`
		FROM user_exercise_progress
		WHERE user_id = $1 AND exercise_id = $2
		FOR UPDATE
	`, userID, exerciseID))
	if err != nil {
		log.Error("failed to lock progress row", slog.String("error", redact.Error(err)))
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrProgressNotFound
		}
		return nil, MapError(err)
	}
	return p, nil
}

// Get implements store.ProgressStore.Get.
func (s *PostgresProgressStore) Get(
	ctx context.Context,
	userID, exerciseID uuid.UUID,
) (*domain.UserExerciseProgress, error) {
	p, err := scanProgress(s.db.QueryRowContext(ctx, `
		SELECT `+progressColumns+`
		FROM user_exercise_progress
		WHERE user_id = $1 AND exercise_id = $2
	`, userID, exerciseID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrProgressNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get progress",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", userID.String()),
			slog.String("exercise_id", exerciseID.String()))
		return nil, MapError(err)
	}
	return p, nil
}

// Update implements store.ProgressStore.Update.
func (s *PostgresProgressStore) Update(ctx context.Context, p *domain.UserExerciseProgress) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE user_exercise_progress
		SET is_completed = $3,
			points_earned = $4,
			completed_at = $5,
			attempts = $6,
			last_attempt_at = $7,
			updated_at = $8
		WHERE user_id = $1 AND exercise_id = $2
	`,
		p.UserID,
		p.ExerciseID,
		p.IsCompleted,
		p.PointsEarned,
		p.CompletedAt,
		p.Attempts,
		p.LastAttemptAt,
		p.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update progress",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", p.UserID.String()),
			slog.String("exercise_id", p.ExerciseID.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrProgressNotFound)
}

// LessonStatus implements store.ProgressStore.LessonStatus.
func (s *PostgresProgressStore) LessonStatus(
	ctx context.Context,
	userID, lessonID uuid.UUID,
) ([]domain.ExerciseStatus, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.order_index, e.points, e.is_locked,
			COALESCE(p.is_completed, FALSE),
			COALESCE(p.points_earned, 0),
			COALESCE(p.attempts, 0),
			p.completed_at
		FROM exercises e
		LEFT JOIN user_exercise_progress p
			ON p.exercise_id = e.id AND p.user_id = $1
		WHERE e.lesson_id = $2
		ORDER BY e.order_index ASC
	`, userID, lessonID)
	if err != nil {
		log.Error("failed to query lesson status",
			slog.String("error", redact.Error(err)),
			slog.String("lesson_id", lessonID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	statuses := make([]domain.ExerciseStatus, 0)
	for rows.Next() {
		var (
			st          domain.ExerciseStatus
			completedAt sql.NullTime
		)
		if err := rows.Scan(
			&st.ExerciseID,
			&st.OrderIndex,
			&st.Points,
			&st.IsLocked,
			&st.IsCompleted,
			&st.PointsEarned,
			&st.Attempts,
			&completedAt,
		); err != nil {
			return nil, store.NewStoreError("progress", "scan", "failed to scan lesson status", MapError(err))
		}
		st.CompletedAt = nullTimePtr(completedAt)
		statuses = append(statuses, st)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return statuses, nil
}

// WithTx implements store.ProgressStore.WithTx.
func (s *PostgresProgressStore) WithTx(tx *sql.Tx) store.ProgressStore {
	return &PostgresProgressStore{db: tx, logger: s.logger}
}
