package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/ladder-api/internal/domain"
	"github.com/phrazzld/ladder-api/internal/platform/logger"
	"github.com/phrazzld/ladder-api/internal/redact"
	"github.com/phrazzld/ladder-api/internal/store"
)

// PostgresLeaderboardStore implements store.LeaderboardStore.
type PostgresLeaderboardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresLeaderboardStore creates the leaderboard read model.
func NewPostgresLeaderboardStore(db store.DBTX, logger *slog.Logger) *PostgresLeaderboardStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresLeaderboardStore{
		db:     db,
		logger: logger.With(slog.String("component", "leaderboard_store")),
	}
}

var _ store.LeaderboardStore = (*PostgresLeaderboardStore)(nil)

// totalsQuery returns a query yielding (user_id, xp) for the window plus
// its arguments. The placeholder numbering starts at $1.
func totalsQuery(window domain.TimeWindow) (string, []any) {
	if window.AllTime {
		return `SELECT id AS user_id, total_points_earned AS xp FROM users`, nil
	}

	var b strings.Builder
	b.WriteString(`
		SELECT user_id, SUM(points_earned)::INTEGER AS xp
		FROM user_exercise_progress
		WHERE is_completed AND completed_at >= $1`)
	args := []any{window.Start.UTC()}
	if !window.End.IsZero() {
		b.WriteString(` AND completed_at < $2`)
		args = append(args, window.End.UTC())
	}
	b.WriteString(`
		GROUP BY user_id`)
	return b.String(), args
}

// Totals implements store.LeaderboardStore.Totals.
func (s *PostgresLeaderboardStore) Totals(
	ctx context.Context,
	window domain.TimeWindow,
	limit int,
) ([]domain.XPTotal, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	inner, args := totalsQuery(window)
	query := `
		SELECT u.id, u.display_name, u.avatar_url, t.xp
		FROM (` + inner + `) t
		JOIN users u ON u.id = t.user_id
		WHERE t.xp > 0
		ORDER BY t.xp DESC, u.display_name ASC, u.id ASC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query leaderboard totals",
			slog.String("error", redact.Error(err)),
			slog.Bool("all_time", window.AllTime))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	totals := make([]domain.XPTotal, 0)
	for rows.Next() {
		var t domain.XPTotal
		if err := rows.Scan(&t.UserID, &t.DisplayName, &t.AvatarURL, &t.XP); err != nil {
			return nil, store.NewStoreError("leaderboard", "scan", "failed to scan total", MapError(err))
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return totals, nil
}

// UserTotal implements store.LeaderboardStore.UserTotal.
func (s *PostgresLeaderboardStore) UserTotal(
	ctx context.Context,
	userID uuid.UUID,
	window domain.TimeWindow,
) (domain.XPTotal, error) {
	inner, args := totalsQuery(window)
	args = append(args, userID)
	query := fmt.Sprintf(`
		SELECT u.id, u.display_name, u.avatar_url, COALESCE(t.xp, 0)
		FROM users u
		LEFT JOIN (%s) t ON t.user_id = u.id
		WHERE u.id = $%d`, inner, len(args))

	var t domain.XPTotal
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&t.UserID, &t.DisplayName, &t.AvatarURL, &t.XP)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.XPTotal{}, store.ErrUserNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query user total",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", userID.String()))
		return domain.XPTotal{}, MapError(err)
	}
	return t, nil
}

// CountAbove implements store.LeaderboardStore.CountAbove.
func (s *PostgresLeaderboardStore) CountAbove(
	ctx context.Context,
	window domain.TimeWindow,
	xp int,
) (int, error) {
	inner, args := totalsQuery(window)
	args = append(args, xp)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM (%s) t WHERE t.xp > $%d AND t.xp > 0`, inner, len(args))

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count users above",
			slog.String("error", redact.Error(err)),
			slog.Int("xp", xp))
		return 0, MapError(err)
	}
	return count, nil
}

// CompletionTimes implements store.LeaderboardStore.CompletionTimes. One
// timestamp per distinct UTC day is returned.
func (s *PostgresLeaderboardStore) CompletionTimes(
	ctx context.Context,
	userIDs []uuid.UUID,
) (map[uuid.UUID][]time.Time, error) {
	times := make(map[uuid.UUID][]time.Time)
	if len(userIDs) == 0 {
		return times, nil
	}

	ids := make([]string, len(userIDs))
	for i, id := range userIDs {
		ids[i] = id.String()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT user_id, date_trunc('day', completed_at AT TIME ZONE 'UTC') AS day
		FROM user_exercise_progress
		WHERE is_completed AND user_id = ANY($1::uuid[])
		ORDER BY user_id, day DESC
	`, ids)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query completion days",
			slog.String("error", redact.Error(err)),
			slog.Int("users", len(userIDs)))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			id  uuid.UUID
			day time.Time
		)
		if err := rows.Scan(&id, &day); err != nil {
			return nil, store.NewStoreError("leaderboard", "scan", "failed to scan completion day", MapError(err))
		}
		// date_trunc on a timestamp without zone yields a wall clock in UTC.
		day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
		times[id] = append(times[id], day)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return times, nil
}
