package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/ladder-api/internal/domain"
)

// LeaderboardStore is the read model behind leaderboards. All-time windows
// read users.total_points_earned; bounded windows sum points_earned of
// completed progress rows by completed_at. Users with no XP in a window are
// never returned by Totals.
type LeaderboardStore interface {
	// Totals returns per-user XP in the window ordered by XP descending,
	// then display name, then user ID. A limit of zero or less returns
	// every user.
	Totals(ctx context.Context, window domain.TimeWindow, limit int) ([]domain.XPTotal, error)

	// UserTotal returns one user's XP in the window, zero if they have none.
	// Returns ErrUserNotFound if the user does not exist.
	UserTotal(ctx context.Context, userID uuid.UUID, window domain.TimeWindow) (domain.XPTotal, error)

	// CountAbove returns the number of users with strictly more than xp in the window.
	CountAbove(ctx context.Context, window domain.TimeWindow, xp int) (int, error)

	// CompletionTimes returns, per user, at least one completion timestamp
	// for every UTC day on which the user completed an exercise. Users
	// without completions are absent.
	CompletionTimes(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]time.Time, error)
}
