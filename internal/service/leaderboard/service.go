package leaderboard

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/ladder-api/internal/domain"
)

// Service serves leaderboards.
type Service interface {
	// GetLeaderboard returns the ranked snapshot of tf. When currentUserID is
	// not uuid.Nil the matching entry is flagged and CurrentUserEntry is
	// filled, computed out of band when the user is outside the top entries.
	// Returns ErrInvalidTimeFrame for an unknown frame.
	GetLeaderboard(ctx context.Context, tf domain.TimeFrame, currentUserID uuid.UUID) (*domain.Leaderboard, error)
}
