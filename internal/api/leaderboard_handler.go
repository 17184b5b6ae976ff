package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/ladder-api/internal/api/shared"
	"github.com/phrazzld/ladder-api/internal/domain"
	"github.com/phrazzld/ladder-api/internal/platform/logger"
	"github.com/phrazzld/ladder-api/internal/service/leaderboard"
)

// LeaderboardHandler serves leaderboard requests.
type LeaderboardHandler struct {
	leaderboardService leaderboard.Service
	logger             *slog.Logger
}

// NewLeaderboardHandler creates a new LeaderboardHandler.
func NewLeaderboardHandler(leaderboardService leaderboard.Service, logger *slog.Logger) *LeaderboardHandler {
	if leaderboardService == nil {
		panic("leaderboardService cannot be nil for LeaderboardHandler")
	}
	if logger == nil {
		panic("logger cannot be nil for LeaderboardHandler")
	}
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
		logger:             logger.With(slog.String("component", "leaderboard_handler")),
	}
}

// GetLeaderboard handles GET /api/leaderboard?timeframe=weekly|monthly|alltime.
// The caller is the current user of the board.
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := handleUserIDFromContext(w, r, log)
	if !ok {
		return
	}

	tf, err := domain.ParseTimeFrame(r.URL.Query().Get("timeframe"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	lb, err := h.leaderboardService.GetLeaderboard(r.Context(), tf, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load leaderboard")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, lb)
}
