package leaderboard

import (
	"context"
	"log/slog"

	"github.com/phrazzld/ladder-api/internal/domain"
	"github.com/phrazzld/ladder-api/internal/events"
)

// SnapshotCache stores shared leaderboard snapshots per time frame.
// Get reports a miss with a false boolean and a nil error.
type SnapshotCache interface {
	Get(ctx context.Context, tf domain.TimeFrame) (*domain.Leaderboard, bool, error)
	Set(ctx context.Context, lb *domain.Leaderboard) error
	Invalidate(ctx context.Context, tfs ...domain.TimeFrame) error
}

// NopCache never stores anything. It is used when Redis is disabled.
type NopCache struct{}

// Get implements SnapshotCache.
func (NopCache) Get(context.Context, domain.TimeFrame) (*domain.Leaderboard, bool, error) {
	return nil, false, nil
}

// Set implements SnapshotCache.
func (NopCache) Set(context.Context, *domain.Leaderboard) error { return nil }

// Invalidate implements SnapshotCache.
func (NopCache) Invalidate(context.Context, ...domain.TimeFrame) error { return nil }

// InvalidationHandler drops cached snapshots whenever XP is credited.
type InvalidationHandler struct {
	cache  SnapshotCache
	logger *slog.Logger
}

var _ events.EventHandler = (*InvalidationHandler)(nil)

// NewInvalidationHandler creates a handler that invalidates cache.
func NewInvalidationHandler(cache SnapshotCache, logger *slog.Logger) *InvalidationHandler {
	if cache == nil {
		panic("cache cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InvalidationHandler{
		cache:  cache,
		logger: logger.With(slog.String("component", "leaderboard_invalidation")),
	}
}

// HandleEvent implements events.EventHandler. Only exercise.completed
// changes XP, so every other event is ignored.
func (h *InvalidationHandler) HandleEvent(ctx context.Context, event *events.ProgressEvent) error {
	if event == nil || event.Type != events.TypeExerciseCompleted {
		return nil
	}
	if err := h.cache.Invalidate(ctx); err != nil {
		h.logger.Warn("failed to invalidate leaderboard snapshots",
			slog.String("event_id", event.ID.String()),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}
