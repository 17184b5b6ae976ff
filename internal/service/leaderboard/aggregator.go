package leaderboard

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/ladder-api/internal/domain"
	"github.com/phrazzld/ladder-api/internal/platform/logger"
	"github.com/phrazzld/ladder-api/internal/store"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// buildTimeout bounds a shared snapshot build. Builds are detached from the
// request that started them, so this is their only deadline.
const buildTimeout = 10 * time.Second

// aggregator implements Service over a store.LeaderboardStore.
type aggregator struct {
	store  store.LeaderboardStore
	opts   options
	cache  *GenerationCache
	group  singleflight.Group
	logger *slog.Logger
}

var _ Service = (*aggregator)(nil)

// NewService creates a leaderboard aggregator.
func NewService(lb store.LeaderboardStore, logger *slog.Logger, opts ...Option) Service {
	if lb == nil {
		panic("leaderboard store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	cache, ok := o.cache.(*GenerationCache)
	if !ok {
		cache = NewGenerationCache(o.cache)
	}

	return &aggregator{
		store:  lb,
		opts:   o,
		cache:  cache,
		logger: logger.With(slog.String("component", "leaderboard_service")),
	}
}

// GetLeaderboard implements Service.GetLeaderboard.
func (a *aggregator) GetLeaderboard(
	ctx context.Context,
	tf domain.TimeFrame,
	currentUserID uuid.UUID,
) (*domain.Leaderboard, error) {
	if !slices.Contains(domain.TimeFrames, tf) {
		return nil, ErrInvalidTimeFrame
	}
	log := logger.FromContextOrDefault(ctx, a.logger).With(slog.String("time_frame", string(tf)))

	snapshot, err := a.snapshot(ctx, tf)
	if err != nil {
		if ctx.Err() != nil {
			log.Debug("leaderboard request ended before the snapshot was ready",
				slog.String("error", err.Error()))
			return nil, err
		}
		log.Error("failed to build leaderboard", slog.String("error", err.Error()))
		return nil, err
	}

	// The snapshot may be shared, so per-request flags go on a copy.
	lb := &domain.Leaderboard{
		TimeFrame:   snapshot.TimeFrame,
		Entries:     slices.Clone(snapshot.Entries),
		GeneratedAt: snapshot.GeneratedAt,
	}
	if lb.Entries == nil {
		lb.Entries = []domain.LeaderboardEntry{}
	}
	if currentUserID == uuid.Nil {
		return lb, nil
	}

	for i := range lb.Entries {
		if lb.Entries[i].UserID == currentUserID {
			lb.Entries[i].IsCurrentUser = true
			entry := lb.Entries[i]
			lb.CurrentUserEntry = &entry
			return lb, nil
		}
	}

	entry, err := a.userEntry(ctx, tf, currentUserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("current user has no account, skipping own entry",
				slog.String("user_id", currentUserID.String()))
			return lb, nil
		}
		log.Error("failed to compute current user entry",
			slog.String("user_id", currentUserID.String()),
			slog.String("error", err.Error()))
		return nil, err
	}
	lb.CurrentUserEntry = entry
	return lb, nil
}

// snapshot returns the shared top-N board of tf from cache, building it on a
// miss. Concurrent misses for one frame share a single build, which runs
// detached from any one caller; each caller stops waiting when its own
// context ends.
func (a *aggregator) snapshot(ctx context.Context, tf domain.TimeFrame) (*domain.Leaderboard, error) {
	log := logger.FromContextOrDefault(ctx, a.logger)

	cached, ok, err := a.cache.Get(ctx, tf)
	if err != nil {
		log.Warn("leaderboard cache read failed, rebuilding",
			slog.String("time_frame", string(tf)),
			slog.String("error", err.Error()))
		ok = false
	}
	a.opts.metrics.ObserveCacheLookup(ok)
	if ok {
		return cached, nil
	}

	results := a.group.DoChan(string(tf), func() (interface{}, error) {
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), buildTimeout)
		defer cancel()

		gen := a.cache.Generation(tf)
		lb, err := a.build(buildCtx, tf)
		if err != nil {
			return nil, err
		}
		stored, err := a.cache.SetIfCurrent(buildCtx, lb, gen)
		switch {
		case err != nil:
			log.Warn("leaderboard cache write failed",
				slog.String("time_frame", string(tf)),
				slog.String("error", err.Error()))
		case !stored:
			log.Debug("leaderboard invalidated during build, snapshot not cached",
				slog.String("time_frame", string(tf)))
		}
		return lb, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Leaderboard), nil
	}
}

// build ranks the top entries of tf and annotates them with level, streak
// and rank change.
func (a *aggregator) build(ctx context.Context, tf domain.TimeFrame) (*domain.Leaderboard, error) {
	now := a.opts.now().UTC()

	var current, previous []domain.XPTotal
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = a.store.Totals(gctx, tf.CurrentWindow(now), a.opts.size)
		return err
	})
	g.Go(func() error {
		var err error
		previous, err = a.store.Totals(gctx, tf.ComparisonWindow(now), 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, NewServiceError("build", "failed to load totals", err)
	}

	ranked := domain.RankTotals(current)
	ids := make([]uuid.UUID, len(ranked))
	for i, r := range ranked {
		ids[i] = r.UserID
	}

	var times map[uuid.UUID][]time.Time
	if len(ids) > 0 {
		var err error
		times, err = a.store.CompletionTimes(ctx, ids)
		if err != nil {
			return nil, NewServiceError("build", "failed to load completion days", err)
		}
	}

	prevRanks := domain.RankIndex(domain.RankTotals(previous))
	entries := make([]domain.LeaderboardEntry, len(ranked))
	for i, r := range ranked {
		entries[i] = newEntry(r, times[r.UserID], domain.RankChange(prevRanks, r.UserID, r.Rank), now)
	}

	a.logger.Debug("leaderboard built",
		slog.String("time_frame", string(tf)),
		slog.Int("entries", len(entries)))
	return &domain.Leaderboard{TimeFrame: tf, Entries: entries, GeneratedAt: now}, nil
}

// userEntry computes the entry of a user outside the top entries. The rank
// is one more than the number of users with strictly more XP, in both the
// current and the comparison window.
func (a *aggregator) userEntry(ctx context.Context, tf domain.TimeFrame, userID uuid.UUID) (*domain.LeaderboardEntry, error) {
	now := a.opts.now().UTC()
	currentWindow, comparisonWindow := tf.CurrentWindow(now), tf.ComparisonWindow(now)

	var (
		total          domain.XPTotal
		rank, prevRank int
		completions    []time.Time
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = a.store.UserTotal(gctx, userID, currentWindow)
		if err != nil {
			return err
		}
		above, err := a.store.CountAbove(gctx, currentWindow, total.XP)
		rank = above + 1
		return err
	})
	g.Go(func() error {
		prev, err := a.store.UserTotal(gctx, userID, comparisonWindow)
		if err != nil || prev.XP <= 0 {
			return err
		}
		above, err := a.store.CountAbove(gctx, comparisonWindow, prev.XP)
		prevRank = above + 1
		return err
	})
	g.Go(func() error {
		times, err := a.store.CompletionTimes(gctx, []uuid.UUID{userID})
		completions = times[userID]
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, err
		}
		return nil, NewServiceError("user_entry", "failed to load user standing", err)
	}

	change := 0
	if prevRank > 0 {
		change = prevRank - rank
	}
	entry := newEntry(domain.RankedTotal{XPTotal: total, Rank: rank}, completions, change, now)
	entry.IsCurrentUser = true
	return &entry, nil
}

func newEntry(r domain.RankedTotal, completions []time.Time, change int, now time.Time) domain.LeaderboardEntry {
	streak := domain.ComputeStreak(completions, now)
	return domain.LeaderboardEntry{
		Rank:          r.Rank,
		UserID:        r.UserID,
		DisplayName:   r.DisplayName,
		AvatarURL:     r.AvatarURL,
		TotalXP:       r.XP,
		CurrentStreak: streak.Current,
		LongestStreak: streak.Longest,
		Level:         domain.LevelForXP(r.XP),
		Change:        change,
	}
}
