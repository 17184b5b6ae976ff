package leaderboard

import (
	"context"
	"sync"

	"github.com/phrazzld/ladder-api/internal/domain"
)

// GenerationCache wraps a SnapshotCache with a per-frame generation that
// every invalidation advances. A build records the generation it started
// under and only stores its snapshot if no invalidation happened since, so
// a board computed before an XP credit never outlives that credit.
//
// The aggregator and the invalidation handler must share one instance.
type GenerationCache struct {
	inner SnapshotCache

	mu          sync.Mutex
	generations map[domain.TimeFrame]uint64
}

var _ SnapshotCache = (*GenerationCache)(nil)

// NewGenerationCache wraps inner.
func NewGenerationCache(inner SnapshotCache) *GenerationCache {
	if inner == nil {
		panic("cache cannot be nil")
	}
	return &GenerationCache{inner: inner, generations: make(map[domain.TimeFrame]uint64)}
}

// Get implements SnapshotCache.
func (c *GenerationCache) Get(ctx context.Context, tf domain.TimeFrame) (*domain.Leaderboard, bool, error) {
	return c.inner.Get(ctx, tf)
}

// Set implements SnapshotCache. It stores unconditionally.
func (c *GenerationCache) Set(ctx context.Context, lb *domain.Leaderboard) error {
	return c.inner.Set(ctx, lb)
}

// Invalidate advances the generation of tfs, or of every frame when none
// are given, before deleting the cached snapshots.
func (c *GenerationCache) Invalidate(ctx context.Context, tfs ...domain.TimeFrame) error {
	frames := tfs
	if len(frames) == 0 {
		frames = domain.TimeFrames
	}
	c.mu.Lock()
	for _, tf := range frames {
		c.generations[tf]++
	}
	c.mu.Unlock()
	return c.inner.Invalidate(ctx, tfs...)
}

// Generation returns the current generation of tf.
func (c *GenerationCache) Generation(tf domain.TimeFrame) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[tf]
}

// SetIfCurrent stores lb only while its frame is still at generation gen.
// It reports whether the snapshot was stored.
func (c *GenerationCache) SetIfCurrent(ctx context.Context, lb *domain.Leaderboard, gen uint64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[lb.TimeFrame] != gen {
		return false, nil
	}
	if err := c.inner.Set(ctx, lb); err != nil {
		return false, err
	}
	return true, nil
}
