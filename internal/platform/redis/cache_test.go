package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/ladder-api/internal/config"
	"github.com/phrazzld/ladder-api/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotKey(t *testing.T) {
	assert.Equal(t, "leaderboard:snapshot:weekly", SnapshotKey(domain.TimeFrameWeekly))
	assert.Equal(t, "leaderboard:snapshot:alltime", SnapshotKey(domain.TimeFrameAllTime))
}

func TestNewLeaderboardCachePanicsOnNilClient(t *testing.T) {
	assert.Panics(t, func() { NewLeaderboardCache(nil, time.Minute, nil) })
}

func TestNewClientUnreachable(t *testing.T) {
	_, err := NewClient(context.Background(), config.RedisConfig{Enabled: true, Addr: "127.0.0.1:1"})
	assert.ErrorIs(t, err, ErrCacheConnection)
}

// newTestClient connects to REDIS_ADDR and skips when it is not set.
func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping redis test")
	}
	client, err := NewClient(context.Background(), config.RedisConfig{Enabled: true, Addr: addr, DB: 15})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return client
}

func TestLeaderboardCacheRoundTrip(t *testing.T) {
	client := newTestClient(t)
	cache := NewLeaderboardCache(client, time.Minute, nil)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, domain.TimeFrameWeekly)
	require.NoError(t, err)
	assert.False(t, ok)

	lb := &domain.Leaderboard{
		TimeFrame: domain.TimeFrameWeekly,
		Entries: []domain.LeaderboardEntry{
			{Rank: 1, UserID: uuid.New(), DisplayName: "Ada", TotalXP: 40, Level: 1},
		},
		GeneratedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, cache.Set(ctx, lb))

	got, ok, err := cache.Get(ctx, domain.TimeFrameWeekly)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, lb.Entries, got.Entries)
	assert.True(t, lb.GeneratedAt.Equal(got.GeneratedAt))

	ttl, err := client.TTL(ctx, SnapshotKey(domain.TimeFrameWeekly)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, cache.Invalidate(ctx))
	_, ok, err = cache.Get(ctx, domain.TimeFrameWeekly)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLeaderboardCacheCorruptValue(t *testing.T) {
	client := newTestClient(t)
	cache := NewLeaderboardCache(client, time.Minute, nil)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, SnapshotKey(domain.TimeFrameMonthly), "{", 0).Err())
	_, ok, err := cache.Get(ctx, domain.TimeFrameMonthly)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrCacheSerialization)
}
