// Package redis caches leaderboard snapshots in Redis.
//
// A snapshot is the ranked entries of one time frame before any per-viewer
// decoration. Snapshots are stored as JSON under leaderboard:snapshot:<frame>
// with a TTL, and are deleted when XP changes.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/ladder-api/internal/config"
	"github.com/phrazzld/ladder-api/internal/domain"
	"github.com/phrazzld/ladder-api/internal/redact"
	"github.com/redis/go-redis/v9"
)

// keyLeaderboardSnapshot prefixes snapshot keys.
const keyLeaderboardSnapshot = "leaderboard:snapshot:"

var (
	// ErrCacheSerialization is returned when a snapshot cannot be encoded or decoded.
	ErrCacheSerialization = errors.New("cache: serialization failed")

	// ErrCacheConnection is returned when Redis cannot be reached at startup.
	ErrCacheConnection = errors.New("cache: connection failed")
)

// NewClient creates a client from configuration and pings it.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}
	return client, nil
}

// SnapshotKey returns the Redis key of a time frame's snapshot.
func SnapshotKey(tf domain.TimeFrame) string {
	return keyLeaderboardSnapshot + string(tf)
}

// LeaderboardCache stores leaderboard snapshots.
type LeaderboardCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewLeaderboardCache creates a snapshot cache. A zero ttl stores snapshots
// without expiry.
func NewLeaderboardCache(client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *LeaderboardCache {
	if client == nil {
		panic("redis client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LeaderboardCache{
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "leaderboard_cache")),
	}
}

// Get returns the cached snapshot. The boolean is false on a miss.
func (c *LeaderboardCache) Get(ctx context.Context, tf domain.TimeFrame) (*domain.Leaderboard, bool, error) {
	data, err := c.client.Get(ctx, SnapshotKey(tf)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var lb domain.Leaderboard
	if err := json.Unmarshal(data, &lb); err != nil {
		c.logger.Warn("discarding undecodable snapshot",
			slog.String("time_frame", string(tf)),
			slog.String("error", redact.Error(err)))
		return nil, false, fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return &lb, true, nil
}

// Set stores a snapshot.
func (c *LeaderboardCache) Set(ctx context.Context, lb *domain.Leaderboard) error {
	data, err := json.Marshal(lb)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return c.client.Set(ctx, SnapshotKey(lb.TimeFrame), data, c.ttl).Err()
}

// Invalidate deletes the snapshots of the given time frames, or of every
// time frame when none are given.
func (c *LeaderboardCache) Invalidate(ctx context.Context, tfs ...domain.TimeFrame) error {
	if len(tfs) == 0 {
		tfs = domain.TimeFrames
	}
	keys := make([]string, len(tfs))
	for i, tf := range tfs {
		keys[i] = SnapshotKey(tf)
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, keys...)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("failed to invalidate leaderboard snapshots",
			slog.Any("keys", keys),
			slog.String("error", redact.Error(err)))
		return err
	}
	return nil
}
