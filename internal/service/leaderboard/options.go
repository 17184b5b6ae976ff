package leaderboard

import (
	"time"

	"github.com/phrazzld/ladder-api/internal/domain"
)

// Recorder receives cache lookup outcomes. *metrics.Metrics satisfies it.
type Recorder interface {
	ObserveCacheLookup(hit bool)
}

type nopRecorder struct{}

func (nopRecorder) ObserveCacheLookup(bool) {}

type options struct {
	now     func() time.Time
	size    int
	cache   SnapshotCache
	metrics Recorder
}

func defaultOptions() options {
	return options{
		now:     time.Now,
		size:    domain.LeaderboardSize,
		cache:   NopCache{},
		metrics: nopRecorder{},
	}
}

// Option configures the aggregator.
type Option func(*options)

// WithClock sets the clock windows and streaks are measured against.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithSize sets how many entries a snapshot holds. Values below 1 are ignored.
func WithSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.size = n
		}
	}
}

// WithCache sets the snapshot cache.
func WithCache(c SnapshotCache) Option {
	return func(o *options) {
		if c != nil {
			o.cache = c
		}
	}
}

// WithMetrics sets the recorder for cache hits and misses.
func WithMetrics(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.metrics = r
		}
	}
}
