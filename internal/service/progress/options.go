package progress

import (
	"time"

	"github.com/phrazzld/ladder-api/internal/events"
)

// Recorder receives engine metrics.
type Recorder interface {
	ObserveSubmission(correct bool)
	ObserveXPAwarded(xp int)
	ObserveUnlock(unit string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveSubmission(bool) {}
func (nopRecorder) ObserveXPAwarded(int)   {}
func (nopRecorder) ObserveUnlock(string)   {}

type options struct {
	now     func() time.Time
	metrics Recorder
	emitter events.EventEmitter
}

func defaultOptions() options {
	return options{
		now:     time.Now,
		metrics: nopRecorder{},
		emitter: events.NopEmitter{},
	}
}

// Option configures the service.
type Option func(*options)

// WithClock sets the time source used for completion timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.metrics = r
		}
	}
}

// WithEmitter sets where progress events are published after commit.
func WithEmitter(e events.EventEmitter) Option {
	return func(o *options) {
		if e != nil {
			o.emitter = e
		}
	}
}
