// Package metrics defines the Prometheus collectors of the service and the
// HTTP middleware that feeds the request metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ladder"

// Unlock units.
const (
	UnitExercise = "exercise"
	UnitLesson   = "lesson"
)

// Metrics holds every collector the service exports.
type Metrics struct {
	submissions  *prometheus.CounterVec
	xpAwarded    prometheus.Counter
	unlocks      *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
// It panics if a collector is already registered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submissions_total",
				Help:      "Total number of graded answer submissions",
			},
			[]string{"result"},
		),
		xpAwarded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "xp_awarded_total",
				Help:      "Total XP credited to learners",
			},
		),
		unlocks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "unlocks_total",
				Help:      "Total number of exercises and lessons unlocked",
			},
			[]string{"unit"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "leaderboard_cache_total",
				Help:      "Leaderboard snapshot cache lookups",
			},
			[]string{"result"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   []float64{0.005, 0.025, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		),
	}

	reg.MustRegister(
		m.submissions,
		m.xpAwarded,
		m.unlocks,
		m.cacheLookups,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// ObserveSubmission counts one graded submission.
func (m *Metrics) ObserveSubmission(correct bool) {
	result := "incorrect"
	if correct {
		result = "correct"
	}
	m.submissions.WithLabelValues(result).Inc()
}

// ObserveXPAwarded adds newly credited XP.
func (m *Metrics) ObserveXPAwarded(xp int) {
	if xp > 0 {
		m.xpAwarded.Add(float64(xp))
	}
}

// ObserveUnlock counts one unlock of the given unit.
func (m *Metrics) ObserveUnlock(unit string) {
	m.unlocks.WithLabelValues(unit).Inc()
}

// ObserveCacheLookup counts a snapshot cache hit or miss.
func (m *Metrics) ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// Middleware records request counts and durations labelled by the chi
// route pattern, so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
