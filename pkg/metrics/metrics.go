// Package metrics exposes retry and circuit breaker activity as Prometheus
// series.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jzx17/goresilience/pkg/breaker"
	"github.com/jzx17/goresilience/pkg/retry"
)

// Recorder registers and updates the resilience metric series. One Recorder
// serves any number of executors and breakers; series are labelled by name.
type Recorder struct {
	retryAttempts      *prometheus.CounterVec
	retrySuccesses     *prometheus.CounterVec
	retryGiveUps       *prometheus.CounterVec
	retryDelay         *prometheus.HistogramVec
	breakerState       *prometheus.GaugeVec
	breakerTransitions *prometheus.CounterVec
}

// NewRecorder creates a recorder registering its collectors with reg
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		retryAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resilience_retry_attempts_total",
				Help: "Total number of failed attempts that were retried",
			},
			[]string{"name"},
		),
		retrySuccesses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resilience_retry_successes_total",
				Help: "Total number of executions that returned a value",
			},
			[]string{"name"},
		),
		retryGiveUps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resilience_retry_giveups_total",
				Help: "Total number of executions that exhausted their retry budget",
			},
			[]string{"name"},
		),
		retryDelay: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "resilience_retry_delay_seconds",
				Help:    "Backoff delay slept between attempts",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"name"},
		),
		breakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "resilience_breaker_state",
				Help: "Circuit breaker state (0 closed, 1 open, 2 half-open)",
			},
			[]string{"name"},
		),
		breakerTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resilience_breaker_transitions_total",
				Help: "Total number of circuit breaker state transitions",
			},
			[]string{"name", "from", "to"},
		),
	}
}

// Handler returns a retry event handler labelling series with name
func (r *Recorder) Handler(name string) retry.EventHandler {
	return &handler{rec: r, name: name}
}

// BreakerHook returns a state-change hook updating the breaker series
func (r *Recorder) BreakerHook() breaker.StateChangeHook {
	return func(name string, from, to breaker.State) {
		r.breakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		r.breakerState.WithLabelValues(name).Set(float64(to))
	}
}

// handler implements retry.EventHandler on top of a Recorder
type handler struct {
	rec  *Recorder
	name string
}

func (h *handler) OnRetry(_ context.Context, _ int, _ error, delay time.Duration) {
	h.rec.retryAttempts.WithLabelValues(h.name).Inc()
	h.rec.retryDelay.WithLabelValues(h.name).Observe(delay.Seconds())
}

func (h *handler) OnSuccess(_ context.Context, _ int, _ time.Duration) {
	h.rec.retrySuccesses.WithLabelValues(h.name).Inc()
}

func (h *handler) OnGiveUp(_ context.Context, _ int, _ error) {
	h.rec.retryGiveUps.WithLabelValues(h.name).Inc()
}
