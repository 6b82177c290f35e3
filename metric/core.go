package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels recorded by RecordOutcome
const (
	OutcomeSuccess   = "success"
	OutcomeExhausted = "exhausted"
	OutcomeRejected  = "rejected"
	OutcomeCancelled = "cancelled"
)

// Metrics contains the retry executor metrics, labelled by wrapped function name
type Metrics struct {
	AttemptsTotal      *prometheus.CounterVec
	RetriesTotal       *prometheus.CounterVec
	OutcomesTotal      *prometheus.CounterVec
	BackoffSeconds     *prometheus.HistogramVec
	InvocationDuration *prometheus.HistogramVec
	InFlight           *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance with all retry metrics
func NewMetrics() *Metrics {
	return &Metrics{
		AttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "retrywrap",
				Subsystem: "executor",
				Name:      "attempts_total",
				Help:      "Total number of attempts made against wrapped functions",
			},
			[]string{"function"},
		),

		RetriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "retrywrap",
				Subsystem: "executor",
				Name:      "retries_total",
				Help:      "Total number of retries scheduled after a retryable failure",
			},
			[]string{"function"},
		),

		OutcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "retrywrap",
				Subsystem: "executor",
				Name:      "outcomes_total",
				Help:      "Settled invocations by outcome (success, exhausted, rejected, cancelled)",
			},
			[]string{"function", "outcome"},
		),

		BackoffSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "retrywrap",
				Subsystem: "executor",
				Name:      "backoff_seconds",
				Help:      "Backoff delay scheduled before each retry",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
			},
			[]string{"function"},
		),

		InvocationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "retrywrap",
				Subsystem: "executor",
				Name:      "invocation_duration_seconds",
				Help:      "Wall time from invocation to settlement, including backoff",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"function", "outcome"},
		),

		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "retrywrap",
				Subsystem: "executor",
				Name:      "in_flight",
				Help:      "Invocations that have started but not yet settled",
			},
			[]string{"function"},
		),
	}
}

// RecordStarted marks an invocation as in flight
func (c *Metrics) RecordStarted(function string) {
	c.InFlight.WithLabelValues(function).Inc()
}

// RecordAttempt increments the attempt counter
func (c *Metrics) RecordAttempt(function string) {
	c.AttemptsTotal.WithLabelValues(function).Inc()
}

// RecordRetry increments the retry counter and observes the scheduled delay
func (c *Metrics) RecordRetry(function string, delay time.Duration) {
	c.RetriesTotal.WithLabelValues(function).Inc()
	c.BackoffSeconds.WithLabelValues(function).Observe(delay.Seconds())
}

// RecordOutcome records how an invocation settled and clears its in-flight mark
func (c *Metrics) RecordOutcome(function, outcome string, duration time.Duration) {
	c.InFlight.WithLabelValues(function).Dec()
	c.OutcomesTotal.WithLabelValues(function, outcome).Inc()
	c.InvocationDuration.WithLabelValues(function, outcome).Observe(duration.Seconds())
}
