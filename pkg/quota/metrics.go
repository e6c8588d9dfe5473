package quota

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for quota checking.
type Metrics struct {
	// Quota checks by decision
	checks *prometheus.CounterVec

	// Current usage percentage per user and window
	usagePercentage *prometheus.GaugeVec

	// Store failures absorbed by the failure policy
	storeFailures *prometheus.CounterVec

	// Check latency
	checkDuration prometheus.Histogram
}

// NewMetrics creates a new Metrics instance with Prometheus collectors.
// Collectors are registered on the default registry, so construct this
// once per process.
func NewMetrics() *Metrics {
	return &Metrics{
		checks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quotient_quota_checks_total",
				Help: "Total number of quota checks by action and decision",
			},
			[]string{"action", "decision"},
		),

		usagePercentage: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "quotient_quota_usage_percentage",
				Help: "Usage percentage observed at the last check (0-100+)",
			},
			[]string{"user_id", "period"},
		),

		storeFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quotient_quota_store_failures_total",
				Help: "Store failures during checks, by applied failure policy",
			},
			[]string{"policy"},
		),

		checkDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "quotient_quota_check_duration_seconds",
				Help:    "Duration of quota checks in seconds",
				Buckets: prometheus.ExponentialBuckets(0.000001, 2, 15), // 1µs to 16ms
			},
		),
	}
}

// RecordCheck records one quota decision.
func (m *Metrics) RecordCheck(action ActionOnLimit, allowed bool) {
	decision := "allowed"
	if !allowed {
		decision = "blocked"
	}
	m.checks.WithLabelValues(string(action), decision).Inc()
}

// UpdateUsage updates the observed usage percentage for a user.
func (m *Metrics) UpdateUsage(userID string, period PeriodType, percentage float64) {
	m.usagePercentage.WithLabelValues(userID, string(period)).Set(percentage)
}

// RecordStoreFailure records a store failure absorbed by the failure policy.
func (m *Metrics) RecordStoreFailure(policy FailurePolicy) {
	m.storeFailures.WithLabelValues(string(policy)).Inc()
}

// RecordCheckDuration records the duration of a check in seconds.
func (m *Metrics) RecordCheckDuration(seconds float64) {
	m.checkDuration.Observe(seconds)
}
