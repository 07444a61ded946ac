// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Toggle outcomes.
const (
	OutcomeCreated = "created"
	OutcomeRemoved = "removed"
	OutcomeError   = "error"
)

// KindFollow labels follow toggles. Reaction toggles use the reaction type.
const KindFollow = "follow"

var (
	// ToggleTotal counts toggle calls.
	// Labels: kind (reaction type or follow), outcome (created, removed, error)
	ToggleTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mitaina",
		Name:      "toggle_total",
		Help:      "Total reaction and follow toggles by outcome",
	}, []string{"kind", "outcome"})

	// ToggleDuration measures a toggle transaction end to end.
	ToggleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mitaina",
		Name:      "toggle_duration_seconds",
		Help:      "Toggle latency in seconds",
		Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"kind"})

	// NotificationsCreated counts notifications actually inserted, not deduplicated ones.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mitaina",
		Name:      "notifications_created_total",
		Help:      "Total notifications inserted",
	}, []string{"type"})

	// CounterDrift counts post counters rewritten by reconciliation.
	CounterDrift = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mitaina",
		Name:      "counter_drift_total",
		Help:      "Total post counters found out of sync with reaction rows",
	}, []string{"reaction_type"})

	// ActivityRecordFailures counts activity log writes that failed.
	ActivityRecordFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mitaina",
		Name:      "activity_record_failures_total",
		Help:      "Total activity log writes that failed",
	})
)

// ObserveToggle records one toggle call that started at start.
func ObserveToggle(kind, outcome string, start time.Time) {
	ToggleTotal.WithLabelValues(kind, outcome).Inc()
	ToggleDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// ToggleOutcome maps a toggle result to its outcome label.
func ToggleOutcome(created bool, err error) string {
	switch {
	case err != nil:
		return OutcomeError
	case created:
		return OutcomeCreated
	default:
		return OutcomeRemoved
	}
}
