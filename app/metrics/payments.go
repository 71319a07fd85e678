package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		pollAttemptsTotal,
		pollOutcomesTotal,
		pollDuration,
		paymentsCreatedTotal,
		reconcileChangesTotal,
	)
}

var (
	pollAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_payment_poll_attempts_total",
			Help: "Status fetches made while polling, by result (pending/terminal/error).",
		},
		[]string{"result"},
	)

	pollOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_payment_poll_outcomes_total",
			Help: "Finished polls by outcome.",
		},
		[]string{"outcome"},
	)

	pollDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "portal_payment_poll_duration_seconds",
			Help:    "Wall time from first fetch to poll resolution.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	paymentsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_payments_created_total",
			Help: "Subscription payments created, by payment method.",
		},
		[]string{"method"},
	)

	reconcileChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_payment_reconcile_changes_total",
			Help: "Pending payments found in a new status by the reconcile job.",
		},
		[]string{"status"},
	)
)

func IncPollAttempt(result string) {
	pollAttemptsTotal.WithLabelValues(norm(result)).Inc()
}

func ObservePollOutcome(outcome string, elapsed time.Duration) {
	pollOutcomesTotal.WithLabelValues(norm(outcome)).Inc()
	pollDuration.Observe(elapsed.Seconds())
}

func IncPaymentCreated(method string) {
	paymentsCreatedTotal.WithLabelValues(norm(method)).Inc()
}

func IncReconcileChange(status string) {
	reconcileChangesTotal.WithLabelValues(norm(status)).Inc()
}
