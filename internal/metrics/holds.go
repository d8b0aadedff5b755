package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Hold lifecycle Prometheus metrics.
var (
	HoldsPlacedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "spendcap",
			Name:      "holds_placed_total",
			Help:      "Total number of holds placed",
		},
	)

	HoldsRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spendcap",
			Name:      "holds_rejected_total",
			Help:      "Total number of rejected placeHold calls",
		},
		[]string{"reason"}, // "insufficient_budget" / "contract_violation"
	)

	HoldsTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spendcap",
			Name:      "holds_transitions_total",
			Help:      "Total number of applied hold status transitions",
		},
		[]string{"to"},
	)

	HoldsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "spendcap",
			Name:      "holds_expired_total",
			Help:      "Total number of holds expired by the sweep",
		},
	)

	HoldOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "spendcap",
			Name:      "hold_operation_duration_seconds",
			Help:      "Hold operation duration in seconds, lock wait included",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// Rejection reasons.
const (
	ReasonInsufficientBudget = "insufficient_budget"
	ReasonContractViolation  = "contract_violation"
)

var holdOnce sync.Once

// RegisterHoldMetrics registers Prometheus hold metrics. Must be called once from main.
func RegisterHoldMetrics() {
	holdOnce.Do(func() {
		prometheus.MustRegister(
			HoldsPlacedTotal,
			HoldsRejectedTotal,
			HoldsTransitionsTotal,
			HoldsExpiredTotal,
			HoldOperationDuration,
		)
	})
}
