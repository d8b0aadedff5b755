package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterHoldMetrics_Idempotent(t *testing.T) {
	RegisterHoldMetrics()
	RegisterHoldMetrics()

	before := testutil.ToFloat64(HoldsRejectedTotal.WithLabelValues(ReasonInsufficientBudget))
	HoldsRejectedTotal.WithLabelValues(ReasonInsufficientBudget).Inc()
	if got := testutil.ToFloat64(HoldsRejectedTotal.WithLabelValues(ReasonInsufficientBudget)); got != before+1 {
		t.Errorf("holds_rejected_total = %f, want %f", got, before+1)
	}
}
