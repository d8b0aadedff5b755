package usage

import "time"

// Report is an advisory snapshot of a connection's budget for one UTC day.
type Report struct {
	connectionID  string
	budgetDate    string
	limited       bool
	limitSats     uint64
	confirmedSats uint64
	pendingSats   uint64
	availableSats uint64
	resetsAt      time.Time
}

// NewLimitedReport creates a report for a connection with a daily budget.
// available is the unclamped remaining amount; the report floors it at zero.
func NewLimitedReport(
	connectionID, budgetDate string, limit, confirmed, pending uint64, available int64, resetsAt time.Time,
) Report {
	var clamped uint64
	if available > 0 {
		clamped = uint64(available)
	}
	return Report{
		connectionID:  connectionID,
		budgetDate:    budgetDate,
		limited:       true,
		limitSats:     limit,
		confirmedSats: confirmed,
		pendingSats:   pending,
		availableSats: clamped,
		resetsAt:      resetsAt,
	}
}

// NewUnlimitedReport creates a report for a connection that bypasses budgeting.
func NewUnlimitedReport(connectionID, budgetDate string, resetsAt time.Time) Report {
	return Report{connectionID: connectionID, budgetDate: budgetDate, resetsAt: resetsAt}
}

// ConnectionID returns the connection the report describes.
func (r *Report) ConnectionID() string { return r.connectionID }

// BudgetDate returns the UTC day (YYYY-MM-DD) the figures belong to.
func (r *Report) BudgetDate() string { return r.budgetDate }

// Limited reports whether the connection has a daily budget.
func (r *Report) Limited() bool { return r.limited }

// LimitSats returns the daily budget, 0 when unlimited.
func (r *Report) LimitSats() uint64 { return r.limitSats }

// ConfirmedSats returns settled spend for the day.
func (r *Report) ConfirmedSats() uint64 { return r.confirmedSats }

// PendingSats returns the amount tied up in unresolved holds.
func (r *Report) PendingSats() uint64 { return r.pendingSats }

// AvailableSats returns the remaining budget floored at zero.
func (r *Report) AvailableSats() uint64 { return r.availableSats }

// IsExhausted reports whether a limited connection has nothing left today.
func (r *Report) IsExhausted() bool { return r.limited && r.availableSats == 0 }

// ResetsAt returns the next UTC midnight.
func (r *Report) ResetsAt() time.Time { return r.resetsAt }
