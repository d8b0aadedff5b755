package hold

import (
	"fmt"
	"time"
)

// Status is the hold lifecycle state.
type Status string

// Hold statuses. Committed, released and expired are terminal.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCommitted  Status = "committed"
	StatusReleased   Status = "released"
	StatusExpired    Status = "expired"
)

// ActiveStatuses are the statuses counted against the daily budget.
var ActiveStatuses = []Status{StatusPending, StatusProcessing}

// ParseStatus converts a stored value to a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusProcessing, StatusCommitted, StatusReleased, StatusExpired:
		return st, nil
	default:
		return "", fmt.Errorf("unknown hold status %q", s)
	}
}

// IsTerminal reports whether no transition may leave this status.
func (s Status) IsTerminal() bool {
	return s == StatusCommitted || s == StatusReleased || s == StatusExpired
}

// CanTransition reports whether from -> to is a legal edge of the state machine.
func CanTransition(from, to Status) bool {
	if from.IsTerminal() {
		return false
	}
	switch to {
	case StatusProcessing:
		return from == StatusPending
	case StatusCommitted, StatusReleased, StatusExpired:
		return true
	default:
		return false
	}
}

// Hold is a provisional reservation of daily budget for one payment attempt.
type Hold struct {
	id           string
	connectionID string
	requestID    string
	amountSats   uint64
	status       Status
	budgetDate   string
	createdAt    time.Time
	expiresAt    time.Time
	updatedAt    time.Time
}

// New creates a pending hold. budgetDate is fixed for the lifetime of the hold.
func New(
	id, connectionID, requestID string, amountSats uint64,
	budgetDate string, now time.Time, timeout time.Duration,
) (Hold, error) {
	if id == "" {
		return Hold{}, fmt.Errorf("hold ID is required")
	}
	if connectionID == "" {
		return Hold{}, fmt.Errorf("connection ID is required")
	}
	if amountSats == 0 {
		return Hold{}, fmt.Errorf("hold amount must be positive")
	}
	if timeout < 0 {
		return Hold{}, fmt.Errorf("hold timeout must not be negative")
	}
	now = now.UTC()
	return Hold{
		id:           id,
		connectionID: connectionID,
		requestID:    requestID,
		amountSats:   amountSats,
		status:       StatusPending,
		budgetDate:   budgetDate,
		createdAt:    now,
		expiresAt:    now.Add(timeout),
		updatedAt:    now,
	}, nil
}

// Reconstruct creates a Hold without validation (storage hydration).
func Reconstruct(
	id, connectionID, requestID string, amountSats uint64, status Status,
	budgetDate string, createdAt, expiresAt, updatedAt time.Time,
) Hold {
	return Hold{
		id: id, connectionID: connectionID, requestID: requestID,
		amountSats: amountSats, status: status, budgetDate: budgetDate,
		createdAt: createdAt, expiresAt: expiresAt, updatedAt: updatedAt,
	}
}

// ID returns the hold identifier.
func (h *Hold) ID() string { return h.id }

// ConnectionID returns the owning connection.
func (h *Hold) ConnectionID() string { return h.connectionID }

// RequestID returns the caller's correlation key.
func (h *Hold) RequestID() string { return h.requestID }

// AmountSats returns the reserved amount.
func (h *Hold) AmountSats() uint64 { return h.amountSats }

// Status returns the current lifecycle state.
func (h *Hold) Status() Status { return h.status }

// BudgetDate returns the UTC day (YYYY-MM-DD) the hold counts against.
func (h *Hold) BudgetDate() string { return h.budgetDate }

// CreatedAt returns the creation time.
func (h *Hold) CreatedAt() time.Time { return h.createdAt }

// ExpiresAt returns the time after which the sweep may expire the hold.
func (h *Hold) ExpiresAt() time.Time { return h.expiresAt }

// UpdatedAt returns the time of the last transition.
func (h *Hold) UpdatedAt() time.Time { return h.updatedAt }

// IsActive reports whether the hold still counts against the budget.
func (h *Hold) IsActive() bool { return !h.status.IsTerminal() }
