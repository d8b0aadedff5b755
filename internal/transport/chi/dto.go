package chi

import "time"

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest          ErrorCode = "bad_request"
	CodeUnauthorized        ErrorCode = "unauthorized"
	CodeNotFound            ErrorCode = "not_found"
	CodeMethodNotAllowed    ErrorCode = "method_not_allowed"
	CodeInvalidAmount       ErrorCode = "invalid_amount"
	CodeUnlimitedConnection ErrorCode = "unlimited_connection"
	CodeConnectionNotFound  ErrorCode = "connection_not_found"
	CodeHoldNotFound        ErrorCode = "hold_not_found"
	CodeInsufficientBudget  ErrorCode = "insufficient_budget"
	CodeInternalError       ErrorCode = "internal_error"
)

// ErrorResponse is the error body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// InsufficientBudgetResponse is the 402 body for a rejected hold.
type InsufficientBudgetResponse struct {
	Code          ErrorCode `json:"code"`
	Message       string    `json:"message"`
	RequestedSats uint64    `json:"requested_sats"`
	AvailableSats int64     `json:"available_sats"`
}

// PlaceHoldRequest is the body of POST /connections/{connectionID}/holds.
type PlaceHoldRequest struct {
	AmountSats uint64 `json:"amount_sats"`
	RequestID  string `json:"request_id"`
	// TimeoutMs of 0 selects the configured default.
	TimeoutMs int64 `json:"timeout_ms"`
}

// PlaceHoldResponse is the 201 body for a placed hold.
type PlaceHoldResponse struct {
	HoldID              string    `json:"hold_id"`
	AmountSats          uint64    `json:"amount_sats"`
	RemainingBudgetSats int64     `json:"remaining_budget_sats"`
	BudgetDate          string    `json:"budget_date"`
	ExpiresAt           time.Time `json:"expires_at"`
}

// CommitHoldRequest is the optional body of POST /holds/{holdID}/commit.
type CommitHoldRequest struct {
	ActualAmountSats *uint64 `json:"actual_amount_sats,omitempty"`
}

// HoldResponse describes one hold.
type HoldResponse struct {
	ID           string    `json:"id"`
	ConnectionID string    `json:"connection_id"`
	RequestID    string    `json:"request_id"`
	AmountSats   uint64    `json:"amount_sats"`
	Status       string    `json:"status"`
	BudgetDate   string    `json:"budget_date"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BudgetResponse is the body of GET /connections/{connectionID}/budget.
type BudgetResponse struct {
	ConnectionID  string    `json:"connection_id"`
	Limited       bool      `json:"limited"`
	LimitSats     *uint64   `json:"limit_sats,omitempty"`
	AvailableSats *uint64   `json:"available_sats,omitempty"`
	ConfirmedSats uint64    `json:"confirmed_sats"`
	PendingSats   uint64    `json:"pending_sats"`
	Exhausted     bool      `json:"exhausted"`
	BudgetDate    string    `json:"budget_date"`
	ResetsAt      time.Time `json:"resets_at"`
}

// ExpireHoldsResponse is the body of POST /admin/holds/expire.
type ExpireHoldsResponse struct {
	Expired int64 `json:"expired"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
