package spendcap

import "github.com/kailas-cloud/spendcap/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrHoldNotFound        = domain.ErrHoldNotFound
	ErrConnectionNotFound  = domain.ErrConnectionNotFound
	ErrInsufficientBudget  = domain.ErrInsufficientBudget
	ErrContractViolation   = domain.ErrContractViolation
	ErrUnlimitedConnection = domain.ErrUnlimitedConnection
	ErrInvalidAmount       = domain.ErrInvalidAmount
)

// InsufficientBudgetError carries the requested and available amounts of a rejected hold.
// Use errors.As() to extract it.
type InsufficientBudgetError = domain.InsufficientBudgetError
