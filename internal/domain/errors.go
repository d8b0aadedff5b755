package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrHoldNotFound signals a missing hold.
	ErrHoldNotFound = errors.New("hold not found")
	// ErrConnectionNotFound signals an unknown connection id.
	ErrConnectionNotFound = errors.New("connection not found")
	// ErrInsufficientBudget signals that a hold does not fit the remaining daily budget.
	ErrInsufficientBudget = errors.New("insufficient budget")

	// ErrContractViolation signals a caller bug (never a business outcome).
	ErrContractViolation = errors.New("contract violation")
	// ErrUnlimitedConnection signals placeHold on a connection without a daily budget.
	ErrUnlimitedConnection = fmt.Errorf("%w: connection has no daily budget", ErrContractViolation)
	// ErrInvalidAmount signals a zero hold amount or one that does not fit a signed 64-bit column.
	ErrInvalidAmount = fmt.Errorf("%w: invalid hold amount", ErrContractViolation)
)

// InsufficientBudgetError carries the requested amount and what was left at check time.
// Available may be negative when confirmed spend plus pending holds already exceed the limit.
type InsufficientBudgetError struct {
	Requested uint64
	Available int64
}

func (e *InsufficientBudgetError) Error() string {
	return fmt.Sprintf("%s: requested %d sats, available %d sats",
		ErrInsufficientBudget.Error(), e.Requested, e.Available)
}

func (e *InsufficientBudgetError) Unwrap() error { return ErrInsufficientBudget }

// NewInsufficientBudget creates an insufficient budget error.
func NewInsufficientBudget(requested uint64, available int64) error {
	return &InsufficientBudgetError{Requested: requested, Available: available}
}
