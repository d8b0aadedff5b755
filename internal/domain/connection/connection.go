package connection

import (
	"errors"
	"fmt"
	"math"
)

// MaxDailyBudgetSats is the largest daily budget the ledger can account for.
const MaxDailyBudgetSats uint64 = math.MaxInt64

// ErrBudgetOutOfRange is returned for a daily budget above MaxDailyBudgetSats.
var ErrBudgetOutOfRange = errors.New("daily budget out of range")

// Connection is an external application's budget configuration (read-only here).
type Connection struct {
	id              string
	dailyBudgetSats uint64
	limited         bool
}

// New validates and creates a Connection. A nil budget means unlimited.
func New(id string, dailyBudgetSats *uint64) (Connection, error) {
	if id == "" {
		return Connection{}, fmt.Errorf("connection ID is required")
	}
	if dailyBudgetSats == nil {
		return Connection{id: id}, nil
	}
	if *dailyBudgetSats > MaxDailyBudgetSats {
		return Connection{}, fmt.Errorf("%w: connection %s budget %d", ErrBudgetOutOfRange, id, *dailyBudgetSats)
	}
	return Connection{id: id, dailyBudgetSats: *dailyBudgetSats, limited: true}, nil
}

// Limited creates a connection with a daily budget.
func Limited(id string, dailyBudgetSats uint64) Connection {
	return Connection{id: id, dailyBudgetSats: dailyBudgetSats, limited: true}
}

// Unlimited creates a connection that bypasses budgeting.
func Unlimited(id string) Connection {
	return Connection{id: id}
}

// ID returns the connection identifier.
func (c Connection) ID() string { return c.id }

// HasLimit reports whether a daily budget is configured.
func (c Connection) HasLimit() bool { return c.limited }

// DailyBudgetSats returns the configured daily budget and whether one is set.
func (c Connection) DailyBudgetSats() (uint64, bool) { return c.dailyBudgetSats, c.limited }
