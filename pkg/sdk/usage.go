package spendcap

import (
	"context"
	"fmt"
	"time"
)

// BudgetReport is a connection's budget breakdown for today.
type BudgetReport struct {
	ConnectionID string
	BudgetDate   string
	Limited      bool
	// LimitSats and AvailableSats are zero for unlimited connections.
	LimitSats     uint64
	ConfirmedSats uint64
	PendingSats   uint64
	AvailableSats uint64
	IsExhausted   bool
	ResetsAt      time.Time
}

// Budget returns today's budget report for a connection.
func (c *Client) Budget(ctx context.Context, connectionID string) (_ BudgetReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("budget.report", start, err) }()

	r, err := c.usageSvc.GetReport(ctx, connectionID)
	if err != nil {
		return BudgetReport{}, fmt.Errorf("budget report: %w", err)
	}
	return BudgetReport{
		ConnectionID:  r.ConnectionID(),
		BudgetDate:    r.BudgetDate(),
		Limited:       r.Limited(),
		LimitSats:     r.LimitSats(),
		ConfirmedSats: r.ConfirmedSats(),
		PendingSats:   r.PendingSats(),
		AvailableSats: r.AvailableSats(),
		IsExhausted:   r.IsExhausted(),
		ResetsAt:      r.ResetsAt(),
	}, nil
}
