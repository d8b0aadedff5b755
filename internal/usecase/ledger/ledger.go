package ledger

import (
	"context"
	"fmt"
	"math"
	"math/bits"

	"github.com/kailas-cloud/spendcap/internal/db"
)

// Balance is the day's budget breakdown for one connection.
type Balance struct {
	ConfirmedSats uint64
	PendingSats   uint64
	// Available is limit - confirmed - pending; negative when already overspent.
	Available int64
}

// Ledger aggregates confirmed spend and pending holds.
// Results are authoritative only inside the caller's connection lock and transaction.
type Ledger struct {
	spend SpendReader
	holds HoldSummer
}

// New creates a Ledger.
func New(spend SpendReader, holds HoldSummer) *Ledger {
	return &Ledger{spend: spend, holds: holds}
}

// ConfirmedSpend returns settled spend, 0 when the day has no record.
func (l *Ledger) ConfirmedSpend(ctx context.Context, q db.Querier, connectionID, budgetDate string) (uint64, error) {
	v, err := l.spend.ConfirmedSpend(ctx, q, connectionID, budgetDate)
	if err != nil {
		return 0, fmt.Errorf("confirmed spend: %w", err)
	}
	return v, nil
}

// PendingHoldsSum returns the sum of PENDING and PROCESSING holds.
func (l *Ledger) PendingHoldsSum(ctx context.Context, q db.Querier, connectionID, budgetDate string) (uint64, error) {
	v, err := l.holds.SumActive(ctx, q, connectionID, budgetDate)
	if err != nil {
		return 0, fmt.Errorf("pending holds sum: %w", err)
	}
	return v, nil
}

// Balance reads both aggregates and computes the unclamped remainder.
func (l *Ledger) Balance(
	ctx context.Context, q db.Querier, dailyBudget uint64, connectionID, budgetDate string,
) (Balance, error) {
	confirmed, err := l.ConfirmedSpend(ctx, q, connectionID, budgetDate)
	if err != nil {
		return Balance{}, err
	}
	pending, err := l.PendingHoldsSum(ctx, q, connectionID, budgetDate)
	if err != nil {
		return Balance{}, err
	}
	return Balance{
		ConfirmedSats: confirmed,
		PendingSats:   pending,
		Available:     Remaining(dailyBudget, confirmed, pending),
	}, nil
}

// Available returns dailyBudget - confirmedSpend - pendingHoldsSum, unclamped.
func (l *Ledger) Available(
	ctx context.Context, q db.Querier, dailyBudget uint64, connectionID, budgetDate string,
) (int64, error) {
	b, err := l.Balance(ctx, q, dailyBudget, connectionID, budgetDate)
	if err != nil {
		return 0, err
	}
	return b.Available, nil
}

// Remaining computes limit - confirmed - pending as a signed value, saturating at the int64 range.
func Remaining(limit, confirmed, pending uint64) int64 {
	used, carry := bits.Add64(confirmed, pending, 0)
	if carry != 0 {
		return math.MinInt64
	}
	if limit >= used {
		return saturate(limit - used)
	}
	return -saturate(used - limit)
}

func saturate(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
