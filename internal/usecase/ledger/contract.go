package ledger

import (
	"context"

	"github.com/kailas-cloud/spendcap/internal/db"
)

// SpendReader reads settled spend for a connection and day.
type SpendReader interface {
	ConfirmedSpend(ctx context.Context, q db.Querier, connectionID, budgetDate string) (uint64, error)
}

// HoldSummer sums amounts of non-terminal holds for a connection and day.
type HoldSummer interface {
	SumActive(ctx context.Context, q db.Querier, connectionID, budgetDate string) (uint64, error)
}
