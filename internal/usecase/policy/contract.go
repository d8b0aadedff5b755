package policy

import (
	"context"

	"github.com/kailas-cloud/spendcap/internal/db"
	domconn "github.com/kailas-cloud/spendcap/internal/domain/connection"
)

// ConnectionFinder resolves a connection's current budget configuration.
type ConnectionFinder interface {
	Find(ctx context.Context, id string) (domconn.Connection, error)
}

// BudgetLedger computes the unclamped remaining budget for a day.
type BudgetLedger interface {
	Available(ctx context.Context, q db.Querier, dailyBudget uint64, connectionID, budgetDate string) (int64, error)
}
