package usage

import (
	"context"

	"github.com/kailas-cloud/spendcap/internal/db"
	domconn "github.com/kailas-cloud/spendcap/internal/domain/connection"
	"github.com/kailas-cloud/spendcap/internal/usecase/ledger"
)

// ConnectionFinder resolves a connection's current budget configuration.
type ConnectionFinder interface {
	Find(ctx context.Context, id string) (domconn.Connection, error)
}

// BalanceReader provides read-only access to a day's budget breakdown.
type BalanceReader interface {
	Balance(ctx context.Context, q db.Querier, dailyBudget uint64, connectionID, budgetDate string) (ledger.Balance, error)
}
