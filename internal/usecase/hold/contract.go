package hold

import (
	"context"
	"time"

	"github.com/kailas-cloud/spendcap/internal/db"
	domconn "github.com/kailas-cloud/spendcap/internal/domain/connection"
	domhold "github.com/kailas-cloud/spendcap/internal/domain/hold"
)

// Repository defines the storage contract for holds.
type Repository interface {
	Insert(ctx context.Context, q db.Querier, h domhold.Hold) error
	Get(ctx context.Context, id string) (domhold.Hold, error)
	GetTx(ctx context.Context, q db.Querier, id string) (domhold.Hold, error)
	Transition(ctx context.Context, q db.Querier, id string, from []domhold.Status, to domhold.Status, now time.Time) (bool, error)
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

// SpendWriter credits settled spend to a day's budget record.
type SpendWriter interface {
	AddConfirmedSpend(ctx context.Context, q db.Querier, connectionID, budgetDate string, amount uint64, now time.Time) error
}

// BudgetLedger computes the unclamped remaining budget for a day.
type BudgetLedger interface {
	Available(ctx context.Context, q db.Querier, dailyBudget uint64, connectionID, budgetDate string) (int64, error)
}

// ConnectionFinder resolves a connection's current budget configuration.
type ConnectionFinder interface {
	Find(ctx context.Context, id string) (domconn.Connection, error)
}

// Locker serializes mutations per connection.
type Locker interface {
	Acquire(ctx context.Context, connectionID string) (func(), error)
}
