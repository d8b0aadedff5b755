package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/kailas-cloud/spendcap/internal/db"
	"github.com/kailas-cloud/spendcap/internal/db/sqlite"
	domledger "github.com/kailas-cloud/spendcap/internal/domain/ledger"
)

// ErrSpendOverflow is returned when adding to a day's confirmed spend would leave the int64 range.
var ErrSpendOverflow = errors.New("confirmed spend overflow")

// Repo stores DailyBudgetRecord rows.
type Repo struct{}

// New creates a daily budget repository. Every method runs through the caller's querier.
func New() *Repo {
	return &Repo{}
}

// Get returns the record for a connection and day, or db.ErrNotFound.
func (r *Repo) Get(ctx context.Context, q db.Querier, connectionID, budgetDate string) (domledger.Record, error) {
	var (
		confirmed int64
		updatedAt int64
	)
	err := q.QueryRowContext(ctx, `
SELECT confirmed_spend_sats, last_updated_at FROM daily_budgets
WHERE connection_id = ? AND budget_date = ?`,
		connectionID, budgetDate,
	).Scan(&confirmed, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domledger.Record{}, db.ErrNotFound
		}
		return domledger.Record{}, &db.Error{
			Op: db.OpQuery, Err: fmt.Errorf("get daily budget %s/%s: %w", connectionID, budgetDate, err),
		}
	}
	return domledger.Reconstruct(connectionID, budgetDate, uint64(confirmed), sqlite.FromMillis(updatedAt)), nil
}

// ConfirmedSpend returns settled spend for the day, 0 when no record exists yet.
func (r *Repo) ConfirmedSpend(ctx context.Context, q db.Querier, connectionID, budgetDate string) (uint64, error) {
	rec, err := r.Get(ctx, q, connectionID, budgetDate)
	if errors.Is(err, db.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rec.ConfirmedSpendSats(), nil
}

// AddConfirmedSpend upserts the day's record, adding amount to confirmed spend.
func (r *Repo) AddConfirmedSpend(
	ctx context.Context, q db.Querier, connectionID, budgetDate string, amount uint64, now time.Time,
) error {
	if amount > math.MaxInt64 {
		return fmt.Errorf("confirmed spend %d exceeds storage range", amount)
	}
	// The conflict branch only fires while the sum still fits a signed 64-bit column.
	res, err := q.ExecContext(ctx, `
INSERT INTO daily_budgets (connection_id, budget_date, confirmed_spend_sats, last_updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (connection_id, budget_date) DO UPDATE SET
    confirmed_spend_sats = confirmed_spend_sats + excluded.confirmed_spend_sats,
    last_updated_at = excluded.last_updated_at
WHERE daily_budgets.confirmed_spend_sats <= ?`,
		connectionID, budgetDate, int64(amount), sqlite.ToMillis(now), int64(math.MaxInt64-amount),
	)
	if err != nil {
		return &db.Error{
			Op: db.OpExec, Err: fmt.Errorf("add confirmed spend %s/%s: %w", connectionID, budgetDate, err),
		}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &db.Error{Op: db.OpExec, Err: fmt.Errorf("add confirmed spend %s/%s: %w", connectionID, budgetDate, err)}
	}
	if n == 0 {
		return fmt.Errorf("%w: confirmed spend for %s/%s would overflow", ErrSpendOverflow, connectionID, budgetDate)
	}
	return nil
}
