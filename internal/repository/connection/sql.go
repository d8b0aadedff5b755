package connection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/spendcap/internal/db"
	"github.com/kailas-cloud/spendcap/internal/db/sqlite"
	"github.com/kailas-cloud/spendcap/internal/domain"
	domconn "github.com/kailas-cloud/spendcap/internal/domain/connection"
)

// SQLRepo reads connection budgets from the connections table.
type SQLRepo struct {
	q db.Querier
}

// NewSQL creates a SQL-backed connection directory.
func NewSQL(q db.Querier) *SQLRepo {
	return &SQLRepo{q: q}
}

// Find returns the connection's current budget configuration.
func (r *SQLRepo) Find(ctx context.Context, id string) (domconn.Connection, error) {
	var budget sql.NullInt64
	err := r.q.QueryRowContext(ctx, `SELECT daily_budget_sats FROM connections WHERE id = ?`, id).Scan(&budget)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domconn.Connection{}, domain.ErrConnectionNotFound
		}
		return domconn.Connection{}, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("find connection %s: %w", id, err)}
	}
	if !budget.Valid {
		return domconn.Unlimited(id), nil
	}
	if budget.Int64 < 0 {
		return domconn.Connection{}, fmt.Errorf("connection %s: negative daily budget %d", id, budget.Int64)
	}
	return domconn.Limited(id, uint64(budget.Int64)), nil
}

// Upsert writes a connection's budget configuration (connection management, seeding).
func (r *SQLRepo) Upsert(ctx context.Context, c domconn.Connection, now time.Time) error {
	var budget sql.NullInt64
	if v, ok := c.DailyBudgetSats(); ok {
		if v > domconn.MaxDailyBudgetSats {
			return fmt.Errorf("%w: connection %s budget %d", domconn.ErrBudgetOutOfRange, c.ID(), v)
		}
		budget = sql.NullInt64{Int64: int64(v), Valid: true}
	}
	_, err := r.q.ExecContext(ctx, `
INSERT INTO connections (id, daily_budget_sats, updated_at) VALUES (?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    daily_budget_sats = excluded.daily_budget_sats,
    updated_at = excluded.updated_at`,
		c.ID(), budget, sqlite.ToMillis(now),
	)
	if err != nil {
		return &db.Error{Op: db.OpExec, Err: fmt.Errorf("upsert connection %s: %w", c.ID(), err)}
	}
	return nil
}
