package hold

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kailas-cloud/spendcap/internal/db"
	"github.com/kailas-cloud/spendcap/internal/db/sqlite"
	"github.com/kailas-cloud/spendcap/internal/domain"
	domhold "github.com/kailas-cloud/spendcap/internal/domain/hold"
)

const holdColumns = `id, connection_id, request_id, amount_sats, status, budget_date, created_at, expires_at, updated_at`

// activeStatusList is the SQL IN-list of non-terminal statuses.
var activeStatusList = statusList(domhold.ActiveStatuses)

// Repo implements usecase/hold.Repository on SQL.
type Repo struct {
	base db.Querier
}

// New creates a hold repository. base serves reads and writes that need no caller transaction.
func New(base db.Querier) *Repo {
	return &Repo{base: base}
}

// Insert writes a new hold row.
func (r *Repo) Insert(ctx context.Context, q db.Querier, h domhold.Hold) error {
	amount, err := toInt64(h.AmountSats())
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
INSERT INTO holds (`+holdColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID(), h.ConnectionID(), h.RequestID(), amount, string(h.Status()), h.BudgetDate(),
		sqlite.ToMillis(h.CreatedAt()), sqlite.ToMillis(h.ExpiresAt()), sqlite.ToMillis(h.UpdatedAt()),
	)
	if err != nil {
		return &db.Error{Op: db.OpExec, Err: fmt.Errorf("insert hold %s: %w", h.ID(), err)}
	}
	return nil
}

// Get loads a hold outside any transaction.
func (r *Repo) Get(ctx context.Context, id string) (domhold.Hold, error) {
	return r.GetTx(ctx, r.base, id)
}

// GetTx loads a hold through q, typically the caller's transaction.
func (r *Repo) GetTx(ctx context.Context, q db.Querier, id string) (domhold.Hold, error) {
	row := q.QueryRowContext(ctx, `SELECT `+holdColumns+` FROM holds WHERE id = ?`, id)
	h, err := scanHold(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domhold.Hold{}, domain.ErrHoldNotFound
		}
		return domhold.Hold{}, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("get hold %s: %w", id, err)}
	}
	return h, nil
}

// Transition moves a hold to `to` only if its current status is one of `from`.
// Returns false when the row was not in an eligible status (or does not exist).
func (r *Repo) Transition(
	ctx context.Context, q db.Querier, id string, from []domhold.Status, to domhold.Status, now time.Time,
) (bool, error) {
	res, err := q.ExecContext(ctx,
		`UPDATE holds SET status = ?, updated_at = ? WHERE id = ? AND status IN (`+statusList(from)+`)`,
		string(to), sqlite.ToMillis(now), id,
	)
	if err != nil {
		return false, &db.Error{Op: db.OpExec, Err: fmt.Errorf("transition hold %s to %s: %w", id, to, err)}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, &db.Error{Op: db.OpExec, Err: fmt.Errorf("transition hold %s rows: %w", id, err)}
	}
	return n == 1, nil
}

// SumActive returns the total reserved amount of non-terminal holds for a connection and day.
func (r *Repo) SumActive(ctx context.Context, q db.Querier, connectionID, budgetDate string) (uint64, error) {
	var sum int64
	err := q.QueryRowContext(ctx, `
SELECT COALESCE(SUM(amount_sats), 0) FROM holds
WHERE connection_id = ? AND budget_date = ? AND status IN (`+activeStatusList+`)`,
		connectionID, budgetDate,
	).Scan(&sum)
	if err != nil {
		return 0, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("sum active holds %s/%s: %w", connectionID, budgetDate, err)}
	}
	if sum < 0 {
		return 0, fmt.Errorf("sum active holds %s/%s: negative total %d", connectionID, budgetDate, sum)
	}
	return uint64(sum), nil
}

// ExpireStale marks every non-terminal hold with expires_at < now as expired in one statement.
func (r *Repo) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.base.ExecContext(ctx, `
UPDATE holds SET status = ?, updated_at = ?
WHERE status IN (`+activeStatusList+`) AND expires_at < ?`,
		string(domhold.StatusExpired), sqlite.ToMillis(now), sqlite.ToMillis(now),
	)
	if err != nil {
		return 0, &db.Error{Op: db.OpExec, Err: fmt.Errorf("expire stale holds: %w", err)}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &db.Error{Op: db.OpExec, Err: fmt.Errorf("expire stale holds rows: %w", err)}
	}
	return n, nil
}

func scanHold(scan func(dest ...any) error) (domhold.Hold, error) {
	var (
		id, connectionID, requestID, status, budgetDate string
		amount, createdAt, expiresAt, updatedAt         int64
	)
	if err := scan(&id, &connectionID, &requestID, &amount, &status, &budgetDate,
		&createdAt, &expiresAt, &updatedAt); err != nil {
		return domhold.Hold{}, err
	}
	st, err := domhold.ParseStatus(status)
	if err != nil {
		return domhold.Hold{}, err
	}
	return domhold.Reconstruct(
		id, connectionID, requestID, uint64(amount), st, budgetDate,
		sqlite.FromMillis(createdAt), sqlite.FromMillis(expiresAt), sqlite.FromMillis(updatedAt),
	), nil
}

// statusList renders statuses as a quoted SQL IN-list. Values come from domain constants only.
func statusList(statuses []domhold.Status) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = "'" + string(s) + "'"
	}
	return strings.Join(parts, ", ")
}

func toInt64(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("amount %d exceeds storage range", v)
	}
	return int64(v), nil
}
