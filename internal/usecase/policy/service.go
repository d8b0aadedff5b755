package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/spendcap/internal/db"
	domledger "github.com/kailas-cloud/spendcap/internal/domain/ledger"
)

// Service answers budget questions for callers that decide whether to place a hold.
type Service struct {
	conns  ConnectionFinder
	ledger BudgetLedger
	q      db.Querier
	now    func() time.Time
}

// New creates a policy service. q serves the advisory reads outside any transaction.
func New(conns ConnectionFinder, ledger BudgetLedger, q db.Querier) *Service {
	return &Service{conns: conns, ledger: ledger, q: q, now: time.Now}
}

// WithClock sets the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// HasLimit reports whether the connection has a daily budget configured.
func (s *Service) HasLimit(ctx context.Context, connectionID string) (bool, error) {
	c, err := s.conns.Find(ctx, connectionID)
	if err != nil {
		return false, fmt.Errorf("has limit: %w", err)
	}
	return c.HasLimit(), nil
}

// AvailableBudget returns today's remaining budget floored at zero, with ok=false
// for unlimited connections. The value is a snapshot and never authorizes a hold.
func (s *Service) AvailableBudget(ctx context.Context, connectionID string) (sats uint64, ok bool, err error) {
	c, err := s.conns.Find(ctx, connectionID)
	if err != nil {
		return 0, false, fmt.Errorf("available budget: %w", err)
	}
	limit, limited := c.DailyBudgetSats()
	if !limited {
		return 0, false, nil
	}

	available, err := s.ledger.Available(ctx, s.q, limit, connectionID, domledger.BudgetDate(s.now()))
	if err != nil {
		return 0, false, fmt.Errorf("available budget: %w", err)
	}
	if available < 0 {
		return 0, true, nil
	}
	return uint64(available), true, nil
}
