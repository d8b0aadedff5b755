package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/spendcap/internal/db"
	domledger "github.com/kailas-cloud/spendcap/internal/domain/ledger"
	domusage "github.com/kailas-cloud/spendcap/internal/domain/usage"
)

// Service handles budget reporting.
type Service struct {
	conns ConnectionFinder
	br    BalanceReader
	q     db.Querier
	now   func() time.Time
}

// New creates a Service. q serves the reads outside any transaction.
func New(conns ConnectionFinder, br BalanceReader, q db.Querier) *Service {
	return &Service{conns: conns, br: br, q: q, now: time.Now}
}

// WithClock sets the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetReport builds today's budget snapshot for a connection.
func (s *Service) GetReport(ctx context.Context, connectionID string) (domusage.Report, error) {
	c, err := s.conns.Find(ctx, connectionID)
	if err != nil {
		return domusage.Report{}, fmt.Errorf("budget report: %w", err)
	}

	now := s.now().UTC()
	date := domledger.BudgetDate(now)
	resetsAt := domledger.NextReset(now)

	limit, ok := c.DailyBudgetSats()
	if !ok {
		return domusage.NewUnlimitedReport(connectionID, date, resetsAt), nil
	}

	b, err := s.br.Balance(ctx, s.q, limit, connectionID, date)
	if err != nil {
		return domusage.Report{}, fmt.Errorf("budget report: %w", err)
	}
	return domusage.NewLimitedReport(
		connectionID, date, limit, b.ConfirmedSats, b.PendingSats, b.Available, resetsAt,
	), nil
}
