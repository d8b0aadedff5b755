package hold

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/spendcap/internal/db"
	"github.com/kailas-cloud/spendcap/internal/domain"
	domhold "github.com/kailas-cloud/spendcap/internal/domain/hold"
	domledger "github.com/kailas-cloud/spendcap/internal/domain/ledger"
	"github.com/kailas-cloud/spendcap/internal/metrics"
)

// Placed is the result of a successful PlaceHold.
type Placed struct {
	HoldID     string
	AmountSats uint64
	// RemainingBudget is what is left for the day after this hold.
	RemainingBudget int64
	BudgetDate      string
	ExpiresAt       time.Time
}

// Service drives the hold state machine. All mutations of one connection's
// holds and budget record run under that connection's lock and one transaction.
type Service struct {
	tx     db.TxRunner
	holds  Repository
	spend  SpendWriter
	ledger BudgetLedger
	conns  ConnectionFinder
	locks  Locker
	now    func() time.Time
	newID  func() string
	logger *zap.Logger
}

// New creates a hold service.
func New(
	tx db.TxRunner, holds Repository, spend SpendWriter,
	ledger BudgetLedger, conns ConnectionFinder, locks Locker,
) *Service {
	return &Service{
		tx:     tx,
		holds:  holds,
		spend:  spend,
		ledger: ledger,
		conns:  conns,
		locks:  locks,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: zap.NewNop(),
	}
}

// WithClock sets the time source. Times are converted to UTC.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithIDGenerator sets the hold id generator.
func (s *Service) WithIDGenerator(fn func() string) *Service {
	s.newID = fn
	return s
}

// WithLogger sets the logger.
func (s *Service) WithLogger(l *zap.Logger) *Service {
	s.logger = l
	return s
}

// PlaceHold reserves amountSats of today's budget for connectionID.
// Returns *domain.InsufficientBudgetError when the amount does not fit, and an
// error wrapping domain.ErrContractViolation for zero amounts or unlimited connections.
func (s *Service) PlaceHold(
	ctx context.Context, connectionID string, amountSats uint64, requestID string, timeout time.Duration,
) (Placed, error) {
	defer observe("place", time.Now())

	if amountSats == 0 || amountSats > math.MaxInt64 {
		return Placed{}, s.violation("place hold", domain.ErrInvalidAmount,
			zap.String("connection_id", connectionID), zap.Uint64("amount_sats", amountSats))
	}
	if timeout < 0 {
		return Placed{}, s.violation("place hold",
			fmt.Errorf("%w: negative hold timeout", domain.ErrContractViolation),
			zap.String("connection_id", connectionID), zap.Duration("timeout", timeout))
	}

	release, err := s.locks.Acquire(ctx, connectionID)
	if err != nil {
		return Placed{}, fmt.Errorf("place hold: %w", err)
	}
	defer release()

	conn, err := s.conns.Find(ctx, connectionID)
	if err != nil {
		return Placed{}, fmt.Errorf("place hold: find connection: %w", err)
	}
	limit, ok := conn.DailyBudgetSats()
	if !ok {
		return Placed{}, s.violation("place hold", domain.ErrUnlimitedConnection,
			zap.String("connection_id", connectionID))
	}

	now := s.now().UTC()
	budgetDate := domledger.BudgetDate(now)

	var placed Placed
	err = s.tx.WithTx(ctx, func(ctx context.Context, q db.Querier) error {
		available, err := s.ledger.Available(ctx, q, limit, connectionID, budgetDate)
		if err != nil {
			return err
		}
		if available < 0 || amountSats > uint64(available) {
			return domain.NewInsufficientBudget(amountSats, available)
		}

		h, err := domhold.New(s.newID(), connectionID, requestID, amountSats, budgetDate, now, timeout)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrContractViolation, err)
		}
		if err := s.holds.Insert(ctx, q, h); err != nil {
			return err
		}
		placed = Placed{
			HoldID:          h.ID(),
			AmountSats:      amountSats,
			RemainingBudget: available - int64(amountSats),
			BudgetDate:      budgetDate,
			ExpiresAt:       h.ExpiresAt(),
		}
		return nil
	})
	if err != nil {
		var ibe *domain.InsufficientBudgetError
		if errors.As(err, &ibe) {
			metrics.HoldsRejectedTotal.WithLabelValues(metrics.ReasonInsufficientBudget).Inc()
			s.logger.Warn("Hold rejected",
				zap.String("connection_id", connectionID),
				zap.String("request_id", requestID),
				zap.Uint64("requested", ibe.Requested),
				zap.Int64("available", ibe.Available),
			)
			return Placed{}, err
		}
		return Placed{}, fmt.Errorf("place hold: %w", err)
	}

	metrics.HoldsPlacedTotal.Inc()
	metrics.HoldsTransitionsTotal.WithLabelValues(string(domhold.StatusPending)).Inc()
	s.logger.Debug("Hold placed",
		zap.String("hold_id", placed.HoldID),
		zap.String("connection_id", connectionID),
		zap.String("request_id", requestID),
		zap.Uint64("amount_sats", amountSats),
		zap.Int64("remaining_sats", placed.RemainingBudget),
		zap.String("budget_date", budgetDate),
	)
	return placed, nil
}

// CommitHold settles a hold, crediting actualAmountSats (or the reserved amount
// when nil) to the hold's budget date. Missing or already terminal holds are a no-op.
func (s *Service) CommitHold(ctx context.Context, holdID string, actualAmountSats *uint64) error {
	defer observe("commit", time.Now())

	if actualAmountSats != nil && *actualAmountSats > math.MaxInt64 {
		return s.violation("commit hold", domain.ErrInvalidAmount,
			zap.String("hold_id", holdID), zap.Uint64("actual_amount_sats", *actualAmountSats))
	}

	return s.transition(ctx, "commit hold", holdID, domhold.ActiveStatuses, domhold.StatusCommitted,
		func(ctx context.Context, q db.Querier, h domhold.Hold, now time.Time) error {
			amount := h.AmountSats()
			if actualAmountSats != nil {
				amount = *actualAmountSats
			}
			return s.spend.AddConfirmedSpend(ctx, q, h.ConnectionID(), h.BudgetDate(), amount, now)
		})
}

// ReleaseHold frees a hold's reservation. Missing or already terminal holds are a no-op.
func (s *Service) ReleaseHold(ctx context.Context, holdID string) error {
	defer observe("release", time.Now())
	return s.transition(ctx, "release hold", holdID, domhold.ActiveStatuses, domhold.StatusReleased, nil)
}

// MarkProcessing flags a pending hold as having its payment in flight.
// Holds that are already processing, terminal or missing are left untouched.
func (s *Service) MarkProcessing(ctx context.Context, holdID string) error {
	defer observe("processing", time.Now())
	return s.transition(ctx, "mark processing", holdID,
		[]domhold.Status{domhold.StatusPending}, domhold.StatusProcessing, nil)
}

// ExpireStaleHolds expires every non-terminal hold whose expiresAt is before now.
// It takes no connection lock: the update is conditional on the hold still being active.
func (s *Service) ExpireStaleHolds(ctx context.Context, now time.Time) (int64, error) {
	defer observe("expire", time.Now())

	n, err := s.holds.ExpireStale(ctx, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("expire stale holds: %w", err)
	}
	if n > 0 {
		metrics.HoldsExpiredTotal.Add(float64(n))
		metrics.HoldsTransitionsTotal.WithLabelValues(string(domhold.StatusExpired)).Add(float64(n))
		s.logger.Info("Expired stale holds", zap.Int64("count", n), zap.Time("cutoff", now.UTC()))
	}
	return n, nil
}

// Get returns a hold by id.
func (s *Service) Get(ctx context.Context, holdID string) (domhold.Hold, error) {
	h, err := s.holds.Get(ctx, holdID)
	if err != nil {
		return domhold.Hold{}, fmt.Errorf("get hold: %w", err)
	}
	return h, nil
}

type applyFunc func(ctx context.Context, q db.Querier, h domhold.Hold, now time.Time) error

// transition looks the hold up outside the lock, then re-reads and conditionally
// updates it under the connection lock in one transaction. apply runs only when
// the status change was actually written.
func (s *Service) transition(
	ctx context.Context, op, holdID string, from []domhold.Status, to domhold.Status, apply applyFunc,
) error {
	h, err := s.holds.Get(ctx, holdID)
	if errors.Is(err, domain.ErrHoldNotFound) {
		s.logger.Debug("Hold not found, ignoring", zap.String("operation", op), zap.String("hold_id", holdID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	release, err := s.locks.Acquire(ctx, h.ConnectionID())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer release()

	now := s.now().UTC()
	var (
		applied bool
		prev    domhold.Status
	)
	err = s.tx.WithTx(ctx, func(ctx context.Context, q db.Querier) error {
		cur, err := s.holds.GetTx(ctx, q, holdID)
		if errors.Is(err, domain.ErrHoldNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		prev = cur.Status()
		if !slices.Contains(from, prev) {
			return nil
		}
		ok, err := s.holds.Transition(ctx, q, holdID, from, to, now)
		if err != nil || !ok {
			return err
		}
		if apply != nil {
			if err := apply(ctx, q, cur, now); err != nil {
				return err
			}
		}
		applied = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !applied {
		s.logger.Debug("Hold transition skipped",
			zap.String("operation", op),
			zap.String("hold_id", holdID),
			zap.String("status", string(prev)),
		)
		return nil
	}
	metrics.HoldsTransitionsTotal.WithLabelValues(string(to)).Inc()
	s.logger.Debug("Hold transitioned",
		zap.String("hold_id", holdID),
		zap.String("connection_id", h.ConnectionID()),
		zap.String("from", string(prev)),
		zap.String("to", string(to)),
	)
	return nil
}

// violation reports a caller bug: DPanic panics in development builds.
func (s *Service) violation(op string, err error, fields ...zap.Field) error {
	metrics.HoldsRejectedTotal.WithLabelValues(metrics.ReasonContractViolation).Inc()
	s.logger.DPanic("Contract violation", append(fields, zap.String("operation", op), zap.Error(err))...)
	return fmt.Errorf("%s: %w", op, err)
}

func observe(op string, start time.Time) {
	metrics.HoldOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
