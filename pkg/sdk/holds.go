package spendcap

import (
	"context"
	"fmt"
	"time"

	domhold "github.com/kailas-cloud/spendcap/internal/domain/hold"
)

// HoldStatus is the lifecycle state of a hold.
type HoldStatus string

// HoldStatus constants.
const (
	HoldPending    HoldStatus = "pending"
	HoldProcessing HoldStatus = "processing"
	HoldCommitted  HoldStatus = "committed"
	HoldReleased   HoldStatus = "released"
	HoldExpired    HoldStatus = "expired"
)

// PlacedHold is a successful reservation.
type PlacedHold struct {
	ID         string
	AmountSats uint64
	// RemainingBudget is what is left for the day after this hold.
	RemainingBudget int64
	BudgetDate      string
	ExpiresAt       time.Time
}

// Hold is a stored reservation.
type Hold struct {
	ID           string
	ConnectionID string
	RequestID    string
	AmountSats   uint64
	Status       HoldStatus
	BudgetDate   string
	CreatedAt    time.Time
	ExpiresAt    time.Time
	UpdatedAt    time.Time
}

// HasBudgetLimit reports whether the connection has a daily budget.
// Call it before PlaceHold; unlimited connections must not place holds.
func (c *Client) HasBudgetLimit(ctx context.Context, connectionID string) (_ bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("budget.has_limit", start, err) }()

	limited, err := c.policySvc.HasLimit(ctx, connectionID)
	if err != nil {
		return false, fmt.Errorf("has budget limit: %w", err)
	}
	return limited, nil
}

// AvailableBudget returns today's remaining budget floored at zero, or ok=false when unlimited.
// The value is advisory; only PlaceHold decides whether a reservation fits.
func (c *Client) AvailableBudget(ctx context.Context, connectionID string) (sats uint64, ok bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("budget.available", start, err) }()

	sats, ok, err = c.policySvc.AvailableBudget(ctx, connectionID)
	if err != nil {
		return 0, false, fmt.Errorf("available budget: %w", err)
	}
	return sats, ok, nil
}

// PlaceHold reserves amountSats of today's budget until timeout elapses.
// A rejection returns *InsufficientBudgetError.
func (c *Client) PlaceHold(
	ctx context.Context, connectionID string, amountSats uint64, requestID string, timeout time.Duration,
) (_ PlacedHold, err error) {
	start := time.Now()
	defer func() { c.obs.observe("hold.place", start, err) }()

	p, err := c.holdSvc.PlaceHold(ctx, connectionID, amountSats, requestID, timeout)
	if err != nil {
		return PlacedHold{}, err
	}
	return PlacedHold{
		ID:              p.HoldID,
		AmountSats:      p.AmountSats,
		RemainingBudget: p.RemainingBudget,
		BudgetDate:      p.BudgetDate,
		ExpiresAt:       p.ExpiresAt,
	}, nil
}

// MarkProcessing flags a pending hold as having its payment in flight.
func (c *Client) MarkProcessing(ctx context.Context, holdID string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("hold.processing", start, err) }()
	return c.holdSvc.MarkProcessing(ctx, holdID)
}

// CommitHold settles a hold. A nil actualAmountSats credits the reserved amount.
// Unknown or already settled holds are a no-op.
func (c *Client) CommitHold(ctx context.Context, holdID string, actualAmountSats *uint64) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("hold.commit", start, err) }()
	return c.holdSvc.CommitHold(ctx, holdID, actualAmountSats)
}

// ReleaseHold returns a hold's reservation to the budget.
// Unknown or already settled holds are a no-op.
func (c *Client) ReleaseHold(ctx context.Context, holdID string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("hold.release", start, err) }()
	return c.holdSvc.ReleaseHold(ctx, holdID)
}

// ExpireStaleHolds marks every active hold with expiry before now as expired.
// Returns the number of holds expired.
func (c *Client) ExpireStaleHolds(ctx context.Context, now time.Time) (_ int64, err error) {
	start := time.Now()
	defer func() { c.obs.observe("hold.expire", start, err) }()
	return c.holdSvc.ExpireStaleHolds(ctx, now)
}

// GetHold returns a stored hold or ErrHoldNotFound.
func (c *Client) GetHold(ctx context.Context, holdID string) (_ Hold, err error) {
	start := time.Now()
	defer func() { c.obs.observe("hold.get", start, err) }()

	h, err := c.holdSvc.Get(ctx, holdID)
	if err != nil {
		return Hold{}, err
	}
	return holdFromDomain(&h), nil
}

func holdFromDomain(h *domhold.Hold) Hold {
	return Hold{
		ID:           h.ID(),
		ConnectionID: h.ConnectionID(),
		RequestID:    h.RequestID(),
		AmountSats:   h.AmountSats(),
		Status:       HoldStatus(h.Status()),
		BudgetDate:   h.BudgetDate(),
		CreatedAt:    h.CreatedAt(),
		ExpiresAt:    h.ExpiresAt(),
		UpdatedAt:    h.UpdatedAt(),
	}
}
