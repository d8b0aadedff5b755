package spendcap

import (
	"context"
	"time"

	domhold "github.com/kailas-cloud/spendcap/internal/domain/hold"
	domusage "github.com/kailas-cloud/spendcap/internal/domain/usage"
	healthuc "github.com/kailas-cloud/spendcap/internal/usecase/health"
	holduc "github.com/kailas-cloud/spendcap/internal/usecase/hold"
)

// --- holdUseCase mock ---

type mockHoldUC struct {
	placeFn      func(ctx context.Context, conn string, amount uint64, requestID string, timeout time.Duration) (holduc.Placed, error)
	commitFn     func(ctx context.Context, holdID string, actual *uint64) error
	releaseFn    func(ctx context.Context, holdID string) error
	processingFn func(ctx context.Context, holdID string) error
	expireFn     func(ctx context.Context, now time.Time) (int64, error)
	getFn        func(ctx context.Context, holdID string) (domhold.Hold, error)
}

func (m *mockHoldUC) PlaceHold(
	ctx context.Context, conn string, amount uint64, requestID string, timeout time.Duration,
) (holduc.Placed, error) {
	return m.placeFn(ctx, conn, amount, requestID, timeout)
}

func (m *mockHoldUC) CommitHold(ctx context.Context, holdID string, actual *uint64) error {
	return m.commitFn(ctx, holdID, actual)
}

func (m *mockHoldUC) ReleaseHold(ctx context.Context, holdID string) error {
	return m.releaseFn(ctx, holdID)
}

func (m *mockHoldUC) MarkProcessing(ctx context.Context, holdID string) error {
	return m.processingFn(ctx, holdID)
}

func (m *mockHoldUC) ExpireStaleHolds(ctx context.Context, now time.Time) (int64, error) {
	return m.expireFn(ctx, now)
}

func (m *mockHoldUC) Get(ctx context.Context, holdID string) (domhold.Hold, error) {
	return m.getFn(ctx, holdID)
}

// --- policyUseCase mock ---

type mockPolicyUC struct {
	hasLimitFn  func(ctx context.Context, conn string) (bool, error)
	availableFn func(ctx context.Context, conn string) (uint64, bool, error)
}

func (m *mockPolicyUC) HasLimit(ctx context.Context, conn string) (bool, error) {
	return m.hasLimitFn(ctx, conn)
}

func (m *mockPolicyUC) AvailableBudget(ctx context.Context, conn string) (uint64, bool, error) {
	return m.availableFn(ctx, conn)
}

// --- usageUseCase mock ---

type mockUsageUC struct {
	fn func(ctx context.Context, conn string) (domusage.Report, error)
}

func (m *mockUsageUC) GetReport(ctx context.Context, conn string) (domusage.Report, error) {
	return m.fn(ctx, conn)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

// --- ConnectionDirectory mock ---

type mockDirectory struct {
	fn func(ctx context.Context, id string) (uint64, bool, error)
}

func (m *mockDirectory) DailyBudget(ctx context.Context, id string) (uint64, bool, error) {
	return m.fn(ctx, id)
}
