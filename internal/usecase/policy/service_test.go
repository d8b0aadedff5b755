package policy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/spendcap/internal/db"
	"github.com/kailas-cloud/spendcap/internal/domain"
	connrepo "github.com/kailas-cloud/spendcap/internal/repository/connection"
)

// --- Mocks ---

type mockLedger struct {
	available int64
	err       error
	gotLimit  uint64
	gotDate   string
}

func (m *mockLedger) Available(_ context.Context, _ db.Querier, limit uint64, _, date string) (int64, error) {
	m.gotLimit, m.gotDate = limit, date
	return m.available, m.err
}

func u64(v uint64) *uint64 { return &v }

func newService(l *mockLedger) *Service {
	conns := connrepo.NewStatic(map[string]*uint64{"app-1": u64(1000), "free": nil})
	return New(conns, l, nil).WithClock(func() time.Time {
		return time.Date(2026, 3, 1, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))
	})
}

// --- Tests ---

func TestHasLimit(t *testing.T) {
	svc := newService(&mockLedger{})
	ctx := context.Background()

	if ok, err := svc.HasLimit(ctx, "app-1"); err != nil || !ok {
		t.Errorf("app-1: ok=%v err=%v", ok, err)
	}
	if ok, err := svc.HasLimit(ctx, "free"); err != nil || ok {
		t.Errorf("free: ok=%v err=%v", ok, err)
	}
	if _, err := svc.HasLimit(ctx, "ghost"); !errors.Is(err, domain.ErrConnectionNotFound) {
		t.Errorf("expected ErrConnectionNotFound, got %v", err)
	}
}

func TestAvailableBudget(t *testing.T) {
	l := &mockLedger{available: 350}
	sats, ok, err := newService(l).AvailableBudget(context.Background(), "app-1")
	if err != nil || !ok || sats != 350 {
		t.Fatalf("got sats=%d ok=%v err=%v", sats, ok, err)
	}
	if l.gotLimit != 1000 {
		t.Errorf("limit passed = %d", l.gotLimit)
	}
	// 23:30 EST is 04:30 UTC the next day.
	if l.gotDate != "2026-03-02" {
		t.Errorf("budget date = %q, want UTC date 2026-03-02", l.gotDate)
	}
}

func TestAvailableBudget_ClampsAtZero(t *testing.T) {
	sats, ok, err := newService(&mockLedger{available: -50}).AvailableBudget(context.Background(), "app-1")
	if err != nil || !ok || sats != 0 {
		t.Fatalf("got sats=%d ok=%v err=%v", sats, ok, err)
	}
}

func TestAvailableBudget_Unlimited(t *testing.T) {
	l := &mockLedger{err: errors.New("must not be called")}
	_, ok, err := newService(l).AvailableBudget(context.Background(), "free")
	if err != nil || ok {
		t.Fatalf("got ok=%v err=%v", ok, err)
	}
}

func TestAvailableBudget_LedgerError(t *testing.T) {
	boom := errors.New("boom")
	if _, _, err := newService(&mockLedger{err: boom}).AvailableBudget(context.Background(), "app-1"); !errors.Is(err, boom) {
		t.Fatalf("expected ledger error, got %v", err)
	}
}
