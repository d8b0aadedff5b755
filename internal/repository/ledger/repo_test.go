package ledger

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/kailas-cloud/spendcap/internal/db"
	"github.com/kailas-cloud/spendcap/internal/db/sqlite"
)

func openTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(context.Background(), sqlite.Config{Path: filepath.Join(t.TempDir(), "ledger.db")})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestConfirmedSpend_NoRecord(t *testing.T) {
	s := openTestStore(t)
	repo := New()

	got, err := repo.ConfirmedSpend(context.Background(), s.Querier(), "conn", "2026-03-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Errorf("confirmed = %d, want 0", got)
	}

	_, err = repo.Get(context.Background(), s.Querier(), "conn", "2026-03-01")
	if !errors.Is(err, db.ErrNotFound) {
		t.Errorf("expected db.ErrNotFound, got %v", err)
	}
}

func TestAddConfirmedSpend_Upserts(t *testing.T) {
	s := openTestStore(t)
	repo := New()
	ctx := context.Background()
	q := s.Querier()
	t1 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	if err := repo.AddConfirmedSpend(ctx, q, "conn", "2026-03-01", 450, t1); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := repo.AddConfirmedSpend(ctx, q, "conn", "2026-03-01", 50, t2); err != nil {
		t.Fatalf("second add: %v", err)
	}
	if err := repo.AddConfirmedSpend(ctx, q, "conn", "2026-03-02", 7, t2); err != nil {
		t.Fatalf("next day add: %v", err)
	}

	rec, err := repo.Get(ctx, q, "conn", "2026-03-01")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.ConfirmedSpendSats() != 500 {
		t.Errorf("confirmed = %d, want 500", rec.ConfirmedSpendSats())
	}
	if !rec.LastUpdatedAt().Equal(t2) {
		t.Errorf("lastUpdatedAt = %v, want %v", rec.LastUpdatedAt(), t2)
	}

	next, err := repo.ConfirmedSpend(ctx, q, "conn", "2026-03-02")
	if err != nil || next != 7 {
		t.Errorf("next day confirmed = %d err=%v", next, err)
	}
}

func TestAddConfirmedSpend_RejectsOverflow(t *testing.T) {
	s := openTestStore(t)
	repo := New()
	ctx := context.Background()
	q := s.Querier()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	if err := repo.AddConfirmedSpend(ctx, q, "conn", "2026-03-01", math.MaxInt64-10, now); err != nil {
		t.Fatalf("first add: %v", err)
	}
	err := repo.AddConfirmedSpend(ctx, q, "conn", "2026-03-01", 11, now.Add(time.Minute))
	if !errors.Is(err, ErrSpendOverflow) {
		t.Fatalf("expected ErrSpendOverflow, got %v", err)
	}

	rec, err := repo.Get(ctx, q, "conn", "2026-03-01")
	if err != nil {
		t.Fatalf("get after rejected add: %v", err)
	}
	if rec.ConfirmedSpendSats() != math.MaxInt64-10 {
		t.Errorf("confirmed = %d, want %d", rec.ConfirmedSpendSats(), uint64(math.MaxInt64-10))
	}
	if !rec.LastUpdatedAt().Equal(now) {
		t.Errorf("lastUpdatedAt = %v, want %v", rec.LastUpdatedAt(), now)
	}

	if err := repo.AddConfirmedSpend(ctx, q, "conn", "2026-03-01", 10, now); err != nil {
		t.Fatalf("add up to the limit: %v", err)
	}
	got, err := repo.ConfirmedSpend(ctx, q, "conn", "2026-03-01")
	if err != nil || got != math.MaxInt64 {
		t.Errorf("confirmed = %d err=%v, want %d", got, err, uint64(math.MaxInt64))
	}
}
