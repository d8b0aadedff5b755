package ledger

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/kailas-cloud/spendcap/internal/db"
)

// --- Mocks ---

type mockSpendReader struct {
	confirmed uint64
	err       error
}

func (m *mockSpendReader) ConfirmedSpend(context.Context, db.Querier, string, string) (uint64, error) {
	return m.confirmed, m.err
}

type mockHoldSummer struct {
	pending uint64
	err     error
	gotConn string
	gotDate string
}

func (m *mockHoldSummer) SumActive(_ context.Context, _ db.Querier, conn, date string) (uint64, error) {
	m.gotConn, m.gotDate = conn, date
	return m.pending, m.err
}

// --- Tests ---

func TestBalance(t *testing.T) {
	holds := &mockHoldSummer{pending: 200}
	l := New(&mockSpendReader{confirmed: 450}, holds)

	b, err := l.Balance(context.Background(), nil, 1000, "app-1", "2026-03-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.ConfirmedSats != 450 || b.PendingSats != 200 || b.Available != 350 {
		t.Errorf("got %+v", b)
	}
	if holds.gotConn != "app-1" || holds.gotDate != "2026-03-01" {
		t.Errorf("SumActive called with %q/%q", holds.gotConn, holds.gotDate)
	}
}

func TestAvailable_Negative(t *testing.T) {
	l := New(&mockSpendReader{confirmed: 900}, &mockHoldSummer{pending: 300})
	got, err := l.Available(context.Background(), nil, 1000, "app-1", "2026-03-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != -200 {
		t.Errorf("Available = %d, want -200", got)
	}
}

func TestBalance_Errors(t *testing.T) {
	boom := errors.New("boom")

	l := New(&mockSpendReader{err: boom}, &mockHoldSummer{})
	if _, err := l.Balance(context.Background(), nil, 1, "c", "d"); !errors.Is(err, boom) {
		t.Errorf("expected spend error, got %v", err)
	}

	l = New(&mockSpendReader{}, &mockHoldSummer{err: boom})
	if _, err := l.Balance(context.Background(), nil, 1, "c", "d"); !errors.Is(err, boom) {
		t.Errorf("expected holds error, got %v", err)
	}
}

func TestRemaining(t *testing.T) {
	tests := []struct {
		name                      string
		limit, confirmed, pending uint64
		want                      int64
	}{
		{"untouched", 1000, 0, 0, 1000},
		{"exact", 1000, 600, 400, 0},
		{"overspent", 1000, 1050, 0, -50},
		{"zero limit", 0, 0, 10, -10},
		{"huge limit", math.MaxUint64, 0, 0, math.MaxInt64},
		{"sum overflow", 10, math.MaxUint64, 1, math.MinInt64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Remaining(tt.limit, tt.confirmed, tt.pending); got != tt.want {
				t.Errorf("Remaining(%d, %d, %d) = %d, want %d", tt.limit, tt.confirmed, tt.pending, got, tt.want)
			}
		})
	}
}
