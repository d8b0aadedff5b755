package hold

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/spendcap/internal/db"
	"github.com/kailas-cloud/spendcap/internal/db/sqlite"
	domconn "github.com/kailas-cloud/spendcap/internal/domain/connection"
	domhold "github.com/kailas-cloud/spendcap/internal/domain/hold"
	connrepo "github.com/kailas-cloud/spendcap/internal/repository/connection"
	holdrepo "github.com/kailas-cloud/spendcap/internal/repository/hold"
	ledgerrepo "github.com/kailas-cloud/spendcap/internal/repository/ledger"
	"github.com/kailas-cloud/spendcap/internal/usecase/ledger"
	"github.com/kailas-cloud/spendcap/internal/usecase/lockreg"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// --- Mocks ---

type mockTx struct {
	calls int
	err   error
}

func (m *mockTx) WithTx(ctx context.Context, fn db.TxFunc) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	return fn(ctx, nil)
}

type mockRepo struct {
	insertFn      func(h domhold.Hold) error
	getFn         func(id string) (domhold.Hold, error)
	getTxFn       func(id string) (domhold.Hold, error)
	transitionFn  func(id string, from []domhold.Status, to domhold.Status) (bool, error)
	expireStaleFn func(now time.Time) (int64, error)
}

func (m *mockRepo) Insert(_ context.Context, _ db.Querier, h domhold.Hold) error {
	return m.insertFn(h)
}

func (m *mockRepo) Get(_ context.Context, id string) (domhold.Hold, error) {
	return m.getFn(id)
}

func (m *mockRepo) GetTx(_ context.Context, _ db.Querier, id string) (domhold.Hold, error) {
	if m.getTxFn != nil {
		return m.getTxFn(id)
	}
	return m.getFn(id)
}

func (m *mockRepo) Transition(
	_ context.Context, _ db.Querier, id string, from []domhold.Status, to domhold.Status, _ time.Time,
) (bool, error) {
	return m.transitionFn(id, from, to)
}

func (m *mockRepo) ExpireStale(_ context.Context, now time.Time) (int64, error) {
	return m.expireStaleFn(now)
}

type spendCall struct {
	conn, date string
	amount     uint64
}

type mockSpend struct {
	calls []spendCall
	err   error
}

func (m *mockSpend) AddConfirmedSpend(
	_ context.Context, _ db.Querier, conn, date string, amount uint64, _ time.Time,
) error {
	m.calls = append(m.calls, spendCall{conn, date, amount})
	return m.err
}

type mockLedger struct {
	available int64
	err       error
}

func (m *mockLedger) Available(context.Context, db.Querier, uint64, string, string) (int64, error) {
	return m.available, m.err
}

type mockLocker struct {
	mu       sync.Mutex
	acquired []string
	err      error
}

func (m *mockLocker) Acquire(_ context.Context, id string) (func(), error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	m.acquired = append(m.acquired, id)
	m.mu.Unlock()
	return func() {}, nil
}

func storedHold(t *testing.T, id string, amount uint64, status domhold.Status) domhold.Hold {
	t.Helper()
	return domhold.Reconstruct(id, "app-1", "req-"+id, amount, status, "2026-03-01",
		testNow, testNow.Add(time.Minute), testNow)
}

// --- Real storage ---

type engine struct {
	svc    *Service
	store  *sqlite.Store
	ledger *ledger.Ledger
	conns  *connrepo.SQLRepo
	locks  *lockreg.Registry
	clock  *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func newEngine(t *testing.T) *engine {
	t.Helper()
	store, err := sqlite.Open(context.Background(), sqlite.Config{Path: filepath.Join(t.TempDir(), "spendcap.db")})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	holds := holdrepo.New(store.Querier())
	days := ledgerrepo.New()
	l := ledger.New(days, holds)
	conns := connrepo.NewSQL(store.Querier())
	locks := lockreg.New()
	clock := &fakeClock{now: testNow}

	svc := New(store, holds, days, l, conns, locks).WithClock(clock.Now)
	return &engine{svc: svc, store: store, ledger: l, conns: conns, locks: locks, clock: clock}
}

func (e *engine) limit(t *testing.T, id string, sats uint64) {
	t.Helper()
	if err := e.conns.Upsert(context.Background(), domconn.Limited(id, sats), testNow); err != nil {
		t.Fatalf("upsert connection: %v", err)
	}
}

func (e *engine) balance(t *testing.T, id string, limit uint64, date string) ledger.Balance {
	t.Helper()
	b, err := e.ledger.Balance(context.Background(), e.store.Querier(), limit, id, date)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return b
}

func u64(v uint64) *uint64 { return &v }
