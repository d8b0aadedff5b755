package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kailas-cloud/spendcap/internal/db"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{Path: filepath.Join(t.TempDir(), "spendcap.db")})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func countConnections(t *testing.T, s *Store) int {
	t.Helper()
	var n int
	if err := s.Querier().QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM connections").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestOpen_RequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), Config{}); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spendcap.db")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		s, err := Open(ctx, Config{Path: path})
		if err != nil {
			t.Fatalf("open #%d: %v", i, err)
		}
		var applied int
		if err := s.Querier().QueryRowContext(ctx,
			"SELECT COUNT(*) FROM schema_migrations").Scan(&applied); err != nil {
			t.Fatalf("count migrations: %v", err)
		}
		if applied != 1 {
			t.Errorf("open #%d: applied migrations = %d, want 1", i, applied)
		}
		_ = s.Close()
	}
}

func TestWithTx_Commit(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(ctx context.Context, q db.Querier) error {
		_, err := q.ExecContext(ctx,
			"INSERT INTO connections (id, daily_budget_sats, updated_at) VALUES ('c1', 10, 0)")
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := countConnections(t, s); n != 1 {
		t.Errorf("rows = %d, want 1", n)
	}
}

func TestWithTx_RollbackOnError(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()
	sentinel := errors.New("boom")

	err := s.WithTx(ctx, func(ctx context.Context, q db.Querier) error {
		if _, err := q.ExecContext(ctx,
			"INSERT INTO connections (id, daily_budget_sats, updated_at) VALUES ('c1', 10, 0)"); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error passed through, got %v", err)
	}
	if n := countConnections(t, s); n != 0 {
		t.Errorf("rows = %d, want 0 after rollback", n)
	}
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = s.WithTx(ctx, func(ctx context.Context, q db.Querier) error {
			_, _ = q.ExecContext(ctx,
				"INSERT INTO connections (id, daily_budget_sats, updated_at) VALUES ('c1', 10, 0)")
			panic("bug")
		})
	}()

	if n := countConnections(t, s); n != 0 {
		t.Errorf("rows = %d, want 0 after panic", n)
	}
}

func TestWaitForReady(t *testing.T) {
	s := openTempStore(t)
	if err := s.WaitForReady(context.Background(), time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExtractUp(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (x INT);\n-- +migrate Down\nDROP TABLE a;\n"
	got := extractUp(content)
	if got != "\nCREATE TABLE a (x INT);\n" {
		t.Errorf("extractUp = %q", got)
	}
	if extractUp("SELECT 1;") != "SELECT 1;" {
		t.Error("unmarked content must be returned whole")
	}
}

func TestMillisRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 11, 12, 13_000_000, time.UTC)
	if got := FromMillis(ToMillis(ts)); !got.Equal(ts) {
		t.Errorf("round trip = %v, want %v", got, ts)
	}
}

func TestOpen_CreatesParentDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := Open(context.Background(), Config{Path: filepath.Join(dir, "spendcap.db")})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("parent dir not created: %v", err)
	}
}
