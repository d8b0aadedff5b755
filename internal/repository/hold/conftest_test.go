package hold

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/kailas-cloud/spendcap/internal/db/sqlite"
	domhold "github.com/kailas-cloud/spendcap/internal/domain/hold"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(context.Background(), sqlite.Config{Path: filepath.Join(t.TempDir(), "holds.db")})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestHold(t *testing.T, id, conn string, amount uint64, timeout time.Duration) domhold.Hold {
	t.Helper()
	h, err := domhold.New(id, conn, "req-"+id, amount, "2026-03-01", testNow, timeout)
	if err != nil {
		t.Fatalf("new hold: %v", err)
	}
	return h
}
