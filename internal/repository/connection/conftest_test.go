package connection

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/spendcap/internal/db/sqlite"
)

func openTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(context.Background(), sqlite.Config{Path: filepath.Join(t.TempDir(), "conns.db")})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type mockHashStore struct {
	hgetallFn func(ctx context.Context, key string) (map[string]string, error)
	hsetFn    func(ctx context.Context, key string, fields map[string]string) error
}

func (m *mockHashStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return m.hgetallFn(ctx, key)
}

func (m *mockHashStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	return m.hsetFn(ctx, key, fields)
}

func u64(v uint64) *uint64 { return &v }
