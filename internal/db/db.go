package db

import (
	"context"
	"database/sql"
	"time"
)

// Querier is the statement surface shared by *sql.DB and *sql.Tx.
// Repositories accept it so the same code runs inside and outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxFunc runs inside a transaction. Returning an error rolls it back.
type TxFunc func(ctx context.Context, q Querier) error

// TxRunner opens one transaction per call and commits it if fn succeeds.
type TxRunner interface {
	WithTx(ctx context.Context, fn TxFunc) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SQLStore is the relational store facade used for holds and daily budget records.
type SQLStore interface {
	Pinger
	TxRunner
	Querier() Querier
	Close() error
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// HashReader provides read access to hash keys (connection directory lookups).
type HashReader interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// HashWriter provides write access to hash keys.
type HashWriter interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
}

// KVStore is the key-value store facade.
type KVStore interface {
	Pinger
	HashReader
	HashWriter
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}
