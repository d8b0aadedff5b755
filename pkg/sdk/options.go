package spendcap

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ConnectionDirectory resolves a connection's daily budget.
// Return ErrConnectionNotFound for unknown connections and limited=false for unlimited ones.
type ConnectionDirectory interface {
	DailyBudget(ctx context.Context, connectionID string) (sats uint64, limited bool, err error)
}

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type connectionSource string

const (
	sourceSQLite connectionSource = "sqlite"
	sourceStatic connectionSource = "static"
	sourceRedis  connectionSource = "redis"
	sourceCustom connectionSource = "custom"
)

type clientConfig struct {
	path          string
	busyTimeoutMs int

	source      connectionSource
	directory   ConnectionDirectory
	static      map[string]*uint64
	redisAddrs  []string
	redisPass   string
	redisPrefix string

	now        func() time.Time
	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithSQLite sets the database file holding holds and daily budget records.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.path = path
	})
}

// WithBusyTimeout sets how long SQLite waits on a locked database. Default: 5s.
func WithBusyTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.busyTimeoutMs = int(d.Milliseconds())
	})
}

// WithConnections resolves connection budgets through a host-provided directory.
func WithConnections(dir ConnectionDirectory) Option {
	return optionFunc(func(c *clientConfig) {
		c.source = sourceCustom
		c.directory = dir
	})
}

// WithStaticConnections uses a fixed map of daily budgets. A nil value marks an unlimited connection.
func WithStaticConnections(budgets map[string]*uint64) Option {
	return optionFunc(func(c *clientConfig) {
		c.source = sourceStatic
		c.static = budgets
	})
}

// WithRedisConnections reads budgets from {keyPrefix}connection:{id} hashes.
func WithRedisConnections(addr, password, keyPrefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.source = sourceRedis
		c.redisAddrs = []string{addr}
		c.redisPass = password
		c.redisPrefix = keyPrefix
	})
}

// WithClock sets the time source used for budget dates and expiry.
func WithClock(now func() time.Time) Option {
	return optionFunc(func(c *clientConfig) {
		c.now = now
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
