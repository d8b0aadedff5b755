package connection

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/spendcap/internal/db"
	"github.com/kailas-cloud/spendcap/internal/domain"
	domconn "github.com/kailas-cloud/spendcap/internal/domain/connection"
)

// FieldDailyBudget is the hash field holding the daily budget in sats.
const FieldDailyBudget = "daily_budget_sats"

// hashStore is the consumer interface for connection hashes (ISP).
type hashStore interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
}

// RedisRepo reads connection budgets from {prefix}connection:{id} hashes.
type RedisRepo struct {
	store  hashStore
	prefix string
}

// NewRedis creates a Redis-backed connection directory.
func NewRedis(s hashStore, keyPrefix string) *RedisRepo {
	return &RedisRepo{store: s, prefix: keyPrefix}
}

// Find returns the connection's current budget configuration.
// A missing or empty daily_budget_sats field means unlimited.
func (r *RedisRepo) Find(ctx context.Context, id string) (domconn.Connection, error) {
	key := r.key(id)
	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domconn.Connection{}, domain.ErrConnectionNotFound
		}
		return domconn.Connection{}, fmt.Errorf("hgetall %s: %w", key, err)
	}

	raw := fields[FieldDailyBudget]
	if raw == "" {
		return domconn.Unlimited(id), nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return domconn.Connection{}, fmt.Errorf("parse %s.%s: %w", key, FieldDailyBudget, err)
	}
	c, err := domconn.New(id, &v)
	if err != nil {
		return domconn.Connection{}, fmt.Errorf("read %s: %w", key, err)
	}
	return c, nil
}

// Put writes a connection's budget configuration.
func (r *RedisRepo) Put(ctx context.Context, c domconn.Connection) error {
	value := ""
	if v, ok := c.DailyBudgetSats(); ok {
		if v > domconn.MaxDailyBudgetSats {
			return fmt.Errorf("%w: connection %s budget %d", domconn.ErrBudgetOutOfRange, c.ID(), v)
		}
		value = strconv.FormatUint(v, 10)
	}
	key := r.key(c.ID())
	if err := r.store.HSet(ctx, key, map[string]string{FieldDailyBudget: value}); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

func (r *RedisRepo) key(id string) string {
	return r.prefix + "connection:" + id
}
