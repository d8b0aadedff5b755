package spendcap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	dbRedis "github.com/kailas-cloud/spendcap/internal/db/redis"
	"github.com/kailas-cloud/spendcap/internal/db/sqlite"
	"github.com/kailas-cloud/spendcap/internal/domain"
	domconn "github.com/kailas-cloud/spendcap/internal/domain/connection"
	domhold "github.com/kailas-cloud/spendcap/internal/domain/hold"
	domusage "github.com/kailas-cloud/spendcap/internal/domain/usage"
	connrepo "github.com/kailas-cloud/spendcap/internal/repository/connection"
	holdrepo "github.com/kailas-cloud/spendcap/internal/repository/hold"
	ledgerrepo "github.com/kailas-cloud/spendcap/internal/repository/ledger"
	healthuc "github.com/kailas-cloud/spendcap/internal/usecase/health"
	holduc "github.com/kailas-cloud/spendcap/internal/usecase/hold"
	"github.com/kailas-cloud/spendcap/internal/usecase/ledger"
	"github.com/kailas-cloud/spendcap/internal/usecase/lockreg"
	policyuc "github.com/kailas-cloud/spendcap/internal/usecase/policy"
	usageuc "github.com/kailas-cloud/spendcap/internal/usecase/usage"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, replaced with mocks in tests.
type holdUseCase interface {
	PlaceHold(
		ctx context.Context, connectionID string, amountSats uint64, requestID string, timeout time.Duration,
	) (holduc.Placed, error)
	CommitHold(ctx context.Context, holdID string, actualAmountSats *uint64) error
	ReleaseHold(ctx context.Context, holdID string) error
	MarkProcessing(ctx context.Context, holdID string) error
	ExpireStaleHolds(ctx context.Context, now time.Time) (int64, error)
	Get(ctx context.Context, holdID string) (domhold.Hold, error)
}

type policyUseCase interface {
	HasLimit(ctx context.Context, connectionID string) (bool, error)
	AvailableBudget(ctx context.Context, connectionID string) (uint64, bool, error)
}

type usageUseCase interface {
	GetReport(ctx context.Context, connectionID string) (domusage.Report, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

type connectionFinder interface {
	Find(ctx context.Context, id string) (domconn.Connection, error)
}

type connectionWriter interface {
	Upsert(ctx context.Context, c domconn.Connection, now time.Time) error
}

// Client is the spendcap SDK entry point. It is safe for concurrent use.
type Client struct {
	store     *sqlite.Store
	redis     *dbRedis.Store
	holdSvc   holdUseCase
	policySvc policyUseCase
	usageSvc  usageUseCase
	healthSvc healthUseCase
	connWrite connectionWriter
	now       func() time.Time
	obs       *observer
}

// New opens the database and wires the engine.
// The provided context is used for the initial readiness checks.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{source: sourceSQLite, now: time.Now}
	for _, o := range opts {
		o.apply(cfg)
	}

	if strings.TrimSpace(cfg.path) == "" {
		return nil, errors.New("spendcap: database path required (use WithSQLite)")
	}
	if cfg.source == sourceCustom && cfg.directory == nil {
		return nil, errors.New("spendcap: WithConnections requires a directory")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.Open(ctx, sqlite.Config{Path: cfg.path, BusyTimeoutMs: cfg.busyTimeoutMs})
	if err != nil {
		return nil, fmt.Errorf("spendcap: open database: %w", err)
	}

	c := &Client{store: store, now: cfg.now, obs: obs}
	conns, err := c.openDirectory(ctx, cfg)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.wire(conns)
	return c, nil
}

func (c *Client) openDirectory(ctx context.Context, cfg *clientConfig) (connectionFinder, error) {
	switch cfg.source {
	case sourceSQLite:
		r := connrepo.NewSQL(c.store.Querier())
		c.connWrite = r
		return r, nil
	case sourceStatic:
		return connrepo.NewStatic(cfg.static), nil
	case sourceCustom:
		return &directoryAdapter{inner: cfg.directory}, nil
	case sourceRedis:
		rs, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.redisAddrs, Password: cfg.redisPass})
		if err != nil {
			return nil, fmt.Errorf("spendcap: create redis store: %w", err)
		}
		c.redis = rs
		if err := rs.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			return nil, fmt.Errorf("spendcap: redis not ready: %w", err)
		}
		return connrepo.NewRedis(rs, cfg.redisPrefix), nil
	default:
		return nil, fmt.Errorf("spendcap: unknown connection source %q", cfg.source)
	}
}

func (c *Client) wire(conns connectionFinder) {
	holds := holdrepo.New(c.store.Querier())
	days := ledgerrepo.New()
	l := ledger.New(days, holds)

	c.holdSvc = holduc.New(c.store, holds, days, l, conns, lockreg.New()).WithClock(c.now)
	c.policySvc = policyuc.New(conns, l, c.store.Querier()).WithClock(c.now)
	c.usageSvc = usageuc.New(conns, l, c.store.Querier()).WithClock(c.now)

	var connPing healthuc.Pinger
	if c.redis != nil {
		connPing = c.redis
	}
	c.healthSvc = healthuc.New(c.store, connPing)
}

// Close releases all resources.
func (c *Client) Close() {
	if c.redis != nil {
		c.redis.Close()
	}
	if c.store != nil {
		_ = c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// SetDailyBudget stores a connection's budget in the database directory.
// nil marks the connection unlimited. Only available without an external directory.
func (c *Client) SetDailyBudget(ctx context.Context, connectionID string, dailyBudgetSats *uint64) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("connection.set_budget", start, err) }()

	if c.connWrite == nil {
		return errors.New("spendcap: connection directory is read-only")
	}
	conn := domconn.Unlimited(connectionID)
	if dailyBudgetSats != nil {
		conn = domconn.Limited(connectionID, *dailyBudgetSats)
	}
	return c.connWrite.Upsert(ctx, conn, c.now())
}

// directoryAdapter wraps a public ConnectionDirectory to satisfy the internal finder.
type directoryAdapter struct {
	inner ConnectionDirectory
}

func (a *directoryAdapter) Find(ctx context.Context, id string) (domconn.Connection, error) {
	sats, limited, err := a.inner.DailyBudget(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrConnectionNotFound) {
			return domconn.Connection{}, err
		}
		return domconn.Connection{}, fmt.Errorf("connection directory: %w", err)
	}
	if !limited {
		return domconn.Unlimited(id), nil
	}
	c, err := domconn.New(id, &sats)
	if err != nil {
		return domconn.Connection{}, fmt.Errorf("connection directory: %w", err)
	}
	return c, nil
}
