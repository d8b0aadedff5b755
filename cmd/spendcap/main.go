package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/spendcap/internal/config"
	dbRedis "github.com/kailas-cloud/spendcap/internal/db/redis"
	"github.com/kailas-cloud/spendcap/internal/db/sqlite"
	domconn "github.com/kailas-cloud/spendcap/internal/domain/connection"
	logpkg "github.com/kailas-cloud/spendcap/internal/logger"
	"github.com/kailas-cloud/spendcap/internal/metrics"
	connrepo "github.com/kailas-cloud/spendcap/internal/repository/connection"
	holdrepo "github.com/kailas-cloud/spendcap/internal/repository/hold"
	ledgerrepo "github.com/kailas-cloud/spendcap/internal/repository/ledger"
	chiTransport "github.com/kailas-cloud/spendcap/internal/transport/chi"
	healthuc "github.com/kailas-cloud/spendcap/internal/usecase/health"
	holduc "github.com/kailas-cloud/spendcap/internal/usecase/hold"
	"github.com/kailas-cloud/spendcap/internal/usecase/ledger"
	"github.com/kailas-cloud/spendcap/internal/usecase/lockreg"
	policyuc "github.com/kailas-cloud/spendcap/internal/usecase/policy"
	"github.com/kailas-cloud/spendcap/internal/usecase/sweep"
	usageuc "github.com/kailas-cloud/spendcap/internal/usecase/usage"
	"github.com/kailas-cloud/spendcap/internal/version"
)

// connectionFinder is satisfied by every connection directory driver.
type connectionFinder interface {
	Find(ctx context.Context, id string) (domconn.Connection, error)
}

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting spendcap API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_path", cfg.Database.Path),
		zap.String("connections_driver", cfg.Connections.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.Open(ctx, sqlite.Config{
		Path:          cfg.Database.Path,
		BusyTimeoutMs: cfg.Database.BusyTimeoutMs,
	})
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, readiness); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterHoldMetrics()
	metrics.RegisterHTTPMetrics()

	conns, connPinger, closeConns, err := buildConnections(ctx, cfg, store, readiness)
	if err != nil {
		logger.Fatal("Failed to create connection directory", zap.Error(err))
	}
	defer closeConns()

	holds := holdrepo.New(store.Querier())
	days := ledgerrepo.New()
	budgetLedger := ledger.New(days, holds)

	holdSvc := holduc.New(store, holds, days, budgetLedger, conns, lockreg.New()).
		WithLogger(logger.Named("holds"))
	policySvc := policyuc.New(conns, budgetLedger, store.Querier())
	usageSvc := usageuc.New(conns, budgetLedger, store.Querier())
	healthSvc := healthuc.New(store, connPinger)

	sweeper := sweep.New(holdSvc, cfg.SweepInterval()).WithLogger(logger.Named("sweeper"))

	server := chiTransport.NewServer(holdSvc, policySvc, usageSvc, healthSvc, cfg.DefaultHoldTimeout(), logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Routes(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return
	}
	logger.Info("Server stopped gracefully")
}

// buildConnections selects the connection directory driver.
// The returned pinger is nil when the directory shares the hold database.
func buildConnections(
	ctx context.Context, cfg config.Config, store *sqlite.Store, readiness time.Duration,
) (connectionFinder, healthuc.Pinger, func(), error) {
	noop := func() {}
	switch cfg.Connections.Driver {
	case config.ConnectionsStatic:
		return connrepo.NewStatic(cfg.Connections.Static), nil, noop, nil
	case config.ConnectionsRedis:
		rs, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Connections.Addrs,
			Username: cfg.Connections.Username,
			Password: cfg.Connections.Password,
			DB:       cfg.Connections.DB,
		})
		if err != nil {
			return nil, nil, noop, fmt.Errorf("create redis store: %w", err)
		}
		if err := rs.WaitForReady(ctx, readiness); err != nil {
			rs.Close()
			return nil, nil, noop, fmt.Errorf("redis not ready: %w", err)
		}
		return connrepo.NewRedis(rs, cfg.Connections.KeyPrefix), rs, rs.Close, nil
	default:
		return connrepo.NewSQL(store.Querier()), nil, noop, nil
	}
}
