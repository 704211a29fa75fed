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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/balanceledger/internal/adapter/http"
	"github.com/iho/balanceledger/internal/adapter/http/handler"
	"github.com/iho/balanceledger/internal/adapter/http/middleware"
	"github.com/iho/balanceledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/balanceledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/balanceledger/internal/adapter/repository/redis"
	"github.com/iho/balanceledger/internal/domain"
	"github.com/iho/balanceledger/internal/infrastructure/config"
	"github.com/iho/balanceledger/internal/infrastructure/idgen"
	"github.com/iho/balanceledger/internal/infrastructure/logger"
	"github.com/iho/balanceledger/internal/infrastructure/metrics"
	"github.com/iho/balanceledger/internal/infrastructure/postgres"
	"github.com/iho/balanceledger/internal/infrastructure/redis"
	"github.com/iho/balanceledger/internal/infrastructure/retry"
	"github.com/iho/balanceledger/internal/usecase"
)

const (
	limiterCleanupInterval = 10 * time.Minute
	limiterMaxIdle         = 30 * time.Minute
)

type entryStore interface {
	usecase.EntryStore
	usecase.EntryReader
}

// app is the wired server before it starts listening.
type app struct {
	handler http.Handler
	limiter *middleware.RateLimiter
	closers []func()
	logger  zerolog.Logger
	cfg     *config.Config
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      a.handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	if a.limiter != nil {
		go a.cleanupLimiters(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("store", cfg.StoreDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")

	return nil
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	a := &app{logger: log, cfg: cfg}

	var redisClient *goredis.Client
	if cfg.UsesRedis() {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		redisClient = client
		a.closers = append(a.closers, func() { client.Close() })
		log.Info().Msg("connected to redis")
	}

	store, checks, err := a.openStore(ctx, redisClient)
	if err != nil {
		a.close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	var retrier usecase.Retrier
	if cfg.RetryMaxAttempts > 0 {
		retrier = retry.NewRetrier(cfg.RetryMaxAttempts, log)
	}

	balanceUC := usecase.NewBalanceUseCase(store, idgen.NewULIDGenerator(), retrier, m,
		usecase.WithStoreTimeout(cfg.StoreTimeout),
	)
	ledgerUC := usecase.NewLedgerUseCase(store)

	a.primeBalance(ctx, store, m)

	routerCfg := httpAdapter.RouterConfig{
		BalanceHandler: handler.NewBalanceHandler(balanceUC),
		LedgerHandler:  handler.NewLedgerHandler(ledgerUC),
		HealthHandler:  handler.NewHealthHandler(checks...),
		Metrics:        m,
		Gatherer:       registry,
		Logger:         log,
	}

	if cfg.IdempotencyEnabled {
		routerCfg.IdempotencyStore = redisRepo.NewIdempotencyStore(redisClient, cfg.RedisKeyPrefix)
		routerCfg.IdempotencyTTL = cfg.IdempotencyTTL
	}

	if cfg.RateLimitRPS > 0 {
		a.limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).
			OnReject(m.RateLimitHits.Inc)
		routerCfg.RateLimiter = a.limiter
	}

	a.handler = httpAdapter.NewRouter(routerCfg)

	return a, nil
}

func (a *app) openStore(ctx context.Context, redisClient *goredis.Client) (entryStore, []handler.HealthCheck, error) {
	var checks []handler.HealthCheck
	if redisClient != nil {
		checks = append(checks, handler.HealthCheck{Name: "redis", Check: redis.Ping(redisClient)})
	}

	switch a.cfg.StoreDriver {
	case config.StoreDriverPostgres:
		if a.cfg.RunMigrations {
			if err := postgres.RunMigrations(a.cfg.DatabaseURL, a.cfg.MigrationsPath, a.logger); err != nil {
				return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		pool, err := postgres.NewPool(ctx, a.cfg.DatabaseURL, a.cfg.DatabaseMaxConns, a.cfg.DatabaseMinConns)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		a.logger.Info().Msg("connected to postgres")

		checks = append(checks, handler.HealthCheck{Name: "postgres", Check: pool.Ping})
		return postgresRepo.NewEntryStore(pool), checks, nil

	case config.StoreDriverRedis:
		return redisRepo.NewEntryStore(redisClient, a.cfg.RedisKeyPrefix), checks, nil

	default:
		a.logger.Warn().Msg("using in-memory store; entries are lost on restart")
		return memory.NewEntryStore(), checks, nil
	}
}

// primeBalance publishes the stored balance before the first posting.
func (a *app) primeBalance(ctx context.Context, store usecase.EntryStore, m *metrics.Metrics) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.StoreTimeout)
	defer cancel()

	latest, err := store.GetLatestEntry(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("could not read initial balance")
		return
	}

	m.SetBalance(domain.BalanceFromLatest(latest).Amount)
}

func (a *app) cleanupLimiters(ctx context.Context) {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := a.limiter.CleanupLimiters(limiterMaxIdle); removed > 0 {
				a.logger.Debug().Int("removed", removed).Msg("cleaned up idle rate limiters")
			}
		}
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
