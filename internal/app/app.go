package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ayo6706/utility-payments/internal/api"
	"github.com/ayo6706/utility-payments/internal/config"
	"github.com/ayo6706/utility-payments/internal/db"
	"github.com/ayo6706/utility-payments/internal/gateway"
	"github.com/ayo6706/utility-payments/internal/idempotency"
	"github.com/ayo6706/utility-payments/internal/observability"
	"github.com/ayo6706/utility-payments/internal/repository"
	"github.com/ayo6706/utility-payments/internal/service"
	"github.com/ayo6706/utility-payments/internal/worker"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Run bootstraps the HTTP server and background workers, blocking until shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: cfg.DBMaxConns})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, pool, "up"); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		logger.Info("database migrations applied")
	}

	redisClient, err := newRedisClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	if cfg.WebhookHMACKey == "" || cfg.WebhookSkipSignature {
		logger.Warn("provider callback signatures are not verified")
	}

	repo := repository.NewRepository(pool)
	store := repository.NewStore(pool)
	guard := idempotency.NewGuard(redisClient, pool, cfg.IdempotencyTTL)
	resolver := service.NewProviderResolver(store)
	registry := newRegistry(cfg, logger)

	purchaseSvc := service.NewPurchaseService(store, guard, resolver, registry, service.PurchaseConfig{
		CallbackURL:          cfg.CallbackURL(),
		ProviderTimeout:      cfg.ProviderTimeout,
		DisbursementsEnabled: cfg.DisbursementsEnabled,
		Currency:             cfg.DefaultCurrency,
	})
	statusPollSvc := service.NewStatusPollService(store, purchaseSvc, resolver, registry, cfg.ProviderTimeout, cfg.StatusPollStaleAfter)
	reconciliationSvc := service.NewReconciliationService(store)

	services := api.Services{
		Purchases:   purchaseSvc,
		Callbacks:   service.NewCallbackService(store, purchaseSvc, cfg.WebhookHMACKey, cfg.WebhookSkipSignature),
		Wallets:     service.NewWalletService(repo, store, cfg.DefaultCurrency),
		Lookups:     service.NewLookupService(store, resolver, registry, cfg.ProviderTimeout),
		Resolver:    resolver,
		StatusPolls: statusPollSvc,
		Audit:       service.NewAuditService(store),
		Ledger:      reconciliationSvc,
	}

	pollWorker := worker.NewStatusPollWorker(statusPollSvc).
		WithPollInterval(cfg.StatusPollInterval).
		WithBatchSize(cfg.StatusPollBatchSize)
	stopPollWorker := pollWorker.Run(ctx)
	logger.Info("status poll worker started",
		zap.Duration("interval", cfg.StatusPollInterval),
		zap.Int("batch", cfg.StatusPollBatchSize),
		zap.Duration("stale_after", cfg.StatusPollStaleAfter))

	auditWorker, err := worker.NewReconciliationWorker(reconciliationSvc, cfg.LedgerAuditSchedule)
	if err != nil {
		stopPollWorker()
		return fmt.Errorf("init ledger audit: %w", err)
	}
	stopAuditWorker, err := auditWorker.Run(ctx)
	if err != nil {
		stopPollWorker()
		return fmt.Errorf("start ledger audit: %w", err)
	}
	logger.Info("ledger audit scheduled", zap.String("schedule", cfg.LedgerAuditSchedule))

	router := api.NewRouter(cfg, logger, pool, redisClient, services)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ProviderTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting",
			zap.String("port", cfg.HTTPPort),
			zap.String("provider_mode", cfg.ProviderMode),
			zap.String("callback_url", cfg.CallbackURL()))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			stopPollWorker()
			stopAuditWorker()
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("stopping workers")
	stopPollWorker()
	stopAuditWorker()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

// newRegistry builds provider clients from their database config, or serves
// every provider from the in-memory mock in mock mode.
func newRegistry(cfg *config.Config, logger *zap.Logger) *gateway.Registry {
	if cfg.ProviderMode == config.ProviderModeMock {
		logger.Warn("provider mode is mock; no purchases reach a real provider")
		return gateway.NewRegistry(gateway.StaticFactory(gateway.NewMockClient()))
	}
	hubtel := gateway.HubtelFactory(gateway.WithTimeout(cfg.ProviderTimeout))
	registry := gateway.NewRegistry(hubtel)
	registry.Register("hubtel", hubtel)
	return registry
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
