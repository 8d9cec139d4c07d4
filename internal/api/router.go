package api

import (
	"net/http"

	"github.com/ayo6706/utility-payments/internal/api/handler"
	"github.com/ayo6706/utility-payments/internal/api/middleware"
	"github.com/ayo6706/utility-payments/internal/api/spec"
	"github.com/ayo6706/utility-payments/internal/config"
	"github.com/ayo6706/utility-payments/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

// Services are the engine components the HTTP surface dispatches to.
type Services struct {
	Purchases   *service.PurchaseService
	Callbacks   *service.CallbackService
	Wallets     *service.WalletService
	Lookups     *service.LookupService
	Resolver    *service.ProviderResolver
	StatusPolls *service.StatusPollService
	Audit       *service.AuditService
	Ledger      *service.ReconciliationService
}

type Router struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *pgxpool.Pool
	redis  redis.Cmdable
	svcs   Services
}

func NewRouter(cfg *config.Config, logger *zap.Logger, db *pgxpool.Pool, redis redis.Cmdable, svcs Services) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	middleware.SetJWTSecret(cfg.JWTSecret)
	middleware.SetJWTValidation(cfg.JWTIssuer, cfg.JWTAudience)
	return &Router{cfg: cfg, logger: logger, db: db, redis: redis, svcs: svcs}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.RecoverMiddleware(api.logger))

	healthHandler := handler.NewHealthHandler(api.db, api.redis)
	purchaseHandler := handler.NewPurchaseHandler(api.svcs.Purchases)
	webhookHandler := handler.NewWebhookHandler(api.svcs.Callbacks)
	walletHandler := handler.NewWalletHandler(api.svcs.Wallets)
	catalogHandler := handler.NewCatalogHandler(api.svcs.Resolver, api.svcs.Lookups)
	adminHandler := handler.NewAdminHandler(api.svcs.StatusPolls, api.svcs.Audit, api.svcs.Ledger)

	// Operational
	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", spec.OpenAPIHandler())
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/index.html", http.StatusMovedPermanently)
	})
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))

	// Public Routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))
		r.Post("/v1/webhooks/provider/callback", webhookHandler.HandleProviderCallback)
	})

	// Protected Routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

		// Catalog
		r.Get("/v1/products", catalogHandler.ListProducts)
		r.Get("/v1/products/{product}/lookup", catalogHandler.Lookup)
		r.Get("/v1/providers", catalogHandler.ListProviders)

		// Purchases
		r.With(middleware.IdempotencyKeyMiddleware).Post("/v1/products/{product}/purchases", purchaseHandler.CreatePurchase)
		r.Get("/v1/purchases/{reference}", purchaseHandler.GetPurchase)

		// Wallet
		r.Get("/v1/wallet", walletHandler.GetWallet)
		r.Get("/v1/wallet/transactions", walletHandler.GetStatement)

		// Admin
		r.Route("/v1/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole("admin"))
			r.Post("/wallets", walletHandler.OpenWallet)
			r.Get("/purchases/{reference}/provider-status", adminHandler.ProviderStatus)
			r.Post("/purchases/{reference}/reconcile", adminHandler.Reconcile)
			r.Get("/conflicts", adminHandler.ListConflicts)
			r.Get("/ledger/drift", adminHandler.LedgerDrift)
		})
	})

	return r
}
