package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"section-store/internal/application"
	"section-store/internal/application/webhook_handlers"
	"section-store/internal/config"
	"section-store/internal/infrastructure/api"
	"section-store/internal/infrastructure/cache"
	"section-store/internal/infrastructure/encryption"
	"section-store/internal/infrastructure/events"
	"section-store/internal/infrastructure/metrics"
	"section-store/internal/infrastructure/middleware"
	shopifyinfra "section-store/internal/infrastructure/shopify"
	"section-store/internal/infrastructure/storage"
	"section-store/internal/ports"

	"github.com/rs/zerolog"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger = logger.Level(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := storage.Open(ctx, cfg.Store, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("Failed to open store")
	}
	defer closeStore()

	// Initialize infrastructure (implementations)
	encryptionService, err := encryption.NewService(cfg.Shopify.EncryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	vault := shopifyinfra.NewTokenManager(encryptionService, logger)

	clock := application.SystemClock()
	states, deduper, closeCache := openCache(ctx, cfg, clock, logger)
	defer closeCache()

	bus := events.NewBus(logger)
	events.AuditLog(ctx, bus, logger)
	var publisher ports.EventPublisher = bus
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.Fanout{bus, events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)}
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("Publishing events to Kafka")
	}
	defer publisher.Close()

	appMetrics := metrics.New()

	shopifyClient := shopifyinfra.NewClient(
		cfg.Shopify.APIKey,
		cfg.Shopify.APISecret,
		cfg.AppURL+"/auth/callback",
		shopifyinfra.DefaultRetryConfig(),
		logger,
	).WithAPIVersion(cfg.Shopify.APIVersion)

	// Initialize application services
	ledger, err := application.NewLedger(store, shopifyClient, vault, publisher, appMetrics, clock, logger, application.LedgerConfig{
		ReturnURL:       cfg.AppURL + "/billing/return",
		TestCharges:     cfg.Shopify.BillingTest,
		PendingClaimTTL: cfg.Workflow.PendingClaimTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize ledger")
	}
	installer := application.NewInstaller(store, shopifyClient, vault, ledger, publisher, appMetrics, clock, logger)
	reconciler := application.NewReconciler(store, publisher, clock, logger)
	catalog := application.NewCatalogService(store, clock, logger)
	shops := application.NewShopService(store, shopifyClient, states, vault, clock, logger, application.ShopServiceConfig{
		AppURL: cfg.AppURL,
		Scopes: cfg.Shopify.Scopes,
	})

	// Initialize webhook dispatcher and register handlers
	webhookDispatcher := application.NewWebhookDispatcher(deduper, appMetrics, logger)
	webhookDispatcher.RegisterHandler(webhook_handlers.NewAppUninstalledHandler(logger, reconciler))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewCustomerHandler(logger, reconciler))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewShopRedactHandler(logger, reconciler))

	router := api.NewRouter(api.Server{
		APIKey:       cfg.Shopify.APIKey,
		Shops:        shops,
		Purchases:    ledger,
		Installs:     installer,
		Catalog:      catalog,
		Verifier:     shopifyinfra.NewWebhookVerifier(cfg.Shopify.APISecret),
		Dispatcher:   webhookDispatcher,
		Clock:        clock,
		Logger:       logger,
		SwaggerFile:  "./docs/swagger.json",
		MetricsRoute: appMetrics.Handler(),
		Instrument:   appMetrics.Middleware,
		Session:      middleware.SessionTokenMiddleware(middleware.NewSessionVerifier(cfg.Shopify.APIKey, cfg.Shopify.APISecret), logger),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("store", cfg.Store.Driver).Msg("Starting API server")
		logger.Info().Msg("Swagger documentation available at http://localhost:" + cfg.Port + "/swagger/index.html")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

// openCache uses Redis when configured so OAuth states and webhook ids are
// shared between replicas, and process memory otherwise
func openCache(ctx context.Context, cfg *config.Config, clock ports.Clock, logger zerolog.Logger) (ports.OAuthStateStore, ports.DeliveryDeduper, func()) {
	if cfg.Redis.URL == "" {
		logger.Warn().Msg("REDIS_URL not set, keeping OAuth states and webhook ids in memory")
		return cache.NewMemoryStateStore(clock), cache.NewMemoryDeduper(clock, cfg.Workflow.WebhookDedupeTTL), func() {}
	}
	client, err := cache.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	return cache.NewRedisStateStore(client), cache.NewRedisDeduper(client, cfg.Workflow.WebhookDedupeTTL), func() { client.Close() }
}
