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

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/handlers"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/payments"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/platform/auth"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/platform/config"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/platform/events"
	pfirestore "github.com/HarshalRajendraPatil/W-commerce-sub000/internal/platform/firestore"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/platform/idempotency"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/platform/observability"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/repositories"
	firestorerepo "github.com/HarshalRajendraPatil/W-commerce-sub000/internal/repositories/firestore"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/repositories/memory"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/services"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/shipping"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		var validation *config.ValidationError
		if errors.As(err, &validation) {
			logger.Fatal("invalid configuration", zap.Error(validation))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	orderRepo, firestoreClient, cleanupStore, err := buildOrderRepository(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialise order store", zap.Error(err))
	}
	defer cleanupStore()

	// Webhook deliveries are retried by the gateway; replay them from the
	// idempotency store instead of re-running the capture flow.
	var idemStore idempotency.Store = idempotency.NewMemoryStore()
	if firestoreClient != nil {
		idemStore = idempotency.NewFirestoreStore(firestoreClient)
	}

	publisher, cleanupEvents, err := buildEventPublisher(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialise event publisher", zap.Error(err))
	}
	defer cleanupEvents()

	gateway, err := payments.NewStripeProvider(payments.StripeProviderConfig{
		APIKey:    cfg.Payments.StripeAPIKey,
		AccountID: cfg.Payments.StripeAccountID,
	})
	if err != nil {
		logger.Fatal("failed to initialise payment gateway", zap.Error(err))
	}

	verifier, err := payments.NewCaptureVerifier(cfg.Payments.CaptureSecret)
	if err != nil {
		logger.Fatal("failed to initialise capture verifier", zap.Error(err))
	}

	tokenVerifier, err := auth.NewTokenVerifier(cfg.Auth.SessionSecret)
	if err != nil {
		logger.Fatal("failed to initialise token verifier", zap.Error(err))
	}

	svcLogger := serviceLogger()

	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:   orderRepo,
		Tracking: shipping.NewCarrierTokenAssigner(nil),
		Events:   publisher,
		Logger:   svcLogger,
	})
	if err != nil {
		logger.Fatal("failed to build order service", zap.Error(err))
	}

	paymentService, err := services.NewPaymentService(services.PaymentServiceDeps{
		Orders:         orderRepo,
		Gateway:        gateway,
		Verifier:       verifier,
		Events:         publisher,
		Logger:         svcLogger,
		GatewayTimeout: cfg.Payments.GatewayTimeout,
	})
	if err != nil {
		logger.Fatal("failed to build payment service", zap.Error(err))
	}

	trackingService, err := services.NewTrackingService(services.TrackingServiceDeps{
		Orders: orderRepo,
		Logger: svcLogger,
	})
	if err != nil {
		logger.Fatal("failed to build tracking service", zap.Error(err))
	}

	queryService, err := services.NewOrderQueryService(services.OrderQueryServiceDeps{
		Orders: orderRepo,
		Logger: svcLogger,
	})
	if err != nil {
		logger.Fatal("failed to build query service", zap.Error(err))
	}

	analyticsService, err := services.NewAnalyticsService(services.AnalyticsServiceDeps{
		Orders: orderRepo,
		Logger: svcLogger,
	})
	if err != nil {
		logger.Fatal("failed to build analytics service", zap.Error(err))
	}

	authn := auth.Middleware(tokenVerifier)

	orderHandlers := handlers.NewOrderHandlers(authn, orderService, queryService)
	paymentHandlers := handlers.NewPaymentHandlers(paymentService, orderService)
	trackingHandlers := handlers.NewTrackingHandlers(trackingService)
	vendorHandlers := handlers.NewVendorHandlers(authn, queryService, analyticsService)
	adminHandlers := handlers.NewAdminHandlers(authn, orderService, paymentService, queryService, analyticsService)

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(handlers.BuildInfo{
			Environment: cfg.Environment,
			StartedAt:   startedAt,
		}),
		handlers.WithHealthCheck("orders-store", func(ctx context.Context) error {
			probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			_, _, err := orderRepo.Query(probeCtx, repositories.OrderListFilter{}, 1, 1)
			return err
		}),
	)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.TraceMiddleware(cfg.Firestore.ProjectID),
			observability.InjectLoggerMiddleware(logger),
			observability.RequestLoggerMiddleware(cfg.Firestore.ProjectID),
			observability.RecoveryMiddleware(logger),
		),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithOrderRoutes(func(r chi.Router) {
			orderHandlers.Routes(r)
			paymentHandlers.OrderRoutes(r)
		}),
		handlers.WithTrackingRoutes(trackingHandlers.Routes),
		handlers.WithVendorRoutes(vendorHandlers.Routes),
		handlers.WithAdminRoutes(adminHandlers.Routes),
		handlers.WithWebhookRoutes(paymentHandlers.WebhookRoutes),
		handlers.WithWebhookMiddlewares(idempotency.Middleware(idemStore,
			idempotency.WithLogger(observability.NewPrintfAdapter(logger)),
		)),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr), zap.String("environment", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	case sig := <-stop:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown incomplete", zap.Error(err))
	}
	logger.Info("server stopped")
}

// buildOrderRepository prefers Firestore when a project is configured and
// falls back to the in-memory store for local development. The Firestore
// client is surfaced so other components can share the connection.
func buildOrderRepository(ctx context.Context, cfg config.Config, logger *zap.Logger) (repositories.OrderRepository, *firestore.Client, func(), error) {
	if cfg.Firestore.ProjectID == "" {
		logger.Warn("no firestore project configured, using in-memory order store")
		return memory.NewOrderRepository(), nil, func() {}, nil
	}

	provider := pfirestore.NewProvider(cfg.Firestore)
	client, err := provider.Client(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("firestore client: %w", err)
	}
	repo, err := firestorerepo.NewOrderRepository(provider, cfg.Firestore.OrdersCollection)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("order repository: %w", err)
	}
	cleanup := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}
	return repo, client, cleanup, nil
}

// buildEventPublisher wires the Pub/Sub topic when configured, otherwise the
// no-op publisher keeps the services oblivious to the missing broker.
func buildEventPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (services.OrderEventPublisher, func(), error) {
	if cfg.PubSub.ProjectID == "" || cfg.PubSub.EventsTopic == "" {
		logger.Warn("event publishing disabled, no pubsub topic configured")
		return events.NopPublisher{}, func() {}, nil
	}

	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("pubsub client: %w", err)
	}
	topic := client.Topic(cfg.PubSub.EventsTopic)
	publisher, err := events.NewPubSubOrderEventPublisher(topic)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	cleanup := func() {
		topic.Stop()
		if err := client.Close(); err != nil {
			logger.Warn("pubsub close error", zap.Error(err))
		}
	}
	return publisher, cleanup, nil
}

// serviceLogger adapts the context-scoped zap logger to the services' logging
// contract.
func serviceLogger() func(ctx context.Context, event string, fields map[string]any) {
	return func(ctx context.Context, event string, fields map[string]any) {
		zapFields := make([]zap.Field, 0, len(fields))
		for key, value := range fields {
			zapFields = append(zapFields, zap.Any(key, value))
		}
		observability.FromContext(ctx).Info(event, zapFields...)
	}
}
