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

	orderapp "github.com/exportexpress/backoffice/internal/application/order"
	paymentapp "github.com/exportexpress/backoffice/internal/application/payment"
	shipmentapp "github.com/exportexpress/backoffice/internal/application/shipment"
	"github.com/exportexpress/backoffice/internal/domain/payment"
	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/exportexpress/backoffice/internal/infrastructure/auth"
	"github.com/exportexpress/backoffice/internal/infrastructure/cache"
	"github.com/exportexpress/backoffice/internal/infrastructure/config"
	"github.com/exportexpress/backoffice/internal/infrastructure/event"
	"github.com/exportexpress/backoffice/internal/infrastructure/logger"
	"github.com/exportexpress/backoffice/internal/infrastructure/persistence"
	"github.com/exportexpress/backoffice/internal/infrastructure/storage"
	"github.com/exportexpress/backoffice/internal/infrastructure/telemetry"
	"github.com/exportexpress/backoffice/internal/interfaces/http/handler"
	"github.com/exportexpress/backoffice/internal/interfaces/http/middleware"
	"github.com/exportexpress/backoffice/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 30 * time.Second
	// public tracking lookups allowed per client IP and minute
	trackingRateLimit = 60
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Bootstrap logger for provider setup; replaced once the log bridge exists
	bootLog, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		return err
	}
	log := bootLog
	if loggerProvider.IsEnabled() {
		log, err = logger.New(cfg.Log, loggerProvider.ZapCore(cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level)))
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting backoffice",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return err
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(log, tracerProvider, meterProvider, loggerProvider)

	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh, cfg.Telemetry.DBLogFullSQL)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.NewDBTracing(cfg.Telemetry, log).Register(db.DB); err != nil {
		return fmt.Errorf("failed to register database tracing: %w", err)
	}
	if cfg.Database.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			return fmt.Errorf("failed to migrate sqlite schema: %w", err)
		}
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	orderRepo := persistence.NewGormOrderRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	shipmentRepo := persistence.NewGormShipmentRepository(db.DB)

	stores, err := cache.NewStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithFallback(cfg.App.Env != "production"),
		cache.WithFallbackSequence(persistence.NewGormSequenceRepository(db.DB)),
	).Create(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Warn("Error closing stores", zap.Error(err))
		}
	}()

	bus, closeSubscribers, err := newEventBus(cfg, log, meterProvider, stores.Idempotency)
	if err != nil {
		return err
	}
	defer closeSubscribers()

	policy, err := flowPolicy(cfg.Payment)
	if err != nil {
		return err
	}

	clock := shared.SystemClock{}
	orderService := orderapp.NewService(orderRepo, paymentRepo, shipmentRepo, stores.Sequences, clock, log.Named("order"))
	orderService.SetEventPublisher(bus)

	paymentService := paymentapp.NewService(paymentRepo, orderRepo, stores.Sequences, clock, log.Named("payment"))
	paymentService.SetEventPublisher(bus)
	paymentService.SetPolicy(policy)
	paymentService.SetRefundAttempts(cfg.Payment.RefundMaxAttempts)

	shipmentService := shipmentapp.NewService(shipmentRepo, orderRepo, stores.Sequences, clock, log.Named("shipment"))
	shipmentService.SetEventPublisher(bus)
	documents, err := documentStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	if documents != nil {
		shipmentService.SetDocumentStorage(documents)
	}

	var verifier middleware.TokenVerifier
	if cfg.JWT.Secret != "" {
		jwtService, err := auth.NewJWTService(cfg.JWT)
		if err != nil {
			return err
		}
		verifier = jwtService
	} else {
		log.Warn("jwt.secret not set, requests act as the system user")
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	limiter := middleware.NewRateLimiter(trackingRateLimit, time.Minute)
	go limiter.Run(ctx)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine, err := router.New(router.Config{
		Logger:         log,
		ServiceName:    cfg.Telemetry.ServiceName,
		TracingEnabled: tracerProvider.IsEnabled(),
		Meter:          meterProvider.Meter("backoffice/http"),
		Actor: middleware.ActorConfig{
			Verifier: verifier,
			Required: cfg.JWT.Required,
			Logger:   log,
		},
		CORSOrigins:    cfg.HTTP.CORSAllowOrigins,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		PublicLimiter:  limiter,
	}, router.Handlers{
		Orders:    handler.NewOrderHandler(orderService),
		Payments:  handler.NewPaymentHandler(paymentService),
		Shipments: handler.NewShipmentHandler(shipmentService),
		System:    handler.NewSystemHandler(telemetry.ServiceVersion, map[string]handler.Pinger{"database": sqlDB}),
	})
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus did not drain", zap.Error(err))
	}
	log.Info("Server exited")
	return nil
}

// newEventBus subscribes business metrics and, when brokers are configured,
// the Kafka forwarder. Both are wrapped for idempotent delivery.
func newEventBus(cfg *config.Config, log *zap.Logger, mp *telemetry.MeterProvider, store shared.IdempotencyStore) (*event.InMemoryEventBus, func(), error) {
	bus := event.NewInMemoryEventBus(log.Named("events"))
	idempotency := event.WithIdempotencyConfig(shared.IdempotencyConfig{
		TTL:     cfg.Event.IdempotencyTTL,
		Enabled: true,
	})

	metrics, err := telemetry.NewBusinessMetrics(mp.Meter("backoffice/business"), log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	bus.Subscribe(event.NewIdempotentHandler("business-metrics", metrics, store, log, idempotency), metrics.EventTypes()...)

	closeFn := func() {}
	if cfg.Event.KafkaEnabled() {
		forwarder := event.NewKafkaForwarder(event.NewKafkaWriter(cfg.Event, log.Named("kafka")), event.NewDomainEventSerializer(), log)
		bus.Subscribe(event.NewIdempotentHandler("kafka-forwarder", forwarder, store, log, idempotency), forwarder.EventTypes()...)
		closeFn = func() {
			if err := forwarder.Close(); err != nil {
				log.Warn("Error closing kafka writer", zap.Error(err))
			}
		}
		log.Info("Forwarding domain events to kafka",
			zap.Strings("brokers", cfg.Event.KafkaBrokers),
			zap.String("topic", cfg.Event.KafkaTopic))
	}
	return bus, closeFn, nil
}

func flowPolicy(cfg config.PaymentConfig) (payment.FlowPolicy, error) {
	policy := payment.DefaultFlowPolicy()
	rates := []struct {
		name   string
		raw    string
		target *decimal.Decimal
	}{
		{"payment.platform_fee_rate", cfg.PlatformFeeRate, &policy.PlatformFeeRate},
		{"payment.vendor_share", cfg.VendorShare, &policy.VendorShare},
		{"payment.processing_fee_rate", cfg.ProcessingFeeRate, &policy.ProcessingFeeRate},
	}
	for _, r := range rates {
		if r.raw == "" {
			continue
		}
		v, err := decimal.NewFromString(r.raw)
		if err != nil {
			return policy, fmt.Errorf("invalid %s %q: %w", r.name, r.raw, err)
		}
		if v.IsNegative() || v.GreaterThan(decimal.NewFromInt(1)) {
			return policy, fmt.Errorf("%s must be between 0 and 1, got %s", r.name, r.raw)
		}
		*r.target = v
	}
	if cfg.VendorDueIn > 0 {
		policy.VendorDueIn = cfg.VendorDueIn
	}
	if cfg.ShippingDueIn > 0 {
		policy.ShippingDueIn = cfg.ShippingDueIn
	}
	return policy, nil
}

// documentStorage returns S3 when a bucket is configured and the dev stub
// outside production. A nil storage leaves document URLs unavailable.
func documentStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (shipmentapp.DocumentStorage, error) {
	if cfg.Storage.Enabled() {
		s3, err := storage.NewS3DocumentStorage(ctx, cfg.Storage, storage.WithLogger(log))
		if err != nil {
			return nil, err
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			log.Warn("Document bucket not available", zap.String("bucket", s3.Bucket()), zap.Error(err))
		}
		return s3, nil
	}
	if cfg.App.Env == "production" {
		log.Warn("storage.bucket not set, shipment document URLs are disabled")
		return nil, nil
	}
	return storage.NewDevDocumentStorage("http://localhost:" + cfg.App.Port + "/dev-storage"), nil
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

func shutdownTelemetry(log *zap.Logger, providers ...shutdowner) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, p := range providers {
		if err := p.Shutdown(ctx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}
}
