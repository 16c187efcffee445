package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appcart "github.com/shopfront/backend/internal/application/cart"
	appevent "github.com/shopfront/backend/internal/application/event"
	appidentity "github.com/shopfront/backend/internal/application/identity"
	apporder "github.com/shopfront/backend/internal/application/order"
	appvendor "github.com/shopfront/backend/internal/application/vendor"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/auth"
	"github.com/shopfront/backend/internal/infrastructure/cache"
	"github.com/shopfront/backend/internal/infrastructure/config"
	"github.com/shopfront/backend/internal/infrastructure/event"
	"github.com/shopfront/backend/internal/infrastructure/logger"
	"github.com/shopfront/backend/internal/infrastructure/persistence"
	mongostore "github.com/shopfront/backend/internal/infrastructure/persistence/mongo"
	"github.com/shopfront/backend/internal/infrastructure/strategy"
	"github.com/shopfront/backend/internal/infrastructure/telemetry"
	"github.com/shopfront/backend/internal/interfaces/http/handler"
	"github.com/shopfront/backend/internal/interfaces/http/middleware"
	"github.com/shopfront/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/shopfront/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Shopfront API
//	@version		1.0
//	@description	Multi-vendor storefront backend: carts, checkout, order lifecycle and vendor fulfilment.

//	@contact.name	API Support
//	@contact.url	https://github.com/shopfront/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry comes first so the bridged logger and global providers are in
	// place before anything else is constructed
	tel, log := setupTelemetry(ctx, cfg, log)
	defer tel.shutdown(log)

	log.Info("Starting shopfront backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.Open(ctx, &cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	instrumentDatabase(db, cfg, tel, log)
	log.Info("Database connected successfully")

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)
	productRepo, closeCatalog := openCatalog(ctx, cfg, db, log)
	defer closeCatalog()

	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)
	orderRepo.SetOutboxEventSaver(event.NewOutboxPublisher(eventSerializer))

	idempotencyStore, err := cache.NewStoreSelector(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).Open()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	blacklist := newTokenBlacklist(cfg, log)

	// Pricing and shipping
	strategies, err := strategy.NewRegistryWithDefaults(strategy.ShippingSettings{
		Default:               cfg.Order.ShippingStrategy,
		FreeShippingThreshold: cfg.Order.FreeShippingThreshold,
		FlatFee:               cfg.Order.FlatShippingFee,
	})
	if err != nil {
		log.Fatal("Failed to register shipping strategies", zap.Error(err))
	}
	shipping := strategies.Default()
	pricer := order.NewPricer(productRepo, shipping, cfg.Order.Currency)

	businessMetrics, err := telemetry.NewBusinessMetrics(tel.meters.Meter("shopfront/business"), log)
	if err != nil {
		log.Fatal("Failed to create business metrics", zap.Error(err))
	}

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := appidentity.NewAuthService(userRepo, jwtService, blacklist, log)
	cartService := appcart.NewService(cartRepo, productRepo, log)
	orderService := apporder.NewService(orderRepo, orderRepo, pricer, productRepo, userRepo, idempotencyStore, log,
		apporder.WithIdempotencyTTL(cfg.Order.IdempotencyTTL),
		apporder.WithCheckoutObserver(businessMetrics),
	)
	location, err := cfg.Vendor.Location()
	if err != nil {
		log.Fatal("Invalid vendor stats timezone", zap.String("timezone", cfg.Vendor.StatsTimezone), zap.Error(err))
	}
	vendorService := appvendor.NewService(orderRepo, productRepo, userRepo, appvendor.Config{
		RequirePaymentBeforeShipment: cfg.Order.RequirePaymentBeforeShipment,
		TopProducts:                  cfg.Vendor.TopProducts,
		Location:                     location,
	}, log)
	outboxService := appevent.NewOutboxService(outboxRepo, log)

	// Event delivery: outbox -> in-process bus (+ Kafka when enabled)
	eventBus := event.NewInMemoryEventBus(log)
	metricsHandler := event.NewIdempotentHandler(businessMetrics, idempotencyStore, log)
	eventBus.Subscribe(metricsHandler, metricsHandler.EventTypes()...)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	publisher, closeKafka := newEventPublisher(cfg, eventBus, eventSerializer, log)
	defer closeKafka()

	if cfg.Event.ProcessorEnabled {
		relayConfig := event.RelayConfig{
			BatchSize:     cfg.Event.BatchSize,
			PollInterval:  cfg.Event.PollInterval,
			SweepInterval: time.Hour,
		}
		if cfg.Event.CleanupEnabled {
			relayConfig.Retention = cfg.Event.CleanupRetention
		}
		relay := event.NewOutboxRelay(outboxRepo, publisher, eventSerializer, relayConfig, log)
		if err := relay.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox relay", zap.Error(err))
		}
		defer func() {
			if err := relay.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox relay", zap.Error(err))
			}
		}()
		log.Info("Outbox relay started",
			zap.Int("batch_size", relayConfig.BatchSize),
			zap.Duration("poll_interval", relayConfig.PollInterval),
		)
	}

	// HTTP
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	} else if err := engine.SetTrustedProxies(nil); err != nil {
		log.Fatal("Failed to disable proxy trust", zap.Error(err))
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.Tracing(middleware.TracingConfig{ServiceName: cfg.Telemetry.ServiceName, Enabled: tel.tracer.IsEnabled()}),
		middleware.RequestID(),
		middleware.SpanEnricher(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.HTTPMetrics(tel.meters),
		middleware.Secure(),
		middleware.CORSWithConfig(corsConfig),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)
	if tel.profiler.IsEnabled() {
		engine.Use(middleware.Profiling(middleware.DefaultProfilingConfig()))
	}

	authenticate := middleware.JWTAuth(middleware.JWTMiddlewareConfig{
		Validator:      jwtService,
		TokenBlacklist: blacklist,
		Logger:         log,
	})

	authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimit, cfg.HTTP.AuthRateWindow)
	go authLimiter.Run(ctx)

	router.System(engine,
		handler.NewHealthHandler(db),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, authenticate),
	)

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(router.Shopfront(router.Handlers{
			Auth:   handler.NewAuthHandler(authService),
			Cart:   handler.NewCartHandler(cartService),
			Order:  handler.NewOrderHandler(orderService),
			Vendor: handler.NewVendorHandler(vendorService),
			Outbox: handler.NewOutboxHandler(outboxService),
		}, router.Guards{
			Authenticate:  authenticate,
			AuthRateLimit: middleware.RateLimit(authLimiter),
		})...).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}

type telemetryStack struct {
	tracer   *telemetry.TracerProvider
	meters   *telemetry.MeterProvider
	logs     *telemetry.LoggerProvider
	profiler *telemetry.Profiler
}

// setupTelemetry starts the OTel providers and the profiler. Failures are
// logged and leave the affected signal disabled. The returned logger also
// exports through OTLP when log export is enabled.
func setupTelemetry(ctx context.Context, cfg *config.Config, log *zap.Logger) (*telemetryStack, *zap.Logger) {
	t := cfg.Telemetry
	stack := &telemetryStack{}

	var err error
	stack.tracer, err = telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           t.Enabled,
		CollectorEndpoint: t.CollectorEndpoint,
		SamplingRatio:     t.SamplingRatio,
		ServiceName:       t.ServiceName,
		Insecure:          t.Insecure,
	}, log)
	if err != nil {
		log.Warn("Tracing unavailable", zap.Error(err))
		stack.tracer, _ = telemetry.NewTracerProvider(ctx, telemetry.Config{}, log)
	}

	stack.meters, err = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           t.Enabled && t.MetricsEnabled,
		CollectorEndpoint: t.CollectorEndpoint,
		ExportInterval:    t.MetricsInterval,
		ServiceName:       t.ServiceName,
		Insecure:          t.Insecure,
	}, log)
	if err != nil {
		log.Warn("Metrics unavailable", zap.Error(err))
		stack.meters, _ = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{}, log)
	}

	stack.logs, err = telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           t.Enabled && t.LogsEnabled,
		CollectorEndpoint: t.CollectorEndpoint,
		ServiceName:       t.ServiceName,
		Insecure:          t.Insecure,
	}, log)
	if err != nil {
		log.Warn("Log export unavailable", zap.Error(err))
		stack.logs, _ = telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{}, log)
	}
	log = stack.logs.Bridge(log, t.ServiceName, zapcore.InfoLevel)

	stack.profiler, err = telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         t.ProfilingEnabled,
		ServerAddress:   t.ProfilerAddress,
		ApplicationName: t.ServiceName,
		ProfileTypes:    t.ProfileTypes,
	}, log)
	if err != nil {
		log.Warn("Profiler unavailable", zap.Error(err))
		stack.profiler, _ = telemetry.NewProfiler(telemetry.ProfilerConfig{}, log)
	}
	if stack.profiler.IsEnabled() && stack.tracer.IsEnabled() {
		stack.tracer.EnableSpanProfiles()
	}
	return stack, log
}

func (s *telemetryStack) shutdown(log *zap.Logger) {
	ctx := context.Background()
	if err := s.profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := s.meters.Shutdown(ctx); err != nil {
		log.Error("Error shutting down metrics", zap.Error(err))
	}
	if err := s.tracer.Shutdown(ctx); err != nil {
		log.Error("Error shutting down tracing", zap.Error(err))
	}
	if err := s.logs.Shutdown(ctx); err != nil {
		log.Error("Error shutting down log export", zap.Error(err))
	}
}

// instrumentDatabase installs otelgorm and the query and pool metrics
func instrumentDatabase(db *persistence.Database, cfg *config.Config, tel *telemetryStack, log *zap.Logger) {
	err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         tel.tracer.IsEnabled() && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log)
	if err != nil {
		log.Warn("Database tracing unavailable", zap.Error(err))
	}

	if !tel.meters.IsEnabled() {
		return
	}
	meter := tel.meters.Meter("shopfront/db")
	dbMetrics, err := telemetry.NewDBMetrics(meter, cfg.Telemetry.DBSlowQueryThresh)
	if err != nil {
		log.Warn("Database metrics unavailable", zap.Error(err))
		return
	}
	if err := dbMetrics.Register(db.DB); err != nil {
		log.Warn("Database query metrics unavailable", zap.Error(err))
	}
	if err := dbMetrics.ObservePool(meter, db.SQL()); err != nil {
		log.Warn("Database pool metrics unavailable", zap.Error(err))
	}
}

// openCatalog returns the configured product store and its closer
func openCatalog(ctx context.Context, cfg *config.Config, db *persistence.Database, log *zap.Logger) (catalog.ProductRepository, func()) {
	if cfg.Catalog.Driver != "mongo" {
		return persistence.NewGormProductRepository(db.DB), func() {}
	}

	mdb, err := mongostore.Connect(ctx, cfg.Catalog.MongoURI, cfg.Catalog.MongoDatabase)
	if err != nil {
		log.Fatal("Failed to connect to catalog store", zap.Error(err))
	}
	repo := mongostore.NewProductRepository(mdb)
	if err := repo.CreateIndexes(ctx); err != nil {
		log.Fatal("Failed to create catalog indexes", zap.Error(err))
	}
	log.Info("Catalog served from MongoDB", zap.String("database", cfg.Catalog.MongoDatabase))

	return repo, func() {
		if err := mdb.Client().Disconnect(context.Background()); err != nil {
			log.Error("Error closing catalog store", zap.Error(err))
		}
	}
}

// newTokenBlacklist prefers Redis so revocations are shared between
// instances, falling back to a process-local list
func newTokenBlacklist(cfg *config.Config, log *zap.Logger) auth.TokenBlacklist {
	if cfg.Redis.Host == "" {
		log.Warn("Redis not configured, token revocations are process-local")
		return auth.NewInMemoryTokenBlacklist()
	}
	bl, err := auth.NewRedisTokenBlacklist(cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, token revocations are process-local", zap.Error(err))
		return auth.NewInMemoryTokenBlacklist()
	}
	return bl
}

// newEventPublisher fans outbox events out to the in-process bus and, when
// configured, to Kafka
func newEventPublisher(cfg *config.Config, bus shared.EventPublisher, serializer *event.EventSerializer, log *zap.Logger) (shared.EventPublisher, func()) {
	if !cfg.Kafka.Enabled {
		return bus, func() {}
	}
	client, err := event.NewKafkaClient(cfg.Kafka.Brokers, cfg.Kafka.ClientID)
	if err != nil {
		log.Fatal("Failed to create Kafka client", zap.Error(err))
	}
	log.Info("Forwarding order events to Kafka",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
	)
	kafka := event.NewKafkaPublisher(client, serializer, cfg.Kafka.Topic, log)
	return event.NewMultiPublisher(bus, kafka), client.Close
}
