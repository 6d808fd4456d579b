package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adminapp "github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/application/admin"
	escrowapp "github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/application/escrow"
	marketplaceapp "github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/application/marketplace"
	ownershipapp "github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/application/ownership"
	reconciliationapp "github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/application/reconciliation"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/reconciliation"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/auth"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/cache"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/config"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/logger"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/persistence"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/scheduler"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/soroban"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/telemetry"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/interfaces/http/handler"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/interfaces/http/middleware"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/RobertoIsraelFloresReza/BLOKI-sub001/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Ledger Transaction Coordinator API
//	@version		1.0
//	@description	Coordinates Soroban contract calls for the tokenized real-estate marketplace and mirrors confirmed state.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Admin bearer token. Format: "Bearer {token}"

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

	log.Info("Starting ledger coordinator",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	rootCtx := context.Background()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(rootCtx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(rootCtx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	ledgerMetrics, err := telemetry.NewLedgerMetrics(meterProvider.Meter(telemetry.LedgerMeterName))
	if err != nil {
		log.Fatal("Failed to register ledger metrics", zap.Error(err))
	}

	// Mirror database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Database.LogLevel),
		logger.WithSlowThreshold(cfg.Database.SlowThreshold))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.SlowQueryThresh = cfg.Database.SlowThreshold
	if err := telemetry.NewDBTracingPlugin(dbTracing, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Pause switch and idempotency keys
	stores, err := cache.NewStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStores()
	if err != nil {
		log.Fatal("Failed to create cache stores", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("Error closing cache stores", zap.Error(err))
		}
	}()

	// Ledger
	ledgerCfg := soroban.Config{
		RPCURL:            cfg.Ledger.RPCURL,
		NetworkPassphrase: cfg.Ledger.NetworkPassphrase,
		BaseFee:           cfg.Ledger.BaseFee,
		TxTimeout:         cfg.Ledger.TxTimeout,
		PollInterval:      cfg.Ledger.PollInterval,
		PollAttempts:      cfg.Ledger.PollAttempts,
		RequestTimeout:    cfg.Ledger.RequestTimeout,
		RequestsPerSecond: cfg.Ledger.RateLimit,
		Burst:             cfg.Ledger.RateBurst,
	}
	rpcClient := soroban.NewClient(ledgerCfg, log)
	adapter := soroban.NewAdapter(rpcClient, ledgerCfg, log)
	adapter.SetObserver(ledgerMetrics)
	pipeline := soroban.NewPipeline(adapter, log)
	contracts := soroban.NewContracts(adapter, pipeline, soroban.ContractsConfig{
		Marketplace:              cfg.Ledger.MarketplaceContractID,
		Escrow:                   cfg.Ledger.EscrowContractID,
		USDC:                     cfg.Ledger.USDCContractID,
		ApprovalExpirationLedger: cfg.Ledger.ApprovalExpirationLedger,
	})
	keys := soroban.KeyResolver{}

	// Repositories
	listingRepo := persistence.NewGormListingRepository(db.DB)
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)
	assetRepo := persistence.NewGormAssetRepository(db.DB)
	ownershipRepo := persistence.NewGormOwnershipRepository(db.DB)
	pendingRepo := persistence.NewGormPendingRepository(db.DB)
	purchaseRecorder := persistence.NewGormPurchaseRecorder(db.DB)

	// Application services
	reconService := reconciliationapp.NewService(pendingRepo, pipeline, reconciliationapp.Config{
		BatchSize:   cfg.Scheduler.PendingBatchSize,
		MaxAttempts: cfg.Scheduler.PendingMaxAttempts,
	}, log)
	reconService.SetGauge(ledgerMetrics)

	marketplaceService := marketplaceapp.NewService(
		listingRepo, transactionRepo, assetRepo, purchaseRecorder,
		contracts, contracts, keys, log,
	)
	marketplaceService.SetPendingTracker(reconService)
	reconService.RegisterApplier(reconciliation.KindList, reconciliationapp.ApplierFunc(marketplaceService.ApplyList))
	reconService.RegisterApplier(reconciliation.KindBuy, reconciliationapp.ApplierFunc(marketplaceService.ApplyBuy))
	reconService.RegisterApplier(reconciliation.KindCancel, reconciliationapp.ApplierFunc(marketplaceService.ApplyCancel))

	escrowService := escrowapp.NewService(contracts, keys, log)
	escrowService.SetPendingTracker(reconService)

	ownershipService := ownershipapp.NewService(ownershipRepo, assetRepo, contracts, log)
	adminService := adminapp.NewService(stores.Pause, transactionRepo, reconService, log)
	adminService.SetRetentionDays(cfg.Retention.TransactionDays)

	// Background jobs
	if cfg.Scheduler.Enabled {
		registry := newJobRegistry(adminService, reconService, marketplaceService, cfg.Retention.TransactionDays)
		jobScheduler := scheduler.NewScheduler(scheduler.Config{
			Enabled:           cfg.Scheduler.Enabled,
			MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
			JobTimeout:        cfg.Scheduler.JobTimeout,
			RetryAttempts:     cfg.Scheduler.RetryAttempts,
			RetryDelay:        cfg.Scheduler.RetryDelay,
		}, registry, log)
		if err := jobScheduler.Start(rootCtx); err != nil {
			log.Fatal("Failed to start job scheduler", zap.Error(err))
		}

		cleanupTrigger := scheduler.NewCronTrigger(scheduler.CronTriggerConfig{
			Hour:          cfg.Scheduler.CleanupHour,
			Minute:        cfg.Scheduler.CleanupMinute,
			CheckInterval: time.Minute,
		}, jobScheduler, func() *scheduler.Job {
			return scheduler.NewJob(scheduler.JobRetentionCleanup, cfg.Scheduler.RetryAttempts).
				WithArg(cleanupArg, cfg.Retention.TransactionDays)
		}, log)
		intervalTrigger := scheduler.NewIntervalTrigger([]scheduler.IntervalEntry{
			{Name: scheduler.JobPendingRepoll, Every: cfg.Scheduler.PendingInterval},
			{Name: scheduler.JobReceiptReconcile, Every: cfg.Scheduler.ReceiptInterval},
			{Name: scheduler.JobListingExpiry, Every: cfg.Scheduler.ExpiryInterval},
		}, jobScheduler, cfg.Scheduler.RetryAttempts, log)

		if err := cleanupTrigger.Start(rootCtx); err != nil {
			log.Fatal("Failed to start cleanup trigger", zap.Error(err))
		}
		if err := intervalTrigger.Start(rootCtx); err != nil {
			log.Fatal("Failed to start interval trigger", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			_ = intervalTrigger.Stop(stopCtx)
			_ = cleanupTrigger.Stop(stopCtx)
			if err := jobScheduler.Stop(stopCtx); err != nil {
				log.Error("Error stopping job scheduler", zap.Error(err))
			}
		}()
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters: the request id must exist before the logger and the
	// span enricher read it.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanEnricher())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		Enabled:       meterProvider.IsEnabled(),
	}))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{middleware.RequestIDKey, "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer rateLimiter.Stop()
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	jwtService := auth.NewJWTService(cfg.JWT)
	adminAuth := middleware.AdminAuth(jwtService, log)

	systemHandler := handler.NewSystemHandler(cfg.App.Name, telemetry.ServiceVersion).
		AddCheck("database", db.Ping).
		AddCheck("pause_switch", func(ctx context.Context) error {
			_, err := stores.Pause.IsPaused(ctx)
			return err
		})
	engine.GET("/health", systemHandler.Health)

	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, adminAuth),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	registerAPIRoutes(r, apiHandlers{
		marketplace: handler.NewMarketplaceHandler(marketplaceService),
		escrow:      handler.NewEscrowHandler(escrowService),
		ownership:   handler.NewOwnershipHandler(ownershipService),
		admin:       handler.NewAdminHandler(adminService),
	}, routeGuards{
		pause:       middleware.Pausable(stores.Pause, log),
		admin:       adminAuth,
		idempotency: middleware.Idempotency(stores.Idempotency, cfg.HTTP.IdempotencyTTL, log),
	})
	r.Setup()

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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := meterProvider.Shutdown(ctx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(ctx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
