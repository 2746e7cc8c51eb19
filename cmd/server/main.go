package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gemerp/backend/internal/application/common"
	ledger "github.com/gemerp/backend/internal/application/finance"
	inventoryapp "github.com/gemerp/backend/internal/application/inventory"
	partnerapp "github.com/gemerp/backend/internal/application/partner"
	processingapp "github.com/gemerp/backend/internal/application/processing"
	reportapp "github.com/gemerp/backend/internal/application/report"
	"github.com/gemerp/backend/internal/application/upload"
	"github.com/gemerp/backend/internal/infrastructure/config"
	"github.com/gemerp/backend/internal/infrastructure/event"
	"github.com/gemerp/backend/internal/infrastructure/lock"
	"github.com/gemerp/backend/internal/infrastructure/logger"
	"github.com/gemerp/backend/internal/infrastructure/persistence"
	"github.com/gemerp/backend/internal/infrastructure/storage"
	"github.com/gemerp/backend/internal/infrastructure/telemetry"
	"github.com/gemerp/backend/internal/interfaces/http/handler"
	"github.com/gemerp/backend/internal/interfaces/http/middleware"
	"github.com/gemerp/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// version is stamped at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(log)

	log.Info("Starting gem ERP backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("port", cfg.App.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Environment:       cfg.App.Env,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()

	// Database, with GORM logging through zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", db.Driver))

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        telemetry.DBSystemFor(cfg.Database.Driver),
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Workflow locks: Redis when several replicas share the database
	var locker common.Locker = common.NoopLocker{}
	if cfg.Lock.Enabled {
		redisClient, err := lock.NewRedisClient(ctx, lock.ClientConfig{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer closeRedis(redisClient, log)
		locker = lock.NewRedisLocker(redisClient, lock.Config{
			KeyPrefix:  cfg.App.Name + ":",
			TTL:        cfg.Lock.TTL,
			RetryEvery: cfg.Lock.RetryEvery,
			MaxWait:    cfg.Lock.MaxWait,
		}, log.Named("lock"))
		log.Info("Redis workflow locks enabled", zap.String("addr", cfg.Redis.Addr()))
	}

	// Photo storage; uploads answer STORAGE_UNAVAILABLE when it is off
	var objects upload.ObjectStorage
	if cfg.Storage.Enabled {
		s3Store, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log.Named("storage")))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := s3Store.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to prepare storage bucket", zap.Error(err), zap.String("bucket", s3Store.Bucket()))
		}
		objects = s3Store
		log.Info("Object storage ready", zap.String("bucket", s3Store.Bucket()))
	}

	// Domain events go to the activity log after each workflow commits
	bus := event.NewInMemoryEventBus(log.Named("events"))
	bus.Subscribe(event.NewActivityLogger(log))
	if err := bus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() { _ = bus.Stop(context.Background()) }()

	// Repositories
	itemRepo := persistence.NewGormItemRepository(db.DB)
	txnRepo := persistence.NewGormTransactionRepository(db.DB)
	expenseRepo := persistence.NewGormExpenseRepository(db.DB)
	cutPolishRepo := persistence.NewGormCutPolishRepository(db.DB)
	sortLotRepo := persistence.NewGormSortLotRepository(db.DB)
	heatGroupRepo := persistence.NewGormHeatTreatmentGroupRepository(db.DB)
	heatTreatmentRepo := persistence.NewGormHeatTreatmentRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	dashboardRepo := persistence.NewGormDashboardRepository(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB)

	// Application services
	itemService := inventoryapp.NewItemService(itemRepo, scope,
		inventoryapp.WithItemLocker(locker),
		inventoryapp.WithItemLogger(log.Named("items")),
	)
	itemService.SetEventPublisher(bus)

	ledgerService := ledger.NewLedgerService(txnRepo, scope,
		ledger.WithLedgerLocker(locker),
		ledger.WithLedgerLogger(log.Named("ledger")),
		ledger.WithLedgerEventPublisher(bus),
	)
	expenseService := ledger.NewExpenseService(expenseRepo, log.Named("expenses"))
	customerService := partnerapp.NewCustomerService(customerRepo,
		partnerapp.WithPhoneRegion(cfg.Partner.PhoneRegion),
		partnerapp.WithCustomerLogger(log.Named("customers")),
		partnerapp.WithCustomerEventPublisher(bus),
	)

	processingOpts := []processingapp.Option{
		processingapp.WithLocker(locker),
		processingapp.WithLogger(log.Named("processing")),
		processingapp.WithEventPublisher(bus),
	}
	cutPolishService := processingapp.NewCutPolishService(cutPolishRepo, itemRepo, scope, processingOpts...)
	sortLotService := processingapp.NewSortLotService(sortLotRepo, itemRepo, scope, processingOpts...)
	heatService := processingapp.NewHeatTreatmentService(heatGroupRepo, heatTreatmentRepo, itemRepo, scope, processingOpts...)

	dashboardService := reportapp.NewDashboardService(dashboardRepo, log.Named("dashboard"))
	exportService := reportapp.NewExportService(txnRepo, log.Named("export"))

	uploadService := upload.NewService(objects, scope,
		upload.WithMaxSize(cfg.Storage.MaxUploadSize),
		upload.WithPresignExpiry(cfg.Storage.PresignExpiry),
		upload.WithLocker(locker),
		upload.WithLogger(log.Named("uploads")),
	)

	// HTTP
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}
	engine, err := router.NewEngine(router.EngineConfig{
		HTTP:        cfg.HTTP,
		ServiceName: cfg.Telemetry.ServiceName,
		Tracing:     tp.IsEnabled(),
	}, log)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get database handle", zap.Error(err))
	}
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, sqlDB)

	router.NewRouter(engine, router.WithHealth(systemHandler.Health)).
		Register(systemHandler).
		Register(handler.NewItemHandler(itemService)).
		Register(handler.NewTransactionHandler(ledgerService)).
		Register(handler.NewExpenseHandler(expenseService)).
		Register(handler.NewCustomerHandler(customerService, itemService)).
		Register(handler.NewProcessingHandler(cutPolishService, sortLotService, heatService)).
		Register(handler.NewReportHandler(dashboardService, exportService)).
		Register(handler.NewUploadHandler(uploadService)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

func closeRedis(client *redis.Client, log *zap.Logger) {
	if err := client.Close(); err != nil {
		log.Warn("Error closing Redis client", zap.Error(err))
	}
}
