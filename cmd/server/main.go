package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	billingapp "github.com/facturador/backend/internal/application/billing"
	partnerapp "github.com/facturador/backend/internal/application/partner"
	"github.com/facturador/backend/internal/domain/billing"
	"github.com/facturador/backend/internal/infrastructure/cache"
	"github.com/facturador/backend/internal/infrastructure/config"
	"github.com/facturador/backend/internal/infrastructure/event"
	"github.com/facturador/backend/internal/infrastructure/logger"
	"github.com/facturador/backend/internal/infrastructure/persistence"
	"github.com/facturador/backend/internal/infrastructure/scheduler"
	"github.com/facturador/backend/internal/interfaces/http/handler"
	"github.com/facturador/backend/internal/interfaces/http/middleware"
	"github.com/facturador/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Facturador",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))

	// Initialize database connection
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Mass-billing run lock: Redis when available, in-process otherwise
	var runLock billingapp.RunLock
	redisLock, err := cache.NewRedisRunLock(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis unavailable, falling back to in-process run lock", zap.Error(err))
		runLock = cache.NewInMemoryRunLock()
	} else {
		runLock = redisLock
		defer func() {
			if err := redisLock.Close(); err != nil {
				log.Error("Error closing Redis connection", zap.Error(err))
			}
		}()
	}

	// Initialize repositories
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	batchRepo := persistence.NewGormInvoiceBatchRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	serviceRepo := persistence.NewGormContractedServiceRepository(db.DB)
	sequenceRepo := persistence.NewGormSequenceRepository(db.DB)
	uow := persistence.NewGormUnitOfWork(db.DB)

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)

	// Initialize application services
	issuer := billingapp.IssuerConfig{
		Series:      cfg.Billing.Series,
		DueDays:     cfg.Billing.DueDays,
		TaxCategory: billing.TaxCategory(cfg.Billing.IssuerTaxCategory),
	}
	invoicingService := billingapp.NewInvoicingService(
		invoiceRepo, customerRepo, serviceRepo, sequenceRepo, uow, eventBus, issuer)
	massBillingService := billingapp.NewMassBillingService(
		invoiceRepo, batchRepo, customerRepo, sequenceRepo, uow, runLock, eventBus, issuer, log)
	settlementService := billingapp.NewSettlementService(
		invoiceRepo, paymentRepo, customerRepo, sequenceRepo, uow, eventBus)
	customerService := partnerapp.NewCustomerService(customerRepo, serviceRepo, eventBus)

	// Automatic monthly billing run (if enabled)
	if cfg.Scheduler.Enabled {
		billingScheduler := scheduler.NewBillingScheduler(scheduler.BillingSchedulerConfig{
			Enabled:    cfg.Scheduler.Enabled,
			RunDay:     cfg.Scheduler.RunDay,
			RunHour:    cfg.Scheduler.RunHour,
			RunMinute:  cfg.Scheduler.RunMinute,
			JobTimeout: cfg.Scheduler.JobTimeout,
		}, massBillingService, log)
		if err := billingScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start billing scheduler", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := billingScheduler.Stop(stopCtx); err != nil {
				log.Error("Error stopping billing scheduler", zap.Error(err))
			}
		}()
	}

	// Set Gin mode based on environment
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

	// Middleware stack, outermost first
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Tracing(cfg.App.Name))
	engine.Use(middleware.SpanErrorMarker())

	// Health check endpoint with a database probe
	engine.GET("/health", healthHandler(db))

	// Register API routes
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(handler.NewInvoiceHandler(invoicingService)).
		Register(handler.NewMassBillingHandler(massBillingService)).
		Register(handler.NewSettlementHandler(settlementService)).
		Register(handler.NewCustomerHandler(customerService)).
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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
