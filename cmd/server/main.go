package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appbilling "github.com/dairybooks/backend/internal/application/billing"
	"github.com/dairybooks/backend/internal/infrastructure/cache"
	"github.com/dairybooks/backend/internal/infrastructure/config"
	"github.com/dairybooks/backend/internal/infrastructure/logger"
	"github.com/dairybooks/backend/internal/infrastructure/persistence"
	"github.com/dairybooks/backend/internal/infrastructure/printing"
	"github.com/dairybooks/backend/internal/infrastructure/scheduler"
	"github.com/dairybooks/backend/internal/interfaces/http/handler"
	"github.com/dairybooks/backend/internal/interfaces/http/middleware"
	"github.com/dairybooks/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
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

	log.Info("Starting dairy ledger backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database with GORM logging routed through zap
	gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLogger)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	// Repositories
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	allocationRepo := persistence.NewGormPaymentAllocationRepository(db.DB)
	mappingRepo := persistence.NewGormInvoiceSalesMappingRepository(db.DB)
	operationLogRepo := persistence.NewGormOperationLogRepository(db.DB)

	scope := persistence.NewGormTransactionScope(db.DB, cfg.Billing.LockTimeout)

	// Outstanding cache: Redis when reachable, in-process otherwise. A cache
	// failure only costs recomputation, never correctness.
	var outstandingCache appbilling.OutstandingCache
	redisCache, err := cache.NewRedisOutstandingCache(&cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, falling back to in-memory outstanding cache", zap.Error(err))
		outstandingCache = cache.NewInMemoryOutstandingCache(cfg.Redis.OutstandingTTL)
	} else {
		outstandingCache = redisCache
		defer func() {
			_ = redisCache.Close()
		}()
	}

	// Application services
	paymentService := appbilling.NewPaymentService(scope, outstandingCache, log).
		WithTimeout(cfg.Billing.OperationTimeout)
	invoiceService := appbilling.NewInvoiceService(scope, outstandingCache, log).
		WithTimeout(cfg.Billing.OperationTimeout)
	ledgerService := appbilling.NewLedgerService(customerRepo, invoiceRepo, allocationRepo, outstandingCache, log)
	reconcilerService := appbilling.NewReconcilerService(scope, paymentRepo, log)

	// PDF rendering is optional; a nil renderer disables it for bulk generation.
	var docRenderer appbilling.DocumentRenderer
	pdfRenderer, err := printing.NewInvoicePDFRenderer(&cfg.Renderer, log)
	if err != nil {
		log.Fatal("Failed to initialize invoice renderer", zap.Error(err))
	}
	if pdfRenderer != nil {
		docRenderer = pdfRenderer
	}

	bulkService := appbilling.NewBulkInvoiceService(
		invoiceService,
		operationLogRepo,
		customerRepo,
		saleRepo,
		mappingRepo,
		docRenderer,
		log,
	)

	// Background jobs: daily reconciliation and overdue marking
	trigger, err := scheduler.NewLedgerTrigger(&cfg.Scheduler, reconcilerService, invoiceService, log)
	if err != nil {
		log.Fatal("Failed to build scheduler", zap.Error(err))
	}
	if trigger != nil {
		if err := trigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := trigger.Stop(stopCtx); err != nil {
				log.Error("Failed to stop scheduler", zap.Error(err))
			}
		}()
	}

	// HTTP layer
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.CORSWithConfig(corsConfig),
	)

	engine.GET("/health", healthHandler(db, log))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewPaymentHandler(paymentService)).
		Register(handler.NewLedgerHandler(ledgerService)).
		Register(handler.NewInvoiceHandler(invoiceService)).
		Register(handler.NewBulkHandler(bulkService)).
		Register(handler.NewAdminHandler(reconcilerService, invoiceService)).
		Register(handler.NewSystemHandler(db))
	r.Setup()

	// Simple ping at the API root for load balancer checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

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

// healthHandler reports liveness including database reachability.
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
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
