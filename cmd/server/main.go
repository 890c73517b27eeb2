package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	invapp "github.com/pharmapos/backend/internal/application/inventory"
	salesapp "github.com/pharmapos/backend/internal/application/sales"
	"github.com/pharmapos/backend/internal/infrastructure/cache"
	"github.com/pharmapos/backend/internal/infrastructure/config"
	"github.com/pharmapos/backend/internal/infrastructure/event"
	"github.com/pharmapos/backend/internal/infrastructure/logger"
	"github.com/pharmapos/backend/internal/infrastructure/persistence"
	"github.com/pharmapos/backend/internal/interfaces/http/handler"
	"github.com/pharmapos/backend/internal/interfaces/http/middleware"
	"github.com/pharmapos/backend/internal/interfaces/http/router"
)

// maxRequestBody bounds request payload size; settlement and stock-in
// bodies are small, anything bigger is abuse.
const maxRequestBody int64 = 1 << 20

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
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting PharmaPOS Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
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

	// Idempotency store guards against double-submitted settlements.
	// Redis when configured, in-memory for single-instance deployments.
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	var idempotencyStore = storeFactory.CreateInMemoryStore()
	if cfg.Redis.Enabled {
		idempotencyStore, err = storeFactory.CreateStore()
		if err != nil {
			log.Fatal("Failed to create idempotency store", zap.Error(err))
		}
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Event bus with the stock alert subscriber
	eventBus := event.NewInMemoryEventBus(log)
	stockAlerts := event.NewStockAlertHandler(log)
	eventBus.Subscribe(stockAlerts, stockAlerts.EventTypes()...)

	// Application services over transactional scopes
	settlementService := salesapp.NewSettlementService(
		persistence.NewGormSettlementTransactionScope(db.DB),
		eventBus,
		idempotencyStore,
		salesapp.SettlementConfig{
			MaxAttempts:    cfg.Settlement.MaxAttempts,
			RetryBackoff:   cfg.Settlement.RetryBackoff,
			IdempotencyTTL: cfg.Settlement.IdempotencyTTL,
		},
		log,
	)
	stockService := invapp.NewStockService(
		persistence.NewGormStockTransactionScope(db.DB),
		eventBus,
		log,
	)

	// HTTP engine and middleware
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORS())
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(maxRequestBody))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Register domain routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewSalesHandler(settlementService))
	r.Register(handler.NewStockHandler(stockService))

	systemHandler := handler.NewSystemHandler()
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	r.Register(systemRoutes)

	r.Setup()

	// Create HTTP server with config
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
		resp := gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		}
		if stats, err := db.Stats(); err == nil {
			resp["pool"] = gin.H{
				"open":   stats.OpenConnections,
				"in_use": stats.InUse,
				"idle":   stats.Idle,
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}
