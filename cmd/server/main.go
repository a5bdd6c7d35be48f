package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	crmapp "github.com/crmsuite/backend/internal/application/crm"
	"github.com/crmsuite/backend/internal/infrastructure/auth"
	"github.com/crmsuite/backend/internal/infrastructure/config"
	"github.com/crmsuite/backend/internal/infrastructure/logger"
	"github.com/crmsuite/backend/internal/infrastructure/persistence"
	"github.com/crmsuite/backend/internal/infrastructure/persistence/tenant"
	"github.com/crmsuite/backend/internal/infrastructure/telemetry"
	"github.com/crmsuite/backend/internal/interfaces/http/handler"
	"github.com/crmsuite/backend/internal/interfaces/http/middleware"
	"github.com/crmsuite/backend/internal/interfaces/http/router"
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

	log.Info("Starting CRM Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Database query tracing (otelgorm + slow query callbacks)
	if cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        "postgresql",
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
		log.Info("Database tracing enabled",
			zap.Duration("slow_query_threshold", cfg.Telemetry.DBSlowQueryThresh),
		)
	}

	// Context-based org filter: a safety net behind the explicit repository
	// scoping. Not required, since unscoped internal queries are legitimate;
	// repositories always pass an explicit scope.
	tenant.EnableAutoOrgFilter(db.DB, false)

	// Initialize repositories
	leadRepo := persistence.NewGormLeadRepository(db.DB)
	opportunityRepo := persistence.NewGormOpportunityRepository(db.DB)
	contractRepo := persistence.NewGormContractRepository(db.DB)

	// Initialize application services
	leadService := crmapp.NewLeadService(leadRepo)
	opportunityService := crmapp.NewOpportunityService(opportunityRepo)
	contractService := crmapp.NewContractService(contractRepo)

	// JWT service for authentication
	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize HTTP handlers
	leadHandler := handler.NewLeadHandler(leadService)
	opportunityHandler := handler.NewOpportunityHandler(opportunityService)
	contractHandler := handler.NewContractHandler(contractService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing - OpenTelemetry spans (+ error marking)
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// JWT authentication for API routes; system endpoints stay public
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Tenant scope resolution: JWT claims first, headers as fallback.
	// Every CRM route requires an org scope; the middleware also seeds the
	// request context so the persistence-level org filter can see it.
	scopeConfig := middleware.DefaultScopeConfig()
	scopeConfig.SkipPaths = append(scopeConfig.SkipPaths,
		"/api/v1/ping",
		"/api/v1/system/ping",
		"/api/v1/system/info",
	)
	scopeConfig.Logger = log
	engine.Use(middleware.ScopeMiddlewareWithConfig(scopeConfig))

	// CRM domain routes
	crmRoutes := router.NewDomainGroup("crm", "/crm")
	crmRoutes.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "crm service ready"})
	})

	// Lead routes
	crmRoutes.POST("/leads", leadHandler.Create)
	crmRoutes.GET("/leads", leadHandler.List)
	crmRoutes.GET("/leads/:id", leadHandler.Get)
	crmRoutes.PUT("/leads/:id", leadHandler.Update)
	crmRoutes.PUT("/leads/:id/status", leadHandler.UpdateStatus)
	crmRoutes.DELETE("/leads/:id", leadHandler.Delete)

	// Opportunity routes
	crmRoutes.POST("/opportunities", opportunityHandler.Create)
	crmRoutes.GET("/opportunities", opportunityHandler.List)
	crmRoutes.GET("/opportunities/:id", opportunityHandler.Get)
	crmRoutes.PUT("/opportunities/:id", opportunityHandler.Update)
	crmRoutes.DELETE("/opportunities/:id", opportunityHandler.Delete)
	crmRoutes.POST("/opportunities/:id/items", opportunityHandler.AddItem)
	crmRoutes.PUT("/opportunities/:id/items/:item_id", opportunityHandler.UpdateItem)
	crmRoutes.DELETE("/opportunities/:id/items/:item_id", opportunityHandler.RemoveItem)

	// Contract routes
	crmRoutes.POST("/contracts", contractHandler.Create)
	crmRoutes.GET("/contracts", contractHandler.List)
	crmRoutes.GET("/contracts/:id", contractHandler.Get)
	crmRoutes.PUT("/contracts/:id", contractHandler.Update)
	crmRoutes.DELETE("/contracts/:id", contractHandler.Delete)
	crmRoutes.POST("/contracts/:id/sign", contractHandler.Sign)
	crmRoutes.POST("/contracts/:id/cancel", contractHandler.Cancel)
	crmRoutes.POST("/contracts/:id/checklist", contractHandler.AddChecklistItem)
	crmRoutes.PUT("/contracts/:id/checklist/:item_id", contractHandler.SetChecklistItemFulfilled)
	crmRoutes.DELETE("/contracts/:id/checklist/:item_id", contractHandler.RemoveChecklistItem)

	// System routes (public)
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(crmRoutes).Register(systemRoutes)
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

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
