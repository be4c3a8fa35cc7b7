package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"timesheet-service/internal/cache"
	"timesheet-service/internal/clients"
	"timesheet-service/internal/config"
	"timesheet-service/internal/events"
	"timesheet-service/internal/handlers"
	"timesheet-service/internal/jobs"
	"timesheet-service/internal/middleware"
	"timesheet-service/internal/models"
	"timesheet-service/internal/repository"
	"timesheet-service/internal/seeders"
	"timesheet-service/internal/services"
)

// @title Timesheet Approval API
// @version 1.0.0
// @description Approval workflow engine for time tracking
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.example.com/support
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8099
// @BasePath /api/v1

// @securityDefinitions.bearer BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.InfoLevel)

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}

	// Run database migrations
	logger.Info("Running database migrations...")
	if err := db.AutoMigrate(
		&models.TimeEntry{},
		&models.EntryMessage{},
		&models.TimeSheet{},
		&models.TimeSheetEntry{},
		&models.TimeSheetApproval{},
		&models.ProjectApprovalSettings{},
		&models.ApprovalAuditLog{},
	); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Database migrations completed")

	// Seed demo approval settings in development
	if cfg.Environment == "development" {
		if err := seeders.SeedDemoSettings(db); err != nil {
			logger.Warnf("Failed to seed demo settings: %v", err)
		}
	}

	// Initialize repository
	repo := repository.NewTimesheetRepository(db)

	// Initialize event publisher (optional - service works without NATS)
	var publisher *events.Publisher
	if cfg.NATSURL != "" {
		publisher, err = events.NewPublisher(cfg.NATSURL, logger)
		if err != nil {
			logger.Warnf("Failed to initialize event publisher: %v. Events will not be published.", err)
		} else {
			logger.Info("Event publisher initialized")
			defer publisher.Close()
		}
	} else {
		logger.Info("NATS_URL not configured, event publishing disabled")
	}

	// Initialize settings cache (optional - degrades to direct DB reads)
	settingsCache, err := cache.NewSettingsCache(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTLSeconds)
	if err != nil {
		logger.Warnf("Failed to initialize settings cache: %v", err)
	} else if settingsCache.IsAvailable() {
		logger.Info("Settings cache initialized")
	} else {
		logger.Warn("Redis unavailable, settings cache disabled")
	}

	// Initialize staff-service client for project role checks
	staffClient := clients.NewStaffClient()

	// Initialize services
	clock := services.SystemClock()
	entryService := services.NewEntryService(repo, publisher, clock)
	sheetService := services.NewSheetService(repo, publisher, staffClient, settingsCache, clock)
	settingsService := services.NewSettingsService(repo, settingsCache)

	// Initialize handlers
	entryHandler := handlers.NewEntryHandler(entryService)
	sheetHandler := handlers.NewSheetHandler(sheetService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)

	// Start auto-approval sweep
	autoApproveJob := jobs.NewAutoApproveJob(repo, entryService, sheetService, logger, clock)
	jobCtx, jobCancel := context.WithCancel(context.Background())
	go autoApproveJob.Start(jobCtx)

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Add CORS middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "X-Tenant-ID")
	router.Use(cors.New(corsConfig))

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.ReadinessCheck)

	// Protected API routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	api.Use(middleware.TenantMiddleware())

	// Entry endpoints
	{
		api.POST("/entries", entryHandler.CreateEntry)
		api.GET("/entries/:id", entryHandler.GetEntry)
		api.PUT("/entries/:id", entryHandler.UpdateEntry)
		api.DELETE("/entries/:id", entryHandler.DeleteEntry)
		api.POST("/entries/:id/status", entryHandler.SetStatus)
		api.POST("/entries/:id/messages", entryHandler.AddMessage)
		api.GET("/entries/:id/messages", entryHandler.ListMessages)
		api.GET("/entries/:id/history", entryHandler.GetHistory)
	}

	// Sheet endpoints
	{
		api.POST("/sheets", sheetHandler.CreateSheet)
		api.GET("/sheets/:id", sheetHandler.GetSheet)
		api.POST("/sheets/:id/entries", sheetHandler.AddEntry)
		api.DELETE("/sheets/:id/entries/:entryId", sheetHandler.RemoveEntry)
		api.POST("/sheets/:id/submit", sheetHandler.Submit)
		api.POST("/sheets/:id/stage-approvals", sheetHandler.RecordStageApproval)
		api.POST("/sheets/:id/approve", sheetHandler.Approve)
		api.POST("/sheets/:id/reject", sheetHandler.Reject)
		api.POST("/sheets/:id/revert", sheetHandler.Revert)
		api.GET("/sheets/:id/history", sheetHandler.GetHistory)
	}

	// Admin endpoints for approval policy
	admin := api.Group("/admin")
	admin.Use(middleware.RequireAnyRole("admin", "owner"))
	{
		admin.GET("/projects/:projectId/approval-settings", settingsHandler.GetSettings)
		admin.PUT("/projects/:projectId/approval-settings", settingsHandler.SaveSettings)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8099"
	}

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Infof("Timesheet service starting on port %s", port)
		if err := router.Run(":" + port); err != nil {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	logger.Info("Shutting down server...")

	// Stop auto-approval sweep
	jobCancel()
	autoApproveJob.Stop()
	logger.Info("Auto-approval job stopped")

	logger.Info("Server shutdown complete")
}
