package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"khata/internal/config"
	"khata/internal/database"
	"khata/internal/handlers"
	"khata/internal/logger"
	"khata/internal/middleware"
	"khata/internal/remote"
	"khata/internal/services"
	"khata/internal/syncer"
	"khata/internal/validator"

	_ "khata/internal/docs" // Import swagger docs
)

// @title           Khata API
// @version         1.0
// @description     Khata is a ledger-book backend for small businesses: per-customer credit/debit ledgers, expenses, and backup sync to a remote document store.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Remote document store for backup sync
	store, err := remote.NewRedisStore(appConfig.RemoteURL)
	if err != nil {
		return fmt.Errorf("failed to connect to remote store: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	ledgerService := services.NewLedgerService(db)
	entryService := services.NewEntryService(db)
	expenseService := services.NewExpenseService(db)
	categoryService := services.NewCategoryService(db)
	settingsService := services.NewSettingsService(db)
	backupService := services.NewBackupService(db)

	// Sync coordinator and outbox worker
	coordinator := syncer.NewCoordinator(db, store, appConfig.SyncCooldown)
	worker := syncer.NewWorker(db, store, appConfig.OutboxInterval)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go worker.Run(workerCtx)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService, coordinator)
	entryHandler := handlers.NewEntryHandler(entryService)
	expenseHandler := handlers.NewExpenseHandler(expenseService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	backupHandler := handlers.NewBackupHandler(backupService)
	syncHandler := handlers.NewSyncHandler(coordinator, settingsService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/profile", authHandler.UpdateProfile)
	protected.PUT("/profile/bank", authHandler.UpdateBankDetails)

	// Ledger routes
	ledgers := protected.Group("/ledgers")
	ledgers.POST("", ledgerHandler.CreateLedger)
	ledgers.GET("", ledgerHandler.GetLedgers)
	ledgers.GET("/:id", ledgerHandler.GetLedger)
	ledgers.PUT("/:id", ledgerHandler.UpdateLedger)
	ledgers.DELETE("/:id", ledgerHandler.DeleteLedger)
	ledgers.POST("/:id/entries", entryHandler.CreateEntry)
	ledgers.GET("/:id/entries", entryHandler.GetEntries)

	// Entry routes
	entries := protected.Group("/entries")
	entries.GET("/:id", entryHandler.GetEntry)
	entries.PUT("/:id", entryHandler.UpdateEntry)
	entries.DELETE("/:id", entryHandler.DeleteEntry)

	// Expense routes
	expenses := protected.Group("/expenses")
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("", expenseHandler.GetExpenses)
	expenses.GET("/:id", expenseHandler.GetExpense)
	expenses.PUT("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	// Category routes
	categories := protected.Group("/categories")
	categories.GET("", categoryHandler.GetCategories)
	categories.POST("", categoryHandler.CreateCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	// Backup file export/import
	backup := protected.Group("/backup")
	backup.GET("/export", backupHandler.Export)
	backup.POST("/import", backupHandler.Import)

	// Remote sync
	sync := protected.Group("/sync")
	sync.POST("/push", syncHandler.Push)
	sync.POST("/pull", syncHandler.Pull)
	sync.GET("/status", syncHandler.Status)
	sync.PUT("/settings", syncHandler.UpdateSettings)

	log.Infof("Starting Khata backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
