package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/yosuketsuboi/kakeibo-app/internal/api"
	"github.com/yosuketsuboi/kakeibo-app/internal/api/handlers"
	"github.com/yosuketsuboi/kakeibo-app/internal/queue"
	"github.com/yosuketsuboi/kakeibo-app/internal/repository"
	"github.com/yosuketsuboi/kakeibo-app/internal/service"
	"github.com/yosuketsuboi/kakeibo-app/internal/storage"
	"github.com/yosuketsuboi/kakeibo-app/pkg/auth"
	"github.com/yosuketsuboi/kakeibo-app/pkg/config"
	"github.com/yosuketsuboi/kakeibo-app/pkg/logger"
	"github.com/yosuketsuboi/kakeibo-app/pkg/mailer"
	"github.com/yosuketsuboi/kakeibo-app/pkg/postgres"
)

// @title Kakeibo API
// @version 1.0
// @description Household budget tracker with receipt photo ingestion

// @contact.name API Support
// @contact.email support@kakeibo.local

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting kakeibo API server")

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.Migrate(&cfg.Database, appLogger); err != nil {
		appLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize object storage
	store, err := storage.FromConfig(ctx, &cfg.Storage, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize storage", zap.Error(err))
	}

	// Initialize message queue
	queueClient, err := queue.NewClient(cfg.Queue.URL, cfg.Queue.Exchange, cfg.Queue.Queue, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to message queue", zap.Error(err))
	}
	defer queueClient.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db, appLogger)
	householdRepo := repository.NewHouseholdRepository(db, appLogger)
	categoryRepo := repository.NewCategoryRepository(db, appLogger)
	receiptRepo := repository.NewReceiptRepository(db, appLogger)
	itemRepo := repository.NewReceiptItemRepository(db, appLogger)
	expenseRepo := repository.NewExpenseRepository(db, appLogger)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)

	invitationMailer := mailer.New(
		cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password,
		cfg.SMTP.From, cfg.SMTP.AppBaseURL, appLogger,
	)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager, appLogger)
	categoryService := service.NewCategoryService(categoryRepo, appLogger)
	householdService := service.NewHouseholdService(householdRepo, categoryService, invitationMailer, appLogger)
	receiptService := service.NewReceiptService(receiptRepo, itemRepo, categoryRepo, store, queueClient, appLogger)
	expenseService := service.NewExpenseService(expenseRepo, appLogger)
	reportService := service.NewReportService(receiptRepo, itemRepo, expenseRepo, categoryRepo, appLogger)

	// Setup router
	app := api.SetupRouter(api.RouterDeps{
		Auth:       handlers.NewAuthHandler(authService, appLogger),
		Households: handlers.NewHouseholdHandler(householdService, appLogger),
		Receipts:   handlers.NewReceiptHandler(receiptService, appLogger),
		Categories: handlers.NewCategoryHandler(categoryService, appLogger),
		Expenses:   handlers.NewExpenseHandler(expenseService, appLogger),
		Reports:    handlers.NewReportHandler(reportService, appLogger),
		JWTManager: jwtManager,
		Membership: householdService,
		Config:     cfg,
		Logger:     appLogger,
	})

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
