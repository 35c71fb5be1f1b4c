package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/yosuketsuboi/kakeibo-app/internal/queue"
	"github.com/yosuketsuboi/kakeibo-app/internal/repository"
	"github.com/yosuketsuboi/kakeibo-app/internal/service"
	"github.com/yosuketsuboi/kakeibo-app/internal/storage"
	"github.com/yosuketsuboi/kakeibo-app/pkg/config"
	"github.com/yosuketsuboi/kakeibo-app/pkg/logger"
	"github.com/yosuketsuboi/kakeibo-app/pkg/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting kakeibo extraction worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	store, err := storage.FromConfig(ctx, &cfg.Storage, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize storage", zap.Error(err))
	}

	queueClient, err := queue.NewClient(cfg.Queue.URL, cfg.Queue.Exchange, cfg.Queue.Queue, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to message queue", zap.Error(err))
	}
	defer queueClient.Close()

	receiptRepo := repository.NewReceiptRepository(db, appLogger)
	itemRepo := repository.NewReceiptItemRepository(db, appLogger)
	categoryRepo := repository.NewCategoryRepository(db, appLogger)

	visionService := service.NewVisionService(&cfg.Anthropic, appLogger)
	extractionService := service.NewExtractionService(
		receiptRepo, itemRepo, categoryRepo, visionService, store, appLogger,
	)

	err = queueClient.ConsumeProcessReceipt(ctx, func(ctx context.Context, msg *queue.ProcessReceiptMessage) error {
		return extractionService.Process(ctx, msg.ReceiptID)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Fatal("Consumer stopped", zap.Error(err))
	}

	appLogger.Info("Worker shut down")
}
