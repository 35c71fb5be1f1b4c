package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yosuketsuboi/kakeibo-app/internal/metrics"
	"github.com/yosuketsuboi/kakeibo-app/internal/models"
	"github.com/yosuketsuboi/kakeibo-app/internal/ocr"
	"github.com/yosuketsuboi/kakeibo-app/internal/storage"
)

type extractionReceiptStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Receipt, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.OCRStatus) error
	UpdateExtraction(ctx context.Context, id uuid.UUID, storeName *string, totalAmount *float64, purchasedAt *time.Time, raw []byte) error
	MarkParseError(ctx context.Context, id uuid.UUID, raw []byte) error
}

type extractionItemStore interface {
	CreateBatch(ctx context.Context, items []*models.ReceiptItem) error
}

type extractionCategoryStore interface {
	ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]models.Category, error)
}

// ReceiptExtractor is the vision model boundary. The bool reports
// output truncation.
type ReceiptExtractor interface {
	ExtractReceipt(ctx context.Context, image []byte, mediaType string, categories []models.Category) (string, bool, error)
}

// ExtractionService runs one receipt through the vision pipeline. It
// is the worker's only service: load, download, extract, parse, store.
type ExtractionService struct {
	receiptRepo  extractionReceiptStore
	itemRepo     extractionItemStore
	categoryRepo extractionCategoryStore
	extractor    ReceiptExtractor
	store        storage.ObjectStore
	logger       *zap.Logger
}

func NewExtractionService(
	receiptRepo extractionReceiptStore,
	itemRepo extractionItemStore,
	categoryRepo extractionCategoryStore,
	extractor ReceiptExtractor,
	store storage.ObjectStore,
	logger *zap.Logger,
) *ExtractionService {
	return &ExtractionService{
		receiptRepo:  receiptRepo,
		itemRepo:     itemRepo,
		categoryRepo: categoryRepo,
		extractor:    extractor,
		store:        store,
		logger:       logger,
	}
}

// Process handles one queued receipt. Every failure after the receipt
// is loaded leaves a terminal status on the row, so a non-nil return
// only means the trigger itself could not be honored. There is no
// automatic retry, reprocessing is an explicit user action.
func (s *ExtractionService) Process(ctx context.Context, receiptID uuid.UUID) error {
	started := time.Now()
	defer func() {
		metrics.ExtractionDuration.Observe(time.Since(started).Seconds())
	}()

	receipt, err := s.receiptRepo.GetByID(ctx, receiptID)
	if err != nil {
		return fmt.Errorf("receipt %s not found: %w", receiptID, err)
	}

	if err := s.receiptRepo.UpdateStatus(ctx, receiptID, models.OCRStatusProcessing); err != nil {
		return fmt.Errorf("failed to mark receipt processing: %w", err)
	}

	image, err := s.store.Get(ctx, receipt.ImagePath)
	if err != nil {
		s.logger.Error("failed to download receipt image",
			zap.String("receipt_id", receiptID.String()),
			zap.String("image_path", receipt.ImagePath),
			zap.Error(err))
		return s.fail(ctx, receiptID)
	}

	// A missing category list only degrades classification, the model
	// still extracts items.
	categories, err := s.categoryRepo.ListByHousehold(ctx, receipt.HouseholdID)
	if err != nil {
		s.logger.Warn("failed to load categories, extracting without them", zap.Error(err))
		categories = nil
	}

	text, truncated, err := s.extractor.ExtractReceipt(ctx, image, mediaTypeForPath(receipt.ImagePath), categories)
	if err != nil {
		s.logger.Error("vision extraction failed",
			zap.String("receipt_id", receiptID.String()),
			zap.Error(err))
		return s.fail(ctx, receiptID)
	}

	obj, repaired, err := ocr.Parse(text)
	if err != nil {
		if !errors.Is(err, ocr.ErrUnparseable) {
			s.logger.Error("unexpected parse failure", zap.Error(err))
		}
		s.logger.Warn("model output is not valid JSON, keeping raw text",
			zap.String("receipt_id", receiptID.String()))
		metrics.ExtractionsTotal.WithLabelValues(string(models.OCRStatusError)).Inc()
		if err := s.receiptRepo.MarkParseError(ctx, receiptID, []byte(sanitizeUTF8(text))); err != nil {
			return fmt.Errorf("failed to mark parse error: %w", err)
		}
		return nil
	}
	if repaired {
		metrics.ExtractionRepaired.Inc()
		s.logger.Info("repaired truncated model output", zap.String("receipt_id", receiptID.String()))
	}

	result, err := ocr.Decode(obj)
	if err != nil {
		metrics.ExtractionsTotal.WithLabelValues(string(models.OCRStatusError)).Inc()
		if err := s.receiptRepo.MarkParseError(ctx, receiptID, []byte(sanitizeUTF8(text))); err != nil {
			return fmt.Errorf("failed to mark parse error: %w", err)
		}
		return nil
	}

	// Truncation, whether repaired here or reported by the model, is
	// persisted inside the raw payload so the UI can warn about
	// incomplete items.
	if truncated || repaired {
		obj["_truncated"] = true
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("failed to marshal ocr payload: %w", err)
	}

	if err := s.receiptRepo.UpdateExtraction(ctx, receiptID, result.StoreName, result.TotalAmount, result.PurchasedAt, raw); err != nil {
		return fmt.Errorf("failed to store extraction: %w", err)
	}

	now := time.Now()
	items := make([]*models.ReceiptItem, 0, len(result.Items))
	for _, it := range result.Items {
		items = append(items, &models.ReceiptItem{
			ID:         uuid.New(),
			ReceiptID:  receiptID,
			Name:       sanitizeUTF8(it.Name),
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			CategoryID: it.CategoryID,
			CreatedAt:  now,
		})
	}
	if err := s.itemRepo.CreateBatch(ctx, items); err != nil {
		s.logger.Error("failed to save receipt items", zap.Error(err))
		return s.fail(ctx, receiptID)
	}

	metrics.ExtractionsTotal.WithLabelValues(string(models.OCRStatusDone)).Inc()
	s.logger.Info("receipt extraction completed",
		zap.String("receipt_id", receiptID.String()),
		zap.Int("items", len(items)),
		zap.Bool("truncated", truncated || repaired))

	return nil
}

func (s *ExtractionService) fail(ctx context.Context, receiptID uuid.UUID) error {
	metrics.ExtractionsTotal.WithLabelValues(string(models.OCRStatusError)).Inc()
	if err := s.receiptRepo.UpdateStatus(ctx, receiptID, models.OCRStatusError); err != nil {
		return fmt.Errorf("failed to mark receipt errored: %w", err)
	}
	return nil
}

func mediaTypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
