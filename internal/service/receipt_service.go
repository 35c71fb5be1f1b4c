package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yosuketsuboi/kakeibo-app/internal/core"
	"github.com/yosuketsuboi/kakeibo-app/internal/dto"
	"github.com/yosuketsuboi/kakeibo-app/internal/imageutil"
	"github.com/yosuketsuboi/kakeibo-app/internal/metrics"
	"github.com/yosuketsuboi/kakeibo-app/internal/models"
	"github.com/yosuketsuboi/kakeibo-app/internal/repository"
	"github.com/yosuketsuboi/kakeibo-app/internal/storage"
)

var (
	ErrReceiptNotFound = errors.New("receipt not found")
	ErrInvalidImage    = errors.New("invalid image")
)

type receiptPublisher interface {
	PublishProcessReceipt(ctx context.Context, receiptID uuid.UUID) error
}

type ReceiptService struct {
	receiptRepo  *repository.ReceiptRepository
	itemRepo     *repository.ReceiptItemRepository
	categoryRepo *repository.CategoryRepository
	store        storage.ObjectStore
	publisher    receiptPublisher
	logger       *zap.Logger
}

func NewReceiptService(
	receiptRepo *repository.ReceiptRepository,
	itemRepo *repository.ReceiptItemRepository,
	categoryRepo *repository.CategoryRepository,
	store storage.ObjectStore,
	publisher receiptPublisher,
	logger *zap.Logger,
) *ReceiptService {
	return &ReceiptService{
		receiptRepo:  receiptRepo,
		itemRepo:     itemRepo,
		categoryRepo: categoryRepo,
		store:        store,
		publisher:    publisher,
		logger:       logger,
	}
}

// Upload compresses the photo, stores it and creates a pending receipt.
// The extraction trigger is best effort: a queue outage leaves the
// receipt pending instead of failing the upload.
func (s *ReceiptService) Upload(ctx context.Context, householdID, userID uuid.UUID, fileName string, data []byte) (*dto.ReceiptResponse, error) {
	compressed, err := imageutil.Compress(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	key := objectKey(householdID, fileName)
	if err := s.store.Put(ctx, key, "image/jpeg", bytes.NewReader(compressed)); err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	receipt := &models.Receipt{
		ID:          uuid.New(),
		HouseholdID: householdID,
		UserID:      userID,
		ImagePath:   key,
		OCRStatus:   models.OCRStatusPending,
		CreatedAt:   time.Now(),
	}
	if err := s.receiptRepo.Create(ctx, receipt); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to clean up orphaned image", zap.String("key", key), zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to create receipt: %w", err)
	}
	metrics.ReceiptsUploaded.Inc()

	if err := s.publisher.PublishProcessReceipt(ctx, receipt.ID); err != nil {
		s.logger.Error("failed to publish extraction trigger, receipt stays pending",
			zap.String("receipt_id", receipt.ID.String()),
			zap.Error(err))
	}

	return s.toResponse(receipt), nil
}

// objectKey builds "<household>/<millis>_<name>.jpg". The original file
// name only survives as a sanitized suffix.
func objectKey(householdID uuid.UUID, fileName string) string {
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, base)
	if base == "" {
		base = "receipt"
	}
	return fmt.Sprintf("%s/%d_%s.jpg", householdID, time.Now().UnixMilli(), base)
}

func (s *ReceiptService) List(ctx context.Context, householdID uuid.UUID, limit, offset int) ([]*dto.ReceiptResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	receipts, err := s.receiptRepo.ListByHousehold(ctx, householdID, limit, offset)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.ReceiptResponse, len(receipts))
	for i, r := range receipts {
		responses[i] = s.toResponse(r)
	}
	return responses, nil
}

// GetDetail loads the receipt with its items and derives the
// reconciliation view.
func (s *ReceiptService) GetDetail(ctx context.Context, householdID, receiptID uuid.UUID) (*dto.ReceiptDetailResponse, error) {
	receipt, err := s.load(ctx, householdID, receiptID)
	if err != nil {
		return nil, err
	}

	items, err := s.itemRepo.ListByReceipt(ctx, receiptID)
	if err != nil {
		return nil, err
	}

	categories, err := s.categoryRepo.ListByHousehold(ctx, householdID)
	if err != nil {
		return nil, err
	}

	view := core.BuildReceiptView(receipt, items, categories)

	itemResponses := make([]dto.ReceiptItemResponse, len(items))
	for i, item := range items {
		itemResponses[i] = dto.ReceiptItemResponse{
			ID:         item.ID.String(),
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			Subtotal:   item.Subtotal(),
			CategoryID: uuidString(item.CategoryID),
		}
	}

	subtotals := make([]dto.CategorySubtotalResponse, len(view.Subtotals))
	for i, g := range view.Subtotals {
		subtotals[i] = dto.CategorySubtotalResponse{
			CategoryID: uuidString(g.CategoryID),
			Label:      g.Label,
			Color:      g.Color,
			Amount:     g.Amount,
			ItemCount:  g.ItemCount,
		}
	}

	detail := &dto.ReceiptDetailResponse{
		Receipt:    *s.toResponse(receipt),
		Items:      itemResponses,
		Processing: view.Processing,
		Truncated:  view.Truncated,
		Subtotals:  subtotals,
	}
	if view.Mismatch != nil {
		detail.Mismatch = &dto.MismatchResponse{
			TotalAmount: view.Mismatch.TotalAmount,
			ItemsSum:    view.Mismatch.ItemsSum,
			Delta:       view.Mismatch.Delta,
		}
	}

	return detail, nil
}

// Save applies a manual edit: header and items replaced wholesale, the
// receipt forced to done. Concurrent saves follow last write wins.
func (s *ReceiptService) Save(ctx context.Context, householdID, receiptID uuid.UUID, req *dto.SaveReceiptRequest) (*dto.ReceiptDetailResponse, error) {
	if _, err := s.load(ctx, householdID, receiptID); err != nil {
		return nil, err
	}

	var purchasedAt *time.Time
	if req.PurchasedAt != nil {
		t, err := time.Parse("2006-01-02", *req.PurchasedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid purchased_at: %w", err)
		}
		purchasedAt = &t
	}

	now := time.Now()
	items := make([]*models.ReceiptItem, 0, len(req.Items))
	for _, it := range req.Items {
		item := &models.ReceiptItem{
			ID:        uuid.New(),
			ReceiptID: receiptID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			CreatedAt: now,
		}
		if it.CategoryID != nil {
			if id, err := uuid.Parse(*it.CategoryID); err == nil {
				item.CategoryID = &id
			}
		}
		items = append(items, item)
	}

	if err := s.receiptRepo.ReplaceManual(ctx, receiptID, req.StoreName, req.TotalAmount, purchasedAt, items); err != nil {
		return nil, fmt.Errorf("failed to save receipt: %w", err)
	}

	return s.GetDetail(ctx, householdID, receiptID)
}

// Reprocess clears the extracted items and queues the receipt again.
// Retrying is always this explicit user action, never automatic.
func (s *ReceiptService) Reprocess(ctx context.Context, householdID, receiptID uuid.UUID) error {
	if _, err := s.load(ctx, householdID, receiptID); err != nil {
		return err
	}

	if err := s.itemRepo.DeleteByReceipt(ctx, receiptID); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}
	if err := s.receiptRepo.UpdateStatus(ctx, receiptID, models.OCRStatusPending); err != nil {
		return fmt.Errorf("failed to reset status: %w", err)
	}

	if err := s.publisher.PublishProcessReceipt(ctx, receiptID); err != nil {
		return fmt.Errorf("failed to queue reprocess: %w", err)
	}
	return nil
}

func (s *ReceiptService) Delete(ctx context.Context, householdID, receiptID uuid.UUID) error {
	receipt, err := s.load(ctx, householdID, receiptID)
	if err != nil {
		return err
	}

	if err := s.receiptRepo.Delete(ctx, receiptID); err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}

	if err := s.store.Delete(ctx, receipt.ImagePath); err != nil {
		s.logger.Warn("failed to delete receipt image",
			zap.String("key", receipt.ImagePath),
			zap.Error(err))
	}
	return nil
}

func (s *ReceiptService) load(ctx context.Context, householdID, receiptID uuid.UUID) (*models.Receipt, error) {
	receipt, err := s.receiptRepo.GetByID(ctx, receiptID)
	if err != nil {
		return nil, ErrReceiptNotFound
	}
	if receipt.HouseholdID != householdID {
		return nil, ErrReceiptNotFound
	}
	return receipt, nil
}

func (s *ReceiptService) toResponse(r *models.Receipt) *dto.ReceiptResponse {
	resp := &dto.ReceiptResponse{
		ID:          r.ID.String(),
		HouseholdID: r.HouseholdID.String(),
		ImageURL:    s.store.PublicURL(r.ImagePath),
		StoreName:   r.StoreName,
		TotalAmount: r.TotalAmount,
		OCRStatus:   string(r.OCRStatus),
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
	if r.PurchasedAt != nil {
		d := r.PurchasedAt.Format("2006-01-02")
		resp.PurchasedAt = &d
	}
	return resp
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
