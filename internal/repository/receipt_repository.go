package repository

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/yosuketsuboi/kakeibo-app/internal/models"
)

type ReceiptRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewReceiptRepository(db *pgxpool.Pool, logger *zap.Logger) *ReceiptRepository {
	return &ReceiptRepository{
		db:     db,
		logger: logger,
	}
}

var receiptColumns = []string{"id", "household_id", "user_id", "image_path", "store_name", "total_amount", "purchased_at", "ocr_status", "ocr_raw", "created_at"}

func scanReceipt(row pgxRow, r *models.Receipt) error {
	return row.Scan(
		&r.ID, &r.HouseholdID, &r.UserID, &r.ImagePath, &r.StoreName, &r.TotalAmount, &r.PurchasedAt, &r.OCRStatus, &r.OCRRaw, &r.CreatedAt,
	)
}

type pgxRow interface {
	Scan(dest ...any) error
}

func (r *ReceiptRepository) Create(ctx context.Context, receipt *models.Receipt) error {
	query := squirrel.Insert("receipts").
		Columns(receiptColumns...).
		Values(receipt.ID, receipt.HouseholdID, receipt.UserID, receipt.ImagePath, receipt.StoreName, receipt.TotalAmount, receipt.PurchasedAt, receipt.OCRStatus, receipt.OCRRaw, receipt.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *ReceiptRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Receipt, error) {
	query := squirrel.Select(receiptColumns...).
		From("receipts").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var receipt models.Receipt
	if err := scanReceipt(r.db.QueryRow(ctx, sql, args...), &receipt); err != nil {
		return nil, err
	}

	return &receipt, nil
}

func (r *ReceiptRepository) ListByHousehold(ctx context.Context, householdID uuid.UUID, limit, offset int) ([]*models.Receipt, error) {
	query := squirrel.Select(receiptColumns...).
		From("receipts").
		Where(squirrel.Eq{"household_id": householdID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(squirrel.Dollar)

	return r.list(ctx, query)
}

func (r *ReceiptRepository) ListInRange(ctx context.Context, householdID uuid.UUID, start, end time.Time) ([]*models.Receipt, error) {
	query := squirrel.Select(receiptColumns...).
		From("receipts").
		Where(squirrel.Eq{"household_id": householdID}).
		Where(squirrel.GtOrEq{"purchased_at": start}).
		Where(squirrel.Lt{"purchased_at": end}).
		OrderBy("purchased_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	return r.list(ctx, query)
}

func (r *ReceiptRepository) list(ctx context.Context, query squirrel.SelectBuilder) ([]*models.Receipt, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receipts []*models.Receipt
	for rows.Next() {
		var receipt models.Receipt
		if err := scanReceipt(rows, &receipt); err != nil {
			return nil, err
		}
		receipts = append(receipts, &receipt)
	}

	return receipts, rows.Err()
}

// SumTotalsInRange feeds the monthly trend: stored receipt totals only,
// rows without a purchase date never match the range.
func (r *ReceiptRepository) SumTotalsInRange(ctx context.Context, householdID uuid.UUID, start, end time.Time) (float64, error) {
	query := squirrel.Select("COALESCE(SUM(total_amount), 0)").
		From("receipts").
		Where(squirrel.Eq{"household_id": householdID}).
		Where(squirrel.GtOrEq{"purchased_at": start}).
		Where(squirrel.Lt{"purchased_at": end}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}

	var sum float64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&sum); err != nil {
		return 0, err
	}

	return sum, nil
}

func (r *ReceiptRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OCRStatus) error {
	query := squirrel.Update("receipts").
		Set("ocr_status", status).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *ReceiptRepository) UpdateExtraction(ctx context.Context, id uuid.UUID, storeName *string, totalAmount *float64, purchasedAt *time.Time, raw []byte) error {
	query := squirrel.Update("receipts").
		Set("store_name", storeName).
		Set("total_amount", totalAmount).
		Set("purchased_at", purchasedAt).
		Set("ocr_raw", raw).
		Set("ocr_status", models.OCRStatusDone).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// MarkParseError keeps the unparseable model output for inspection.
func (r *ReceiptRepository) MarkParseError(ctx context.Context, id uuid.UUID, raw []byte) error {
	query := squirrel.Update("receipts").
		Set("ocr_raw", raw).
		Set("ocr_status", models.OCRStatusError).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// ReplaceManual applies a user's edit in one transaction: header fields,
// a wholesale item swap, and the status forced to done.
func (r *ReceiptRepository) ReplaceManual(ctx context.Context, id uuid.UUID, storeName *string, totalAmount *float64, purchasedAt *time.Time, items []*models.ReceiptItem) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	update := squirrel.Update("receipts").
		Set("store_name", storeName).
		Set("total_amount", totalAmount).
		Set("purchased_at", purchasedAt).
		Set("ocr_status", models.OCRStatusDone).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := update.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return err
	}

	del := squirrel.Delete("receipt_items").
		Where(squirrel.Eq{"receipt_id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err = del.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return err
	}

	if len(items) > 0 {
		insert := squirrel.Insert("receipt_items").
			Columns(receiptItemColumns...).
			PlaceholderFormat(squirrel.Dollar)
		for _, item := range items {
			insert = insert.Values(item.ID, item.ReceiptID, item.Name, item.Quantity, item.UnitPrice, item.CategoryID, item.CreatedAt)
		}

		sql, args, err = insert.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *ReceiptRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := squirrel.Delete("receipts").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
