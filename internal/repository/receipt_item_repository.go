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

type ReceiptItemRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewReceiptItemRepository(db *pgxpool.Pool, logger *zap.Logger) *ReceiptItemRepository {
	return &ReceiptItemRepository{
		db:     db,
		logger: logger,
	}
}

var receiptItemColumns = []string{"id", "receipt_id", "name", "quantity", "unit_price", "category_id", "created_at"}

func (r *ReceiptItemRepository) CreateBatch(ctx context.Context, items []*models.ReceiptItem) error {
	if len(items) == 0 {
		return nil
	}

	builder := squirrel.Insert("receipt_items").
		Columns(receiptItemColumns...).
		PlaceholderFormat(squirrel.Dollar)

	for _, item := range items {
		builder = builder.Values(item.ID, item.ReceiptID, item.Name, item.Quantity, item.UnitPrice, item.CategoryID, item.CreatedAt)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *ReceiptItemRepository) ListByReceipt(ctx context.Context, receiptID uuid.UUID) ([]models.ReceiptItem, error) {
	query := squirrel.Select(receiptItemColumns...).
		From("receipt_items").
		Where(squirrel.Eq{"receipt_id": receiptID}).
		OrderBy("created_at ASC").
		PlaceholderFormat(squirrel.Dollar)

	return r.list(ctx, query)
}

// ListInRange joins through receipts so monthly aggregation sees every
// item whose parent receipt was purchased inside the window.
func (r *ReceiptItemRepository) ListInRange(ctx context.Context, householdID uuid.UUID, start, end time.Time) ([]models.ReceiptItem, error) {
	query := squirrel.Select(
		"ri.id", "ri.receipt_id", "ri.name", "ri.quantity", "ri.unit_price", "ri.category_id", "ri.created_at",
	).
		From("receipt_items ri").
		Join("receipts r ON r.id = ri.receipt_id").
		Where(squirrel.Eq{"r.household_id": householdID}).
		Where(squirrel.GtOrEq{"r.purchased_at": start}).
		Where(squirrel.Lt{"r.purchased_at": end}).
		OrderBy("ri.created_at ASC").
		PlaceholderFormat(squirrel.Dollar)

	return r.list(ctx, query)
}

func (r *ReceiptItemRepository) list(ctx context.Context, query squirrel.SelectBuilder) ([]models.ReceiptItem, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.ReceiptItem
	for rows.Next() {
		var item models.ReceiptItem
		if err := rows.Scan(
			&item.ID, &item.ReceiptID, &item.Name, &item.Quantity, &item.UnitPrice, &item.CategoryID, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *ReceiptItemRepository) DeleteByReceipt(ctx context.Context, receiptID uuid.UUID) error {
	query := squirrel.Delete("receipt_items").
		Where(squirrel.Eq{"receipt_id": receiptID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
