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

type ExpenseRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewExpenseRepository(db *pgxpool.Pool, logger *zap.Logger) *ExpenseRepository {
	return &ExpenseRepository{
		db:     db,
		logger: logger,
	}
}

var expenseColumns = []string{"id", "household_id", "user_id", "category_id", "amount", "description", "expense_date", "created_at"}

func (r *ExpenseRepository) Create(ctx context.Context, expense *models.ManualExpense) error {
	query := squirrel.Insert("manual_expenses").
		Columns(expenseColumns...).
		Values(expense.ID, expense.HouseholdID, expense.UserID, expense.CategoryID, expense.Amount, expense.Description, expense.ExpenseDate, expense.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *ExpenseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ManualExpense, error) {
	query := squirrel.Select(expenseColumns...).
		From("manual_expenses").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var expense models.ManualExpense
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&expense.ID, &expense.HouseholdID, &expense.UserID, &expense.CategoryID, &expense.Amount, &expense.Description, &expense.ExpenseDate, &expense.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &expense, nil
}

func (r *ExpenseRepository) ListInRange(ctx context.Context, householdID uuid.UUID, start, end time.Time) ([]models.ManualExpense, error) {
	query := squirrel.Select(expenseColumns...).
		From("manual_expenses").
		Where(squirrel.Eq{"household_id": householdID}).
		Where(squirrel.GtOrEq{"expense_date": start}).
		Where(squirrel.Lt{"expense_date": end}).
		OrderBy("expense_date DESC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []models.ManualExpense
	for rows.Next() {
		var expense models.ManualExpense
		if err := rows.Scan(
			&expense.ID, &expense.HouseholdID, &expense.UserID, &expense.CategoryID, &expense.Amount, &expense.Description, &expense.ExpenseDate, &expense.CreatedAt,
		); err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}

	return expenses, rows.Err()
}

func (r *ExpenseRepository) SumInRange(ctx context.Context, householdID uuid.UUID, start, end time.Time) (float64, error) {
	query := squirrel.Select("COALESCE(SUM(amount), 0)").
		From("manual_expenses").
		Where(squirrel.Eq{"household_id": householdID}).
		Where(squirrel.GtOrEq{"expense_date": start}).
		Where(squirrel.Lt{"expense_date": end}).
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

func (r *ExpenseRepository) Update(ctx context.Context, expense *models.ManualExpense) error {
	query := squirrel.Update("manual_expenses").
		Set("category_id", expense.CategoryID).
		Set("amount", expense.Amount).
		Set("description", expense.Description).
		Set("expense_date", expense.ExpenseDate).
		Where(squirrel.Eq{"id": expense.ID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *ExpenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := squirrel.Delete("manual_expenses").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
