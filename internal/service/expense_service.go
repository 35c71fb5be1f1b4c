package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yosuketsuboi/kakeibo-app/internal/dto"
	"github.com/yosuketsuboi/kakeibo-app/internal/models"
	"github.com/yosuketsuboi/kakeibo-app/internal/repository"
)

var ErrExpenseNotFound = errors.New("expense not found")

// ExpenseService covers spending recorded by hand, without a receipt.
type ExpenseService struct {
	expenseRepo *repository.ExpenseRepository
	logger      *zap.Logger
}

func NewExpenseService(expenseRepo *repository.ExpenseRepository, logger *zap.Logger) *ExpenseService {
	return &ExpenseService{
		expenseRepo: expenseRepo,
		logger:      logger,
	}
}

func (s *ExpenseService) Create(ctx context.Context, householdID, userID uuid.UUID, req *dto.CreateExpenseRequest) (*dto.ExpenseResponse, error) {
	expenseDate, err := time.Parse("2006-01-02", req.ExpenseDate)
	if err != nil {
		return nil, fmt.Errorf("invalid expense_date: %w", err)
	}

	expense := &models.ManualExpense{
		ID:          uuid.New(),
		HouseholdID: householdID,
		UserID:      userID,
		Amount:      req.Amount,
		Description: req.Description,
		ExpenseDate: expenseDate,
		CreatedAt:   time.Now(),
	}
	if req.CategoryID != nil {
		if id, err := uuid.Parse(*req.CategoryID); err == nil {
			expense.CategoryID = &id
		}
	}

	if err := s.expenseRepo.Create(ctx, expense); err != nil {
		return nil, err
	}

	resp := toExpenseResponse(expense)
	return &resp, nil
}

func (s *ExpenseService) ListMonth(ctx context.Context, householdID uuid.UUID, start, end time.Time) ([]dto.ExpenseResponse, error) {
	expenses, err := s.expenseRepo.ListInRange(ctx, householdID, start, end)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ExpenseResponse, len(expenses))
	for i, e := range expenses {
		responses[i] = toExpenseResponse(&e)
	}
	return responses, nil
}

func (s *ExpenseService) Update(ctx context.Context, householdID, expenseID uuid.UUID, req *dto.UpdateExpenseRequest) (*dto.ExpenseResponse, error) {
	expense, err := s.load(ctx, householdID, expenseID)
	if err != nil {
		return nil, err
	}

	expenseDate, err := time.Parse("2006-01-02", req.ExpenseDate)
	if err != nil {
		return nil, fmt.Errorf("invalid expense_date: %w", err)
	}

	expense.Amount = req.Amount
	expense.Description = req.Description
	expense.ExpenseDate = expenseDate
	expense.CategoryID = nil
	if req.CategoryID != nil {
		if id, err := uuid.Parse(*req.CategoryID); err == nil {
			expense.CategoryID = &id
		}
	}

	if err := s.expenseRepo.Update(ctx, expense); err != nil {
		return nil, err
	}

	resp := toExpenseResponse(expense)
	return &resp, nil
}

func (s *ExpenseService) Delete(ctx context.Context, householdID, expenseID uuid.UUID) error {
	if _, err := s.load(ctx, householdID, expenseID); err != nil {
		return err
	}
	return s.expenseRepo.Delete(ctx, expenseID)
}

func (s *ExpenseService) load(ctx context.Context, householdID, expenseID uuid.UUID) (*models.ManualExpense, error) {
	expense, err := s.expenseRepo.GetByID(ctx, expenseID)
	if err != nil {
		return nil, ErrExpenseNotFound
	}
	if expense.HouseholdID != householdID {
		return nil, ErrExpenseNotFound
	}
	return expense, nil
}

func toExpenseResponse(e *models.ManualExpense) dto.ExpenseResponse {
	return dto.ExpenseResponse{
		ID:          e.ID.String(),
		CategoryID:  uuidString(e.CategoryID),
		Amount:      e.Amount,
		Description: e.Description,
		ExpenseDate: e.ExpenseDate.Format("2006-01-02"),
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
}
