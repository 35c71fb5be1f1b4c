package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yosuketsuboi/kakeibo-app/internal/core"
	"github.com/yosuketsuboi/kakeibo-app/internal/dto"
	"github.com/yosuketsuboi/kakeibo-app/internal/models"
)

type reportItemStore interface {
	ListInRange(ctx context.Context, householdID uuid.UUID, start, end time.Time) ([]models.ReceiptItem, error)
}

type reportExpenseStore interface {
	ListInRange(ctx context.Context, householdID uuid.UUID, start, end time.Time) ([]models.ManualExpense, error)
	SumInRange(ctx context.Context, householdID uuid.UUID, start, end time.Time) (float64, error)
}

type reportReceiptStore interface {
	SumTotalsInRange(ctx context.Context, householdID uuid.UUID, start, end time.Time) (float64, error)
}

type reportCategoryStore interface {
	ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]models.Category, error)
}

// ReportService builds the monthly dashboard: per-category buckets for
// the requested month and a trailing trend series.
type ReportService struct {
	receiptRepo  reportReceiptStore
	itemRepo     reportItemStore
	expenseRepo  reportExpenseStore
	categoryRepo reportCategoryStore
	logger       *zap.Logger
}

func NewReportService(
	receiptRepo reportReceiptStore,
	itemRepo reportItemStore,
	expenseRepo reportExpenseStore,
	categoryRepo reportCategoryStore,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		receiptRepo:  receiptRepo,
		itemRepo:     itemRepo,
		expenseRepo:  expenseRepo,
		categoryRepo: categoryRepo,
		logger:       logger,
	}
}

// Monthly aggregates one month. The category breakdown sums item lines
// and manual expenses, the trend sums stored receipt totals, so the two
// can legitimately disagree for a month with unreconciled receipts.
func (s *ReportService) Monthly(ctx context.Context, householdID uuid.UUID, yearMonth string) (*dto.MonthlyReportResponse, error) {
	start, end, err := core.MonthRange(yearMonth)
	if err != nil {
		return nil, err
	}

	items, err := s.itemRepo.ListInRange(ctx, householdID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	expenses, err := s.expenseRepo.ListInRange(ctx, householdID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}
	categories, err := s.categoryRepo.ListByHousehold(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	buckets := core.CategoryTotals(items, expenses, categories)

	trend, err := s.trend(ctx, householdID, start)
	if err != nil {
		return nil, err
	}

	categoryResponses := make([]dto.CategoryAmountResponse, len(buckets))
	for i, b := range buckets {
		categoryResponses[i] = dto.CategoryAmountResponse{
			CategoryID: uuidString(b.CategoryID),
			Label:      b.Label,
			Color:      b.Color,
			Amount:     b.Amount,
		}
	}

	return &dto.MonthlyReportResponse{
		Month:      yearMonth,
		Total:      core.SumCategoryTotals(buckets),
		Categories: categoryResponses,
		Trend:      trend,
	}, nil
}

// trend runs the six window sums concurrently, one errgroup goroutine
// per month.
func (s *ReportService) trend(ctx context.Context, householdID uuid.UUID, target time.Time) ([]dto.MonthAmountResponse, error) {
	starts := core.TrendStarts(target)
	trend := make([]dto.MonthAmountResponse, len(starts))

	g, gctx := errgroup.WithContext(ctx)
	for i, monthStart := range starts {
		g.Go(func() error {
			monthEnd := monthStart.AddDate(0, 1, 0)
			receiptSum, err := s.receiptRepo.SumTotalsInRange(gctx, householdID, monthStart, monthEnd)
			if err != nil {
				return fmt.Errorf("failed to sum receipts for %s: %w", monthStart.Format("2006-01"), err)
			}
			expenseSum, err := s.expenseRepo.SumInRange(gctx, householdID, monthStart, monthEnd)
			if err != nil {
				return fmt.Errorf("failed to sum expenses for %s: %w", monthStart.Format("2006-01"), err)
			}
			trend[i] = dto.MonthAmountResponse{
				Year:   monthStart.Year(),
				Month:  int(monthStart.Month()),
				Label:  core.MonthLabel(monthStart.Month()),
				Amount: receiptSum + expenseSum,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return trend, nil
}

// ExportMonthly renders the month's buckets as an xlsx workbook.
func (s *ReportService) ExportMonthly(ctx context.Context, householdID uuid.UUID, yearMonth string) ([]byte, error) {
	report, err := s.Monthly(ctx, householdID, yearMonth)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Summary"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headers := []string{"Category", "Amount"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	row := 2
	for _, c := range report.Categories {
		nameCell, _ := excelize.CoordinatesToCellName(1, row)
		amountCell, _ := excelize.CoordinatesToCellName(2, row)
		if err := f.SetCellValue(sheet, nameCell, c.Label); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, amountCell, c.Amount); err != nil {
			return nil, err
		}
		row++
	}

	totalCell, _ := excelize.CoordinatesToCellName(1, row)
	totalValue, _ := excelize.CoordinatesToCellName(2, row)
	if err := f.SetCellValue(sheet, totalCell, "Total"); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(sheet, totalValue, report.Total); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
