package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/yosuketsuboi/kakeibo-app/internal/models"
)

type fakeReportItemStore struct {
	items []models.ReceiptItem
}

func (f *fakeReportItemStore) ListInRange(ctx context.Context, householdID uuid.UUID, start, end time.Time) ([]models.ReceiptItem, error) {
	return f.items, nil
}

type fakeReportExpenseStore struct {
	expenses []models.ManualExpense
	sums     map[string]float64
}

func (f *fakeReportExpenseStore) ListInRange(ctx context.Context, householdID uuid.UUID, start, end time.Time) ([]models.ManualExpense, error) {
	return f.expenses, nil
}

func (f *fakeReportExpenseStore) SumInRange(ctx context.Context, householdID uuid.UUID, start, end time.Time) (float64, error) {
	return f.sums[start.Format("2006-01")], nil
}

type fakeReportReceiptStore struct {
	sums map[string]float64
}

func (f *fakeReportReceiptStore) SumTotalsInRange(ctx context.Context, householdID uuid.UUID, start, end time.Time) (float64, error) {
	return f.sums[start.Format("2006-01")], nil
}

type fakeReportCategoryStore struct {
	categories []models.Category
}

func (f *fakeReportCategoryStore) ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]models.Category, error) {
	return f.categories, nil
}

func TestMonthlyReport(t *testing.T) {
	catC := models.Category{ID: uuid.New(), Name: "食費", Color: "#ef4444"}

	// One receipt with a stored total of 500 but no extracted items,
	// plus a manual expense of 300 in category C.
	svc := NewReportService(
		&fakeReportReceiptStore{sums: map[string]float64{"2025-01": 500}},
		&fakeReportItemStore{},
		&fakeReportExpenseStore{
			expenses: []models.ManualExpense{{CategoryID: &catC.ID, Amount: 300}},
			sums:     map[string]float64{"2025-01": 300},
		},
		&fakeReportCategoryStore{categories: []models.Category{catC}},
		zap.NewNop(),
	)

	report, err := svc.Monthly(context.Background(), uuid.New(), "2025-01")
	require.NoError(t, err)

	// The category breakdown only sees the manual expense.
	assert.Equal(t, float64(300), report.Total)
	require.Len(t, report.Categories, 1)
	assert.Equal(t, "食費", report.Categories[0].Label)
	assert.Equal(t, float64(300), report.Categories[0].Amount)

	// The trend sums stored receipt totals, so January shows 800.
	require.Len(t, report.Trend, 6)
	jan := report.Trend[5]
	assert.Equal(t, 2025, jan.Year)
	assert.Equal(t, 1, jan.Month)
	assert.Equal(t, "1月", jan.Label)
	assert.Equal(t, float64(800), jan.Amount)

	for _, m := range report.Trend[:5] {
		assert.Equal(t, float64(0), m.Amount)
	}
}

func TestMonthlyReportTrendOrder(t *testing.T) {
	svc := NewReportService(
		&fakeReportReceiptStore{sums: map[string]float64{"2024-12": 100, "2025-03": 900}},
		&fakeReportItemStore{},
		&fakeReportExpenseStore{sums: map[string]float64{}},
		&fakeReportCategoryStore{},
		zap.NewNop(),
	)

	report, err := svc.Monthly(context.Background(), uuid.New(), "2025-03")
	require.NoError(t, err)

	require.Len(t, report.Trend, 6)
	assert.Equal(t, 10, report.Trend[0].Month)
	assert.Equal(t, 2024, report.Trend[0].Year)
	assert.Equal(t, float64(100), report.Trend[2].Amount)
	assert.Equal(t, float64(900), report.Trend[5].Amount)
}

func TestMonthlyReportInvalidMonth(t *testing.T) {
	svc := NewReportService(
		&fakeReportReceiptStore{},
		&fakeReportItemStore{},
		&fakeReportExpenseStore{},
		&fakeReportCategoryStore{},
		zap.NewNop(),
	)

	_, err := svc.Monthly(context.Background(), uuid.New(), "not-a-month")
	assert.Error(t, err)
}

func TestExportMonthly(t *testing.T) {
	catA := models.Category{ID: uuid.New(), Name: "食費", Color: "#ef4444"}

	svc := NewReportService(
		&fakeReportReceiptStore{sums: map[string]float64{}},
		&fakeReportItemStore{items: []models.ReceiptItem{
			{Quantity: 2, UnitPrice: 150, CategoryID: &catA.ID},
		}},
		&fakeReportExpenseStore{sums: map[string]float64{}},
		&fakeReportCategoryStore{categories: []models.Category{catA}},
		zap.NewNop(),
	)

	data, err := svc.ExportMonthly(context.Background(), uuid.New(), "2025-01")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue("Summary", "A2")
	require.NoError(t, err)
	assert.Equal(t, "食費", name)

	amount, err := f.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "300", amount)

	total, err := f.GetCellValue("Summary", "A3")
	require.NoError(t, err)
	assert.Equal(t, "Total", total)
}
