package core

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yosuketsuboi/kakeibo-app/internal/models"
)

func TestMonthRange(t *testing.T) {
	start, end, err := MonthRange("2025-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), end)

	// December rolls over the year boundary.
	start, end, err = MonthRange("2024-12")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), end)

	_, _, err = MonthRange("2025-13")
	assert.Error(t, err)
	_, _, err = MonthRange("january")
	assert.Error(t, err)
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "1月", MonthLabel(time.January))
	assert.Equal(t, "12月", MonthLabel(time.December))
}

func TestCategoryTotals(t *testing.T) {
	catC := models.Category{ID: uuid.New(), Name: "食費", Color: "#ef4444"}
	cats := []models.Category{catC}

	// A receipt whose items are empty contributes nothing at the
	// category level, only its stored total feeds the trend.
	expenses := []models.ManualExpense{
		{ID: uuid.New(), CategoryID: &catC.ID, Amount: 300},
	}

	buckets := CategoryTotals(nil, expenses, cats)
	require.Len(t, buckets, 1)
	assert.Equal(t, "食費", buckets[0].Label)
	assert.Equal(t, "#ef4444", buckets[0].Color)
	assert.Equal(t, float64(300), buckets[0].Amount)
	assert.Equal(t, float64(300), SumCategoryTotals(buckets))
}

func TestCategoryTotalsMixedSources(t *testing.T) {
	catA := models.Category{ID: uuid.New(), Name: "食費", Color: "#ef4444"}
	catB := models.Category{ID: uuid.New(), Name: "日用品", Color: "#3b82f6"}
	cats := []models.Category{catA, catB}

	items := []models.ReceiptItem{
		item(2, 150, &catA.ID), // 300
		item(1, 100, nil),
	}
	expenses := []models.ManualExpense{
		{CategoryID: &catA.ID, Amount: 200},
		{CategoryID: &catB.ID, Amount: 450},
		{CategoryID: nil, Amount: 50},
	}

	buckets := CategoryTotals(items, expenses, cats)
	require.Len(t, buckets, 3)

	// 食費 500, 日用品 450, uncategorized 150, descending.
	assert.Equal(t, "食費", buckets[0].Label)
	assert.Equal(t, float64(500), buckets[0].Amount)
	assert.Equal(t, "日用品", buckets[1].Label)
	assert.Equal(t, float64(450), buckets[1].Amount)
	assert.Equal(t, UncategorizedLabel, buckets[2].Label)
	assert.Nil(t, buckets[2].CategoryID)
	assert.Equal(t, float64(150), buckets[2].Amount)

	assert.Equal(t, float64(1100), SumCategoryTotals(buckets))
}

func TestCategoryTotalsDanglingID(t *testing.T) {
	deleted := uuid.New()
	expenses := []models.ManualExpense{{CategoryID: &deleted, Amount: 700}}

	buckets := CategoryTotals(nil, expenses, nil)
	require.Len(t, buckets, 1)
	assert.Equal(t, OtherLabel, buckets[0].Label)
	assert.Equal(t, models.DefaultCategoryColor, buckets[0].Color)
	require.NotNil(t, buckets[0].CategoryID)
	assert.Equal(t, deleted, *buckets[0].CategoryID)
}

func TestCategoryTotalsEmpty(t *testing.T) {
	assert.Empty(t, CategoryTotals(nil, nil, nil))
	assert.Equal(t, float64(0), SumCategoryTotals(nil))
}

func TestTrendStarts(t *testing.T) {
	target := time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)
	starts := TrendStarts(target)
	require.Len(t, starts, TrendMonths)

	want := []string{"2024-10", "2024-11", "2024-12", "2025-01", "2025-02", "2025-03"}
	for i, s := range starts {
		assert.Equal(t, want[i], s.Format("2006-01"))
		assert.Equal(t, 1, s.Day())
	}

	// Each window is half-open against the next start.
	for i := 0; i < len(starts)-1; i++ {
		assert.Equal(t, starts[i].AddDate(0, 1, 0), starts[i+1])
	}
}
