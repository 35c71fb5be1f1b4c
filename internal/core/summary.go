package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yosuketsuboi/kakeibo-app/internal/models"
)

// OtherLabel is used when a bucket's category id no longer resolves
// against the household's category list.
const OtherLabel = "その他"

// TrendMonths is the length of the trailing monthly trend series.
const TrendMonths = 6

// CategoryAmount is one monthly aggregation bucket, already labeled.
type CategoryAmount struct {
	CategoryID *uuid.UUID `json:"category_id"`
	Label      string     `json:"label"`
	Color      string     `json:"color"`
	Amount     float64    `json:"amount"`
}

// MonthAmount is one point of the monthly trend series.
type MonthAmount struct {
	Year   int     `json:"year"`
	Month  int     `json:"month"`
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// MonthRange parses a "YYYY-MM" string into the half-open range
// [month-01, next-month-01).
func MonthRange(yearMonth string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", yearMonth)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid year-month %q: %w", yearMonth, err)
	}
	return start, start.AddDate(0, 1, 0), nil
}

// MonthLabel renders a month number the way the dashboard shows it.
func MonthLabel(month time.Month) string {
	return fmt.Sprintf("%d月", int(month))
}

// CategoryTotals builds the per-category monthly buckets: every receipt
// item contributes quantity x unit_price, every manual expense its
// amount. Null or dangling category references land in the
// uncategorized bucket; ids missing from the category list are labeled
// as OtherLabel. Categories with no contributions are omitted. Output
// is sorted by amount descending, ties in encounter order.
func CategoryTotals(items []models.ReceiptItem, expenses []models.ManualExpense, cats []models.Category) []CategoryAmount {
	byCat := make(map[uuid.UUID]*models.Category, len(cats))
	for i := range cats {
		byCat[cats[i].ID] = &cats[i]
	}

	index := make(map[uuid.UUID]int)
	uncatIndex := -1
	var buckets []CategoryAmount

	add := func(categoryID *uuid.UUID, amount float64) {
		if categoryID == nil {
			if uncatIndex == -1 {
				uncatIndex = len(buckets)
				buckets = append(buckets, CategoryAmount{
					Label: UncategorizedLabel,
					Color: models.DefaultCategoryColor,
				})
			}
			buckets[uncatIndex].Amount += amount
			return
		}
		pos, ok := index[*categoryID]
		if !ok {
			pos = len(buckets)
			index[*categoryID] = pos
			id := *categoryID
			bucket := CategoryAmount{CategoryID: &id, Label: OtherLabel, Color: models.DefaultCategoryColor}
			if cat := byCat[id]; cat != nil {
				bucket.Label = cat.Name
				bucket.Color = cat.Color
			}
			buckets = append(buckets, bucket)
		}
		buckets[pos].Amount += amount
	}

	for _, it := range items {
		add(it.CategoryID, it.Subtotal())
	}
	for _, e := range expenses {
		add(e.CategoryID, e.Amount)
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Amount > buckets[j].Amount
	})
	return buckets
}

// SumCategoryTotals is the month total: the sum over all buckets. This
// is intentionally the item-level sum, not the sum of stored receipt
// totals, and may diverge from the trend figure for the same month when
// a receipt's total disagrees with its items.
func SumCategoryTotals(buckets []CategoryAmount) float64 {
	var sum float64
	for _, b := range buckets {
		sum += b.Amount
	}
	return sum
}

// TrendStarts returns the first-of-month timestamps for the trailing
// trend window ending at (and including) the given month.
func TrendStarts(target time.Time) []time.Time {
	starts := make([]time.Time, TrendMonths)
	first := time.Date(target.Year(), target.Month(), 1, 0, 0, 0, 0, target.Location())
	for i := 0; i < TrendMonths; i++ {
		starts[i] = first.AddDate(0, i-(TrendMonths-1), 0)
	}
	return starts
}
