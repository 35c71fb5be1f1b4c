package core

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yosuketsuboi/kakeibo-app/internal/models"
)

func f64(v float64) *float64 { return &v }

func item(qty, price float64, categoryID *uuid.UUID) models.ReceiptItem {
	return models.ReceiptItem{ID: uuid.New(), Quantity: qty, UnitPrice: price, CategoryID: categoryID}
}

func TestBuildReceiptViewMismatch(t *testing.T) {
	catA := models.Category{ID: uuid.New(), Name: "食費", Color: "#ef4444"}
	cats := []models.Category{catA}
	items := []models.ReceiptItem{
		item(1, 200, &catA.ID),
		item(2, 150, &catA.ID),
	}

	r := &models.Receipt{OCRStatus: models.OCRStatusDone, TotalAmount: f64(1000)}
	view := BuildReceiptView(r, items, cats)

	require.NotNil(t, view.Mismatch)
	assert.Equal(t, float64(1000), view.Mismatch.TotalAmount)
	assert.Equal(t, float64(500), view.Mismatch.ItemsSum)
	assert.Equal(t, float64(500), view.Mismatch.Delta)

	require.Len(t, view.Subtotals, 1)
	assert.Equal(t, float64(500), view.Subtotals[0].Amount)
	assert.Equal(t, "食費", view.Subtotals[0].Label)

	// Matching total: no mismatch warning.
	r.TotalAmount = f64(500)
	view = BuildReceiptView(r, items, cats)
	assert.Nil(t, view.Mismatch)
}

func TestBuildReceiptViewMismatchSuppressed(t *testing.T) {
	catA := uuid.New()
	items := []models.ReceiptItem{item(1, 200, &catA)}

	cases := []struct {
		name    string
		receipt models.Receipt
		items   []models.ReceiptItem
	}{
		{"processing status", models.Receipt{OCRStatus: models.OCRStatusProcessing, TotalAmount: f64(1000)}, items},
		{"nil total", models.Receipt{OCRStatus: models.OCRStatusDone}, items},
		{"zero total", models.Receipt{OCRStatus: models.OCRStatusDone, TotalAmount: f64(0)}, items},
		{"no items", models.Receipt{OCRStatus: models.OCRStatusDone, TotalAmount: f64(1000)}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			view := BuildReceiptView(&tc.receipt, tc.items, nil)
			assert.Nil(t, view.Mismatch)
		})
	}
}

func TestBuildReceiptViewBanners(t *testing.T) {
	pending := &models.Receipt{OCRStatus: models.OCRStatusPending}
	assert.True(t, BuildReceiptView(pending, nil, nil).Processing)

	processing := &models.Receipt{OCRStatus: models.OCRStatusProcessing}
	assert.True(t, BuildReceiptView(processing, nil, nil).Processing)

	done := &models.Receipt{OCRStatus: models.OCRStatusDone}
	assert.False(t, BuildReceiptView(done, nil, nil).Processing)
}

func TestBuildReceiptViewTruncation(t *testing.T) {
	// Visibility depends solely on the marker, independent of status.
	marked := []byte(`{"store_name":"X","_truncated":true}`)

	for _, status := range []models.OCRStatus{
		models.OCRStatusPending, models.OCRStatusProcessing, models.OCRStatusDone, models.OCRStatusError,
	} {
		r := &models.Receipt{OCRStatus: status, OCRRaw: marked}
		assert.True(t, BuildReceiptView(r, nil, nil).Truncated, "status %s", status)
	}

	// Both banners may show at once while stale truncated data remains.
	r := &models.Receipt{OCRStatus: models.OCRStatusProcessing, OCRRaw: marked}
	view := BuildReceiptView(r, nil, nil)
	assert.True(t, view.Processing)
	assert.True(t, view.Truncated)

	// Absent, unmarked or non-JSON raw never triggers the warning.
	for _, raw := range [][]byte{nil, []byte(`{"store_name":"X"}`), []byte("raw model text")} {
		r := &models.Receipt{OCRStatus: models.OCRStatusError, OCRRaw: raw}
		assert.False(t, BuildReceiptView(r, nil, nil).Truncated)
	}
}

func TestSubtotalsOrderingAndPartition(t *testing.T) {
	catA := models.Category{ID: uuid.New(), Name: "食費", Color: "#ef4444"}
	catB := models.Category{ID: uuid.New(), Name: "日用品", Color: "#3b82f6"}
	cats := []models.Category{catA, catB}

	items := []models.ReceiptItem{
		item(1, 300, &catB.ID),
		item(2, 400, &catA.ID), // 800
		item(1, 500, nil),
	}

	groups := Subtotals(items, cats)
	require.Len(t, groups, 3)
	assert.Equal(t, []float64{800, 500, 300}, []float64{groups[0].Amount, groups[1].Amount, groups[2].Amount})
	assert.Equal(t, "食費", groups[0].Label)
	assert.Equal(t, UncategorizedLabel, groups[1].Label)
	assert.Nil(t, groups[1].CategoryID)
	assert.Equal(t, "日用品", groups[2].Label)

	// Bucket amounts always sum to the receipt's item sum.
	var total float64
	for _, g := range groups {
		total += g.Amount
	}
	assert.Equal(t, ItemsSum(items), total)
}

func TestSubtotalsTiesKeepEncounterOrder(t *testing.T) {
	catA := models.Category{ID: uuid.New(), Name: "A"}
	catB := models.Category{ID: uuid.New(), Name: "B"}
	items := []models.ReceiptItem{
		item(1, 100, &catB.ID),
		item(1, 100, &catA.ID),
	}

	groups := Subtotals(items, []models.Category{catA, catB})
	require.Len(t, groups, 2)
	assert.Equal(t, "B", groups[0].Label)
	assert.Equal(t, "A", groups[1].Label)
}

func TestSubtotalsDanglingCategoryIsUncategorized(t *testing.T) {
	deleted := uuid.New()
	groups := Subtotals([]models.ReceiptItem{item(1, 250, &deleted)}, nil)
	require.Len(t, groups, 1)
	assert.Equal(t, UncategorizedLabel, groups[0].Label)
	assert.Equal(t, float64(250), groups[0].Amount)
}

func TestItemFilterToggle(t *testing.T) {
	catA := uuid.New()
	cats := []models.Category{{ID: catA, Name: "食費"}}
	items := []models.ReceiptItem{
		item(1, 100, &catA),
		item(1, 200, nil),
	}

	var f ItemFilter
	assert.False(t, f.Active())
	assert.Len(t, f.Apply(items, cats), 2)

	f = f.Toggle(&catA)
	require.True(t, f.Active())
	visible := f.Apply(items, cats)
	require.Len(t, visible, 1)
	assert.Equal(t, float64(100), visible[0].UnitPrice)

	// Selecting the uncategorized bucket switches the filter.
	f = f.Toggle(nil)
	visible = f.Apply(items, cats)
	require.Len(t, visible, 1)
	assert.Nil(t, visible[0].CategoryID)

	// Clicking the active group again clears it.
	f = f.Toggle(nil)
	assert.False(t, f.Active())
	assert.Len(t, f.Apply(items, cats), 2)

	// Clear resets unconditionally.
	f = f.Toggle(&catA).Clear()
	assert.False(t, f.Active())
}

func TestItemFilterDanglingCategoryFollowsBucket(t *testing.T) {
	catA := uuid.New()
	deleted := uuid.New()
	cats := []models.Category{{ID: catA, Name: "食費"}}
	items := []models.ReceiptItem{
		item(1, 100, &catA),
		item(1, 200, nil),
		item(1, 300, &deleted),
	}

	// The dangling reference lands in the uncategorized bucket of
	// Subtotals; the uncategorized filter must show the same two items.
	groups := Subtotals(items, cats)
	var uncat CategorySubtotal
	for _, g := range groups {
		if g.CategoryID == nil {
			uncat = g
		}
	}
	require.Equal(t, 2, uncat.ItemCount)

	f := ItemFilter{}.Toggle(nil)
	visible := f.Apply(items, cats)
	assert.Len(t, visible, uncat.ItemCount)

	// And the deleted id never matches a category filter.
	f = ItemFilter{}.Toggle(&deleted)
	assert.Empty(t, f.Apply(items, cats))
}
