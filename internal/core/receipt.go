// Package core holds the pure derived computations over receipts and
// expenses: reconciliation of a single receipt against its line items,
// and the cross-receipt monthly aggregation. Nothing here touches
// storage; everything is recomputed from loaded rows on demand.
package core

import (
	"sort"

	"github.com/google/uuid"

	"github.com/yosuketsuboi/kakeibo-app/internal/models"
	"github.com/yosuketsuboi/kakeibo-app/internal/ocr"
)

// UncategorizedLabel names the synthetic bucket for items whose
// category is absent or was deleted.
const UncategorizedLabel = "未分類"

// Mismatch describes a disagreement between the receipt's recorded
// total and the sum of its line items.
type Mismatch struct {
	TotalAmount float64 `json:"total_amount"`
	ItemsSum    float64 `json:"items_sum"`
	Delta       float64 `json:"delta"` // total_amount - items_sum
}

// CategorySubtotal is one reconciliation bucket. CategoryID is nil for
// the uncategorized bucket.
type CategorySubtotal struct {
	CategoryID *uuid.UUID `json:"category_id"`
	Label      string     `json:"label"`
	Color      string     `json:"color"`
	Amount     float64    `json:"amount"`
	ItemCount  int        `json:"item_count"`
}

// ReceiptView is the derived, never-persisted state a receipt detail
// view renders: banners, the mismatch warning and category subtotals.
// The truncation warning and processing banner are independent and may
// both be set at once.
type ReceiptView struct {
	Processing bool               `json:"processing"`
	Truncated  bool               `json:"truncated"`
	Mismatch   *Mismatch          `json:"mismatch,omitempty"`
	Subtotals  []CategorySubtotal `json:"subtotals,omitempty"`
}

// ItemsSum returns the receipt's effective total: the sum of
// quantity x unit_price over all items.
func ItemsSum(items []models.ReceiptItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Subtotal()
	}
	return sum
}

// BuildReceiptView computes the full reconciliation view for one loaded
// receipt.
func BuildReceiptView(r *models.Receipt, items []models.ReceiptItem, cats []models.Category) ReceiptView {
	view := ReceiptView{
		Processing: !r.OCRStatus.Terminal(),
	}

	// Truncation depends solely on the marker inside a deserializable
	// ocr_raw blob, never on status.
	if flags, ok := ocr.DecodeRawFlags(r.OCRRaw); ok {
		view.Truncated = flags.Truncated
	}

	if r.OCRStatus != models.OCRStatusProcessing && len(items) > 0 {
		view.Subtotals = Subtotals(items, cats)

		if r.TotalAmount != nil && *r.TotalAmount != 0 {
			sum := ItemsSum(items)
			if sum != *r.TotalAmount {
				view.Mismatch = &Mismatch{
					TotalAmount: *r.TotalAmount,
					ItemsSum:    sum,
					Delta:       *r.TotalAmount - sum,
				}
			}
		}
	}
	return view
}

// Subtotals groups items by category, summing quantity x unit_price per
// group. Items without a category (or with a dangling reference) fall
// into the uncategorized bucket. Groups are ordered by amount
// descending; ties keep original encounter order.
func Subtotals(items []models.ReceiptItem, cats []models.Category) []CategorySubtotal {
	byCat := make(map[uuid.UUID]*models.Category, len(cats))
	for i := range cats {
		byCat[cats[i].ID] = &cats[i]
	}

	index := make(map[uuid.UUID]int)
	uncatIndex := -1
	var groups []CategorySubtotal

	for _, it := range items {
		var cat *models.Category
		if it.CategoryID != nil {
			cat = byCat[*it.CategoryID]
		}
		if cat == nil {
			if uncatIndex == -1 {
				uncatIndex = len(groups)
				groups = append(groups, CategorySubtotal{
					Label: UncategorizedLabel,
					Color: models.DefaultCategoryColor,
				})
			}
			groups[uncatIndex].Amount += it.Subtotal()
			groups[uncatIndex].ItemCount++
			continue
		}
		pos, ok := index[cat.ID]
		if !ok {
			pos = len(groups)
			index[cat.ID] = pos
			id := cat.ID
			groups = append(groups, CategorySubtotal{
				CategoryID: &id,
				Label:      cat.Name,
				Color:      cat.Color,
			})
		}
		groups[pos].Amount += it.Subtotal()
		groups[pos].ItemCount++
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Amount > groups[j].Amount
	})
	return groups
}

// ItemFilter narrows the visible item list to one subtotal group.
// The zero value shows everything.
type ItemFilter struct {
	active        bool
	uncategorized bool
	categoryID    uuid.UUID
}

// Toggle handles a click on a subtotal group: selecting an inactive
// group activates it, clicking the already-active group clears the
// filter. A nil categoryID targets the uncategorized bucket.
func (f ItemFilter) Toggle(categoryID *uuid.UUID) ItemFilter {
	clicked := ItemFilter{active: true, uncategorized: categoryID == nil}
	if categoryID != nil {
		clicked.categoryID = *categoryID
	}
	if f == clicked {
		return ItemFilter{}
	}
	return clicked
}

// Clear resets the filter unconditionally.
func (f ItemFilter) Clear() ItemFilter {
	return ItemFilter{}
}

// Active reports whether the filter is narrowing the list.
func (f ItemFilter) Active() bool {
	return f.active
}

// Apply returns the items visible under the filter. An item whose
// category id does not resolve against cats belongs to the
// uncategorized bucket, the same grouping Subtotals uses.
func (f ItemFilter) Apply(items []models.ReceiptItem, cats []models.Category) []models.ReceiptItem {
	if !f.active {
		return items
	}
	known := make(map[uuid.UUID]bool, len(cats))
	for _, c := range cats {
		known[c.ID] = true
	}
	var out []models.ReceiptItem
	for _, it := range items {
		uncategorized := it.CategoryID == nil || !known[*it.CategoryID]
		switch {
		case f.uncategorized && uncategorized:
			out = append(out, it)
		case !f.uncategorized && !uncategorized && *it.CategoryID == f.categoryID:
			out = append(out, it)
		}
	}
	return out
}
