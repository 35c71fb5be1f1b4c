package ocr

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ItemNameFallback is the sentinel used when the model omits an item name.
const ItemNameFallback = "不明"

// ExtractionResult is the typed form of the vision model's payload after
// parsing, repair and field defaulting. Truncated is decoded from (or
// injected into) the _truncated marker of the raw JSON blob, so callers
// never probe the blob ad hoc.
type ExtractionResult struct {
	StoreName   *string
	TotalAmount *float64
	PurchasedAt *time.Time
	Items       []ExtractedItem
	Truncated   bool
}

// ExtractedItem is one line item with the documented defaults already
// applied: name falls back to the sentinel, absent or falsy quantity
// becomes 1, absent unit price becomes 0, and an absent or malformed
// category id becomes nil.
type ExtractedItem struct {
	Name       string
	Quantity   float64
	UnitPrice  float64
	CategoryID *uuid.UUID
}

type wireItem struct {
	Name       *string  `json:"name"`
	Quantity   *float64 `json:"quantity"`
	UnitPrice  *float64 `json:"unit_price"`
	CategoryID *string  `json:"category_id"`
}

type wirePayload struct {
	StoreName   *string    `json:"store_name"`
	PurchasedAt *string    `json:"purchased_at"`
	TotalAmount *float64   `json:"total_amount"`
	Items       []wireItem `json:"items"`
	Truncated   bool       `json:"_truncated"`
}

// Decode converts a parsed payload object into an ExtractionResult,
// applying the field defaults. The object is the map returned by Parse,
// possibly with the _truncated marker already injected.
func Decode(obj map[string]any) (*ExtractionResult, error) {
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	var p wirePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}

	res := &ExtractionResult{
		StoreName:   p.StoreName,
		TotalAmount: p.TotalAmount,
		Truncated:   p.Truncated,
	}
	if p.PurchasedAt != nil {
		if d, err := time.Parse("2006-01-02", *p.PurchasedAt); err == nil {
			res.PurchasedAt = &d
		}
	}
	for _, it := range p.Items {
		item := ExtractedItem{Name: ItemNameFallback, Quantity: 1}
		if it.Name != nil && *it.Name != "" {
			item.Name = *it.Name
		}
		if it.Quantity != nil && *it.Quantity != 0 {
			item.Quantity = *it.Quantity
		}
		if it.UnitPrice != nil {
			item.UnitPrice = *it.UnitPrice
		}
		if it.CategoryID != nil {
			if id, err := uuid.Parse(*it.CategoryID); err == nil {
				item.CategoryID = &id
			}
		}
		res.Items = append(res.Items, item)
	}
	return res, nil
}

// RawFlags is the control part of a stored ocr_raw blob.
type RawFlags struct {
	Truncated bool `json:"_truncated"`
}

// DecodeRawFlags reads the _truncated marker from a stored ocr_raw blob.
// The second return is false when the blob is absent or is not a JSON
// object (e.g. raw text preserved after a parse failure).
func DecodeRawFlags(raw []byte) (RawFlags, bool) {
	if len(raw) == 0 {
		return RawFlags{}, false
	}
	var f RawFlags
	if err := json.Unmarshal(raw, &f); err != nil {
		return RawFlags{}, false
	}
	return f, true
}
