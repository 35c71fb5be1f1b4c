package dto

type ReceiptItemRequest struct {
	Name       string  `json:"name" validate:"required,max=200"`
	Quantity   float64 `json:"quantity" validate:"gt=0"`
	UnitPrice  float64 `json:"unit_price" validate:"gte=0"`
	CategoryID *string `json:"category_id" validate:"omitempty,uuid"`
}

// SaveReceiptRequest replaces the receipt header and its whole item
// list in one call.
type SaveReceiptRequest struct {
	StoreName   *string              `json:"store_name" validate:"omitempty,max=200"`
	TotalAmount *float64             `json:"total_amount" validate:"omitempty,gte=0"`
	PurchasedAt *string              `json:"purchased_at" validate:"omitempty,datetime=2006-01-02"`
	Items       []ReceiptItemRequest `json:"items" validate:"dive"`
}

type ReceiptItemResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	Subtotal   float64 `json:"subtotal"`
	CategoryID *string `json:"category_id"`
}

type ReceiptResponse struct {
	ID          string   `json:"id"`
	HouseholdID string   `json:"household_id"`
	ImageURL    string   `json:"image_url"`
	StoreName   *string  `json:"store_name"`
	TotalAmount *float64 `json:"total_amount"`
	PurchasedAt *string  `json:"purchased_at"`
	OCRStatus   string   `json:"ocr_status"`
	CreatedAt   string   `json:"created_at"`
}

type MismatchResponse struct {
	TotalAmount float64 `json:"total_amount"`
	ItemsSum    float64 `json:"items_sum"`
	Delta       float64 `json:"delta"`
}

type CategorySubtotalResponse struct {
	CategoryID *string `json:"category_id"`
	Label      string  `json:"label"`
	Color      string  `json:"color"`
	Amount     float64 `json:"amount"`
	ItemCount  int     `json:"item_count"`
}

// ReceiptDetailResponse is the reconciliation view: the stored row plus
// the derived banners, subtotals and mismatch warning.
type ReceiptDetailResponse struct {
	Receipt    ReceiptResponse            `json:"receipt"`
	Items      []ReceiptItemResponse      `json:"items"`
	Processing bool                       `json:"processing"`
	Truncated  bool                       `json:"truncated"`
	Mismatch   *MismatchResponse          `json:"mismatch,omitempty"`
	Subtotals  []CategorySubtotalResponse `json:"subtotals"`
}
