package models

import (
	"time"

	"github.com/google/uuid"
)

// OCRStatus is the lifecycle stage of automatic receipt extraction.
// It only moves forward (pending -> processing -> done|error) except
// on manual edit, which forces done.
type OCRStatus string

const (
	OCRStatusPending    OCRStatus = "pending"
	OCRStatusProcessing OCRStatus = "processing"
	OCRStatusDone       OCRStatus = "done"
	OCRStatusError      OCRStatus = "error"
)

// Terminal reports whether the status is one a poller can stop on.
func (s OCRStatus) Terminal() bool {
	return s == OCRStatusDone || s == OCRStatusError
}

// Receipt is one photographed purchase. ImagePath is set at creation and
// never null. OCRRaw holds the extraction payload as stored: valid JSON
// after a successful run (possibly carrying the _truncated marker), or
// the model's raw text after a parse failure, or nil.
type Receipt struct {
	ID          uuid.UUID  `db:"id"`
	HouseholdID uuid.UUID  `db:"household_id"`
	UserID      uuid.UUID  `db:"user_id"`
	ImagePath   string     `db:"image_path"`
	StoreName   *string    `db:"store_name"`
	TotalAmount *float64   `db:"total_amount"`
	PurchasedAt *time.Time `db:"purchased_at"`
	OCRStatus   OCRStatus  `db:"ocr_status"`
	OCRRaw      []byte     `db:"ocr_raw"`
	CreatedAt   time.Time  `db:"created_at"`
}

// ReceiptItem is one line item owned by exactly one Receipt. Items are
// replaced wholesale on every manual save, never patched incrementally.
type ReceiptItem struct {
	ID         uuid.UUID  `db:"id"`
	ReceiptID  uuid.UUID  `db:"receipt_id"`
	Name       string     `db:"name"`
	Quantity   float64    `db:"quantity"`
	UnitPrice  float64    `db:"unit_price"`
	CategoryID *uuid.UUID `db:"category_id"`
	CreatedAt  time.Time  `db:"created_at"`
}

// Subtotal is the item's contribution to the receipt's effective total.
// Derived, never stored.
func (i ReceiptItem) Subtotal() float64 {
	return i.Quantity * i.UnitPrice
}
