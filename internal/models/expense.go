package models

import (
	"time"

	"github.com/google/uuid"
)

// ManualExpense is an expense entered directly, without a receipt. It
// participates in monthly aggregation alongside receipt items.
type ManualExpense struct {
	ID          uuid.UUID  `db:"id"`
	HouseholdID uuid.UUID  `db:"household_id"`
	UserID      uuid.UUID  `db:"user_id"`
	CategoryID  *uuid.UUID `db:"category_id"`
	Amount      float64    `db:"amount"`
	Description string     `db:"description"`
	ExpenseDate time.Time  `db:"expense_date"`
	CreatedAt   time.Time  `db:"created_at"`
}
