package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is a household-scoped spending label. Deleting a category
// never cascades to items or expenses; their references become null.
type Category struct {
	ID          uuid.UUID `db:"id"`
	HouseholdID uuid.UUID `db:"household_id"`
	Name        string    `db:"name"`
	Color       string    `db:"color"`
	SortOrder   int       `db:"sort_order"`
	CreatedAt   time.Time `db:"created_at"`
}

// DefaultCategoryColor matches the color given to seeded and
// uncategorized entries.
const DefaultCategoryColor = "#94a3b8"
