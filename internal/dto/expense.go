package dto

type CreateExpenseRequest struct {
	CategoryID  *string `json:"category_id" validate:"omitempty,uuid"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Description string  `json:"description" validate:"max=200"`
	ExpenseDate string  `json:"expense_date" validate:"required,datetime=2006-01-02"`
}

type UpdateExpenseRequest struct {
	CategoryID  *string `json:"category_id" validate:"omitempty,uuid"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Description string  `json:"description" validate:"max=200"`
	ExpenseDate string  `json:"expense_date" validate:"required,datetime=2006-01-02"`
}

type ExpenseResponse struct {
	ID          string  `json:"id"`
	CategoryID  *string `json:"category_id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	ExpenseDate string  `json:"expense_date"`
	CreatedAt   string  `json:"created_at"`
}
