package dto

type CreateCategoryRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	Color     string `json:"color" validate:"omitempty,hexcolor"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
}

type UpdateCategoryRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	Color     string `json:"color" validate:"omitempty,hexcolor"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
}

type CategoryResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	SortOrder int    `json:"sort_order"`
	CreatedAt string `json:"created_at"`
}
