package dto

type CategoryAmountResponse struct {
	CategoryID *string `json:"category_id"`
	Label      string  `json:"label"`
	Color      string  `json:"color"`
	Amount     float64 `json:"amount"`
}

type MonthAmountResponse struct {
	Year   int     `json:"year"`
	Month  int     `json:"month"`
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// MonthlyReportResponse is the dashboard payload for one month.
type MonthlyReportResponse struct {
	Month      string                   `json:"month"`
	Total      float64                  `json:"total"`
	Categories []CategoryAmountResponse `json:"categories"`
	Trend      []MonthAmountResponse    `json:"trend"`
}
