package domain

// PageMetadata пересчитывается бэкендом на каждый запрос, клиент трактует её как read-only.
type PageMetadata struct {
	TotalItems  int  `json:"total_items"`
	TotalPages  int  `json:"total_pages"`
	CurrentPage int  `json:"current_page"`
	PageSize    int  `json:"page_size"`
	HasPrevious bool `json:"has_previous"`
	HasNext     bool `json:"has_next"`
}

// Contains проверяет, что страница n существует.
func (m PageMetadata) Contains(n int) bool {
	return n >= 1 && n <= m.TotalPages
}

// TransactionsPage — ответ GET /transactions.
type TransactionsPage struct {
	Data       []Transaction `json:"data"`
	Pagination PageMetadata  `json:"pagination"`
}
