package domain

// PaginatedResult is a page of items together with the size of the whole visible set.
type PaginatedResult[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"totalItems"`
	Page       int   `json:"page"`
	Limit      int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

// NewPaginatedResult builds a PaginatedResult and derives the page count.
func NewPaginatedResult[T any](items []T, total int64, page, limit int) PaginatedResult[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return PaginatedResult[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}

// Offset returns the row offset for a 1-based page.
func Offset(page, limit int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * limit
}
