package dto

// Paged is the envelope for paged listing queries.
type Paged[T any] struct {
	Items       []T  `json:"items"`
	Page        int  `json:"page"`
	Size        int  `json:"size"`
	TotalItems  int  `json:"total_items"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// NewPaged computes page bookkeeping from the unpaged total.
func NewPaged[T any](items []T, page, size, total int) Paged[T] {
	if size < 1 {
		size = 1
	}
	totalPages := (total + size - 1) / size
	return Paged[T]{
		Items:       items,
		Page:        page,
		Size:        size,
		TotalItems:  total,
		TotalPages:  totalPages,
		HasNext:     page+1 < totalPages,
		HasPrevious: page > 0 && total > 0,
	}
}
