package utils

import "math"

// PaginationParams contains pagination parameters
type PaginationParams struct {
	Page     int
	PageSize int
	Offset   int
}

// Page is one window of a derived view
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// DefaultPageSize is the default number of items per page
const DefaultPageSize = 20

// MaxPageSize is the maximum number of items per page
const MaxPageSize = 500

// NewPaginationParams clamps page and pageSize into range. A pageSize of 0
// selects DefaultPageSize.
func NewPaginationParams(page, pageSize int) PaginationParams {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	// keep the offset representable
	if maxPage := math.MaxInt/pageSize + 1; page > maxPage {
		page = maxPage
	}

	return PaginationParams{
		Page:     page,
		PageSize: pageSize,
		Offset:   (page - 1) * pageSize,
	}
}

// Paginate returns the window of items selected by p. Pages past the end are empty.
func Paginate[T any](items []T, p PaginationParams) Page[T] {
	total := len(items)
	totalPages := total / p.PageSize
	if total%p.PageSize != 0 {
		totalPages++
	}

	start := p.Offset
	if start < 0 || start > total {
		start = total
	}
	end := start + p.PageSize
	if end < start || end > total {
		end = total
	}

	window := make([]T, end-start)
	copy(window, items[start:end])

	return Page[T]{
		Items:      window,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}
}
