// Package pagination provides stable slicing over an already-ordered result set.
package pagination

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPerPage is returned when perPage is below 1
	ErrInvalidPerPage = errors.New("perPage must be at least 1")
	// ErrPageOutOfRange is returned when page is below 1 or past the last page
	ErrPageOutOfRange = errors.New("page out of range")
)

// Page holds one page of data along with pagination metadata.
type Page[T any] struct {
	Items       []T  `json:"items"`
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalItems  int  `json:"totalItems"`
	PerPage     int  `json:"perPage"`
	HasPrev     bool `json:"hasPrev"`
	HasNext     bool `json:"hasNext"`
}

// TotalPages returns ceil(total / perPage)
func TotalPages(total, perPage int) int {
	if perPage < 1 || total <= 0 {
		return 0
	}
	pages := total / perPage
	if total%perPage != 0 {
		pages++
	}
	return pages
}

// Paginate returns the page-th slice of items. Out-of-range pages are errors
// rather than clamped, except page 1 of an empty set which yields no items.
// The returned slice shares storage with items but cannot be appended into it.
func Paginate[T any](items []T, page, perPage int) (Page[T], error) {
	if perPage < 1 {
		return Page[T]{}, fmt.Errorf("%w: got %d", ErrInvalidPerPage, perPage)
	}

	total := len(items)
	totalPages := TotalPages(total, perPage)

	if page < 1 || (page > totalPages && !(page == 1 && total == 0)) {
		return Page[T]{}, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, page, totalPages)
	}

	offset := (page - 1) * perPage
	end := min(offset+perPage, total)
	slice := []T{}
	if offset < end {
		slice = items[offset:end:end]
	}

	return Page[T]{
		Items:       slice,
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		PerPage:     perPage,
		HasPrev:     page > 1,
		HasNext:     page < totalPages,
	}, nil
}
