// Package listing holds the generic filter, sort and pagination helpers shared
// by the paged API views.
package listing

import "slices"

// DefaultPageSize applies when a caller passes a non-positive page size.
const DefaultPageSize = 10

// Page is one window of a larger result set.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Paginate slices items into the requested page. The page number is clamped
// into [1, TotalPages]; an empty input still reports one page.
func Paginate[T any](items []T, page, size int) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	n := len(items)
	totalPages := max(1, (n+size-1)/size)
	page = min(max(page, 1), totalPages)

	start := min((page-1)*size, n)
	end := min(page*size, n)
	window := make([]T, end-start)
	copy(window, items[start:end])

	return Page[T]{
		Items:      window,
		Page:       page,
		PageSize:   size,
		Total:      n,
		TotalPages: totalPages,
	}
}

// SortDesc orders items by key, largest first. Equal keys keep their input order.
func SortDesc[T any](items []T, key func(T) int) {
	slices.SortStableFunc(items, func(a, b T) int {
		return key(b) - key(a)
	})
}

// Filter returns the items for which keep reports true, in input order.
func Filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
