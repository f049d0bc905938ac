// Package page carries the paging contract shared by every repository:
// a validated page request (number, size, sort field, direction) and a
// bounded page of results with its totals.
package page

import (
	"errors"
	"fmt"
)

const (
	DirectionAsc  = "ASC"
	DirectionDesc = "DESC"
)

var (
	ErrInvalidPage      = errors.New("page number must be zero or greater")
	ErrInvalidSize      = errors.New("page size must be greater than zero")
	ErrInvalidDirection = errors.New("sort direction must be ASC or DESC")
	ErrInvalidSortField = errors.New("sort field is not allowed for this resource")
)

// Request describes one page of a larger result set. Page numbering
// starts at zero.
type Request struct {
	Page      int
	Size      int
	SortBy    string
	Direction string
}

// Validate checks the request against the allowed sort fields of the
// resource being queried. The sort field whitelist exists because the
// field is interpolated into an ORDER BY clause.
func (r Request) Validate(allowedSortFields ...string) error {
	if r.Page < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidPage, r.Page)
	}
	if r.Size <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidSize, r.Size)
	}
	if r.Direction != DirectionAsc && r.Direction != DirectionDesc {
		return fmt.Errorf("%w: got %q", ErrInvalidDirection, r.Direction)
	}
	for _, f := range allowedSortFields {
		if r.SortBy == f {
			return nil
		}
	}
	return fmt.Errorf("%w: got %q", ErrInvalidSortField, r.SortBy)
}

// Offset returns the row offset for the request.
func (r Request) Offset() int {
	return r.Page * r.Size
}

// Page is a bounded, sorted slice of a larger result set plus its
// metadata.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
}

// New builds a Page from the content of one request and the total row
// count reported by the store.
func New[T any](content []T, req Request, totalElements int64) Page[T] {
	totalPages := 0
	if totalElements > 0 {
		totalPages = int((totalElements + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Content:       content,
		Number:        req.Page,
		Size:          req.Size,
		TotalElements: totalElements,
		TotalPages:    totalPages,
	}
}
