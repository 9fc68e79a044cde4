package paging

import "errors"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var ErrInvalidPage = errors.New("page must be >= 1 and page_size between 1 and 100")

type Request struct {
	Page     int
	PageSize int
}

// Normalize fills defaults for zero values and rejects out-of-range input.
func (r Request) Normalize() (Request, error) {
	if r.Page == 0 {
		r.Page = 1
	}
	if r.PageSize == 0 {
		r.PageSize = DefaultPageSize
	}
	if r.Page < 1 || r.PageSize < 1 || r.PageSize > MaxPageSize {
		return r, ErrInvalidPage
	}
	return r, nil
}

func (r Request) Offset() int { return (r.Page - 1) * r.PageSize }

type Result[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

func NewResult[T any](items []T, total int64, r Request) *Result[T] {
	if items == nil {
		items = []T{}
	}
	return &Result[T]{Items: items, Total: total, Page: r.Page, PageSize: r.PageSize}
}

// Map converts a slice with fn, used to turn entities into DTOs.
func Map[S, T any](in []S, fn func(*S) T) []T {
	out := make([]T, 0, len(in))
	for i := range in {
		out = append(out, fn(&in[i]))
	}
	return out
}
