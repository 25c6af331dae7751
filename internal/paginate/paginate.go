// Package paginate slices ordered result sets into fixed-size pages.
//
// Page numbers come straight from the query string: anything that is not an
// integer selects the first page, and numbers outside [1, NumPages] select
// the last page. An empty result set still has one (empty) page.
package paginate

import (
	"strconv"
	"strings"
)

// DefaultPerPage is the page size used when none is configured
const DefaultPerPage = 10

// Page is one window of an ordered result set
type Page[T any] struct {
	Items    []T
	Number   int
	NumPages int
	PerPage  int
	Count    int64
}

// CountFunc reports the total size of the result set
type CountFunc func() (int64, error)

// FetchFunc loads limit items starting at offset
type FetchFunc[T any] func(limit, offset int) ([]T, error)

// Load resolves the requested page number against the result set size and
// fetches just that window
func Load[T any](raw string, perPage int, count CountFunc, fetch FetchFunc[T]) (*Page[T], error) {
	if perPage < 1 {
		perPage = DefaultPerPage
	}

	total, err := count()
	if err != nil {
		return nil, err
	}

	numPages := NumPages(total, perPage)
	number := Resolve(raw, numPages)

	items, err := fetch(perPage, (number-1)*perPage)
	if err != nil {
		return nil, err
	}

	return &Page[T]{
		Items:    items,
		Number:   number,
		NumPages: numPages,
		PerPage:  perPage,
		Count:    total,
	}, nil
}

// FromSlice paginates an in-memory sequence
func FromSlice[T any](items []T, raw string, perPage int) *Page[T] {
	page, _ := Load(raw, perPage,
		func() (int64, error) { return int64(len(items)), nil },
		func(limit, offset int) ([]T, error) {
			end := offset + limit
			if end > len(items) {
				end = len(items)
			}
			return items[offset:end], nil
		},
	)
	return page
}

// NumPages is ceil(count/perPage), never less than one
func NumPages(count int64, perPage int) int {
	if count <= 0 || perPage < 1 {
		return 1
	}
	return int((count + int64(perPage) - 1) / int64(perPage))
}

// Resolve turns a raw page parameter into a valid page number
func Resolve(raw string, numPages int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	if n < 1 || n > numPages {
		return numPages
	}
	return n
}

func (p *Page[T]) HasNext() bool {
	return p.Number < p.NumPages
}

func (p *Page[T]) HasPrevious() bool {
	return p.Number > 1
}

func (p *Page[T]) HasOtherPages() bool {
	return p.NumPages > 1
}

func (p *Page[T]) NextNumber() int {
	return p.Number + 1
}

func (p *Page[T]) PreviousNumber() int {
	return p.Number - 1
}

// PageRange lists every page number, for rendering the page links
func (p *Page[T]) PageRange() []int {
	pages := make([]int, p.NumPages)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}

// StartIndex is the 1-based position of the first item on the page
func (p *Page[T]) StartIndex() int64 {
	if p.Count == 0 {
		return 0
	}
	return int64(p.Number-1)*int64(p.PerPage) + 1
}
