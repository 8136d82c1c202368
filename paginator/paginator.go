package paginator

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrInvalidPage is the base error both failure modes wrap, so callers
	// can match either with a single errors.Is.
	ErrInvalidPage      = errors.New("invalid page")
	ErrEmptyPage        = fmt.Errorf("%w: page contains no results", ErrInvalidPage)
	ErrPageNotAnInteger = fmt.Errorf("%w: page number is not an integer", ErrInvalidPage)
)

type (
	// Paginator slices an already-materialized item list into fixed-size
	// pages. Page numbers are 1-based.
	Paginator[T any] struct {
		items   []T
		perPage int
	}

	Page[T any] struct {
		Number int

		items     []T
		paginator *Paginator[T]
	}
)

func New[T any](items []T, perPage int) *Paginator[T] {
	if perPage < 1 {
		perPage = 1
	}
	return &Paginator[T]{
		items:   items,
		perPage: perPage,
	}
}

func (p *Paginator[T]) Count() int {
	return len(p.items)
}

func (p *Paginator[T]) PerPage() int {
	return p.perPage
}

// NumPages reports at least 1, an empty list still has a first page.
func (p *Paginator[T]) NumPages() int {
	if len(p.items) == 0 {
		return 1
	}
	return (len(p.items) + p.perPage - 1) / p.perPage
}

// PageRange returns the full range of valid page numbers, 1..NumPages.
func (p *Paginator[T]) PageRange() []int {
	pages := make([]int, p.NumPages())
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}

func (p *Paginator[T]) Page(number int) (*Page[T], error) {
	if number < 1 {
		return nil, fmt.Errorf("page %d is less than 1: %w", number, ErrEmptyPage)
	}
	if number > p.NumPages() {
		return nil, fmt.Errorf("page %d of %d: %w", number, p.NumPages(), ErrEmptyPage)
	}
	start := (number - 1) * p.perPage
	end := start + p.perPage
	if end > len(p.items) {
		end = len(p.items)
	}
	return &Page[T]{
		Number:    number,
		items:     p.items[start:end],
		paginator: p,
	}, nil
}

// PageForToken resolves a page from its string form, e.g. a query param.
func (p *Paginator[T]) PageForToken(token string) (*Page[T], error) {
	number, err := strconv.Atoi(token)
	if err != nil {
		return nil, fmt.Errorf("page '%s': %w", token, ErrPageNotAnInteger)
	}
	return p.Page(number)
}

func (pg *Page[T]) Items() []T {
	return pg.items
}

func (pg *Page[T]) Len() int {
	return len(pg.items)
}

func (pg *Page[T]) HasNext() bool {
	return pg.Number < pg.paginator.NumPages()
}

func (pg *Page[T]) HasPrevious() bool {
	return pg.Number > 1
}

func (pg *Page[T]) HasOtherPages() bool {
	return pg.HasNext() || pg.HasPrevious()
}

func (pg *Page[T]) NextPageNumber() int {
	return pg.Number + 1
}

func (pg *Page[T]) PreviousPageNumber() int {
	return pg.Number - 1
}

// StartIndex is the 1-based index of the page's first item within the whole
// list, 0 for an empty list.
func (pg *Page[T]) StartIndex() int {
	if pg.paginator.Count() == 0 {
		return 0
	}
	return (pg.Number-1)*pg.paginator.perPage + 1
}

// EndIndex is the 1-based index of the page's last item within the whole
// list.
func (pg *Page[T]) EndIndex() int {
	end := pg.Number * pg.paginator.perPage
	if c := pg.paginator.Count(); end > c {
		end = c
	}
	return end
}
