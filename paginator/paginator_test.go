package paginator

import (
	"errors"
	"testing"
)

func makeItems(n int) []int {
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	return items
}

func TestNumPages(t *testing.T) {
	p := New(makeItems(100), 10)
	if p.Count() != 100 {
		t.Fatal("got count", p.Count())
	}
	if p.NumPages() != 10 {
		t.Fatal("got pages", p.NumPages())
	}
	if New(makeItems(101), 10).NumPages() != 11 {
		t.Fatal("uneven tail should get its own page")
	}
}

func TestEmptyListHasOnePage(t *testing.T) {
	p := New([]int{}, 10)
	if p.NumPages() != 1 {
		t.Fatal("got pages", p.NumPages())
	}
	page, err := p.Page(1)
	if err != nil {
		t.Fatal(err)
	}
	if page.Len() != 0 {
		t.Fatal("first page of empty list should be empty")
	}
	if page.StartIndex() != 0 {
		t.Fatal("got start index", page.StartIndex())
	}
}

func TestPageNavigation(t *testing.T) {
	p := New(makeItems(100), 10)

	first, err := p.Page(1)
	if err != nil {
		t.Fatal(err)
	}
	if !first.HasNext() {
		t.Fatal("page 1 should have a next page")
	}
	if first.HasPrevious() {
		t.Fatal("page 1 should not have a previous page")
	}
	if first.NextPageNumber() != 2 {
		t.Fatal("got next", first.NextPageNumber())
	}

	last, err := p.Page(10)
	if err != nil {
		t.Fatal(err)
	}
	if last.HasNext() {
		t.Fatal("last page should not have a next page")
	}
	if !last.HasOtherPages() {
		t.Fatal("last page should still have other pages")
	}
}

func TestPageIndexes(t *testing.T) {
	p := New(makeItems(25), 10)
	second, err := p.Page(2)
	if err != nil {
		t.Fatal(err)
	}
	if second.StartIndex() != 11 || second.EndIndex() != 20 {
		t.Fatalf("got indexes %d..%d", second.StartIndex(), second.EndIndex())
	}
	third, err := p.Page(3)
	if err != nil {
		t.Fatal(err)
	}
	if third.StartIndex() != 21 || third.EndIndex() != 25 {
		t.Fatalf("got indexes %d..%d", third.StartIndex(), third.EndIndex())
	}
	if third.Len() != 5 {
		t.Fatal("got len", third.Len())
	}
}

func TestOutOfRangePage(t *testing.T) {
	p := New(makeItems(100), 10)
	for _, number := range []int{0, -1, 11, 9999} {
		_, err := p.Page(number)
		if !errors.Is(err, ErrEmptyPage) {
			t.Fatalf("page %d: expected ErrEmptyPage, got %v", number, err)
		}
		if !errors.Is(err, ErrInvalidPage) {
			t.Fatalf("page %d: should also match the base error", number)
		}
	}
}

func TestBadToken(t *testing.T) {
	p := New(makeItems(100), 10)
	if _, err := p.PageForToken("abc"); !errors.Is(err, ErrPageNotAnInteger) {
		t.Fatal("expected ErrPageNotAnInteger, got", err)
	}
	if _, err := p.PageForToken("abc"); !errors.Is(err, ErrInvalidPage) {
		t.Fatal("bad token should also match the base error")
	}
	page, err := p.PageForToken("3")
	if err != nil {
		t.Fatal(err)
	}
	if page.Number != 3 {
		t.Fatal("got page", page.Number)
	}
}

func TestPerPageFloor(t *testing.T) {
	p := New(makeItems(3), 0)
	if p.PerPage() != 1 {
		t.Fatal("per page should floor to 1")
	}
	if p.NumPages() != 3 {
		t.Fatal("got pages", p.NumPages())
	}
}

func TestPageRange(t *testing.T) {
	p := New(makeItems(45), 10)
	r := p.PageRange()
	if len(r) != 5 || r[0] != 1 || r[4] != 5 {
		t.Fatal("got range", r)
	}
}
