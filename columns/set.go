package columns

import (
	"sort"

	"github.com/Velocidex/ordereddict"
)

type (
	// Decl pairs a declared name with its column.
	Decl struct {
		Name   string
		Column *Column
	}

	// Set is an ordered declared-name to column mapping. Order is
	// declaration order and survives merging and per-name replacement.
	Set struct {
		dict *ordereddict.Dict
	}
)

// NewSet builds a set from declarations. The batch is ordered by each
// column's creation counter, so declaration order holds however the pairs
// are passed. Declarations without a column are ignored.
func NewSet(decls ...Decl) *Set {
	ds := make([]Decl, 0, len(decls))
	for _, d := range decls {
		if d.Column == nil {
			continue
		}
		ds = append(ds, d)
	}
	sort.SliceStable(ds, func(i, j int) bool {
		return ds[i].Column.counter < ds[j].Column.counter
	})
	s := &Set{dict: ordereddict.NewDict()}
	for _, d := range ds {
		s.put(d.Name, d.Column)
	}
	return s
}

// Merge flattens sets left to right into a new set, parents first and local
// declarations last. A name declared again later keeps its first position
// but takes the later column.
func Merge(sets ...*Set) *Set {
	out := &Set{dict: ordereddict.NewDict()}
	for _, s := range sets {
		if s == nil {
			continue
		}
		for _, name := range s.dict.Keys() {
			if col, ok := s.Get(name); ok {
				out.put(name, col)
			}
		}
	}
	return out
}

// put keeps an existing name at its position while taking the new column,
// and appends unknown names.
func (s *Set) put(name string, col *Column) {
	if _, ok := s.dict.Get(name); ok {
		s.dict.Update(name, col)
		return
	}
	s.dict.Set(name, col)
}

// Add declares or replaces a column on this set in place.
func (s *Set) Add(name string, col *Column) {
	if col == nil {
		return
	}
	s.put(name, col)
}

func (s *Set) Delete(name string) {
	s.dict.Delete(name)
}

func (s *Set) Get(name string) (*Column, bool) {
	v, ok := s.dict.Get(name)
	if !ok {
		return nil, false
	}
	col, ok := v.(*Column)
	return col, ok
}

// Names returns declared names in declaration order.
func (s *Set) Names() []string {
	return s.dict.Keys()
}

func (s *Set) Len() int {
	return s.dict.Len()
}

// Items returns the declarations in order.
func (s *Set) Items() []Decl {
	out := make([]Decl, 0, s.dict.Len())
	for _, name := range s.dict.Keys() {
		if col, ok := s.Get(name); ok {
			out = append(out, Decl{Name: name, Column: col})
		}
	}
	return out
}

// Clone deep-copies the set so table instances never share declaration
// state with the template or each other.
func (s *Set) Clone() *Set {
	out := &Set{dict: ordereddict.NewDict()}
	for _, name := range s.dict.Keys() {
		if col, ok := s.Get(name); ok {
			cp := *col
			out.dict.Set(name, &cp)
		}
	}
	return out
}
