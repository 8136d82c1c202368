package tables

// Columns spawns and caches BoundColumn wrappers for one table. The
// exposed-name mapping is re-derived from the declared set on every access
// since declarations can change underneath, but wrappers are reused per
// exposed name so column identity is stable across queries.
type Columns struct {
	table   *Table
	cache   map[string]*BoundColumn
	ordered []*BoundColumn
}

func (cs *Columns) spawn() {
	decls := cs.table.cols.Items()
	ordered := make([]*BoundColumn, 0, len(decls))
	next := make(map[string]*BoundColumn, len(decls))
	for _, d := range decls {
		exposed := d.Column.ExposedName(d.Name)
		bc, ok := cs.cache[exposed]
		if !ok {
			bc = &BoundColumn{}
		}
		bc.table = cs.table
		bc.column = d.Column
		bc.declared = d.Name
		next[exposed] = bc
		ordered = append(ordered, bc)
	}
	cs.cache = next
	cs.ordered = ordered
}

// All returns every bound column, hidden included, in declaration order.
func (cs *Columns) All() []*BoundColumn {
	cs.spawn()
	out := make([]*BoundColumn, len(cs.ordered))
	copy(out, cs.ordered)
	return out
}

// Visible returns the visible bound columns in declaration order. This is
// the default iteration, geared towards rendering.
func (cs *Columns) Visible() []*BoundColumn {
	cs.spawn()
	out := make([]*BoundColumn, 0, len(cs.ordered))
	for _, bc := range cs.ordered {
		if bc.Visible() {
			out = append(out, bc)
		}
	}
	return out
}

// Names returns every exposed name in declaration order, hidden included.
func (cs *Columns) Names() []string {
	cs.spawn()
	names := make([]string, len(cs.ordered))
	for i, bc := range cs.ordered {
		names[i] = bc.Name()
	}
	return names
}

// Index returns the position of an exposed name among all columns.
func (cs *Columns) Index(name string) (int, error) {
	cs.spawn()
	for i, bc := range cs.ordered {
		if bc.Name() == name {
			return i, nil
		}
	}
	return 0, &ColumnNotFoundError{Table: cs.table.name, Column: name}
}

// Len counts visible columns only, matching default iteration.
func (cs *Columns) Len() int {
	return len(cs.Visible())
}

func (cs *Columns) Get(name string) (*BoundColumn, error) {
	cs.spawn()
	if bc, ok := cs.cache[name]; ok {
		return bc, nil
	}
	return nil, &ColumnNotFoundError{Table: cs.table.name, Column: name}
}

// Contains checks an exposed name, hidden columns included.
func (cs *Columns) Contains(name string) bool {
	cs.spawn()
	_, ok := cs.cache[name]
	return ok
}

// ContainsColumn checks wrapper identity.
func (cs *Columns) ContainsColumn(bc *BoundColumn) bool {
	cs.spawn()
	for _, c := range cs.ordered {
		if c == bc {
			return true
		}
	}
	return false
}
