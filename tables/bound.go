package tables

import "github.com/danthegoodman1/tablekit/columns"

type (
	// BoundColumn is the runtime version of a column declaration, bound to
	// a table instance. The declared name is how values are read from row
	// data; the exposed name (alias aware) is how callers refer to it.
	BoundColumn struct {
		table    *Table
		column   *columns.Column
		declared string
	}

	// BoundRow wraps one snapshot row. All value access resolves exposed
	// names through the table's registry.
	BoundRow struct {
		table *Table
		data  Row
	}

	// Rows is a restartable view over a table's bound rows.
	Rows struct {
		table *Table
	}
)

// Name is the exposed name: the alias if one was declared, else the
// declared name.
func (bc *BoundColumn) Name() string {
	return bc.column.ExposedName(bc.declared)
}

func (bc *BoundColumn) DeclaredName() string {
	return bc.declared
}

func (bc *BoundColumn) Sortable() bool {
	return bc.column.Sortable
}

func (bc *BoundColumn) Visible() bool {
	return bc.column.Visible
}

// Header is the column's display label.
func (bc *BoundColumn) Header() string {
	return bc.column.HeaderOrDefault(bc.declared)
}

// Column returns the underlying declaration.
func (bc *BoundColumn) Column() *columns.Column {
	return bc.column
}

// Values collects this column's values across the whole snapshot.
func (bc *BoundColumn) Values() []any {
	data := bc.table.Data()
	out := make([]any, len(data))
	for i, row := range data {
		out[i] = row[bc.declared]
	}
	return out
}

// Get returns the row's value for an exposed column name.
func (br BoundRow) Get(name string) (any, error) {
	bc, err := br.table.registry.Get(name)
	if err != nil {
		return nil, err
	}
	return br.data[bc.DeclaredName()], nil
}

// Values returns the row's values for visible columns in column order.
func (br BoundRow) Values() []any {
	cols := br.table.registry.Visible()
	out := make([]any, len(cols))
	for i, bc := range cols {
		out[i] = br.data[bc.DeclaredName()]
	}
	return out
}

// HasColumn checks an exposed column name against the table.
func (br BoundRow) HasColumn(name string) bool {
	return br.table.registry.Contains(name)
}

// ContainsValue checks value membership across the row's visible columns.
func (br BoundRow) ContainsValue(v any) bool {
	for _, val := range br.Values() {
		if compareValues(val, v) == 0 {
			return true
		}
	}
	return false
}

// Data returns the underlying snapshot row.
func (br BoundRow) Data() Row {
	return br.data
}

// All returns every bound row in snapshot order.
func (r Rows) All() []BoundRow {
	data := r.table.Data()
	out := make([]BoundRow, len(data))
	for i, row := range data {
		out[i] = BoundRow{table: r.table, data: row}
	}
	return out
}

// Page returns the current page's bound rows, nil when the table has not
// been paginated.
func (r Rows) Page() []BoundRow {
	if r.table.page == nil {
		return nil
	}
	return r.table.page.Items()
}

// Len is the number of rows in the snapshot.
func (r Rows) Len() int {
	return len(r.table.Data())
}
