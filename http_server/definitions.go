package http_server

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/danthegoodman1/tablekit/columns"
	"github.com/danthegoodman1/tablekit/tables"
)

type (
	// Definition is a named table view served over HTTP. Registered once at
	// boot, materialized into a fresh table instance per request.
	Definition struct {
		// Name is the path segment the table serves under, unique.
		Name string

		// Columns declares the view. Nil means derive the declarations from
		// the source, or failing that from the row keys.
		Columns *columns.Set

		// Source produces the rows on every request.
		Source tables.Source

		// DefaultOrderBy applies when the request carries no order_by.
		DefaultOrderBy []string

		// DefaultPerPage makes responses always paginate, even without page
		// params on the request. Zero means unpaginated by default.
		DefaultPerPage int

		// KeepUnknownFields keeps row keys that have no declared column.
		KeepUnknownFields bool

		// AllowExport opens the export endpoint for this table.
		AllowExport bool
	}
)

var (
	defMu sync.RWMutex
	defs  = make(map[string]Definition)
)

// RegisterTable adds a definition to the served set. Re-registering a name
// replaces it.
func RegisterTable(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("definition needs a name")
	}
	if def.Source == nil {
		return fmt.Errorf("definition %s needs a source", def.Name)
	}
	defMu.Lock()
	defer defMu.Unlock()
	defs[def.Name] = def
	return nil
}

// TableNames lists registered definitions, sorted.
func TableNames() []string {
	defMu.RLock()
	defer defMu.RUnlock()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns the registered definitions sorted by name.
func Definitions() []Definition {
	defMu.RLock()
	defer defMu.RUnlock()
	out := make([]Definition, 0, len(defs))
	for _, def := range defs {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

func lookupTable(name string) (Definition, bool) {
	defMu.RLock()
	defer defMu.RUnlock()
	def, ok := defs[name]
	return def, ok
}

// build materializes the definition into a table instance for one request.
func (d Definition) build(ctx context.Context) (*tables.Table, error) {
	opts := []tables.Option{tables.WithDefaultOrderBy(d.DefaultOrderBy...)}
	if d.KeepUnknownFields {
		opts = append(opts, tables.KeepUnknownFields())
	}

	cols := d.Columns
	if cp, ok := d.Source.(tables.ColumnProvider); ok {
		derived, err := cp.Columns(ctx)
		if err != nil {
			return nil, fmt.Errorf("error deriving columns: %w", err)
		}
		if cols != nil {
			// declared overrides win, source order holds
			cols = columns.Merge(derived, cols)
		} else {
			cols = derived
		}
	}
	if cols != nil {
		return tables.FromSource(ctx, d.Name, cols, d.Source, opts...)
	}

	rows, err := d.Source.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("error in Rows: %w", err)
	}
	return tables.New(d.Name, tables.InferColumns(rows), rows, opts...), nil
}
