package tables

import (
	"context"
	"fmt"
	"sort"

	"github.com/danthegoodman1/tablekit/columns"
)

type (
	// Row is a single record keyed by declared column name.
	Row = map[string]any

	// Source materializes rows from wherever they live. Tables are always
	// built over materialized rows, so sources are drained up front.
	Source interface {
		Rows(ctx context.Context) ([]Row, error)
	}

	// ColumnProvider is an optional Source upgrade for sources that know
	// their result shape without looking at row values.
	ColumnProvider interface {
		Columns(ctx context.Context) (*columns.Set, error)
	}

	// SliceSource serves in-memory rows.
	SliceSource struct {
		Data []Row
	}
)

func (s SliceSource) Rows(_ context.Context) ([]Row, error) {
	return s.Data, nil
}

// FromSource drains the source and builds a table over the result.
func FromSource(ctx context.Context, name string, cols *columns.Set, src Source, opts ...Option) (*Table, error) {
	rows, err := src.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("error in Rows: %w", err)
	}
	return New(name, cols, rows, opts...), nil
}

// InferColumns declares one plain column per key seen across the rows,
// sorted by name so the result is stable.
func InferColumns(rows []Row) *columns.Set {
	seen := make(map[string]bool)
	var names []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	sort.Strings(names)
	decls := make([]columns.Decl, len(names))
	for i, name := range names {
		decls[i] = columns.Decl{Name: name, Column: columns.New()}
	}
	return columns.NewSet(decls...)
}
