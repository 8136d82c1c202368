package tables

import (
	"fmt"
	"strings"

	"github.com/danthegoodman1/tablekit/columns"
	"github.com/danthegoodman1/tablekit/paginator"
)

type (
	// OrderBy is a normalized sort spec: exposed column names, each
	// optionally prefixed with "-" for descending.
	OrderBy []string

	// Table is a view over row data: a cloned column set, the source rows,
	// and a lazily built snapshot that fills defaults and applies the sort
	// spec. Instances are cheap to build per request and are not safe for
	// concurrent mutation.
	Table struct {
		name        string
		cols        *columns.Set
		data        []Row
		keepUnknown bool

		orderBy  OrderBy
		snapshot []Row

		registry *Columns

		pager *paginator.Paginator[BoundRow]
		page  *paginator.Page[BoundRow]
	}

	Option func(*tableOptions)

	tableOptions struct {
		defaultOrderBy []string
		orderBy        []string
		orderBySet     bool
		keepUnknown    bool
	}
)

// String renders the ordering back into accepted input form ("alpha,-beta").
func (o OrderBy) String() string {
	return strings.Join(o, ",")
}

// WithDefaultOrderBy sets the sort applied at construction when no explicit
// WithOrderBy is given. A later SetOrderBy always wins, including an empty
// one.
func WithDefaultOrderBy(spec ...string) Option {
	return func(o *tableOptions) {
		o.defaultOrderBy = spec
	}
}

// WithOrderBy sets the initial sort explicitly. Explicit-and-empty means
// unsorted and beats the default.
func WithOrderBy(spec ...string) Option {
	return func(o *tableOptions) {
		o.orderBy = spec
		o.orderBySet = true
	}
}

// KeepUnknownFields stops the snapshot from dropping row keys that have no
// declared column.
func KeepUnknownFields() Option {
	return func(o *tableOptions) {
		o.keepUnknown = true
	}
}

// New builds a table over already-materialized rows. The column set is
// cloned so instances never share declaration state; source rows are read,
// never written.
func New(name string, cols *columns.Set, data []Row, opts ...Option) *Table {
	var o tableOptions
	for _, opt := range opts {
		opt(&o)
	}
	if cols == nil {
		cols = columns.NewSet()
	}
	t := &Table{
		name:        name,
		cols:        cols.Clone(),
		data:        data,
		keepUnknown: o.keepUnknown,
	}
	t.registry = &Columns{table: t}
	if o.orderBySet {
		t.SetOrderBy(o.orderBy...)
	} else {
		t.SetOrderBy(o.defaultOrderBy...)
	}
	return t
}

func (t *Table) Name() string {
	return t.name
}

// ColumnSet returns the instance's declared columns for instance-level
// mutation (Add/Delete). Changes show up in the registry immediately but
// only reach the snapshot on its next build.
func (t *Table) ColumnSet() *columns.Set {
	return t.cols
}

// OrderBy returns the normalized sort spec.
func (t *Table) OrderBy() OrderBy {
	return t.orderBy
}

// SetOrderBy replaces the sort spec and drops the cached snapshot. Zero
// arguments mean unsorted. Each element may itself be a comma-joined list
// ("alpha,-beta"). Identifiers that do not name a sortable column are
// dropped, typos degrade to ignored rather than erroring.
func (t *Table) SetOrderBy(spec ...string) {
	t.Invalidate()
	validated := make(OrderBy, 0, len(spec))
	for _, ident := range flattenOrderBy(spec) {
		name := strings.TrimPrefix(ident, "-")
		bc, err := t.registry.Get(name)
		if err != nil || !bc.Sortable() {
			continue
		}
		validated = append(validated, ident)
	}
	t.orderBy = validated
}

func flattenOrderBy(spec []string) []string {
	flat := make([]string, 0, len(spec))
	for _, part := range spec {
		for _, ident := range strings.Split(part, ",") {
			if ident != "" {
				flat = append(flat, ident)
			}
		}
	}
	return flat
}

// Data builds the snapshot if needed and returns it: every declared column
// present in every row, undeclared keys stripped unless KeepUnknownFields,
// rows ordered per the sort spec. Treat the result as read-only.
func (t *Table) Data() []Row {
	if t.snapshot == nil {
		t.buildSnapshot()
	}
	return t.snapshot
}

// Invalidate drops the cached snapshot and any pagination over it.
func (t *Table) Invalidate() {
	t.snapshot = nil
	t.pager = nil
	t.page = nil
}

// Columns returns the bound column registry.
func (t *Table) Columns() *Columns {
	return t.registry
}

// Column returns one bound column by exposed name.
func (t *Table) Column(name string) (*BoundColumn, error) {
	return t.registry.Get(name)
}

// Rows returns a restartable view over the table's bound rows.
func (t *Table) Rows() Rows {
	return Rows{table: t}
}

// Paginate pages the table's bound rows, perPage per page, and resolves
// pageToken (a 1-based page number in string form). Collaborator failures,
// out-of-range pages and bad tokens alike, surface only as ErrPageNotFound.
func (t *Table) Paginate(perPage int, pageToken string) error {
	pager := paginator.New(t.Rows().All(), perPage)
	page, err := pager.PageForToken(pageToken)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPageNotFound, err)
	}
	t.pager = pager
	t.page = page
	return nil
}

// Paginator returns the active paginator, nil when not paginated.
func (t *Table) Paginator() *paginator.Paginator[BoundRow] {
	return t.pager
}

// Page returns the active page, nil when not paginated.
func (t *Table) Page() *paginator.Page[BoundRow] {
	return t.page
}
