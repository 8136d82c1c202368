package http_server

import (
	"context"
	"reflect"
	"testing"

	"github.com/danthegoodman1/tablekit/columns"
	"github.com/danthegoodman1/tablekit/tables"
)

type fakeProviderSource struct {
	rows []tables.Row
	cols *columns.Set
}

func (f fakeProviderSource) Rows(_ context.Context) ([]tables.Row, error) {
	return f.rows, nil
}

func (f fakeProviderSource) Columns(_ context.Context) (*columns.Set, error) {
	return f.cols, nil
}

func TestRegisterTableValidation(t *testing.T) {
	if err := RegisterTable(Definition{Source: tables.SliceSource{}}); err == nil {
		t.Fatal("expected an error for a nameless definition")
	}
	if err := RegisterTable(Definition{Name: "no_source"}); err == nil {
		t.Fatal("expected an error for a sourceless definition")
	}
	if err := RegisterTable(Definition{Name: "ok", Source: tables.SliceSource{}}); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, name := range TableNames() {
		if name == "ok" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected registered table in listing")
	}
}

func TestDefinitionsSorted(t *testing.T) {
	if err := RegisterTable(Definition{Name: "zz_last", Source: tables.SliceSource{}}); err != nil {
		t.Fatal(err)
	}
	if err := RegisterTable(Definition{Name: "aa_first", Source: tables.SliceSource{}, AllowExport: true}); err != nil {
		t.Fatal(err)
	}

	first, last := -1, -1
	for i, def := range Definitions() {
		switch def.Name {
		case "aa_first":
			first = i
			if !def.AllowExport {
				t.Fatal("expected AllowExport carried through")
			}
		case "zz_last":
			last = i
		}
	}
	if first == -1 || last == -1 {
		t.Fatal("expected both definitions listed")
	}
	if first > last {
		t.Fatal("expected definitions sorted by name")
	}
}

func TestBuildWithDeclaredColumns(t *testing.T) {
	def := Definition{
		Name: "people",
		Columns: columns.NewSet(
			columns.Decl{Name: "first_name", Column: columns.New()},
			columns.Decl{Name: "last_name", Column: columns.New()},
		),
		Source: tables.SliceSource{Data: []tables.Row{
			{"first_name": "ada", "last_name": "lovelace", "ignored": true},
		}},
	}
	table, err := def.build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := table.Columns().Names(); !reflect.DeepEqual(got, []string{"first_name", "last_name"}) {
		t.Fatalf("unexpected columns %+v", got)
	}
	if _, ok := table.Data()[0]["ignored"]; ok {
		t.Fatal("expected undeclared key stripped")
	}
}

func TestBuildInfersColumns(t *testing.T) {
	def := Definition{
		Name: "inferred",
		Source: tables.SliceSource{Data: []tables.Row{
			{"b": 1, "a": 2},
			{"c": 3},
		}},
	}
	table, err := def.build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := table.Columns().Names(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("expected sorted inferred columns, got %+v", got)
	}
}

func TestBuildMergesProviderColumns(t *testing.T) {
	src := fakeProviderSource{
		rows: []tables.Row{{"id": 1, "secret": "x"}},
		cols: columns.NewSet(
			columns.Decl{Name: "id", Column: columns.New()},
			columns.Decl{Name: "secret", Column: columns.New()},
		),
	}
	def := Definition{
		Name: "merged",
		Columns: columns.NewSet(
			columns.Decl{Name: "secret", Column: columns.New(columns.Hidden())},
		),
		Source: src,
	}
	table, err := def.build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// source order holds, the override hides the column
	if got := table.Columns().Names(); !reflect.DeepEqual(got, []string{"id", "secret"}) {
		t.Fatalf("unexpected columns %+v", got)
	}
	if got := len(table.Columns().Visible()); got != 1 {
		t.Fatalf("expected 1 visible column, got %d", got)
	}
}
