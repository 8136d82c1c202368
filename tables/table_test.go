package tables

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/danthegoodman1/tablekit/columns"
)

func testCols() *columns.Set {
	return columns.NewSet(
		columns.Decl{Name: "alpha", Column: columns.New()},
		columns.Decl{Name: "beta", Column: columns.New()},
		columns.Decl{Name: "n", Column: columns.New()},
	)
}

func testData() []Row {
	return []Row{
		{"alpha": "mmm", "beta": "mmm", "n": 1},
		{"alpha": "aaa", "beta": "zzz", "n": 2},
		{"alpha": "zzz", "beta": "aaa", "n": 3},
	}
}

func nSequence(tbl *Table) []int {
	seq := make([]int, 0, 3)
	for _, row := range tbl.Data() {
		seq = append(seq, row["n"].(int))
	}
	return seq
}

func TestOrderByForms(t *testing.T) {
	// different ways to say the same thing: don't sort
	for i, tbl := range []*Table{
		New("t", testCols(), testData()),
		New("t", testCols(), testData(), WithOrderBy()),
		New("t", testCols(), testData(), WithOrderBy("")),
	} {
		if !reflect.DeepEqual(tbl.OrderBy(), OrderBy{}) {
			t.Fatalf("form %d: expected empty order by, got %v", i, tbl.OrderBy())
		}
	}

	tbl := New("t", testCols(), testData(), WithOrderBy("alpha"))
	if !reflect.DeepEqual(tbl.OrderBy(), OrderBy{"alpha"}) {
		t.Fatal("got", tbl.OrderBy())
	}

	// comma-joined input splits
	tbl = New("t", testCols(), testData(), WithOrderBy("alpha,-beta"))
	if !reflect.DeepEqual(tbl.OrderBy(), OrderBy{"alpha", "-beta"}) {
		t.Fatal("got", tbl.OrderBy())
	}
	if tbl.OrderBy().String() != "alpha,-beta" {
		t.Fatal("got", tbl.OrderBy().String())
	}

	// rewritten later
	tbl.SetOrderBy("beta")
	if !reflect.DeepEqual(tbl.OrderBy(), OrderBy{"beta"}) {
		t.Fatal("got", tbl.OrderBy())
	}
}

func TestDefaultOrderBy(t *testing.T) {
	// inherited from the construction default if not explicitly set
	tbl := New("t", testCols(), testData(), WithDefaultOrderBy("alpha"))
	if !reflect.DeepEqual(tbl.OrderBy(), OrderBy{"alpha"}) {
		t.Fatal("got", tbl.OrderBy())
	}

	// ...but can be overloaded at construction
	tbl = New("t", testCols(), testData(), WithDefaultOrderBy("alpha"), WithOrderBy("beta"))
	if !reflect.DeepEqual(tbl.OrderBy(), OrderBy{"beta"}) {
		t.Fatal("got", tbl.OrderBy())
	}

	// ...or rewritten later
	tbl = New("t", testCols(), testData(), WithDefaultOrderBy("alpha"))
	tbl.SetOrderBy("beta")
	if !reflect.DeepEqual(tbl.OrderBy(), OrderBy{"beta"}) {
		t.Fatal("got", tbl.OrderBy())
	}

	// ...or reset to unsorted, ignoring the default
	tbl = New("t", testCols(), testData(), WithDefaultOrderBy("alpha"), WithOrderBy())
	if !reflect.DeepEqual(tbl.OrderBy(), OrderBy{}) {
		t.Fatal("got", tbl.OrderBy())
	}
	if got := nSequence(tbl); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Fatal("unsorted table should keep insertion order, got", got)
	}
}

func TestSort(t *testing.T) {
	tbl := New("t", testCols(), testData(), WithOrderBy("alpha"))
	if got := nSequence(tbl); !reflect.DeepEqual(got, []int{2, 1, 3}) {
		t.Fatal("got", got)
	}

	tbl.SetOrderBy("-alpha")
	if got := nSequence(tbl); !reflect.DeepEqual(got, []int{3, 1, 2}) {
		t.Fatal("got", got)
	}

	tbl.SetOrderBy("beta")
	if got := nSequence(tbl); !reflect.DeepEqual(got, []int{3, 1, 2}) {
		t.Fatal("got", got)
	}
}

func TestSortMultiKeyStable(t *testing.T) {
	cols := columns.NewSet(
		columns.Decl{Name: "group", Column: columns.New()},
		columns.Decl{Name: "n", Column: columns.New()},
	)
	data := []Row{
		{"group": "b", "n": 1},
		{"group": "a", "n": 2},
		{"group": "b", "n": 3},
		{"group": "a", "n": 4},
	}
	tbl := New("t", cols, data, WithOrderBy("group", "-n"))
	if got := nSequence(tbl); !reflect.DeepEqual(got, []int{4, 2, 3, 1}) {
		t.Fatal("got", got)
	}

	// ties on every key keep insertion order
	tbl = New("t", cols, data, WithOrderBy("missing"))
	if got := nSequence(tbl); !reflect.DeepEqual(got, []int{1, 2, 3, 4}) {
		t.Fatal("got", got)
	}
}

func TestInvalidOrderByDropped(t *testing.T) {
	cols := testCols()
	cols.Add("locked", columns.New(columns.NotSortable()))

	tbl := New("t", cols, testData(), WithOrderBy("typo", "alpha", "-locked"))
	if !reflect.DeepEqual(tbl.OrderBy(), OrderBy{"alpha"}) {
		t.Fatal("got", tbl.OrderBy())
	}
}

func TestSnapshotStripsAndFills(t *testing.T) {
	cols := columns.NewSet(
		columns.Decl{Name: "name", Column: columns.New()},
		columns.Decl{Name: "answer", Column: columns.New(columns.WithDefault(42))},
	)
	source := []Row{
		{"name": "tablekit", "stray": "x"},
	}
	tbl := New("t", cols, source)

	data := tbl.Data()
	if len(data) != 1 {
		t.Fatal("got rows", len(data))
	}
	row := data[0]
	if _, ok := row["stray"]; ok {
		t.Fatal("undeclared key survived the snapshot")
	}
	if row["answer"] != 42 {
		t.Fatal("default not filled, got", row["answer"])
	}

	// the source row itself is never touched
	if _, ok := source[0]["stray"]; !ok {
		t.Fatal("source row was mutated")
	}
	if _, ok := source[0]["answer"]; ok {
		t.Fatal("default leaked into the source row")
	}
}

func TestKeepUnknownFields(t *testing.T) {
	cols := columns.NewSet(columns.Decl{Name: "name", Column: columns.New()})
	tbl := New("t", cols, []Row{{"name": "a", "stray": "x"}}, KeepUnknownFields())
	if tbl.Data()[0]["stray"] != "x" {
		t.Fatal("stray key should survive with KeepUnknownFields")
	}
}

func TestDefaultsParticipateInSorting(t *testing.T) {
	cols := columns.NewSet(
		columns.Decl{Name: "name", Column: columns.New()},
		columns.Decl{Name: "rank", Column: columns.New(columns.WithDefault(1))},
	)
	data := []Row{
		{"name": "explicit", "rank": 5},
		{"name": "defaulted"},
	}
	tbl := New("t", cols, data, WithOrderBy("rank"))
	if tbl.Data()[0]["name"] != "defaulted" {
		t.Fatal("default value should sort first")
	}
}

func TestVisibleHiddenCounts(t *testing.T) {
	cols := columns.NewSet(
		columns.Decl{Name: "visible", Column: columns.New()},
		columns.Decl{Name: "hidden", Column: columns.New(columns.Hidden())},
	)
	tbl := New("t", cols, nil)

	if tbl.Columns().Len() != 1 {
		t.Fatal("got visible len", tbl.Columns().Len())
	}
	if len(tbl.Columns().All()) != 2 {
		t.Fatal("got all len", len(tbl.Columns().All()))
	}
	if len(tbl.Columns().Visible()) != 1 {
		t.Fatal("got visible", len(tbl.Columns().Visible()))
	}
	if !reflect.DeepEqual(tbl.Columns().Names(), []string{"visible", "hidden"}) {
		t.Fatal("got names", tbl.Columns().Names())
	}
}

func TestAliasExposure(t *testing.T) {
	cols := columns.NewSet(
		columns.Decl{Name: "author_name", Column: columns.New(columns.WithAlias("author"))},
	)
	tbl := New("t", cols, []Row{{"author_name": "sam"}})

	bc, err := tbl.Column("author")
	if err != nil {
		t.Fatal(err)
	}
	if bc.DeclaredName() != "author_name" {
		t.Fatal("got declared", bc.DeclaredName())
	}

	// the declared name is not exposed
	if _, err := tbl.Column("author_name"); err == nil {
		t.Fatal("declared name should not resolve when aliased")
	}

	// sorting and row access work through the exposed name
	tbl.SetOrderBy("author")
	if !reflect.DeepEqual(tbl.OrderBy(), OrderBy{"author"}) {
		t.Fatal("got", tbl.OrderBy())
	}
	rows := tbl.Rows().All()
	v, err := rows[0].Get("author")
	if err != nil {
		t.Fatal(err)
	}
	if v != "sam" {
		t.Fatal("got", v)
	}
}

func TestColumnNotFound(t *testing.T) {
	tbl := New("cities", testCols(), testData())
	_, err := tbl.Column("missing")
	if err == nil {
		t.Fatal("expected an error")
	}
	var cnf *ColumnNotFoundError
	if !errors.As(err, &cnf) {
		t.Fatal("expected ColumnNotFoundError, got", err)
	}
	if cnf.Table != "cities" || cnf.Column != "missing" {
		t.Fatalf("got %+v", cnf)
	}

	if _, err := tbl.Rows().All()[0].Get("missing"); !errors.As(err, &cnf) {
		t.Fatal("row access should surface the same error type")
	}
}

func TestColumnIndex(t *testing.T) {
	tbl := New("t", testCols(), testData())
	i, err := tbl.Columns().Index("beta")
	if err != nil {
		t.Fatal(err)
	}
	if i != 1 {
		t.Fatal("got index", i)
	}
	if _, err := tbl.Columns().Index("missing"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestBoundColumnIdentityStable(t *testing.T) {
	tbl := New("t", testCols(), testData())
	first, err := tbl.Column("alpha")
	if err != nil {
		t.Fatal(err)
	}

	// an unrelated declaration change must not replace the wrapper
	tbl.ColumnSet().Add("extra", columns.New())
	second, err := tbl.Column("alpha")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatal("wrapper identity changed across queries")
	}
	if !tbl.Columns().ContainsColumn(first) {
		t.Fatal("registry should contain the wrapper")
	}
}

func TestBoundColumnValues(t *testing.T) {
	tbl := New("t", testCols(), testData(), WithOrderBy("alpha"))
	bc, err := tbl.Column("n")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(bc.Values(), []any{2, 1, 3}) {
		t.Fatal("got", bc.Values())
	}
}

func TestBoundRow(t *testing.T) {
	cols := columns.NewSet(
		columns.Decl{Name: "name", Column: columns.New()},
		columns.Decl{Name: "secret", Column: columns.New(columns.Hidden())},
	)
	tbl := New("t", cols, []Row{{"name": "a", "secret": "s"}})
	row := tbl.Rows().All()[0]

	// values cover visible columns only
	if !reflect.DeepEqual(row.Values(), []any{"a"}) {
		t.Fatal("got", row.Values())
	}
	// but named access reaches hidden columns
	v, err := row.Get("secret")
	if err != nil {
		t.Fatal(err)
	}
	if v != "s" {
		t.Fatal("got", v)
	}
	if !row.HasColumn("secret") {
		t.Fatal("HasColumn should see hidden columns")
	}
	if row.ContainsValue("s") {
		t.Fatal("ContainsValue should only scan visible columns")
	}
	if !row.ContainsValue("a") {
		t.Fatal("expected to find visible value")
	}
}

func TestInstanceIsolation(t *testing.T) {
	tpl := testCols()
	one := New("one", tpl, testData())
	two := New("two", tpl, testData())

	one.ColumnSet().Add("extra", columns.New())
	one.ColumnSet().Delete("beta")

	if tpl.Len() != 3 {
		t.Fatal("template mutated, len", tpl.Len())
	}
	if two.Columns().Contains("extra") {
		t.Fatal("instances share declaration state")
	}
	if !two.Columns().Contains("beta") {
		t.Fatal("beta deleted across instances")
	}
}

func TestInvalidateRebuilds(t *testing.T) {
	data := testData()
	tbl := New("t", testCols(), data)

	first := tbl.Data()
	if len(first) != 3 {
		t.Fatal("got rows", len(first))
	}
	// cached until invalidated
	again := tbl.Data()
	if &first[0] != &again[0] {
		t.Fatal("snapshot should be cached between reads")
	}

	// mutations to the source show up after an explicit invalidate
	data[0]["n"] = 10
	tbl.Invalidate()
	if tbl.Data()[0]["n"] != 10 {
		t.Fatal("snapshot not rebuilt after Invalidate")
	}
}

func TestCrossTypeSort(t *testing.T) {
	cols := columns.NewSet(
		columns.Decl{Name: "v", Column: columns.New()},
		columns.Decl{Name: "n", Column: columns.New(columns.NotSortable(), columns.Hidden())},
	)
	ts := time.Date(2022, 12, 30, 0, 0, 0, 0, time.UTC)
	data := []Row{
		{"v": "zz", "n": 1},
		{"v": nil, "n": 2},
		{"v": 3.5, "n": 3},
		{"v": true, "n": 4},
		{"v": ts, "n": 5},
		{"v": 2, "n": 6},
		{"v": false, "n": 7},
	}
	tbl := New("t", cols, data, WithOrderBy("v"))

	seq := make([]int, 0, len(data))
	for _, row := range tbl.Data() {
		seq = append(seq, row["n"].(int))
	}
	// nil, then bools (false first), then numbers, strings, times
	if !reflect.DeepEqual(seq, []int{2, 7, 4, 6, 3, 1, 5}) {
		t.Fatal("got", seq)
	}
}

func TestFromSource(t *testing.T) {
	tbl, err := FromSource(context.Background(), "t", testCols(), SliceSource{Data: testData()}, WithOrderBy("alpha"))
	if err != nil {
		t.Fatal(err)
	}
	if got := nSequence(tbl); !reflect.DeepEqual(got, []int{2, 1, 3}) {
		t.Fatal("got", got)
	}

	_, err = FromSource(context.Background(), "t", testCols(), failingSource{})
	if err == nil {
		t.Fatal("expected source error to surface")
	}
}

type failingSource struct{}

func (failingSource) Rows(_ context.Context) ([]Row, error) {
	return nil, fmt.Errorf("source exploded")
}
