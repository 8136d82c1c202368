package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/danthegoodman1/gojsonutils"
	"github.com/danthegoodman1/tablekit/columns"
	"github.com/danthegoodman1/tablekit/tables"
	"github.com/olekukonko/tablewriter"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

var (
	app = kingpin.New("tablecat",
		"Render NDJSON from stdin as a sorted text table.")

	orderByFlag = app.Flag("order-by",
		"Comma separated sort spec, - prefix for descending. Ex: city,-amount").Short('o').String()

	columnsFlag = app.Flag("columns",
		"Comma separated columns to declare, name or name:alias. Empty infers them from the rows.").Short('c').String()

	keepFlag = app.Flag("keep-unknown",
		"Keep row keys that have no declared column.").Bool()

	pageFlag = app.Flag("page",
		"Page to render, 0 renders everything.").Default("0").Int()

	perPageFlag = app.Flag("per-page",
		"Rows per page.").Default("50").Int()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	rows, err := readRows(os.Stdin)
	kingpin.FatalIfError(err, "reading stdin")
	if len(rows) == 0 {
		kingpin.Fatalf("no rows on stdin")
	}

	var set *columns.Set
	if *columnsFlag != "" {
		set = parseColumns(*columnsFlag)
	} else {
		set = tables.InferColumns(rows)
	}

	var opts []tables.Option
	if *keepFlag {
		opts = append(opts, tables.KeepUnknownFields())
	}
	t := tables.New("stdin", set, rows, opts...)
	if *orderByFlag != "" {
		t.SetOrderBy(*orderByFlag)
	}

	out := t.Rows().All()
	if *pageFlag > 0 {
		if err := t.Paginate(*perPageFlag, strconv.Itoa(*pageFlag)); err != nil {
			if errors.Is(err, tables.ErrPageNotFound) {
				kingpin.Fatalf("page %d not found", *pageFlag)
			}
			kingpin.FatalIfError(err, "paginating")
		}
		out = t.Rows().Page()
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)

	visible := t.Columns().Visible()
	headers := make([]string, len(visible))
	for i, bc := range visible {
		headers[i] = bc.Header()
	}
	table.SetHeader(headers)

	for _, br := range out {
		stringRow := make([]string, 0, len(visible))
		for _, val := range br.Values() {
			cell := ""
			if val != nil {
				cell = fmt.Sprintf("%v", val)
			}
			stringRow = append(stringRow, cell)
		}
		table.Append(stringRow)
	}

	if page := t.Page(); page != nil {
		pager := t.Paginator()
		table.SetCaption(true, fmt.Sprintf("page %d of %d, %d rows total", page.Number, pager.NumPages(), pager.Count()))
	}
	table.Render()
}

// readRows parses NDJSON, flattening nested objects the same way the preview
// endpoint does so the sort sees scalar values.
func readRows(r io.Reader) ([]tables.Row, error) {
	var rows []tables.Row
	lineNum := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var raw any
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			return nil, fmt.Errorf("line %d was not JSON: %w", lineNum, err)
		}
		jsonMap, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("line %d was not a JSON object", lineNum)
		}
		flat, err := gojsonutils.Flatten(jsonMap, nil)
		if err != nil {
			return nil, fmt.Errorf("error flattening line %d: %w", lineNum, err)
		}
		flatMap, ok := flat.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("got a non flat map for line %d", lineNum)
		}
		rows = append(rows, flatMap)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning input: %w", err)
	}
	return rows, nil
}

func parseColumns(spec string) *columns.Set {
	var decls []columns.Decl
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, alias, _ := strings.Cut(part, ":")
		var opts []columns.Option
		if alias != "" {
			opts = append(opts, columns.WithAlias(alias))
		}
		decls = append(decls, columns.Decl{Name: name, Column: columns.New(opts...)})
	}
	return columns.NewSet(decls...)
}
