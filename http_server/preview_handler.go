package http_server

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/danthegoodman1/gojsonutils"
	"github.com/danthegoodman1/tablekit/columns"
	"github.com/danthegoodman1/tablekit/tables"
	"github.com/danthegoodman1/tablekit/utils"
)

type (
	PreviewReqBody struct {
		// Line-delimited JSON (NDJSON)
		RowsString *string
		// Array of JSON
		Rows []*map[string]any

		// Columns declares the view in order. Empty means infer plain
		// columns from the row keys.
		Columns []PreviewColumn

		// OrderBy is a comma-joined sort spec.
		//
		// Ex: `city,-amount`
		OrderBy *string

		// Page and PerPage paginate the preview when set.
		Page    *string
		PerPage *int

		// KeepUnknownFields keeps row keys that have no declared column.
		KeepUnknownFields bool
	}

	PreviewColumn struct {
		Name        string
		Alias       string
		Header      string
		Default     any
		Hidden      bool
		NotSortable bool
	}
)

var ErrNotFlatMap = errors.New("not a flat map")

// PreviewHandler renders ad hoc rows through the same snapshot, sort and
// pagination pipeline the registered tables use, without registering
// anything.
func (s *HTTPServer) PreviewHandler(c *CustomContext) error {
	var reqBody PreviewReqBody
	if err := ValidateRequest(c, &reqBody); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	defer c.Request().Body.Close()

	var rows []tables.Row

	if reqBody.RowsString != nil {
		ndJSONScanner := bufio.NewScanner(strings.NewReader(*reqBody.RowsString))
		for ndJSONScanner.Scan() {
			line := strings.TrimSpace(ndJSONScanner.Text())
			if line == "" {
				continue
			}
			var raw any
			if err := json.Unmarshal([]byte(line), &raw); err != nil {
				return c.String(http.StatusBadRequest, "line was not JSON")
			}
			jsonMap, ok := raw.(map[string]any)
			if !ok {
				return c.String(http.StatusBadRequest, "line was not a JSON object")
			}
			flat, err := gojsonutils.Flatten(jsonMap, nil)
			if err != nil {
				return c.InternalError(err, "error flattening JSON map")
			}
			flatMap, ok := flat.(map[string]any)
			if !ok {
				return c.InternalError(ErrNotFlatMap, fmt.Sprintf("got a non flat map: %+v", flat))
			}
			rows = append(rows, flatMap)
		}
	} else if reqBody.Rows != nil {
		for _, row := range reqBody.Rows {
			flat, err := gojsonutils.Flatten(*row, nil)
			if err != nil {
				return c.InternalError(err, "error flattening JSON map")
			}
			flatMap, ok := flat.(map[string]any)
			if !ok {
				return c.InternalError(ErrNotFlatMap, fmt.Sprintf("got a non flat map: %+v", flat))
			}
			rows = append(rows, flatMap)
		}
	}

	if len(rows) == 0 {
		return c.String(http.StatusBadRequest, "no rows found")
	}

	var set *columns.Set
	if len(reqBody.Columns) > 0 {
		decls := make([]columns.Decl, 0, len(reqBody.Columns))
		for _, pc := range reqBody.Columns {
			if pc.Name == "" {
				return c.String(http.StatusBadRequest, "column with no name")
			}
			var opts []columns.Option
			if pc.Alias != "" {
				opts = append(opts, columns.WithAlias(pc.Alias))
			}
			if pc.Header != "" {
				opts = append(opts, columns.WithHeader(pc.Header))
			}
			if pc.Default != nil {
				opts = append(opts, columns.WithDefault(pc.Default))
			}
			if pc.Hidden {
				opts = append(opts, columns.Hidden())
			}
			if pc.NotSortable {
				opts = append(opts, columns.NotSortable())
			}
			decls = append(decls, columns.Decl{Name: pc.Name, Column: columns.New(opts...)})
		}
		set = columns.NewSet(decls...)
	} else {
		set = tables.InferColumns(rows)
	}

	var tableOpts []tables.Option
	if reqBody.KeepUnknownFields {
		tableOpts = append(tableOpts, tables.KeepUnknownFields())
	}
	t := tables.New(utils.GenRandomID("preview_"), set, rows, tableOpts...)
	if reqBody.OrderBy != nil {
		t.SetOrderBy(*reqBody.OrderBy)
	}

	perPage := 0
	if reqBody.PerPage != nil {
		perPage = clampPerPage(*reqBody.PerPage)
	}
	res, err := tableResponse(t, utils.Deref(reqBody.Page, ""), perPage)
	if err != nil {
		if errors.Is(err, tables.ErrPageNotFound) {
			return c.NotFound("page not found")
		}
		return c.InternalError(err, "error rendering preview")
	}
	return c.JSON(http.StatusOK, res)
}
