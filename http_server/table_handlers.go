package http_server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/danthegoodman1/tablekit/tables"
	"github.com/danthegoodman1/tablekit/utils"
)

const (
	defaultPageSize = 50
	maxPageSize     = 1000
)

var errBadPerPage = errors.New("per_page must be an integer")

type (
	// TableListing summarizes a registered definition. Columns is only set
	// when the definition declares them statically.
	TableListing struct {
		Name           string
		Columns        []string
		DefaultOrderBy []string
		DefaultPerPage int
		AllowExport    bool
	}

	TableResponse struct {
		Name    string
		OrderBy string
		Columns []ColumnMeta
		// Rows are keyed by exposed column name, visible columns only.
		Rows []map[string]any
		// Page is set only when the response is paginated.
		Page *PageMeta
	}

	ColumnMeta struct {
		Name     string
		Header   string
		Sortable bool
	}

	// ColumnInfo is the full declaration view, hidden columns included.
	ColumnInfo struct {
		Name     string
		Declared string
		Header   string
		Sortable bool
		Visible  bool
		Default  any
	}

	PageMeta struct {
		Number      int
		PerPage     int
		NumPages    int
		TotalRows   int
		StartIndex  int
		EndIndex    int
		HasNext     bool
		HasPrevious bool
	}
)

func (s *HTTPServer) ListTablesHandler(c *CustomContext) error {
	listings := make([]TableListing, 0)
	for _, def := range Definitions() {
		listing := TableListing{
			Name:           def.Name,
			DefaultOrderBy: utils.ArrayOrEmpty(def.DefaultOrderBy),
			DefaultPerPage: def.DefaultPerPage,
			AllowExport:    def.AllowExport,
		}
		if def.Columns != nil {
			listing.Columns = def.Columns.Names()
		}
		listings = append(listings, listing)
	}
	return c.JSON(http.StatusOK, listings)
}

func (s *HTTPServer) GetTableHandler(c *CustomContext) error {
	ctx := c.Request().Context()

	def, ok := lookupTable(c.Param("name"))
	if !ok {
		return c.NotFound("table not found")
	}
	t, err := def.build(ctx)
	if err != nil {
		return c.InternalError(err, "error building table")
	}

	if orderBy := c.QueryParam("order_by"); orderBy != "" {
		t.SetOrderBy(orderBy)
	}

	perPage := def.DefaultPerPage
	if raw := c.QueryParam("per_page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return c.String(http.StatusBadRequest, errBadPerPage.Error())
		}
		perPage = clampPerPage(n)
	}

	res, err := tableResponse(t, c.QueryParam("page"), perPage)
	if err != nil {
		if errors.Is(err, tables.ErrPageNotFound) {
			return c.NotFound("page not found")
		}
		return c.InternalError(err, "error rendering table")
	}
	return c.JSON(http.StatusOK, res)
}

func (s *HTTPServer) GetTableColumnsHandler(c *CustomContext) error {
	ctx := c.Request().Context()

	def, ok := lookupTable(c.Param("name"))
	if !ok {
		return c.NotFound("table not found")
	}
	t, err := def.build(ctx)
	if err != nil {
		return c.InternalError(err, "error building table")
	}

	all := t.Columns().All()
	out := make([]ColumnInfo, len(all))
	for i, bc := range all {
		out[i] = ColumnInfo{
			Name:     bc.Name(),
			Declared: bc.DeclaredName(),
			Header:   bc.Header(),
			Sortable: bc.Sortable(),
			Visible:  bc.Visible(),
			Default:  bc.Column().Default,
		}
	}
	return c.JSON(http.StatusOK, out)
}

// clampPerPage keeps requested page sizes within 1..1000.
func clampPerPage(n int) int {
	if n < 1 {
		return 1
	}
	if n > maxPageSize {
		return maxPageSize
	}
	return n
}

// tableResponse renders the table, paginating when a page token is given or
// perPage is positive. Pagination failures come back wrapping
// tables.ErrPageNotFound.
func tableResponse(t *tables.Table, pageToken string, perPage int) (*TableResponse, error) {
	if pageToken != "" || perPage > 0 {
		if perPage < 1 {
			perPage = defaultPageSize
		}
		if pageToken == "" {
			pageToken = "1"
		}
		if err := t.Paginate(perPage, pageToken); err != nil {
			return nil, err
		}
	}

	visible := t.Columns().Visible()
	cols := make([]ColumnMeta, len(visible))
	for i, bc := range visible {
		cols[i] = ColumnMeta{Name: bc.Name(), Header: bc.Header(), Sortable: bc.Sortable()}
	}

	rows := t.Rows().All()
	var pageMeta *PageMeta
	if page := t.Page(); page != nil {
		rows = t.Rows().Page()
		pager := t.Paginator()
		pageMeta = &PageMeta{
			Number:      page.Number,
			PerPage:     pager.PerPage(),
			NumPages:    pager.NumPages(),
			TotalRows:   pager.Count(),
			StartIndex:  page.StartIndex(),
			EndIndex:    page.EndIndex(),
			HasNext:     page.HasNext(),
			HasPrevious: page.HasPrevious(),
		}
	}

	out := make([]map[string]any, len(rows))
	for i, br := range rows {
		row := make(map[string]any, len(visible))
		for _, bc := range visible {
			row[bc.Name()] = br.Data()[bc.DeclaredName()]
		}
		out[i] = row
	}

	return &TableResponse{
		Name:    t.Name(),
		OrderBy: t.OrderBy().String(),
		Columns: cols,
		Rows:    out,
		Page:    pageMeta,
	}, nil
}
