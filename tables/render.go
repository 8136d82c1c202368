package tables

// Renderer turns a table into presentation output. Core ships no
// implementation, output formats belong to callers (cmd/tablecat renders
// text directly, the HTTP layer shapes JSON responses).
type Renderer interface {
	RenderTable(t *Table) (string, error)
}
