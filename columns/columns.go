package columns

import (
	"strings"
	"sync/atomic"
	"unicode"
	"unicode/utf8"
)

// creationCounter stamps declaration order onto columns so sets can recover
// it even when declarations arrive as an unordered batch.
var creationCounter int64

type (
	// Column declares the behavior of one table column. Columns are
	// templates: they are not mutated after declaration, and sets copy
	// them per table instance.
	Column struct {
		// Sortable allows the column to appear in sort specs. Identifiers
		// naming unsortable columns are dropped, not rejected.
		Sortable bool
		// Visible controls default iteration and row value output.
		Visible bool
		// Default fills the column's value for rows missing the key.
		Default any
		// Alias overrides the declared name as the exposed name.
		Alias string
		// Header overrides the derived display label.
		Header string

		counter int64
	}

	Option func(*Column)
)

// New declares a column. Zero-option columns are visible and sortable.
func New(opts ...Option) *Column {
	c := &Column{
		Sortable: true,
		Visible:  true,
		counter:  atomic.AddInt64(&creationCounter, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithAlias(alias string) Option {
	return func(c *Column) {
		c.Alias = alias
	}
}

func WithHeader(header string) Option {
	return func(c *Column) {
		c.Header = header
	}
}

func WithDefault(v any) Option {
	return func(c *Column) {
		c.Default = v
	}
}

func Hidden() Option {
	return func(c *Column) {
		c.Visible = false
	}
}

func NotSortable() Option {
	return func(c *Column) {
		c.Sortable = false
	}
}

// ExposedName returns the alias if set, else the declared name.
func (c *Column) ExposedName(declared string) string {
	if c.Alias != "" {
		return c.Alias
	}
	return declared
}

// HeaderOrDefault returns the display label: the explicit Header if set,
// otherwise the exposed name with underscores spaced out. Either way the
// first rune is upper-cased.
func (c *Column) HeaderOrDefault(declared string) string {
	label := c.Header
	if label == "" {
		label = strings.ReplaceAll(c.ExposedName(declared), "_", " ")
	}
	return capfirst(label)
}

func capfirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
