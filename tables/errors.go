package tables

import (
	"errors"
	"fmt"
)

// ErrPageNotFound is the only signal pagination failures surface as, both
// for out-of-range pages and unparseable page tokens. Callers map it to
// their notion of a 404.
var ErrPageNotFound = errors.New("page not found")

type ColumnNotFoundError struct {
	Table  string
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column '%s' not found in table '%s'", e.Column, e.Table)
}
