package pgsource

import (
	"context"
	"errors"
	"fmt"

	"github.com/danthegoodman1/tablekit/columns"
	"github.com/danthegoodman1/tablekit/crdb"
	"github.com/danthegoodman1/tablekit/gologger"
	"github.com/danthegoodman1/tablekit/tables"
	"github.com/danthegoodman1/tablekit/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4/pgxpool"
)

var logger = gologger.NewLogger()

type (
	// Source runs a read-only SQL query and exposes the result rows to
	// tables. The query runs on every Rows call, nothing is cached here.
	Source struct {
		pool  *pgxpool.Pool
		query string
		args  []any
	}
)

func New(pool *pgxpool.Pool, query string, args ...any) *Source {
	return &Source{pool: pool, query: query, args: args}
}

// Rows runs the query and converts each result row into a flat map keyed by
// the result set's column names.
func (s *Source) Rows(ctx context.Context) ([]tables.Row, error) {
	var out []tables.Row
	err := utils.ReliableExec(ctx, s.pool, crdb.StandardContextTimeout, func(ctx context.Context, conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, s.query, s.args...)
		if err != nil {
			return permanentIfUser(fmt.Errorf("error in Query: %w", err))
		}
		defer rows.Close()

		fds := rows.FieldDescriptions()
		names := make([]string, len(fds))
		for i, fd := range fds {
			names[i] = string(fd.Name)
		}

		out = out[:0]
		for rows.Next() {
			vals, err := rows.Values()
			if err != nil {
				return fmt.Errorf("error in Values: %w", err)
			}
			row := make(tables.Row, len(names))
			for i, name := range names {
				row[name] = normalize(vals[i])
			}
			out = append(out, row)
		}
		if err := rows.Err(); err != nil {
			return permanentIfUser(fmt.Errorf("error reading rows: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error in ReliableExec: %w", err)
	}
	return out, nil
}

// Columns derives a column set from the query's result shape, one sortable
// visible column per result field, in result order.
func (s *Source) Columns(ctx context.Context) (*columns.Set, error) {
	var names []string
	err := utils.ReliableExec(ctx, s.pool, crdb.StandardContextTimeout, func(ctx context.Context, conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, s.query, s.args...)
		if err != nil {
			return permanentIfUser(fmt.Errorf("error in Query: %w", err))
		}
		defer rows.Close()
		names = names[:0]
		for _, fd := range rows.FieldDescriptions() {
			names = append(names, string(fd.Name))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error in ReliableExec: %w", err)
	}
	decls := make([]columns.Decl, len(names))
	for i, name := range names {
		decls[i] = columns.Decl{Name: name, Column: columns.New()}
	}
	return columns.NewSet(decls...), nil
}

// permanentIfUser stops retries for errors the database will never heal on
// its own, bad SQL or bad data rather than a flaky connection.
func permanentIfUser(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case "42", "22":
			return utils.PermError(fmt.Sprintf("%s (SQLSTATE %s)", pgErr.Message, pgErr.Code))
		}
	}
	return err
}

// normalize maps driver values onto the plain scalar types the snapshot
// comparator understands.
func normalize(v any) any {
	switch val := v.(type) {
	case pgtype.Numeric:
		var f float64
		if err := val.AssignTo(&f); err != nil {
			logger.Warn().Err(err).Msg("could not convert numeric, keeping raw value")
			return v
		}
		return f
	case [16]byte:
		return uuid.UUID(val).String()
	}
	return v
}
