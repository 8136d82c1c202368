package main

import (
	"encoding/json"
	"fmt"

	"github.com/danthegoodman1/tablekit/columns"
	"github.com/danthegoodman1/tablekit/http_server"
	"github.com/danthegoodman1/tablekit/pgsource"
	"github.com/jackc/pgx/v4/pgxpool"
)

type (
	// TableConfig is one table definition from the TABLES_CONFIG env var, a
	// JSON array of these.
	TableConfig struct {
		Name  string
		Query string

		DefaultOrderBy    []string
		DefaultPerPage    int
		AllowExport       bool
		KeepUnknownFields bool

		// Columns override the shape derived from the query. Empty means
		// serve every result column as-is.
		Columns []ColumnConfig
	}

	ColumnConfig struct {
		Name        string
		Alias       string
		Header      string
		Default     any
		Hidden      bool
		NotSortable bool
	}
)

func loadTablesConfig(raw string) ([]TableConfig, error) {
	var configs []TableConfig
	if err := json.Unmarshal([]byte(raw), &configs); err != nil {
		return nil, fmt.Errorf("error in json.Unmarshal: %w", err)
	}
	for i, cfg := range configs {
		if cfg.Name == "" {
			return nil, fmt.Errorf("table config %d has no name", i)
		}
		if cfg.Query == "" {
			return nil, fmt.Errorf("table config %s has no query", cfg.Name)
		}
	}
	return configs, nil
}

func registerConfiguredTables(pool *pgxpool.Pool, configs []TableConfig) error {
	for _, cfg := range configs {
		def := http_server.Definition{
			Name:              cfg.Name,
			Source:            pgsource.New(pool, cfg.Query),
			DefaultOrderBy:    cfg.DefaultOrderBy,
			DefaultPerPage:    cfg.DefaultPerPage,
			KeepUnknownFields: cfg.KeepUnknownFields,
			AllowExport:       cfg.AllowExport,
		}
		if len(cfg.Columns) > 0 {
			decls := make([]columns.Decl, 0, len(cfg.Columns))
			for _, cc := range cfg.Columns {
				if cc.Name == "" {
					return fmt.Errorf("table config %s has a column with no name", cfg.Name)
				}
				decls = append(decls, columns.Decl{Name: cc.Name, Column: columns.New(columnOptions(cc)...)})
			}
			def.Columns = columns.NewSet(decls...)
		}
		if err := http_server.RegisterTable(def); err != nil {
			return fmt.Errorf("error registering table %s: %w", cfg.Name, err)
		}
		logger.Debug().Str("table", cfg.Name).Msg("registered configured table")
	}
	return nil
}

func columnOptions(cc ColumnConfig) []columns.Option {
	var opts []columns.Option
	if cc.Alias != "" {
		opts = append(opts, columns.WithAlias(cc.Alias))
	}
	if cc.Header != "" {
		opts = append(opts, columns.WithHeader(cc.Header))
	}
	if cc.Default != nil {
		opts = append(opts, columns.WithDefault(cc.Default))
	}
	if cc.Hidden {
		opts = append(opts, columns.Hidden())
	}
	if cc.NotSortable {
		opts = append(opts, columns.NotSortable())
	}
	return opts
}
