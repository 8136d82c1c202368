package main

import (
	"testing"

	"github.com/danthegoodman1/tablekit/http_server"
)

func TestLoadTablesConfig(t *testing.T) {
	configs, err := loadTablesConfig(`[
		{
			"Name": "orders",
			"Query": "SELECT id, city FROM orders",
			"DefaultOrderBy": ["-id"],
			"DefaultPerPage": 25,
			"AllowExport": true,
			"Columns": [
				{"Name": "id", "Header": "ID"},
				{"Name": "city", "Hidden": true}
			]
		},
		{"name": "plain", "query": "SELECT 1"}
	]`)
	if err != nil {
		t.Fatal(err)
	}
	if len(configs) != 2 {
		t.Fatalf("expected 2 configs, got %d", len(configs))
	}
	first := configs[0]
	if first.Name != "orders" || !first.AllowExport || first.DefaultPerPage != 25 {
		t.Fatalf("unexpected config %+v", first)
	}
	if len(first.Columns) != 2 || !first.Columns[1].Hidden {
		t.Fatalf("unexpected columns %+v", first.Columns)
	}
	// field matching is case insensitive, lowercase keys work too
	if configs[1].Name != "plain" || configs[1].Query != "SELECT 1" {
		t.Fatalf("unexpected config %+v", configs[1])
	}
}

func TestLoadTablesConfigRejectsIncomplete(t *testing.T) {
	if _, err := loadTablesConfig(`[{"Query": "SELECT 1"}]`); err == nil {
		t.Fatal("expected an error for a nameless table")
	}
	if _, err := loadTablesConfig(`[{"Name": "x"}]`); err == nil {
		t.Fatal("expected an error for a queryless table")
	}
	if _, err := loadTablesConfig(`not json`); err == nil {
		t.Fatal("expected an error for bad JSON")
	}
}

func TestRegisterConfiguredTables(t *testing.T) {
	configs, err := loadTablesConfig(`[{"Name": "cfg_orders", "Query": "SELECT 1", "AllowExport": true, "Columns": [{"Name": "id", "Alias": "order_id"}]}]`)
	if err != nil {
		t.Fatal(err)
	}
	// sources are lazy, no pool needed until rows are read
	if err := registerConfiguredTables(nil, configs); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, def := range http_server.Definitions() {
		if def.Name == "cfg_orders" {
			found = true
			if def.Columns == nil || def.Columns.Len() != 1 {
				t.Fatalf("unexpected columns on %+v", def)
			}
			if !def.AllowExport {
				t.Fatal("expected AllowExport carried through")
			}
		}
	}
	if !found {
		t.Fatal("expected configured table registered")
	}

	bad := []TableConfig{{Name: "bad", Query: "SELECT 1", Columns: []ColumnConfig{{}}}}
	if err := registerConfiguredTables(nil, bad); err == nil {
		t.Fatal("expected an error for a nameless column")
	}
}
