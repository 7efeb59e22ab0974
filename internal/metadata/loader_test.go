package metadata_test

import (
	"context"
	"testing"

	"tableview/internal/config"
	"tableview/internal/metadata"
	"tableview/internal/store"
)

func TestLoadAll_SkipsInvalidRows(t *testing.T) {
	ctx := context.Background()
	s, err := store.New(ctx, config.DatabaseConfig{Driver: "sqlite", Path: t.TempDir(), Name: "meta"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	good, err := metadata.NewOrderedColumns("default", "good", []metadata.Column{
		metadata.NewColumn("a", "a", "integer", nil),
	})
	if err != nil {
		t.Fatalf("build columns: %v", err)
	}
	if err := metadata.SaveColumns(ctx, s.DB, s.Dialect, good); err != nil {
		t.Fatalf("save columns: %v", err)
	}

	// A child key that was never declared.
	if _, err := store.Exec(ctx, s.DB,
		`INSERT INTO _table_columns (app_name, table_id, element_key, element_name, element_type, list_child_element_keys, position)
		 VALUES ('default', 'broken', 'p', 'p', 'object', '["q"]', 0)`); err != nil {
		t.Fatalf("insert broken column: %v", err)
	}

	g := &metadata.ColorRuleGroup{AppName: "default", TableID: "good", Type: metadata.GroupTable}
	g.Add(metadata.NewColorRuleWithID("r1", "a", metadata.GreaterThan, "1", 5, 6))
	if err := metadata.SaveRuleGroup(ctx, s.DB, s.Dialect, g); err != nil {
		t.Fatalf("save rules: %v", err)
	}
	if _, err := store.Exec(ctx, s.DB,
		`INSERT INTO _color_rules (id, app_name, table_id, group_type, element_key, definition, position)
		 VALUES ('r2', 'default', 'good', 'table', '', '{not json', 1),
		        ('r3', 'default', 'good', 'row', '', '{}', 0)`); err != nil {
		t.Fatalf("insert broken rules: %v", err)
	}

	reg := metadata.NewRegistry()
	if err := metadata.LoadAll(ctx, s.DB, reg); err != nil {
		t.Fatalf("load: %v", err)
	}

	tables := reg.AllTables()
	if len(tables) != 1 || tables[0].TableID != "good" {
		t.Fatalf("expected only the good table, got %v", tables)
	}
	loaded := reg.Group("default", "good", metadata.GroupTable, "")
	if loaded == nil || len(loaded.Rules) != 1 {
		t.Fatalf("expected one valid rule, got %+v", loaded)
	}
	if !loaded.Rules[0].Equal(g.Rules[0]) {
		t.Fatalf("expected %s, got %s", g.Rules[0], loaded.Rules[0])
	}
	if len(reg.Groups("default", "good")) != 1 {
		t.Fatalf("expected one group, got %d", len(reg.Groups("default", "good")))
	}
}
