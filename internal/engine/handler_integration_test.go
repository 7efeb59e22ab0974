//go:build integration

package engine_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"

	"tableview/internal/config"
	"tableview/internal/engine"
	"tableview/internal/metadata"
	"tableview/internal/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	s, err := store.New(ctx, config.DatabaseConfig{
		Driver:   "postgres",
		Host:     "localhost",
		Port:     5433,
		User:     "tableview",
		Password: "tableview",
		Name:     "tableview",
		PoolSize: 2,
	})
	if err != nil {
		t.Fatalf("connect to test db: %v", err)
	}
	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return s
}

func testApp(t *testing.T, s *store.Store, reg *metadata.Registry) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: engine.ErrorHandler})
	cfg := &config.Config{
		Rules: config.RulesConfig{DefaultForeground: -16777216, DefaultBackground: -1},
		Query: config.QueryConfig{MaxRows: 100},
	}
	engine.RegisterTableRoutes(app, engine.NewHandler(s, reg, store.NewMigrator(s), cfg))
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("execute request: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("parse body %s: %v", raw, err)
	}
	return resp.StatusCode, out
}

func TestPostgres_RowsAndRules(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	defer s.Close()

	reg := metadata.NewRegistry()
	_ = metadata.LoadAll(ctx, s.DB, reg)
	app := testApp(t, s, reg)

	const tableID = "it_tasks"

	// Cleanup at end (runs even if test fails)
	defer func() {
		store.Exec(ctx, s.DB, "DROP TABLE IF EXISTS "+store.QuoteIdent(store.DataTableName("default", tableID)))
		store.Exec(ctx, s.DB, "DELETE FROM _table_columns WHERE table_id = $1", tableID)
		store.Exec(ctx, s.DB, "DELETE FROM _color_rules WHERE table_id = $1", tableID)
	}()

	// 1. Declare columns
	status, body := doRequest(t, app, "PUT", "/api/default/"+tableID+"/columns", map[string]any{
		"columns": []metadata.Column{
			metadata.NewColumn("title", "title", "string", nil),
			metadata.NewColumn("estimate", "estimate", "number", nil),
			metadata.NewColumn("done", "done", "bool", nil),
		},
	})
	if status != 200 {
		t.Fatalf("put columns: expected 200, got %d: %v", status, body)
	}

	// 2. Insert rows; a repeated _id is a conflict
	for _, r := range []map[string]any{
		{"_id": "t1", "values": map[string]any{"title": "write", "estimate": "2.5", "done": "true"}},
		{"_id": "t2", "values": map[string]any{"title": "review", "estimate": "0.5", "done": "false"}},
	} {
		if status, body := doRequest(t, app, "POST", "/api/default/"+tableID+"/rows", r); status != 201 {
			t.Fatalf("insert: expected 201, got %d: %v", status, body)
		}
	}
	status, body = doRequest(t, app, "POST", "/api/default/"+tableID+"/rows", map[string]any{
		"_id": "t1", "values": map[string]any{"title": "again"},
	})
	if status != 409 {
		t.Fatalf("duplicate insert: expected 409, got %d: %v", status, body)
	}

	// 3. Color rows that are done
	status, body = doRequest(t, app, "PUT", "/api/default/"+tableID+"/rules/table", map[string]any{
		"rules": []map[string]any{
			{"mElementKey": "done", "mOperator": "=", "mValue": "true", "mForeground": 7, "mBackground": 8},
		},
	})
	if status != 200 {
		t.Fatalf("put rules: expected 200, got %d: %v", status, body)
	}

	// 4. List rows ordered by estimate
	status, body = doRequest(t, app, "GET", "/api/default/"+tableID+"/rows?order_by=estimate", nil)
	if status != 200 {
		t.Fatalf("list rows: expected 200, got %d: %v", status, body)
	}
	data := body["data"].([]any)
	if len(data) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(data))
	}
	first := data[0].(map[string]any)
	second := data[1].(map[string]any)
	if first["_id"] != "t2" || second["_id"] != "t1" {
		t.Fatalf("unexpected order: %v, %v", first["_id"], second["_id"])
	}
	if second["values"].(map[string]any)["done"] != "true" {
		t.Fatalf("expected bool cell as text, got %v", second["values"])
	}
	if _, ok := first["colors"].(map[string]any)["row"]; ok {
		t.Fatal("expected open task uncolored")
	}
	row := second["colors"].(map[string]any)["row"].(map[string]any)
	if row["foreground"] != float64(7) {
		t.Fatalf("expected done task colored, got %v", row)
	}

	// 5. Single row read and delete
	status, body = doRequest(t, app, "GET", "/api/default/"+tableID+"/rows/t1", nil)
	if status != 200 || body["data"].(map[string]any)["values"].(map[string]any)["done"] != "true" {
		t.Fatalf("get row: expected done t1, got %d: %v", status, body)
	}
	if status, body := doRequest(t, app, "DELETE", "/api/default/"+tableID+"/rows/t2", nil); status != 200 {
		t.Fatalf("delete row: expected 200, got %d: %v", status, body)
	}
	if status, _ := doRequest(t, app, "GET", "/api/default/"+tableID+"/rows/t2", nil); status != 404 {
		t.Fatalf("expected deleted row to be gone, got %d", status)
	}
}
