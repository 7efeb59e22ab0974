package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFile_DefaultsAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	yaml := []byte(`
server:
  port: 9090
database:
  driver: postgres
  name: views
rules:
  default_background: -65536
query:
  disable_raw_filters: true
`)
	if err := os.WriteFile(path, yaml, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Database.IsSQLite() {
		t.Fatal("expected postgres driver")
	}
	if cfg.Database.DSN() != "postgres://:@localhost:5432/views?sslmode=disable" {
		t.Fatalf("unexpected dsn: %s", cfg.Database.DSN())
	}
	if cfg.Rules.DefaultBackground != -65536 {
		t.Fatalf("expected background override, got %d", cfg.Rules.DefaultBackground)
	}
	if cfg.Rules.DefaultForeground != -16777216 {
		t.Fatalf("expected default foreground, got %d", cfg.Rules.DefaultForeground)
	}
	if cfg.Query.MaxRows != 1000 {
		t.Fatalf("expected default max rows, got %d", cfg.Query.MaxRows)
	}
	if !cfg.Query.DisableRawFilters {
		t.Fatal("expected raw filters to be disabled")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDatabaseConfig_SQLiteDSN(t *testing.T) {
	d := DatabaseConfig{Driver: "sqlite", Path: "/tmp/data", Name: "views"}
	if !d.IsSQLite() || d.DSN() != "/tmp/data/views.db" {
		t.Fatalf("unexpected sqlite dsn: %s", d.DSN())
	}
}
