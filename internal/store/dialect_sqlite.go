package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"tableview/internal/metadata"
)

// SQLiteDialect implements Dialect for SQLite via modernc.org/sqlite.
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string       { return "sqlite" }
func (d *SQLiteDialect) DriverName() string { return "sqlite" }
func (d *SQLiteDialect) NeedsBoolFix() bool { return true }

func (d *SQLiteDialect) Placeholder(index int) string {
	return fmt.Sprintf("?%d", index)
}

func (d *SQLiteDialect) ColumnType(dataType metadata.ElementDataType) string {
	switch dataType {
	case metadata.DataTypeInteger, metadata.DataTypeBool:
		return "INTEGER"
	case metadata.DataTypeNumber:
		return "REAL"
	default:
		return "TEXT"
	}
}

func (d *SQLiteDialect) SystemTablesSQL() string {
	return sqliteSystemTablesSQL
}

func (d *SQLiteDialect) TableExists(ctx context.Context, db *sql.DB, tableName string) (bool, error) {
	var name string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?1",
		tableName,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *SQLiteDialect) GetColumns(ctx context.Context, db *sql.DB, tableName string) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", QuoteIdent(tableName)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]string)
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull int
		var dfltValue any
		var pk int
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		cols[name] = colType
	}
	return cols, rows.Err()
}

func (d *SQLiteDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	errStr := err.Error()
	if strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "constraint failed: UNIQUE") {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}
	return err
}

// --- SQLite DDL ---

const sqliteSystemTablesSQL = `
CREATE TABLE IF NOT EXISTS _table_columns (
    app_name                TEXT NOT NULL,
    table_id                TEXT NOT NULL,
    element_key             TEXT NOT NULL,
    element_name            TEXT NOT NULL,
    element_type            TEXT NOT NULL,
    list_child_element_keys TEXT NOT NULL DEFAULT '[]',
    position                INTEGER NOT NULL DEFAULT 0,
    created_at              TEXT DEFAULT (datetime('now')),
    PRIMARY KEY (app_name, table_id, element_key)
);

CREATE TABLE IF NOT EXISTS _color_rules (
    id          TEXT PRIMARY KEY,
    app_name    TEXT NOT NULL,
    table_id    TEXT NOT NULL,
    group_type  TEXT NOT NULL,
    element_key TEXT NOT NULL DEFAULT '',
    definition  TEXT NOT NULL,
    position    INTEGER NOT NULL DEFAULT 0,
    created_at  TEXT DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_color_rules_table ON _color_rules(app_name, table_id);
`
