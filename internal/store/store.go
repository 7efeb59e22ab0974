package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx as database/sql driver
	_ "modernc.org/sqlite"             // Register sqlite as database/sql driver

	"tableview/internal/config"
	"tableview/internal/metadata"
)

var ErrNotFound = errors.New("not found")
var ErrUniqueViolation = errors.New("unique constraint violation")
var ErrInvalidName = errors.New("invalid name")

// Querier is implemented by both *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store wraps a database connection and dialect.
type Store struct {
	DB      *sql.DB
	Dialect Dialect
	driver  string
}

// New creates a Store from config.
func New(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "postgres"
	}

	if driver == "sqlite" && cfg.Path != "" {
		if err := os.MkdirAll(cfg.Path, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dialect := NewDialect(driver)
	db, err := sql.Open(dialect.DriverName(), cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driver == "postgres" {
		if cfg.PoolSize > 0 {
			db.SetMaxOpenConns(cfg.PoolSize)
		}
	} else if driver == "sqlite" {
		// SQLite: single writer, WAL mode for concurrent reads
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &Store{DB: db, Dialect: dialect, driver: driver}, nil
}

// Close closes the database connection.
func (s *Store) Close() {
	s.DB.Close()
}

// BeginTx starts a new transaction.
func (s *Store) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.DB.BeginTx(ctx, nil)
}

// QueryRows executes a query and returns results as []map[string]any.
func QueryRows(ctx context.Context, q Querier, sqlStr string, args ...any) ([]map[string]any, error) {
	columns, values, err := QueryTable(ctx, q, 0, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	var results []map[string]any
	for _, vals := range values {
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = vals[i]
		}
		results = append(results, row)
	}
	return results, nil
}

// QueryRow executes a query and returns a single row as map[string]any.
func QueryRow(ctx context.Context, q Querier, sqlStr string, args ...any) (map[string]any, error) {
	rows, err := QueryRows(ctx, q, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// QueryTable executes a query and returns the result column names in select
// order plus each row's values in the same order. A positive limit stops
// reading after that many rows.
func QueryTable(ctx context.Context, q Querier, limit int, sqlStr string, args ...any) ([]string, [][]any, error) {
	rows, err := q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("get columns: %w", err)
	}

	var results [][]any
	for rows.Next() {
		if limit > 0 && len(results) >= limit {
			log.Printf("WARN: result truncated at %d rows", limit)
			break
		}
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("scan: %w", err)
		}
		for i, v := range values {
			// database/sql often returns []byte for TEXT columns
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		results = append(results, values)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("rows iteration: %w", err)
	}
	return columns, results, nil
}

// Exec executes a statement and returns the number of rows affected.
func Exec(ctx context.Context, q Querier, sqlStr string, args ...any) (int64, error) {
	result, err := q.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// InsertRow inserts one row into the data table tableName (see DataTableName).
// values maps element keys to cell text; a nil value stores NULL.
func InsertRow(ctx context.Context, q Querier, dialect Dialect, tableName, rowID string, values map[string]*string) error {
	if !IsValidIdent(tableName) {
		return fmt.Errorf("%w: table %s", ErrInvalidName, tableName)
	}
	cols := []string{QuoteIdent(RowIDColumn)}
	phs := []string{dialect.Placeholder(1)}
	args := []any{rowID}
	for key, v := range values {
		if !IsValidIdent(key) {
			return fmt.Errorf("%w: column %s", ErrInvalidName, key)
		}
		cols = append(cols, QuoteIdent(key))
		phs = append(phs, dialect.Placeholder(len(args)+1))
		if v == nil {
			args = append(args, nil)
		} else {
			args = append(args, *v)
		}
	}
	sqlStr := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QuoteIdent(tableName), strings.Join(cols, ", "), strings.Join(phs, ", "))
	if _, err := q.ExecContext(ctx, sqlStr, args...); err != nil {
		return MapError(dialect, fmt.Errorf("insert into %s: %w", tableName, err))
	}
	return nil
}

// DeleteRow removes the row with the given _id. It returns ErrNotFound when
// no row has that id.
func DeleteRow(ctx context.Context, q Querier, dialect Dialect, tableName, rowID string) error {
	if !IsValidIdent(tableName) {
		return fmt.Errorf("%w: table %s", ErrInvalidName, tableName)
	}
	sqlStr := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		QuoteIdent(tableName), QuoteIdent(RowIDColumn), dialect.Placeholder(1))
	n, err := Exec(ctx, q, sqlStr, rowID)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", tableName, err)
	}
	if n == 0 {
		return fmt.Errorf("row %s: %w", rowID, ErrNotFound)
	}
	return nil
}

// MapError maps a database error to a well-known sentinel error using the store's dialect.
func MapError(dialect Dialect, err error) error {
	if err == nil {
		return nil
	}
	return dialect.MapError(err)
}

// RowIDColumn is the primary key column of every data table.
const RowIDColumn = "_id"

// IsValidIdent checks that a table or column name contains only safe characters.
func IsValidIdent(name string) bool {
	if len(name) == 0 || len(name) > 63 {
		return false
	}
	for i, c := range name {
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (i > 0 && c >= '0' && c <= '9') {
			continue
		}
		return false
	}
	return true
}

// appSeparator joins the app name and table id in a data table name. App
// names may not contain it, so every data table name splits one way.
const appSeparator = "__"

// DataTableName returns the physical table holding the rows of appName's
// tableID. Different apps may declare the same table id.
func DataTableName(appName, tableID string) string {
	return appName + appSeparator + tableID
}

// ValidateTableRef checks that an app name and table id are identifiers that
// can name a data table. Names starting with an underscore are reserved for
// system tables.
func ValidateTableRef(appName, tableID string) error {
	for _, name := range []string{appName, tableID} {
		if !IsValidIdent(name) || strings.HasPrefix(name, "_") {
			return fmt.Errorf("%w: %s", ErrInvalidName, name)
		}
	}
	if strings.Contains(appName, appSeparator) {
		return fmt.Errorf("%w: app name %s contains %q", ErrInvalidName, appName, appSeparator)
	}
	if name := DataTableName(appName, tableID); !IsValidIdent(name) {
		return fmt.Errorf("%w: %s is too long", ErrInvalidName, name)
	}
	return nil
}

// ValidateColumns checks every name a migration of oc would put into DDL.
func ValidateColumns(oc *metadata.OrderedColumns) error {
	if err := ValidateTableRef(oc.AppName, oc.TableID); err != nil {
		return err
	}
	for _, d := range oc.StoredColumns() {
		if !IsValidIdent(d.ElementKey) || d.ElementKey == RowIDColumn {
			return fmt.Errorf("%w: column %s", ErrInvalidName, d.ElementKey)
		}
	}
	return nil
}

// QuoteIdent double-quotes an identifier already checked by IsValidIdent.
func QuoteIdent(name string) string {
	return `"` + name + `"`
}

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
