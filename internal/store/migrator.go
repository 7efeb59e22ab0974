package store

import (
	"context"
	"fmt"
	"strings"

	"tableview/internal/metadata"
)

type Migrator struct {
	store *Store
}

func NewMigrator(store *Store) *Migrator {
	return &Migrator{store: store}
}

// Migrate ensures the data table matches the column metadata. Creates the
// table if it doesn't exist, or adds missing columns. Columns are never
// dropped or retyped.
func (m *Migrator) Migrate(ctx context.Context, oc *metadata.OrderedColumns) error {
	if err := ValidateColumns(oc); err != nil {
		return err
	}

	name := DataTableName(oc.AppName, oc.TableID)
	exists, err := m.store.Dialect.TableExists(ctx, m.store.DB, name)
	if err != nil {
		return fmt.Errorf("check table exists: %w", err)
	}

	if !exists {
		return m.createTable(ctx, name, oc)
	}

	return m.alterTable(ctx, name, oc)
}

func (m *Migrator) createTable(ctx context.Context, name string, oc *metadata.OrderedColumns) error {
	cols := []string{QuoteIdent(RowIDColumn) + " TEXT PRIMARY KEY"}
	for _, d := range oc.StoredColumns() {
		cols = append(cols, m.buildColumnDef(d))
	}

	sql := fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", QuoteIdent(name), strings.Join(cols, ",\n  "))

	if _, err := m.store.DB.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	return nil
}

func (m *Migrator) alterTable(ctx context.Context, name string, oc *metadata.OrderedColumns) error {
	existing, err := m.store.Dialect.GetColumns(ctx, m.store.DB, name)
	if err != nil {
		return fmt.Errorf("get columns for %s: %w", name, err)
	}

	for _, d := range oc.StoredColumns() {
		if _, ok := existing[d.ElementKey]; ok {
			continue
		}
		sql := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", QuoteIdent(name), m.buildColumnDef(d))
		if _, err := m.store.DB.ExecContext(ctx, sql); err != nil {
			return fmt.Errorf("add column %s.%s: %w", name, d.ElementKey, err)
		}
	}
	return nil
}

func (m *Migrator) buildColumnDef(d *metadata.ColumnDefinition) string {
	return QuoteIdent(d.ElementKey) + " " + m.store.Dialect.ColumnType(d.DataType())
}
