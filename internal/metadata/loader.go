package metadata

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
)

// Querier is implemented by both *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Placeholders renders the dialect's 1-based bind parameter.
type Placeholders interface {
	Placeholder(index int) string
}

// LoadAll reads all column declarations and color rules and populates the registry.
func LoadAll(ctx context.Context, q Querier, reg *Registry) error {
	columns, err := loadColumns(ctx, q)
	if err != nil {
		return fmt.Errorf("load columns: %w", err)
	}

	groups, err := loadRuleGroups(ctx, q)
	if err != nil {
		return fmt.Errorf("load color rules: %w", err)
	}

	reg.Load(columns, groups)

	log.Printf("Loaded %d tables, %d color rule groups into registry", len(columns), len(groups))
	return nil
}

func loadColumns(ctx context.Context, q Querier) ([]*OrderedColumns, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT app_name, table_id, element_key, element_name, element_type, list_child_element_keys
		 FROM _table_columns ORDER BY app_name, table_id, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var order []TableRef
	decls := make(map[TableRef][]Column)
	for rows.Next() {
		var ref TableRef
		var c Column
		if err := rows.Scan(&ref.AppName, &ref.TableID, &c.ElementKey, &c.ElementName, &c.ElementType, &c.ListChildElementKeys); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		if _, seen := decls[ref]; !seen {
			order = append(order, ref)
		}
		decls[ref] = append(decls[ref], c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var tables []*OrderedColumns
	for _, ref := range order {
		oc, err := NewOrderedColumns(ref.AppName, ref.TableID, decls[ref])
		if err != nil {
			log.Printf("WARN: skipping table %s/%s (invalid columns): %v", ref.AppName, ref.TableID, err)
			continue
		}
		tables = append(tables, oc)
	}
	return tables, nil
}

func loadRuleGroups(ctx context.Context, q Querier) ([]*ColorRuleGroup, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT app_name, table_id, group_type, element_key, definition
		 FROM _color_rules ORDER BY app_name, table_id, group_type, element_key, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type groupKey struct {
		ref        TableRef
		typ        string
		elementKey string
	}
	var groups []*ColorRuleGroup
	byKey := make(map[groupKey]*ColorRuleGroup)
	for rows.Next() {
		var k groupKey
		var defJSON []byte
		if err := rows.Scan(&k.ref.AppName, &k.ref.TableID, &k.typ, &k.elementKey, &defJSON); err != nil {
			return nil, fmt.Errorf("scan color rule row: %w", err)
		}
		typ, err := ParseColorRuleGroupType(k.typ)
		if err != nil {
			log.Printf("WARN: skipping color rule of %s/%s: %v", k.ref.AppName, k.ref.TableID, err)
			continue
		}
		var rule ColorRule
		if err := json.Unmarshal(defJSON, &rule); err != nil {
			log.Printf("WARN: skipping color rule of %s/%s (invalid JSON): %v", k.ref.AppName, k.ref.TableID, err)
			continue
		}
		g, ok := byKey[k]
		if !ok {
			g = &ColorRuleGroup{AppName: k.ref.AppName, TableID: k.ref.TableID, Type: typ, ElementKey: k.elementKey}
			byKey[k] = g
			groups = append(groups, g)
		}
		g.Add(&rule)
	}
	return groups, rows.Err()
}

// SaveColumns replaces the persisted declarations of a table.
func SaveColumns(ctx context.Context, q Querier, ph Placeholders, oc *OrderedColumns) error {
	if _, err := q.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM _table_columns WHERE app_name = %s AND table_id = %s", ph.Placeholder(1), ph.Placeholder(2)),
		oc.AppName, oc.TableID); err != nil {
		return fmt.Errorf("delete columns of %s: %w", oc.TableID, err)
	}

	insert := fmt.Sprintf(
		`INSERT INTO _table_columns (app_name, table_id, element_key, element_name, element_type, list_child_element_keys, position)
		 VALUES (%s, %s, %s, %s, %s, %s, %s)`,
		ph.Placeholder(1), ph.Placeholder(2), ph.Placeholder(3), ph.Placeholder(4),
		ph.Placeholder(5), ph.Placeholder(6), ph.Placeholder(7))
	for i, c := range oc.Columns() {
		if _, err := q.ExecContext(ctx, insert,
			oc.AppName, oc.TableID, c.ElementKey, c.ElementName, c.ElementType, c.ListChildElementKeys, i); err != nil {
			return fmt.Errorf("insert column %s.%s: %w", oc.TableID, c.ElementKey, err)
		}
	}
	return nil
}

// SaveRuleGroup replaces the persisted rules of one group.
func SaveRuleGroup(ctx context.Context, q Querier, ph Placeholders, g *ColorRuleGroup) error {
	if _, err := q.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM _color_rules WHERE app_name = %s AND table_id = %s AND group_type = %s AND element_key = %s",
			ph.Placeholder(1), ph.Placeholder(2), ph.Placeholder(3), ph.Placeholder(4)),
		g.AppName, g.TableID, string(g.Type), g.ElementKey); err != nil {
		return fmt.Errorf("delete %s rules of %s: %w", g.Type, g.TableID, err)
	}

	insert := fmt.Sprintf(
		`INSERT INTO _color_rules (id, app_name, table_id, group_type, element_key, definition, position)
		 VALUES (%s, %s, %s, %s, %s, %s, %s)`,
		ph.Placeholder(1), ph.Placeholder(2), ph.Placeholder(3), ph.Placeholder(4),
		ph.Placeholder(5), ph.Placeholder(6), ph.Placeholder(7))
	for i, r := range g.Rules {
		def, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode rule %s: %w", r.ID(), err)
		}
		if _, err := q.ExecContext(ctx, insert,
			r.ID(), g.AppName, g.TableID, string(g.Type), g.ElementKey, string(def), i); err != nil {
			return fmt.Errorf("insert rule %s: %w", r.ID(), err)
		}
	}
	return nil
}

// DeleteTable removes the persisted declarations and color rules of a table.
func DeleteTable(ctx context.Context, q Querier, ph Placeholders, appName, tableID string) error {
	where := fmt.Sprintf(" WHERE app_name = %s AND table_id = %s", ph.Placeholder(1), ph.Placeholder(2))
	for _, t := range []string{"_color_rules", "_table_columns"} {
		if _, err := q.ExecContext(ctx, "DELETE FROM "+t+where, appName, tableID); err != nil {
			return fmt.Errorf("delete %s of %s: %w", t, tableID, err)
		}
	}
	return nil
}
