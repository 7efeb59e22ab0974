package engine

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"tableview/internal/metadata"
	"tableview/internal/store"
)

// QuerySpec is a structured SELECT over one data table. Where and Having are
// raw SQL predicates and are emitted verbatim.
type QuerySpec struct {
	Table     string // physical name, see store.DataTableName
	Where     string
	GroupBy   []string
	Having    string
	OrderBy   []string
	Direction []string
}

// SQL renders the query with BuildSQLStatement.
func (q QuerySpec) SQL() string {
	return BuildSQLStatement(q.Table, q.Where, q.GroupBy, q.Having, q.OrderBy, q.Direction)
}

// BuildSQLStatement assembles a SELECT over tableID. An empty whereClause or
// havingClause is omitted; HAVING is only emitted with a GROUP BY. Each
// non-empty orderBy entry is sorted by the direction at the same position,
// ASC when that direction is missing or empty.
//
// Nothing is escaped. tableID and the column lists must already be checked
// identifiers; the where and having clauses are raw SQL from a trusted caller.
func BuildSQLStatement(tableID, whereClause string, groupBy []string, havingClause string, orderBy, direction []string) string {
	var b strings.Builder
	b.WriteString(`SELECT * FROM "`)
	b.WriteString(tableID)
	b.WriteString(`" `)

	var clauses []string
	if whereClause != "" {
		clauses = append(clauses, "WHERE "+whereClause)
	}
	if len(groupBy) > 0 {
		clauses = append(clauses, "GROUP BY "+strings.Join(groupBy, ", "))
		if havingClause != "" {
			clauses = append(clauses, "HAVING "+havingClause)
		}
	}

	var orderParts []string
	for i, col := range orderBy {
		if col == "" {
			continue
		}
		dir := "ASC"
		if i < len(direction) && direction[i] != "" {
			dir = direction[i]
		}
		orderParts = append(orderParts, col+" "+dir)
	}
	if len(orderParts) > 0 {
		clauses = append(clauses, "ORDER BY "+strings.Join(orderParts, ", "))
	}

	b.WriteString(strings.Join(clauses, " "))
	return b.String()
}

// ConvertStringToArray wraps an optional value: nil gives an empty slice.
func ConvertStringToArray(s *string) []string {
	if s == nil {
		return []string{}
	}
	return []string{*s}
}

// ParseQuerySpec reads where, group_by, having, order_by and direction query
// parameters. group_by, order_by and direction are comma separated; grouped
// and ordered columns must be stored columns of columns.
//
// where and having are raw SQL and reach the database unchanged. With
// rawFilters false they are refused instead.
func ParseQuerySpec(c *fiber.Ctx, columns *metadata.OrderedColumns, rawFilters bool) (QuerySpec, error) {
	qs := QuerySpec{
		Table:  store.DataTableName(columns.AppName, columns.TableID),
		Where:  strings.TrimSpace(c.Query("where")),
		Having: strings.TrimSpace(c.Query("having")),
	}
	if !rawFilters && (qs.Where != "" || qs.Having != "") {
		return QuerySpec{}, NewAppError("INVALID_ARGUMENT", 400, "where and having filters are disabled")
	}

	var err error
	if qs.GroupBy, err = parseColumnList(c.Query("group_by"), columns, "group_by"); err != nil {
		return QuerySpec{}, err
	}
	if qs.OrderBy, err = parseColumnList(c.Query("order_by"), columns, "order_by"); err != nil {
		return QuerySpec{}, err
	}

	if dirParam := c.Query("direction"); dirParam != "" {
		for _, d := range strings.Split(dirParam, ",") {
			d = strings.ToUpper(strings.TrimSpace(d))
			if d != "" && d != "ASC" && d != "DESC" {
				return QuerySpec{}, &AppError{
					Code:    "INVALID_ARGUMENT",
					Status:  400,
					Message: fmt.Sprintf("Invalid sort direction: %s", d),
				}
			}
			qs.Direction = append(qs.Direction, d)
		}
	}

	return qs, nil
}

func parseColumnList(param string, columns *metadata.OrderedColumns, name string) ([]string, error) {
	if param == "" {
		return nil, nil
	}
	var out []string
	for _, part := range strings.Split(param, ",") {
		part = strings.TrimSpace(part)
		if part != "" && part != store.RowIDColumn {
			if !columns.IsStored(part) {
				return nil, &AppError{
					Code:    "UNKNOWN_COLUMN",
					Status:  400,
					Message: fmt.Sprintf("Unknown %s column: %s", name, part),
				}
			}
		}
		out = append(out, part)
	}
	return out, nil
}
