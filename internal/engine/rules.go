package engine

import (
	"fmt"

	"tableview/internal/metadata"
	"tableview/internal/table"
)

// RowColors holds the colors chosen for one row. Nil guides mean no rule matched.
type RowColors struct {
	RowID  string                          `json:"_id"`
	Row    *metadata.ColorGuide            `json:"row,omitempty"`
	Status *metadata.ColorGuide            `json:"status,omitempty"`
	Cells  map[string]*metadata.ColorGuide `json:"cells,omitempty"`
}

// EvaluateColorRules runs every rule group of a table against each row.
// Table groups color whole rows, status groups the status column, and
// column groups the cells of their element key.
func EvaluateColorRules(tbl *table.BaseTable, columns *metadata.OrderedColumns, groups []*metadata.ColorRuleGroup) ([]RowColors, error) {
	out := make([]RowColors, 0, tbl.Len())
	if len(groups) == 0 {
		for _, r := range tbl.Rows() {
			out = append(out, RowColors{RowID: r.ID()})
		}
		return out, nil
	}

	for _, r := range tbl.Rows() {
		typed := table.NewTypedRow(r, columns)
		rc := RowColors{RowID: r.ID()}

		for _, g := range groups {
			guide, err := g.Evaluate(columns, typed)
			if err != nil {
				return nil, fmt.Errorf("%s rules of %s, row %s: %w", g.Type, g.TableID, r.ID(), err)
			}
			if guide == nil {
				continue
			}
			switch g.Type {
			case metadata.GroupTable:
				rc.Row = guide
			case metadata.GroupStatus:
				rc.Status = guide
			case metadata.GroupColumn:
				if rc.Cells == nil {
					rc.Cells = make(map[string]*metadata.ColorGuide)
				}
				rc.Cells[g.ElementKey] = guide
			}
		}
		out = append(out, rc)
	}
	return out, nil
}
