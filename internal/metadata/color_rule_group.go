package metadata

import "fmt"

// ColorRuleGroupType says what a group of rules colors.
type ColorRuleGroupType string

const (
	GroupTable  ColorRuleGroupType = "table"  // whole rows
	GroupColumn ColorRuleGroupType = "column" // cells of ElementKey
	GroupStatus ColorRuleGroupType = "status" // the row status column
)

// ParseColorRuleGroupType validates a group type name.
func ParseColorRuleGroupType(s string) (ColorRuleGroupType, error) {
	switch t := ColorRuleGroupType(s); t {
	case GroupTable, GroupColumn, GroupStatus:
		return t, nil
	}
	return "", fmt.Errorf("%w: unrecognized color rule group type: %s", ErrInvalidArgument, s)
}

// ColorGuide is the pair of colors picked by the first matching rule.
type ColorGuide struct {
	Foreground int `json:"foreground"`
	Background int `json:"background"`
}

// ColorRuleGroup is an ordered list of rules; earlier rules win.
type ColorRuleGroup struct {
	AppName    string             `json:"app_name"`
	TableID    string             `json:"table_id"`
	Type       ColorRuleGroupType `json:"type"`
	ElementKey string             `json:"element_key,omitempty"` // set for column groups
	Rules      []*ColorRule       `json:"rules"`
}

// Rule returns the rule with the given id, or nil.
func (g *ColorRuleGroup) Rule(id string) *ColorRule {
	for _, r := range g.Rules {
		if r.ID() == id {
			return r
		}
	}
	return nil
}

// Add appends a rule.
func (g *ColorRuleGroup) Add(r *ColorRule) {
	g.Rules = append(g.Rules, r)
}

// Replace swaps in r for the rule with the same id. It returns false if no
// such rule exists.
func (g *ColorRuleGroup) Replace(r *ColorRule) bool {
	for i, existing := range g.Rules {
		if existing.ID() == r.ID() {
			g.Rules[i] = r
			return true
		}
	}
	return false
}

// Remove deletes the rule with the given id and reports whether it was present.
func (g *ColorRuleGroup) Remove(id string) bool {
	for i, r := range g.Rules {
		if r.ID() == id {
			g.Rules = append(g.Rules[:i], g.Rules[i+1:]...)
			return true
		}
	}
	return false
}

// Prune returns a copy of g without the rules whose column is not stored in
// columns, and the number of rules dropped. A column group whose own column
// is not stored loses every rule.
func (g *ColorRuleGroup) Prune(columns *OrderedColumns) (*ColorRuleGroup, int) {
	out := *g
	out.Rules = nil
	if g.Type == GroupColumn && !columns.IsStored(g.ElementKey) {
		return &out, len(g.Rules)
	}
	for _, r := range g.Rules {
		if columns.IsStored(r.ElementKey) {
			out.Rules = append(out.Rules, r)
		}
	}
	return &out, len(g.Rules) - len(out.Rules)
}

// Evaluate returns the colors of the first rule matching row, or nil when
// none match. NO_OP rules are skipped. A rule whose column is not in
// columns fails the evaluation.
func (g *ColorRuleGroup) Evaluate(columns *OrderedColumns, row RowValues) (*ColorGuide, error) {
	for _, r := range g.Rules {
		if r.Operator == NoOp {
			continue
		}
		def, err := columns.Find(r.ElementKey)
		if err != nil {
			return nil, err
		}
		ok, err := r.CheckMatch(def.DataType(), row)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.ID(), err)
		}
		if ok {
			return &ColorGuide{Foreground: r.Foreground, Background: r.Background}, nil
		}
	}
	return nil, nil
}
