package metadata

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RowValues gives read access to the raw cell text of one row. A nil value
// means the cell is null.
type RowValues interface {
	GetRawStringByKey(elementKey string) (*string, error)
}

// ColorRule colors a row or cell when the value in ElementKey compares to
// Value under Operator. The id is fixed at construction; every other field
// may be changed.
type ColorRule struct {
	id         string
	ElementKey string
	Operator   RuleType
	Value      string
	Foreground int
	Background int
}

// NewColorRule creates a rule with a freshly generated id.
func NewColorRule(elementKey string, op RuleType, value string, foreground, background int) *ColorRule {
	return NewColorRuleWithID("", elementKey, op, value, foreground, background)
}

// NewColorRuleWithID creates a rule with the given id, generating one if id is empty.
func NewColorRuleWithID(id, elementKey string, op RuleType, value string, foreground, background int) *ColorRule {
	if id == "" {
		id = uuid.New().String()
	}
	return &ColorRule{
		id:         id,
		ElementKey: elementKey,
		Operator:   op,
		Value:      value,
		Foreground: foreground,
		Background: background,
	}
}

// ID returns the rule's identity.
func (r *ColorRule) ID() string {
	return r.id
}

// Equal compares all fields including the id.
func (r *ColorRule) Equal(o *ColorRule) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.id == o.id && r.EqualsWithoutID(o)
}

// EqualsWithoutID compares every field except the id.
func (r *ColorRule) EqualsWithoutID(o *ColorRule) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.ElementKey == o.ElementKey &&
		r.Operator == o.Operator &&
		r.Value == o.Value &&
		r.Foreground == o.Foreground &&
		r.Background == o.Background
}

// Clone returns a copy that keeps the id.
func (r *ColorRule) Clone() *ColorRule {
	c := *r
	return &c
}

// CheckMatch reports whether the row's value for ElementKey satisfies the
// rule, comparing as declared by dataType. NO_OP rules cannot be evaluated
// and return ErrInvalidArgument. Values that do not parse for the numeric
// family never match.
func (r *ColorRule) CheckMatch(dataType ElementDataType, row RowValues) (bool, error) {
	if r.Operator == NoOp || !r.Operator.valid() {
		return false, fmt.Errorf("%w: unrecognized op passed to checkMatch: %s", ErrInvalidArgument, r.Operator)
	}

	raw, err := row.GetRawStringByKey(r.ElementKey)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}

	var cmp int
	switch dataType.Family() {
	case FamilyNumeric:
		left, err := decimal.NewFromString(strings.TrimSpace(*raw))
		if err != nil {
			return false, nil
		}
		right, err := decimal.NewFromString(strings.TrimSpace(r.Value))
		if err != nil {
			return false, nil
		}
		cmp = left.Cmp(right)
	case FamilyBoolean:
		cmp = boolOrdinal(*raw) - boolOrdinal(r.Value)
	case FamilyText:
		cmp = strings.Compare(*raw, r.Value)
	}
	return r.Operator.holds(cmp)
}

// boolOrdinal orders false before true. Only the exact text "true" is true.
func boolOrdinal(s string) int {
	if s == "true" {
		return 1
	}
	return 0
}

// JSONRepresentation returns the persisted attribute map of the rule.
func (r *ColorRule) JSONRepresentation() map[string]any {
	return map[string]any{
		"mValue":      r.Value,
		"mElementKey": r.ElementKey,
		"mOperator":   r.Operator.String(),
		"mId":         r.id,
		"mForeground": r.Foreground,
		"mBackground": r.Background,
	}
}

type colorRuleJSON struct {
	Value      string   `json:"mValue"`
	ElementKey string   `json:"mElementKey"`
	Operator   RuleType `json:"mOperator"`
	ID         string   `json:"mId"`
	Foreground int      `json:"mForeground"`
	Background int      `json:"mBackground"`
}

// MarshalJSON writes the attribute map; encoding/json sorts the keys.
func (r *ColorRule) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.JSONRepresentation())
}

// UnmarshalJSON reads the attribute map. A missing id is generated.
func (r *ColorRule) UnmarshalJSON(b []byte) error {
	var raw colorRuleJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode color rule: %w", err)
	}
	*r = *NewColorRuleWithID(raw.ID, raw.ElementKey, raw.Operator, raw.Value, raw.Foreground, raw.Background)
	return nil
}

func (r *ColorRule) String() string {
	return fmt.Sprintf("[id=%s, elementKey=%s, operator=%s, value=%s, background=%d, foreground=%d]",
		r.id, r.ElementKey, r.Operator, r.Value, r.Background, r.Foreground)
}
