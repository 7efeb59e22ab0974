package metadata

import "fmt"

// RuleType is the comparison operator of a ColorRule.
type RuleType int

const (
	NoOp RuleType = iota
	LessThan
	LessThanOrEqual
	Equal
	GreaterThanOrEqual
	GreaterThan
)

var ruleTypeNames = [...]string{
	NoOp:               "NO_OP",
	LessThan:           "LESS_THAN",
	LessThanOrEqual:    "LESS_THAN_OR_EQUAL",
	Equal:              "EQUAL",
	GreaterThanOrEqual: "GREATER_THAN_OR_EQUAL",
	GreaterThan:        "GREATER_THAN",
}

var ruleTypeSymbols = [...]string{
	NoOp:               "",
	LessThan:           "<",
	LessThanOrEqual:    "<=",
	Equal:              "=",
	GreaterThanOrEqual: ">=",
	GreaterThan:        ">",
}

// pickerOrder is the order operators are offered in rule editors. NO_OP is not offered.
var pickerOrder = []RuleType{LessThan, LessThanOrEqual, Equal, GreaterThanOrEqual, GreaterThan}

var (
	ruleTypeBySymbol = make(map[string]RuleType, len(ruleTypeSymbols))
	ruleTypeByName   = make(map[string]RuleType, len(ruleTypeNames))
)

func init() {
	for i, s := range ruleTypeSymbols {
		ruleTypeBySymbol[s] = RuleType(i)
	}
	for i, n := range ruleTypeNames {
		ruleTypeByName[n] = RuleType(i)
	}
}

func (t RuleType) valid() bool {
	return t >= NoOp && t <= GreaterThan
}

// Symbol returns the display symbol, "" for NO_OP.
func (t RuleType) Symbol() string {
	if !t.valid() {
		return ""
	}
	return ruleTypeSymbols[t]
}

// String returns the variant name, e.g. "LESS_THAN".
func (t RuleType) String() string {
	if !t.valid() {
		return fmt.Sprintf("RuleType(%d)", int(t))
	}
	return ruleTypeNames[t]
}

// RuleTypeFromSymbol parses a display symbol. The empty string is NO_OP.
func RuleTypeFromSymbol(s string) (RuleType, error) {
	t, ok := ruleTypeBySymbol[s]
	if !ok {
		return NoOp, fmt.Errorf("%w: unrecognized rule operator: %s", ErrInvalidArgument, s)
	}
	return t, nil
}

// RuleTypeFromName parses a variant name such as "GREATER_THAN".
func RuleTypeFromName(name string) (RuleType, error) {
	t, ok := ruleTypeByName[name]
	if !ok {
		return NoOp, fmt.Errorf("%w: unrecognized rule operator name: %s", ErrInvalidArgument, name)
	}
	return t, nil
}

// RuleTypeValues returns the operator symbols in picker order.
func RuleTypeValues() []string {
	out := make([]string, len(pickerOrder))
	for i, t := range pickerOrder {
		out[i] = t.Symbol()
	}
	return out
}

// PickerRuleTypes returns the selectable operators in picker order.
func PickerRuleTypes() []RuleType {
	out := make([]RuleType, len(pickerOrder))
	copy(out, pickerOrder)
	return out
}

// MarshalText encodes the variant name.
func (t RuleType) MarshalText() ([]byte, error) {
	if !t.valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidArgument, t)
	}
	return []byte(ruleTypeNames[t]), nil
}

// UnmarshalText accepts a variant name or a display symbol.
func (t *RuleType) UnmarshalText(b []byte) error {
	if v, err := RuleTypeFromName(string(b)); err == nil {
		*t = v
		return nil
	}
	v, err := RuleTypeFromSymbol(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// holds reports whether a three-way comparison result satisfies the operator.
func (t RuleType) holds(cmp int) (bool, error) {
	switch t {
	case LessThan:
		return cmp < 0, nil
	case LessThanOrEqual:
		return cmp <= 0, nil
	case Equal:
		return cmp == 0, nil
	case GreaterThanOrEqual:
		return cmp >= 0, nil
	case GreaterThan:
		return cmp > 0, nil
	default:
		return false, fmt.Errorf("%w: unrecognized op passed to checkMatch: %s", ErrInvalidArgument, t)
	}
}
