package metadata

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

type fakeRow map[string]*string

func (r fakeRow) GetRawStringByKey(key string) (*string, error) {
	v, ok := r[key]
	if !ok {
		return nil, ErrColumnNotFound
	}
	return v, nil
}

func strPtr(s string) *string { return &s }

func TestColorRule_EqualsWithoutID(t *testing.T) {
	a := NewColorRule("myElement", LessThan, "5", 0, 1)
	b := NewColorRule("myElement", LessThan, "5", 0, 1)

	if a.ID() == b.ID() {
		t.Fatal("expected distinct generated ids")
	}
	if !a.EqualsWithoutID(b) || !b.EqualsWithoutID(a) {
		t.Fatal("expected rules to be equal without id")
	}
	if a.Equal(b) {
		t.Fatal("expected rules with distinct ids to differ")
	}
}

func TestColorRule_MutationBreaksEquality(t *testing.T) {
	mutations := []struct {
		name string
		fn   func(r *ColorRule)
	}{
		{"value", func(r *ColorRule) { r.Value = "6" }},
		{"background", func(r *ColorRule) { r.Background = 7 }},
		{"foreground", func(r *ColorRule) { r.Foreground = 8 }},
		{"operator", func(r *ColorRule) { r.Operator = GreaterThan }},
		{"element key", func(r *ColorRule) { r.ElementKey = "other" }},
	}
	for _, m := range mutations {
		t.Run(m.name, func(t *testing.T) {
			a := NewColorRule("myElement", LessThan, "5", 0, 1)
			b := NewColorRule("myElement", LessThan, "5", 0, 1)
			m.fn(a)
			if a.EqualsWithoutID(b) {
				t.Fatalf("expected %s mutation to break equality", m.name)
			}
			m.fn(b)
			if !a.EqualsWithoutID(b) {
				t.Fatalf("expected equality after mirroring %s mutation", m.name)
			}
		})
	}
}

func TestColorRule_CloneKeepsID(t *testing.T) {
	a := NewColorRuleWithID("rule-1", "age", Equal, "3", 1, 2)
	c := a.Clone()
	if !a.Equal(c) {
		t.Fatalf("expected clone to equal source, got %s", c)
	}
	c.Value = "4"
	if a.Value != "3" {
		t.Fatal("expected clone mutation not to affect source")
	}
}

func TestCheckMatch_Numeric(t *testing.T) {
	rule := NewColorRule("age", LessThan, "15", 0, 0)

	ok, err := rule.CheckMatch(DataTypeInteger, fakeRow{"age": strPtr("10")})
	if err != nil {
		t.Fatalf("check match: %v", err)
	}
	if !ok {
		t.Fatal("expected 10 < 15 to match")
	}

	ok, err = rule.CheckMatch(DataTypeInteger, fakeRow{"age": strPtr("20")})
	if err != nil {
		t.Fatalf("check match: %v", err)
	}
	if ok {
		t.Fatal("expected 20 < 15 not to match")
	}
}

func TestCheckMatch_NumericComparesByValue(t *testing.T) {
	// "9" sorts after "10" as text but not as a number.
	rule := NewColorRule("weight", GreaterThan, "10", 0, 0)
	ok, err := rule.CheckMatch(DataTypeNumber, fakeRow{"weight": strPtr("9.5")})
	if err != nil {
		t.Fatalf("check match: %v", err)
	}
	if ok {
		t.Fatal("expected 9.5 > 10 not to match")
	}

	rule = NewColorRule("weight", Equal, "2.50", 0, 0)
	ok, _ = rule.CheckMatch(DataTypeNumber, fakeRow{"weight": strPtr(" 2.5 ")})
	if !ok {
		t.Fatal("expected 2.5 = 2.50 to match")
	}
}

func TestCheckMatch_NumericUnparsableNeverMatches(t *testing.T) {
	for _, op := range PickerRuleTypes() {
		rule := NewColorRule("age", op, "15", 0, 0)
		ok, err := rule.CheckMatch(DataTypeInteger, fakeRow{"age": strPtr("fifteen")})
		if err != nil {
			t.Fatalf("%s: expected no error, got %v", op, err)
		}
		if ok {
			t.Fatalf("%s: expected unparsable value not to match", op)
		}

		rule.Value = "n/a"
		ok, err = rule.CheckMatch(DataTypeInteger, fakeRow{"age": strPtr("15")})
		if err != nil {
			t.Fatalf("%s: expected no error, got %v", op, err)
		}
		if ok {
			t.Fatalf("%s: expected unparsable rule value not to match", op)
		}
	}
}

func TestCheckMatch_Boolean(t *testing.T) {
	rule := NewColorRule("done", LessThan, "true", 0, 0)
	ok, err := rule.CheckMatch(DataTypeBool, fakeRow{"done": strPtr("false")})
	if err != nil {
		t.Fatalf("check match: %v", err)
	}
	if !ok {
		t.Fatal("expected false < true to match")
	}

	rule.Operator = Equal
	ok, _ = rule.CheckMatch(DataTypeBool, fakeRow{"done": strPtr("true")})
	if !ok {
		t.Fatal("expected true = true to match")
	}

	// Anything other than "true" reads as false.
	rule.Value = "false"
	ok, _ = rule.CheckMatch(DataTypeBool, fakeRow{"done": strPtr("yes")})
	if !ok {
		t.Fatal("expected yes = false to match")
	}
}

func TestCheckMatch_Text(t *testing.T) {
	rule := NewColorRule("name", LessThan, "bob", 0, 0)
	ok, err := rule.CheckMatch(DataTypeString, fakeRow{"name": strPtr("alice")})
	if err != nil {
		t.Fatalf("check match: %v", err)
	}
	if !ok {
		t.Fatal("expected alice < bob to match")
	}

	// Array columns compare as text too.
	rule = NewColorRule("tags", Equal, `["a"]`, 0, 0)
	ok, _ = rule.CheckMatch(DataTypeArray, fakeRow{"tags": strPtr(`["a"]`)})
	if !ok {
		t.Fatal("expected equal array text to match")
	}

	rule = NewColorRule("tags", GreaterThan, "5", 0, 0)
	ok, _ = rule.CheckMatch(DataTypeArray, fakeRow{"tags": strPtr("10")})
	if ok {
		t.Fatal("expected text comparison of 10 > 5 not to match")
	}
}

func TestCheckMatch_NullNeverMatches(t *testing.T) {
	types := []ElementDataType{DataTypeInteger, DataTypeBool, DataTypeString}
	for _, dt := range types {
		for _, op := range PickerRuleTypes() {
			rule := NewColorRule("x", op, "", 0, 0)
			ok, err := rule.CheckMatch(dt, fakeRow{"x": nil})
			if err != nil {
				t.Fatalf("%s %s: unexpected error: %v", dt, op, err)
			}
			if ok {
				t.Fatalf("%s %s: expected null value not to match", dt, op)
			}
		}
	}
}

func TestCheckMatch_NoOpFails(t *testing.T) {
	types := []ElementDataType{DataTypeInteger, DataTypeNumber, DataTypeBool, DataTypeString, DataTypeArray}
	for _, dt := range types {
		rule := NewColorRule("x", NoOp, "1", 0, 0)
		_, err := rule.CheckMatch(dt, fakeRow{"x": strPtr("1")})
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("%s: expected ErrInvalidArgument, got %v", dt, err)
		}
		if !strings.Contains(err.Error(), "unrecognized op passed to checkMatch") {
			t.Fatalf("%s: unexpected message: %v", dt, err)
		}
	}
}

func TestCheckMatch_UnknownColumn(t *testing.T) {
	rule := NewColorRule("missing", Equal, "1", 0, 0)
	_, err := rule.CheckMatch(DataTypeString, fakeRow{})
	if !errors.Is(err, ErrColumnNotFound) {
		t.Fatalf("expected ErrColumnNotFound, got %v", err)
	}
}

func TestColorRule_JSONRepresentation(t *testing.T) {
	rule := NewColorRuleWithID("rule-1", "age", GreaterThanOrEqual, "18", -16777216, -1)
	rep := rule.JSONRepresentation()

	want := map[string]any{
		"mValue":      "18",
		"mElementKey": "age",
		"mOperator":   "GREATER_THAN_OR_EQUAL",
		"mId":         "rule-1",
		"mForeground": -16777216,
		"mBackground": -1,
	}
	if len(rep) != len(want) {
		t.Fatalf("expected %d keys, got %d: %v", len(want), len(rep), rep)
	}
	for k, v := range want {
		if rep[k] != v {
			t.Fatalf("expected %s=%v, got %v", k, v, rep[k])
		}
	}

	b, err := json.Marshal(rule)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	const wantJSON = `{"mBackground":-1,"mElementKey":"age","mForeground":-16777216,"mId":"rule-1","mOperator":"GREATER_THAN_OR_EQUAL","mValue":"18"}`
	if string(b) != wantJSON {
		t.Fatalf("expected %s, got %s", wantJSON, b)
	}

	var decoded ColorRule
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded.Equal(rule) {
		t.Fatalf("expected %s, got %s", rule, &decoded)
	}
}

func TestColorRule_UnmarshalAcceptsSymbolAndGeneratesID(t *testing.T) {
	var rule ColorRule
	if err := json.Unmarshal([]byte(`{"mElementKey":"age","mOperator":"<=","mValue":"3"}`), &rule); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rule.Operator != LessThanOrEqual {
		t.Fatalf("expected LESS_THAN_OR_EQUAL, got %s", rule.Operator)
	}
	if rule.ID() == "" {
		t.Fatal("expected generated id")
	}

	err := json.Unmarshal([]byte(`{"mOperator":"~"}`), &rule)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestColorRule_String(t *testing.T) {
	rule := NewColorRuleWithID("rule-1", "age", LessThan, "5", 2, 3)
	want := "[id=rule-1, elementKey=age, operator=LESS_THAN, value=5, background=3, foreground=2]"
	if rule.String() != want {
		t.Fatalf("expected %q, got %q", want, rule.String())
	}
}
