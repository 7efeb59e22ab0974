package metadata

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Column is a flat column declaration as it comes from the schema source.
type Column struct {
	ElementKey           string `json:"elementKey"`
	ElementName          string `json:"elementName"`
	ElementType          string `json:"elementType"`
	ListChildElementKeys string `json:"listChildElementKeys"` // JSON array of child element keys
}

// NewColumn builds a declaration. An empty child list is stored as "[]".
func NewColumn(elementKey, elementName, elementType string, childKeys []string) Column {
	list := "[]"
	if len(childKeys) > 0 {
		b, _ := json.Marshal(childKeys)
		list = string(b)
	}
	return Column{
		ElementKey:           elementKey,
		ElementName:          elementName,
		ElementType:          elementType,
		ListChildElementKeys: list,
	}
}

// ChildElementKeys decodes ListChildElementKeys. Blank and "null" mean no children.
func (c Column) ChildElementKeys() ([]string, error) {
	s := strings.TrimSpace(c.ListChildElementKeys)
	if s == "" || s == "null" {
		return nil, nil
	}
	var keys []string
	if err := json.Unmarshal([]byte(s), &keys); err != nil {
		return nil, fmt.Errorf("%w: child element keys of %s: %v", ErrInvalidArgument, c.ElementKey, err)
	}
	return keys, nil
}

// ColumnList is the serializable form of a table's declarations.
type ColumnList struct {
	Columns []Column
}

// Encode writes the list as a JSON array.
func (l ColumnList) Encode() ([]byte, error) {
	cols := l.Columns
	if cols == nil {
		cols = []Column{}
	}
	b, err := json.Marshal(cols)
	if err != nil {
		return nil, fmt.Errorf("encode column list: %w", err)
	}
	return b, nil
}

// DecodeColumnList reads a list written by Encode.
func DecodeColumnList(data []byte) (ColumnList, error) {
	var cols []Column
	if err := json.Unmarshal(data, &cols); err != nil {
		return ColumnList{}, fmt.Errorf("decode column list: %w", err)
	}
	return ColumnList{Columns: cols}, nil
}
