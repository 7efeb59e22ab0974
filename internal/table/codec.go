package table

import (
	"encoding/json"
	"fmt"
)

type encodedRow struct {
	ID     string    `json:"id"`
	Values []*string `json:"values"`
}

type encodedTable struct {
	PrimaryKey         []string     `json:"primaryKey"`
	ElementKeyForIndex []string     `json:"elementKeyForIndex"`
	Rows               []encodedRow `json:"rows"`
}

// Encode serializes the table's layout and rows.
func (t *BaseTable) Encode() ([]byte, error) {
	et := encodedTable{
		PrimaryKey:         t.primaryKey,
		ElementKeyForIndex: t.elementKeyForIndex,
		Rows:               make([]encodedRow, len(t.rows)),
	}
	for i, r := range t.rows {
		et.Rows[i] = encodedRow{ID: r.id, Values: r.values}
	}
	b, err := json.Marshal(et)
	if err != nil {
		return nil, fmt.Errorf("encode table: %w", err)
	}
	return b, nil
}

// Decode rebuilds a table written by Encode, validating every row's width.
func Decode(data []byte) (*BaseTable, error) {
	var et encodedTable
	if err := json.Unmarshal(data, &et); err != nil {
		return nil, fmt.Errorf("decode table: %w", err)
	}
	t, err := New(et.ElementKeyForIndex, nil, et.PrimaryKey, len(et.Rows))
	if err != nil {
		return nil, fmt.Errorf("decode table: %w", err)
	}
	for i, r := range et.Rows {
		if _, err := t.AddRow(r.ID, r.Values); err != nil {
			return nil, fmt.Errorf("decode table row %d: %w", i, err)
		}
	}
	return t, nil
}
