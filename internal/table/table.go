package table

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownColumn = errors.New("unknown column")
	ErrRowWidth      = errors.New("row width mismatch")
	ErrIndexMap      = errors.New("invalid element key index")
)

// BaseTable is an in-memory result set. Cell i of every row holds the value
// of ElementKeyForIndex[i]; rows are append-only.
type BaseTable struct {
	primaryKey         []string
	elementKeyForIndex []string
	elementKeyToIndex  map[string]int
	rows               []*Row
}

// New creates an empty table. elementKeyToIndex must be the inverse of
// elementKeyForIndex; pass nil to derive it.
func New(elementKeyForIndex []string, elementKeyToIndex map[string]int, primaryKey []string, capacity int) (*BaseTable, error) {
	if elementKeyToIndex == nil {
		elementKeyToIndex = make(map[string]int, len(elementKeyForIndex))
		for i, k := range elementKeyForIndex {
			if _, dup := elementKeyToIndex[k]; dup {
				return nil, fmt.Errorf("%w: duplicate element key %s", ErrIndexMap, k)
			}
			elementKeyToIndex[k] = i
		}
	}
	if err := checkBijection(elementKeyForIndex, elementKeyToIndex); err != nil {
		return nil, err
	}
	if capacity < 0 {
		capacity = 0
	}
	return &BaseTable{
		primaryKey:         primaryKey,
		elementKeyForIndex: elementKeyForIndex,
		elementKeyToIndex:  elementKeyToIndex,
		rows:               make([]*Row, 0, capacity),
	}, nil
}

func checkBijection(forIndex []string, toIndex map[string]int) error {
	if len(forIndex) != len(toIndex) {
		return fmt.Errorf("%w: %d keys but %d index entries", ErrIndexMap, len(forIndex), len(toIndex))
	}
	for i, k := range forIndex {
		if j, ok := toIndex[k]; !ok || j != i {
			return fmt.Errorf("%w: %s is at position %d", ErrIndexMap, k, i)
		}
	}
	return nil
}

// Width returns the number of cells per row.
func (t *BaseTable) Width() int {
	return len(t.elementKeyForIndex)
}

// PrimaryKey returns the primary key columns as given at construction.
func (t *BaseTable) PrimaryKey() []string {
	return t.primaryKey
}

// ElementKeys returns the element key of each cell position.
func (t *BaseTable) ElementKeys() []string {
	out := make([]string, len(t.elementKeyForIndex))
	copy(out, t.elementKeyForIndex)
	return out
}

// ElementKeyAt returns the element key stored at position i.
func (t *BaseTable) ElementKeyAt(i int) string {
	return t.elementKeyForIndex[i]
}

// IndexOf returns the cell position of elementKey.
func (t *BaseTable) IndexOf(elementKey string) (int, error) {
	i, ok := t.elementKeyToIndex[elementKey]
	if !ok {
		return -1, fmt.Errorf("%w: %s", ErrUnknownColumn, elementKey)
	}
	return i, nil
}

// AddRow appends a row built from values, which must have Width cells.
func (t *BaseTable) AddRow(rowID string, values []*string) (*Row, error) {
	if len(values) != t.Width() {
		return nil, fmt.Errorf("%w: got %d values, table width is %d", ErrRowWidth, len(values), t.Width())
	}
	r := &Row{table: t, id: rowID, values: values}
	t.rows = append(t.rows, r)
	return r, nil
}

// Len returns the number of rows.
func (t *BaseTable) Len() int {
	return len(t.rows)
}

// RowAt returns row i.
func (t *BaseTable) RowAt(i int) *Row {
	return t.rows[i]
}

// Rows returns all rows in insertion order.
func (t *BaseTable) Rows() []*Row {
	return t.rows
}

// Row is one stored row of raw textual cells; a nil cell is null.
type Row struct {
	table  *BaseTable
	id     string
	values []*string
}

// ID returns the row's primary key value.
func (r *Row) ID() string {
	return r.id
}

// Table returns the owning table.
func (r *Row) Table() *BaseTable {
	return r.table
}

// RawStringAt returns cell i.
func (r *Row) RawStringAt(i int) *string {
	return r.values[i]
}

// Values returns the cells in table order.
func (r *Row) Values() []*string {
	return r.values
}

// GetRawStringByKey returns the cell stored for elementKey.
func (r *Row) GetRawStringByKey(elementKey string) (*string, error) {
	i, err := r.table.IndexOf(elementKey)
	if err != nil {
		return nil, err
	}
	return r.values[i], nil
}
