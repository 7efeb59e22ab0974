package table

import "tableview/internal/metadata"

// TypedRow binds a row to the resolved columns of its table.
type TypedRow struct {
	row     *Row
	columns *metadata.OrderedColumns
}

func NewTypedRow(row *Row, columns *metadata.OrderedColumns) *TypedRow {
	return &TypedRow{row: row, columns: columns}
}

// Row returns the underlying row.
func (tr *TypedRow) Row() *Row {
	return tr.row
}

// Columns returns the table's column metadata.
func (tr *TypedRow) Columns() *metadata.OrderedColumns {
	return tr.columns
}

// GetRawStringByKey returns the raw cell text for elementKey, or an
// ErrUnknownColumn error if the row's table has no such column.
func (tr *TypedRow) GetRawStringByKey(elementKey string) (*string, error) {
	return tr.row.GetRawStringByKey(elementKey)
}

// DataType returns the declared data type of elementKey.
func (tr *TypedRow) DataType(elementKey string) (metadata.ElementDataType, error) {
	def, err := tr.columns.Find(elementKey)
	if err != nil {
		return "", err
	}
	return def.DataType(), nil
}
