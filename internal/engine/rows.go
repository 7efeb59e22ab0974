package engine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"tableview/internal/metadata"
	"tableview/internal/store"
	"tableview/internal/table"
)

// FetchTable runs the query against its data table and loads the result into a
// BaseTable keyed by _id. Cell values are converted to their raw text form.
func FetchTable(ctx context.Context, q store.Querier, dialect store.Dialect, qs QuerySpec, columns *metadata.OrderedColumns, maxRows int) (*table.BaseTable, error) {
	names, values, err := store.QueryTable(ctx, q, maxRows, qs.SQL())
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", qs.Table, err)
	}

	idIdx := -1
	var keys []string
	var positions []int
	for i, name := range names {
		if name == store.RowIDColumn {
			idIdx = i
			continue
		}
		keys = append(keys, name)
		positions = append(positions, i)
	}

	types := make([]metadata.ElementDataType, len(keys))
	for i, k := range keys {
		types[i] = metadata.DataTypeString
		if def, err := columns.Find(k); err == nil {
			types[i] = def.DataType()
		}
	}

	tbl, err := table.New(keys, nil, []string{store.RowIDColumn}, len(values))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", qs.Table, err)
	}

	for n, vals := range values {
		rowID := strconv.Itoa(n)
		if idIdx >= 0 {
			if id := cellText(vals[idIdx], metadata.DataTypeString, false); id != nil {
				rowID = *id
			}
		}
		cells := make([]*string, len(keys))
		for i, pos := range positions {
			cells[i] = cellText(vals[pos], types[i], dialect.NeedsBoolFix())
		}
		if _, err := tbl.AddRow(rowID, cells); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

// FetchRow loads the row with the given _id from tableName into a one-row
// BaseTable over the stored columns. A missing row is store.ErrNotFound.
func FetchRow(ctx context.Context, q store.Querier, dialect store.Dialect, tableName string, columns *metadata.OrderedColumns, rowID string) (*table.BaseTable, error) {
	sqlStr := fmt.Sprintf("SELECT * FROM %s WHERE %s = %s",
		store.QuoteIdent(tableName), store.QuoteIdent(store.RowIDColumn), dialect.Placeholder(1))
	values, err := store.QueryRow(ctx, q, sqlStr, rowID)
	if err != nil {
		return nil, fmt.Errorf("fetch row %s of %s: %w", rowID, tableName, err)
	}

	var keys []string
	var cells []*string
	for _, d := range columns.StoredColumns() {
		v, ok := values[d.ElementKey]
		if !ok {
			continue
		}
		keys = append(keys, d.ElementKey)
		cells = append(cells, cellText(v, d.DataType(), dialect.NeedsBoolFix()))
	}

	tbl, err := table.New(keys, nil, []string{store.RowIDColumn}, 1)
	if err != nil {
		return nil, fmt.Errorf("fetch row %s of %s: %w", rowID, tableName, err)
	}
	if _, err := tbl.AddRow(rowID, cells); err != nil {
		return nil, err
	}
	return tbl, nil
}

// cellText renders a scanned database value as raw cell text. With boolFix,
// integers in bool columns are rendered as "true"/"false".
func cellText(v any, dt metadata.ElementDataType, boolFix bool) *string {
	var s string
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		s = val
	case []byte:
		s = string(val)
	case bool:
		s = strconv.FormatBool(val)
	case int64:
		if boolFix && dt == metadata.DataTypeBool {
			s = strconv.FormatBool(val != 0)
		} else {
			s = strconv.FormatInt(val, 10)
		}
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		s = val.Format(time.RFC3339Nano)
	default:
		s = fmt.Sprint(val)
	}
	return &s
}
