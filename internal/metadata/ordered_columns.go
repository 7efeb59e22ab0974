package metadata

import (
	"fmt"
	"strings"
)

// OrderedColumns holds the resolved column metadata of one table. It is
// immutable after NewOrderedColumns returns and safe for concurrent reads.
type OrderedColumns struct {
	AppName string
	TableID string

	defs  []*ColumnDefinition // declaration order
	byKey map[string]*ColumnDefinition
	roots []*ColumnDefinition
}

// NewOrderedColumns resolves flat declarations into linked definitions. It
// fails if a key is declared twice, a child key is not declared, a column is
// claimed by two parents, or the child links form a cycle.
func NewOrderedColumns(appName, tableID string, columns []Column) (*OrderedColumns, error) {
	oc := &OrderedColumns{
		AppName: appName,
		TableID: tableID,
		defs:    make([]*ColumnDefinition, 0, len(columns)),
		byKey:   make(map[string]*ColumnDefinition, len(columns)),
	}

	for _, c := range columns {
		if _, dup := oc.byKey[c.ElementKey]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, c.ElementKey)
		}
		d := &ColumnDefinition{
			ElementKey:  c.ElementKey,
			ElementName: c.ElementName,
			ElementType: ElementType(c.ElementType),
		}
		oc.defs = append(oc.defs, d)
		oc.byKey[c.ElementKey] = d
	}

	for _, c := range columns {
		childKeys, err := c.ChildElementKeys()
		if err != nil {
			return nil, err
		}
		parent := oc.byKey[c.ElementKey]
		for _, ck := range childKeys {
			child, ok := oc.byKey[ck]
			if !ok {
				return nil, fmt.Errorf("%w: %s (child of %s)", ErrUnknownChildKey, ck, c.ElementKey)
			}
			if child.parentKey != "" {
				return nil, fmt.Errorf("%w: %s is a child of both %s and %s",
					ErrInvalidArgument, ck, child.parentKey, c.ElementKey)
			}
			child.parentKey = c.ElementKey
			parent.childKeys = append(parent.childKeys, ck)
		}
	}

	for _, d := range oc.defs {
		if d.parentKey == "" {
			oc.roots = append(oc.roots, d)
		}
	}

	reached := 0
	for _, root := range oc.roots {
		reached += oc.markRetention(root, false)
	}
	if reached != len(oc.defs) {
		return nil, fmt.Errorf("%w: cyclic child element keys in table %s", ErrInvalidArgument, tableID)
	}

	return oc, nil
}

// markRetention walks the subtree and returns the number of definitions visited.
func (oc *OrderedColumns) markRetention(d *ColumnDefinition, underArray bool) int {
	dt := d.DataType()
	switch {
	case underArray:
		d.notUnitOfRetention = true
	case dt == DataTypeArray:
		d.notUnitOfRetention = false
	default:
		d.notUnitOfRetention = len(d.childKeys) > 0
	}
	n := 1
	for _, ck := range d.childKeys {
		n += oc.markRetention(oc.byKey[ck], underArray || dt == DataTypeArray)
	}
	return n
}

// Find returns the definition for elementKey or an ErrColumnNotFound error.
func (oc *OrderedColumns) Find(elementKey string) (*ColumnDefinition, error) {
	d, ok := oc.byKey[elementKey]
	if !ok {
		return nil, fmt.Errorf("%w: %s in table %s", ErrColumnNotFound, elementKey, oc.TableID)
	}
	return d, nil
}

// IsStored reports whether elementKey names a column with a physical
// column in the data table.
func (oc *OrderedColumns) IsStored(elementKey string) bool {
	d, ok := oc.byKey[elementKey]
	return ok && d.IsUnitOfRetention()
}

// Parent returns the parent definition, or nil for a top-level column.
func (oc *OrderedColumns) Parent(d *ColumnDefinition) *ColumnDefinition {
	if d.parentKey == "" {
		return nil
	}
	return oc.byKey[d.parentKey]
}

// Children returns the direct children of d in declared order.
func (oc *OrderedColumns) Children(d *ColumnDefinition) []*ColumnDefinition {
	out := make([]*ColumnDefinition, 0, len(d.childKeys))
	for _, ck := range d.childKeys {
		out = append(out, oc.byKey[ck])
	}
	return out
}

// ColumnDefinitions returns the top-level definitions in declaration order.
func (oc *OrderedColumns) ColumnDefinitions() []*ColumnDefinition {
	out := make([]*ColumnDefinition, len(oc.roots))
	copy(out, oc.roots)
	return out
}

// All returns every definition, at any depth, in declaration order.
func (oc *OrderedColumns) All() []*ColumnDefinition {
	out := make([]*ColumnDefinition, len(oc.defs))
	copy(out, oc.defs)
	return out
}

// Len returns the number of definitions at any depth.
func (oc *OrderedColumns) Len() int {
	return len(oc.defs)
}

// Columns converts the definitions back to flat declarations.
func (oc *OrderedColumns) Columns() []Column {
	out := make([]Column, 0, len(oc.defs))
	for _, d := range oc.defs {
		out = append(out, NewColumn(d.ElementKey, d.ElementName, string(d.ElementType), d.childKeys))
	}
	return out
}

// RetentionColumnNames returns the top-level element keys in declaration order.
func (oc *OrderedColumns) RetentionColumnNames() []string {
	names := make([]string, 0, len(oc.roots))
	for _, d := range oc.roots {
		names = append(names, d.ElementKey)
	}
	return names
}

// StoredColumns returns the definitions that are units of retention, i.e. the
// ones with a physical column in the data table.
func (oc *OrderedColumns) StoredColumns() []*ColumnDefinition {
	var out []*ColumnDefinition
	for _, d := range oc.defs {
		if d.IsUnitOfRetention() {
			out = append(out, d)
		}
	}
	return out
}

// GraphViewIsPossible returns true if any column holds numbers.
func (oc *OrderedColumns) GraphViewIsPossible() bool {
	for _, d := range oc.defs {
		if d.DataType().IsNumeric() {
			return true
		}
	}
	return false
}

// GeopointColumnDefinitions returns all geopoint columns at any depth.
func (oc *OrderedColumns) GeopointColumnDefinitions() []*ColumnDefinition {
	out := []*ColumnDefinition{}
	for _, d := range oc.defs {
		if d.IsGeopoint() {
			out = append(out, d)
		}
	}
	return out
}

// MapViewIsPossible returns true if the table has a geopoint column, or a
// pair of numeric latitude and longitude columns.
func (oc *OrderedColumns) MapViewIsPossible() bool {
	if len(oc.GeopointColumnDefinitions()) > 0 {
		return true
	}
	var lat, lng bool
	for _, d := range oc.defs {
		if oc.isCoordinate(d, "latitude") {
			lat = true
		}
		if oc.isCoordinate(d, "longitude") {
			lng = true
		}
	}
	return lat && lng
}

func (oc *OrderedColumns) isCoordinate(d *ColumnDefinition, suffix string) bool {
	if !d.IsUnitOfRetention() || !d.DataType().IsNumeric() {
		return false
	}
	return strings.HasSuffix(strings.ToLower(d.ElementName), suffix) ||
		strings.HasSuffix(strings.ToLower(d.ElementKey), suffix)
}

// ElementPath returns the dotted element names from the root down to d.
func (oc *OrderedColumns) ElementPath(d *ColumnDefinition) string {
	parts := []string{d.ElementName}
	for p := oc.Parent(d); p != nil; p = oc.Parent(p) {
		parts = append([]string{p.ElementName}, parts...)
	}
	return strings.Join(parts, ".")
}

// DataModel describes the top-level columns keyed by element key, nesting
// object properties by element name and array items under "items".
func (oc *OrderedColumns) DataModel() map[string]any {
	model := make(map[string]any, len(oc.roots))
	for _, d := range oc.roots {
		model[d.ElementKey] = oc.describe(d, false)
	}
	return model
}

// ExtendedDataModel is DataModel plus element paths, parent and child keys
// and retention flags on every node.
func (oc *OrderedColumns) ExtendedDataModel() map[string]any {
	model := make(map[string]any, len(oc.roots))
	for _, d := range oc.roots {
		model[d.ElementKey] = oc.describe(d, true)
	}
	return model
}

func (oc *OrderedColumns) describe(d *ColumnDefinition, extended bool) map[string]any {
	node := map[string]any{
		"type":        jsonSchemaType(d.DataType()),
		"elementType": string(d.ElementType),
		"elementKey":  d.ElementKey,
		"elementName": d.ElementName,
	}
	children := oc.Children(d)
	if d.DataType() == DataTypeArray && len(children) > 0 {
		node["items"] = oc.describe(children[0], extended)
	} else if len(children) > 0 {
		props := make(map[string]any, len(children))
		for _, c := range children {
			props[c.ElementName] = oc.describe(c, extended)
		}
		node["properties"] = props
	}
	if extended {
		node["elementPath"] = oc.ElementPath(d)
		node["parentElementKey"] = d.parentKey
		node["listChildElementKeys"] = d.ChildKeys()
		node["notUnitOfRetention"] = d.notUnitOfRetention
	}
	return node
}

func jsonSchemaType(t ElementDataType) string {
	switch t {
	case DataTypeNumber, DataTypeInteger, DataTypeArray, DataTypeObject:
		return string(t)
	case DataTypeBool:
		return "boolean"
	default:
		return "string"
	}
}
