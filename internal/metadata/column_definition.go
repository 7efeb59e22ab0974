package metadata

// ColumnDefinition is a resolved column. Parent and child links are element
// keys into the owning OrderedColumns; use OrderedColumns.Parent and
// OrderedColumns.Children to traverse.
type ColumnDefinition struct {
	ElementKey  string
	ElementName string
	ElementType ElementType

	parentKey          string
	childKeys          []string
	notUnitOfRetention bool
}

// DataType returns the storage data type of the column.
func (d *ColumnDefinition) DataType() ElementDataType {
	return d.ElementType.DataType(len(d.childKeys) > 0)
}

// ParentKey returns the parent's element key, or "" for a top-level column.
func (d *ColumnDefinition) ParentKey() string {
	return d.parentKey
}

// ChildKeys returns the element keys of the direct children, in declared order.
func (d *ColumnDefinition) ChildKeys() []string {
	out := make([]string, len(d.childKeys))
	copy(out, d.childKeys)
	return out
}

// HasChildren reports whether the column is a composite.
func (d *ColumnDefinition) HasChildren() bool {
	return len(d.childKeys) > 0
}

// IsUnitOfRetention reports whether the column is physically stored: arrays
// and leaves without an array ancestor are; composites and array items are not.
func (d *ColumnDefinition) IsUnitOfRetention() bool {
	return !d.notUnitOfRetention
}

// IsGeopoint reports whether the declared type is geopoint.
func (d *ColumnDefinition) IsGeopoint() bool {
	return d.ElementType == ElementTypeGeopoint
}
