package metadata

// ElementDataType is the storage-level data type of a column.
type ElementDataType string

const (
	DataTypeAny        ElementDataType = "any"
	DataTypeString     ElementDataType = "string"
	DataTypeNumber     ElementDataType = "number"
	DataTypeInteger    ElementDataType = "integer"
	DataTypeBool       ElementDataType = "bool"
	DataTypeArray      ElementDataType = "array"
	DataTypeObject     ElementDataType = "object"
	DataTypeRowPath    ElementDataType = "rowpath"
	DataTypeConfigPath ElementDataType = "configpath"
)

// ComparisonFamily selects the comparison semantics used when matching rules.
type ComparisonFamily int

const (
	FamilyText ComparisonFamily = iota
	FamilyNumeric
	FamilyBoolean
)

// Family returns the comparison family for the data type.
func (t ElementDataType) Family() ComparisonFamily {
	switch t {
	case DataTypeNumber, DataTypeInteger:
		return FamilyNumeric
	case DataTypeBool:
		return FamilyBoolean
	default:
		return FamilyText
	}
}

// IsNumeric returns true for number and integer.
func (t ElementDataType) IsNumeric() bool {
	return t.Family() == FamilyNumeric
}

// ElementType is the declared type name of a column, e.g. "geopoint" or "date".
type ElementType string

const ElementTypeGeopoint ElementType = "geopoint"

// DataType maps the declared type onto its storage data type. Declared types
// with children are always objects; unknown leaf names store as strings.
func (e ElementType) DataType(hasChildren bool) ElementDataType {
	switch ElementDataType(e) {
	case DataTypeAny, DataTypeString, DataTypeNumber, DataTypeInteger, DataTypeBool,
		DataTypeArray, DataTypeObject, DataTypeRowPath, DataTypeConfigPath:
		return ElementDataType(e)
	}
	if e == ElementTypeGeopoint || hasChildren {
		return DataTypeObject
	}
	return DataTypeString
}
