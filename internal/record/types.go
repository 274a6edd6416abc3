package record

import "fmt"

// ColumnType is the base type of a column. The numeric values are part of the
// external type scale reported by FieldType.Code and must not be renumbered.
type ColumnType uint8

const (
	ColInt64     ColumnType = 0
	ColBool      ColumnType = 1
	ColText      ColumnType = 2 // UTF-8
	ColBytes     ColumnType = 4 // opaque bytes
	ColTimestamp ColumnType = 8
	ColFloat32   ColumnType = 9
	ColFloat64   ColumnType = 10
	ColLink      ColumnType = 12
	ColLinkList  ColumnType = 13

	ColUnknown ColumnType = 255
)

// ListMarker is added to the code of a list column whose base type sits below
// ColLinkList, so scalar and list variants stay distinct on one integer scale.
const ListMarker = 128

func (t ColumnType) Valid() bool {
	switch t {
	case ColInt64, ColBool, ColText, ColBytes, ColTimestamp,
		ColFloat32, ColFloat64, ColLink, ColLinkList:
		return true
	}
	return false
}

// IsLink reports whether values of the column reference another record.
func (t ColumnType) IsLink() bool { return t == ColLink || t == ColLinkList }

func (t ColumnType) String() string {
	switch t {
	case ColInt64:
		return "int64"
	case ColBool:
		return "bool"
	case ColText:
		return "text"
	case ColBytes:
		return "bytes"
	case ColTimestamp:
		return "timestamp"
	case ColFloat32:
		return "float32"
	case ColFloat64:
		return "float64"
	case ColLink:
		return "link"
	case ColLinkList:
		return "linklist"
	default:
		return "unknown"
	}
}

// ParseColumnType is the inverse of ColumnType.String.
func ParseColumnType(s string) (ColumnType, error) {
	switch s {
	case "int64", "int":
		return ColInt64, nil
	case "bool":
		return ColBool, nil
	case "text", "string":
		return ColText, nil
	case "bytes", "binary":
		return ColBytes, nil
	case "timestamp", "date":
		return ColTimestamp, nil
	case "float32", "float":
		return ColFloat32, nil
	case "float64", "double":
		return ColFloat64, nil
	case "link":
		return ColLink, nil
	case "linklist":
		return ColLinkList, nil
	default:
		return ColUnknown, fmt.Errorf("%w: %q", ErrUnsupportedType, s)
	}
}

// FieldType is what a column reports about itself: a base type and whether
// the column holds a list of it.
type FieldType struct {
	Base ColumnType
	List bool
}

var UnknownFieldType = FieldType{Base: ColUnknown}

func Scalar(t ColumnType) FieldType { return FieldType{Base: t} }
func List(t ColumnType) FieldType   { return FieldType{Base: t, List: true} }

func (ft FieldType) Known() bool { return ft.Base.Valid() }

// Code folds the field type into the single-integer encoding: the base type,
// plus ListMarker for lists of anything below ColLinkList, or -1 when unknown.
func (ft FieldType) Code() int32 {
	if !ft.Known() {
		return -1
	}
	code := int32(ft.Base)
	if ft.List && ft.Base < ColLinkList {
		code += ListMarker
	}
	return code
}

// FieldTypeFromCode is the inverse of FieldType.Code.
func FieldTypeFromCode(code int32) FieldType {
	if code >= ListMarker {
		base := ColumnType(code - ListMarker)
		if base < ColLinkList && base.Valid() {
			return List(base)
		}
		return UnknownFieldType
	}
	if code < 0 || code > 255 {
		return UnknownFieldType
	}
	base := ColumnType(code)
	switch {
	case base == ColLinkList:
		return List(base)
	case base.Valid():
		return Scalar(base)
	}
	return UnknownFieldType
}

func (ft FieldType) String() string {
	if ft.List {
		return "list<" + ft.Base.String() + ">"
	}
	return ft.Base.String()
}
