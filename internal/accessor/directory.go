package accessor

import (
	"fmt"
	"runtime"
	"strings"
	"unicode/utf8"

	"github.com/tuannm99/novarow/internal/record"
)

// ColumnCount is the number of columns of the bound table, 0 when the handle
// is invalid.
func (r *Row) ColumnCount() int {
	if !r.IsValid() {
		return 0
	}
	return r.b.table.Schema().NumCols()
}

// ColumnKey resolves name. A missing column is NullColKey with a nil error.
func (r *Row) ColumnKey(name string) (record.ColKey, error) {
	if !r.IsValid() {
		return record.NullColKey, fmt.Errorf("accessor: column key: %w", ErrInvalidHandle)
	}
	if !utf8.ValidString(name) {
		return record.NullColKey, fmt.Errorf("accessor: column key %q: %w: name is not valid UTF-8", name, ErrIllegalArgument)
	}
	return r.b.table.ColumnKey(name), nil
}

func (r *Row) HasColumn(name string) bool {
	k, err := r.ColumnKey(name)
	return err == nil && !k.IsNull()
}

// ColumnNames lists column names in key order.
func (r *Row) ColumnNames() ([]string, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("accessor: column names: %w", ErrInvalidHandle)
	}
	s := r.b.table.Schema()
	return collectNames(s.NumCols(), func(i int) string { return s.ColumnAt(i).Name })
}

// collectNames turns an allocation panic into ErrOutOfMemory.
func collectNames(n int, name func(i int) string) (names []string, err error) {
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		if re, ok := p.(runtime.Error); ok && strings.Contains(re.Error(), "makeslice") {
			names, err = nil, fmt.Errorf("accessor: column names: %w: %v", ErrOutOfMemory, re)
			return
		}
		panic(p)
	}()

	names = make([]string, 0, n)
	for i := range n {
		names = append(names, name(i))
	}
	return names, nil
}

// ColumnType reports the column's type. Unknown or foreign keys give
// UnknownFieldType and ErrUnknownColumn.
func (r *Row) ColumnType(key record.ColKey) (record.FieldType, error) {
	col, err := r.column("column type", key)
	if err != nil {
		return record.UnknownFieldType, err
	}
	return col.FieldType(), nil
}

// ColumnTypeCode is the single-integer form of ColumnType: list columns of a
// scalar base type carry record.ListMarker, -1 for unknown.
func (r *Row) ColumnTypeCode(key record.ColKey) int32 {
	ft, _ := r.ColumnType(key)
	return ft.Code()
}

func (r *Row) ColumnName(key record.ColKey) (string, error) {
	col, err := r.column("column name", key)
	if err != nil {
		return "", err
	}
	return col.Name, nil
}

func (r *Row) IsNullable(key record.ColKey) (bool, error) {
	col, err := r.column("is nullable", key)
	if err != nil {
		return false, err
	}
	return col.Nullable, nil
}

func (r *Row) IsList(key record.ColKey) (bool, error) {
	col, err := r.column("is list", key)
	if err != nil {
		return false, err
	}
	return col.List, nil
}
