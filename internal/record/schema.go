package record

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// MaxColumns is bounded by the u16 column count in the row header.
const MaxColumns = math.MaxUint16

type Column struct {
	Key      ColKey     `json:"key"`
	Name     string     `json:"name"`
	Type     ColumnType `json:"type"`
	Nullable bool       `json:"nullable"`
	List     bool       `json:"list,omitempty"`
	// Target is the table a link column points into.
	Target string `json:"target,omitempty"`
}

// FieldType is the reportable type of the column.
func (c Column) FieldType() FieldType {
	return FieldType{Base: c.Type, List: c.List}
}

// normalize applies the rules every stored column obeys: link columns are
// always nullable and a link list is a list.
func (c Column) normalize() Column {
	if c.Type == ColLink && c.List {
		c.Type = ColLinkList
	}
	if c.Type == ColLinkList {
		c.List = true
	}
	if c.Type.IsLink() {
		c.Nullable = true
	}
	return c
}

func (c Column) validate() error {
	if c.Name == "" {
		return ErrEmptyColumnName
	}
	if !utf8.ValidString(c.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidColumnName, c.Name)
	}
	if !c.Type.Valid() {
		return fmt.Errorf("%w: column %q type %d", ErrUnsupportedType, c.Name, c.Type)
	}
	if c.Type.IsLink() && c.Target == "" {
		return fmt.Errorf("%w: %q", ErrMissingLinkTarget, c.Name)
	}
	return nil
}

// Schema is the immutable column directory of one table generation.
// Columns are kept in key order.
type Schema struct {
	tableTag uint32
	cols     []Column
	byName   map[string]int
	byKey    map[ColKey]int
}

// NewSchema validates cols and indexes them by name and key. Every key must
// carry tableTag.
func NewSchema(tableTag uint32, cols ...Column) (Schema, error) {
	if len(cols) > MaxColumns {
		return Schema{}, fmt.Errorf("%w: %d", ErrTooManyColumns, len(cols))
	}
	s := Schema{
		tableTag: tableTag,
		cols:     make([]Column, 0, len(cols)),
		byName:   make(map[string]int, len(cols)),
		byKey:    make(map[ColKey]int, len(cols)),
	}
	for _, c := range cols {
		c = c.normalize()
		if err := c.validate(); err != nil {
			return Schema{}, err
		}
		if c.Key.IsNull() || c.Key.TableTag() != tableTag {
			return Schema{}, fmt.Errorf("%w: %s on %q", ErrForeignColumnKey, c.Key, c.Name)
		}
		if _, dup := s.byName[c.Name]; dup {
			return Schema{}, fmt.Errorf("%w: name %q", ErrDuplicateColumn, c.Name)
		}
		if _, dup := s.byKey[c.Key]; dup {
			return Schema{}, fmt.Errorf("%w: key %s", ErrDuplicateColumn, c.Key)
		}
		s.cols = append(s.cols, c)
	}
	sortByKey(s.cols)
	for i, c := range s.cols {
		s.byName[c.Name] = i
		s.byKey[c.Key] = i
	}
	return s, nil
}

func sortByKey(cols []Column) {
	// insertion sort: schemas are small and usually already ordered
	for i := 1; i < len(cols); i++ {
		for j := i; j > 0 && cols[j].Key < cols[j-1].Key; j-- {
			cols[j], cols[j-1] = cols[j-1], cols[j]
		}
	}
}

func (s Schema) TableTag() uint32 { return s.tableTag }
func (s Schema) NumCols() int     { return len(s.cols) }

// Columns returns a copy of the columns in key order.
func (s Schema) Columns() []Column {
	out := make([]Column, len(s.cols))
	copy(out, s.cols)
	return out
}

// ColumnAt returns the i-th column in key order.
func (s Schema) ColumnAt(i int) Column { return s.cols[i] }

// Keys returns the column keys in key order.
func (s Schema) Keys() []ColKey {
	out := make([]ColKey, len(s.cols))
	for i, c := range s.cols {
		out[i] = c.Key
	}
	return out
}

// KeyOf resolves a name; NullColKey when there is no such column.
func (s Schema) KeyOf(name string) ColKey {
	if i, ok := s.byName[name]; ok {
		return s.cols[i].Key
	}
	return NullColKey
}

// Lookup validates key against this schema.
func (s Schema) Lookup(key ColKey) (Column, bool) {
	i, ok := s.byKey[key]
	if !ok {
		return Column{}, false
	}
	return s.cols[i], true
}

// WithColumn returns a copy of s with c added.
func (s Schema) WithColumn(c Column) (Schema, error) {
	return NewSchema(s.tableTag, append(s.Columns(), c)...)
}

// WithoutColumn returns a copy of s without the named column.
func (s Schema) WithoutColumn(name string) (Schema, error) {
	i, ok := s.byName[name]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q", ErrColumnNotInSchema, name)
	}
	cols := s.Columns()
	cols = append(cols[:i], cols[i+1:]...)
	return NewSchema(s.tableTag, cols...)
}
