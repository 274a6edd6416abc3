package record

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"
)

// MaxVarLen is the largest text or bytes payload a row can hold.
const MaxVarLen = math.MaxUint16

// Value is one field value or the null state. The zero Value is null.
type Value struct {
	typ ColumnType
	ok  bool // false => null

	i  int64 // int64, bool (0/1), link, float32 bits
	f  float64
	s  string
	b  []byte
	ts Timestamp
}

func Null() Value { return Value{typ: ColUnknown} }

func Int64(v int64) Value { return Value{typ: ColInt64, ok: true, i: v} }

func Bool(v bool) Value {
	x := Value{typ: ColBool, ok: true}
	if v {
		x.i = 1
	}
	return x
}

// Float32 stores the binary32 bit pattern unchanged, signalling NaNs included.
func Float32(v float32) Value {
	return Value{typ: ColFloat32, ok: true, i: int64(math.Float32bits(v))}
}

func Float64(v float64) Value { return Value{typ: ColFloat64, ok: true, f: v} }
func Text(v string) Value     { return Value{typ: ColText, ok: true, s: v} }

// Bytes wraps b without copying. A nil slice is the null value; an empty
// non-nil slice is a present, empty payload.
func Bytes(b []byte) Value {
	if b == nil {
		return Null()
	}
	return Value{typ: ColBytes, ok: true, b: b}
}

func TimestampOf(ts Timestamp) Value { return Value{typ: ColTimestamp, ok: true, ts: ts} }
func TimestampMillis(ms int64) Value { return TimestampOf(TimestampFromMillis(ms)) }

// Link references target. NullObjKey yields the null value.
func Link(target ObjKey) Value {
	if target.IsNull() {
		return Null()
	}
	return Value{typ: ColLink, ok: true, i: int64(target)}
}

// Type is the type of a present value, ColUnknown for null.
func (v Value) Type() ColumnType {
	if !v.ok {
		return ColUnknown
	}
	return v.typ
}

func (v Value) IsNull() bool { return !v.ok }

func (v Value) AsInt64() (int64, bool) { return v.i, v.ok && v.typ == ColInt64 }
func (v Value) AsBool() (bool, bool)   { return v.i != 0, v.ok && v.typ == ColBool }
func (v Value) AsFloat32() (float32, bool) {
	return math.Float32frombits(uint32(v.i)), v.ok && v.typ == ColFloat32
}

func (v Value) AsFloat64() (float64, bool) { return v.f, v.ok && v.typ == ColFloat64 }
func (v Value) AsText() (string, bool)     { return v.s, v.ok && v.typ == ColText }
func (v Value) AsBytes() ([]byte, bool)    { return v.b, v.ok && v.typ == ColBytes }

func (v Value) AsTimestamp() (Timestamp, bool) { return v.ts, v.ok && v.typ == ColTimestamp }

// AsLink returns NullObjKey for the null value.
func (v Value) AsLink() (ObjKey, bool) {
	if !v.ok {
		return NullObjKey, false
	}
	return ObjKey(v.i), v.typ == ColLink
}

// Default is the value a fresh record holds in col.
func Default(col Column) Value {
	if col.Nullable || col.List {
		return Null()
	}
	switch col.Type {
	case ColInt64:
		return Int64(0)
	case ColBool:
		return Bool(false)
	case ColFloat32:
		return Float32(0)
	case ColFloat64:
		return Float64(0)
	case ColText:
		return Text("")
	case ColBytes:
		return Value{typ: ColBytes, ok: true, b: []byte{}}
	case ColTimestamp:
		return TimestampOf(Timestamp{})
	}
	return Null()
}

// Check reports whether v may be stored in col.
func (v Value) Check(col Column) error {
	if !v.ok {
		// a list column holds no scalar; null stands for the empty list
		if !col.Nullable && !col.List {
			return fmt.Errorf("%w: %q", ErrSchemaMismatchNotAllowNull, col.Name)
		}
		return nil
	}
	if col.List || v.typ != col.Type {
		return fmt.Errorf("%w: column %q is %s, value is %s",
			ErrSchemaMismatch, col.Name, col.FieldType(), v.typ)
	}
	switch v.typ {
	case ColText:
		if len(v.s) > MaxVarLen {
			return fmt.Errorf("%w: %d bytes", ErrVarTooLong, len(v.s))
		}
		if !utf8.ValidString(v.s) {
			return ErrInvalidText
		}
	case ColBytes:
		if len(v.b) > MaxVarLen {
			return fmt.Errorf("%w: %d bytes", ErrVarTooLong, len(v.b))
		}
	case ColTimestamp:
		if !v.ts.Valid() {
			return fmt.Errorf("%w: %s", ErrInvalidTimestamp, v.ts)
		}
	case ColLink:
		if v.i < 0 {
			return ErrInvalidLink
		}
	}
	return nil
}

// Equal compares type, null state and payload. Floats compare by bit pattern.
func (v Value) Equal(o Value) bool {
	if v.ok != o.ok {
		return false
	}
	if !v.ok {
		return true
	}
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case ColFloat64:
		return math.Float64bits(v.f) == math.Float64bits(o.f)
	case ColText:
		return v.s == o.s
	case ColBytes:
		return bytes.Equal(v.b, o.b)
	case ColTimestamp:
		return v.ts == o.ts
	default:
		return v.i == o.i
	}
}

// Any unwraps the value into a plain Go value; nil for null.
func (v Value) Any() any {
	if !v.ok {
		return nil
	}
	switch v.typ {
	case ColInt64:
		return v.i
	case ColBool:
		return v.i != 0
	case ColFloat32:
		return math.Float32frombits(uint32(v.i))
	case ColFloat64:
		return v.f
	case ColText:
		return v.s
	case ColBytes:
		return v.b
	case ColTimestamp:
		return v.ts
	case ColLink:
		return ObjKey(v.i)
	}
	return nil
}

func (v Value) String() string {
	if !v.ok {
		return "NULL"
	}
	switch v.typ {
	case ColText:
		return strconv.Quote(v.s)
	case ColBytes:
		return fmt.Sprintf("0x%x", v.b)
	case ColTimestamp:
		return v.ts.Time().Format("2006-01-02T15:04:05.000Z07:00")
	case ColLink:
		return ObjKey(v.i).String()
	}
	return fmt.Sprint(v.Any())
}
