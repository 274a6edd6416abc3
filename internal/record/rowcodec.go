package record

import (
	"fmt"

	"github.com/tuannm99/novarow/internal/alias/bx"
)

// ---- EncodeRow(schema, key, values) -> []byte ----
// Format (LE):
// [u64 objkey] [u16 n] [n * (u32 column tag, u8 type)]
// [nullmap: ceil(n/8) bytes, bit=1 => NULL] [field0 data?] [field1 data?] ...
// Text/bytes: u16 length + data. Timestamp: i64 seconds + i32 nanos.
//
// Fields are addressed by column tag rather than position so a row written
// under an older schema still decodes after columns are added or dropped.
func EncodeRow(s Schema, key ObjKey, values map[ColKey]Value) ([]byte, error) {
	for k := range values {
		if _, ok := s.Lookup(k); !ok {
			return nil, fmt.Errorf("%w: %s", ErrSchemaMismatch, k)
		}
	}

	nc := s.NumCols()
	out := make([]byte, 0, 10+5*nc+(nc+7)/8+8*nc)
	out = bx.AppendI64(out, int64(key))
	out = bx.AppendU16(out, uint16(nc))
	for _, col := range s.cols {
		out = bx.AppendU32(out, col.Key.ColumnTag())
		out = bx.AppendU8(out, uint8(col.Type))
	}

	nullAt := len(out)
	out = append(out, make([]byte, (nc+7)/8)...)

	for i, col := range s.cols {
		v, ok := values[col.Key]
		if !ok {
			v = Default(col)
		}
		if err := v.Check(col); err != nil {
			return nil, err
		}
		if v.IsNull() || col.List {
			out[nullAt+i/8] |= 1 << (uint(i) & 7)
			continue
		}
		out = appendField(out, v)
	}
	return out, nil
}

func appendField(out []byte, v Value) []byte {
	switch v.typ {
	case ColInt64, ColLink:
		return bx.AppendI64(out, v.i)
	case ColBool:
		return bx.AppendU8(out, uint8(v.i))
	case ColFloat32:
		return bx.AppendU32(out, uint32(v.i))
	case ColFloat64:
		return bx.AppendF64(out, v.f)
	case ColTimestamp:
		out = bx.AppendI64(out, v.ts.Seconds)
		return bx.AppendI32(out, v.ts.Nanos)
	case ColText:
		out = bx.AppendU16(out, uint16(len(v.s)))
		return append(out, v.s...)
	case ColBytes:
		out = bx.AppendU16(out, uint16(len(v.b)))
		return append(out, v.b...)
	}
	return out
}

// ---- DecodeRow(schema, buf) -> key, values ----
// The returned map holds exactly the schema's columns. Stored fields of
// columns the schema no longer has are skipped; schema columns the row was
// written without come back as Default(col).
func DecodeRow(s Schema, buf []byte) (ObjKey, map[ColKey]Value, error) {
	r := bx.NewReader(buf)
	key := ObjKey(r.I64())
	n := int(r.U16())
	if r.Err() {
		return 0, nil, ErrBadBuffer
	}

	type stored struct {
		tag uint32
		typ ColumnType
	}
	header := make([]stored, n)
	for i := range header {
		header[i] = stored{tag: r.U32(), typ: ColumnType(r.U8())}
	}
	nullmap := r.Bytes((n + 7) / 8)
	if r.Err() {
		return 0, nil, ErrBadBuffer
	}

	out := make(map[ColKey]Value, s.NumCols())
	for i, h := range header {
		isNull := (nullmap[i/8]>>(uint(i)&7))&1 == 1
		if isNull {
			if ck := MakeColKey(s.tableTag, h.tag); s.has(ck) {
				out[ck] = Null()
			}
			continue
		}

		v, err := readField(r, h.typ)
		if err != nil {
			return 0, nil, err
		}
		ck := MakeColKey(s.tableTag, h.tag)
		col, ok := s.Lookup(ck)
		if !ok {
			continue // dropped column
		}
		if col.Type != h.typ {
			return 0, nil, fmt.Errorf("%w: column %q stored as %s", ErrSchemaMismatch, col.Name, h.typ)
		}
		out[ck] = v
	}

	for _, col := range s.cols {
		if _, ok := out[col.Key]; !ok {
			out[col.Key] = Default(col)
		}
	}
	return key, out, nil
}

func (s Schema) has(k ColKey) bool {
	_, ok := s.byKey[k]
	return ok
}

func readField(r *bx.Reader, t ColumnType) (Value, error) {
	var v Value
	switch t {
	case ColInt64:
		v = Int64(r.I64())
	case ColLink:
		v = Value{typ: ColLink, ok: true, i: r.I64()}
	case ColBool:
		v = Bool(r.U8() != 0)
	case ColFloat32:
		v = Value{typ: ColFloat32, ok: true, i: int64(r.U32())}
	case ColFloat64:
		v = Float64(r.F64())
	case ColTimestamp:
		ts := Timestamp{Seconds: r.I64(), Nanos: r.I32()}
		if !r.Err() && !ts.Valid() {
			return Value{}, fmt.Errorf("%w: non-canonical timestamp %s", ErrBadBuffer, ts)
		}
		v = TimestampOf(ts)
	case ColText:
		l := int(r.U16())
		v = Text(string(r.Bytes(l)))
	case ColBytes:
		l := int(r.U16())
		data := r.Bytes(l)
		// make a copy to avoid aliasing the page buffer
		cp := make([]byte, len(data))
		copy(cp, data)
		v = Value{typ: ColBytes, ok: true, b: cp}
	default:
		return Value{}, fmt.Errorf("%w: %d", ErrUnsupportedType, t)
	}
	if r.Err() {
		return Value{}, ErrBadBuffer
	}
	return v, nil
}

// PeekKey reads the record key stored at the head of an encoded row.
func PeekKey(buf []byte) (ObjKey, error) {
	r := bx.NewReader(buf)
	k := ObjKey(r.I64())
	if r.Err() {
		return 0, ErrBadBuffer
	}
	return k, nil
}
