// stand for bytes helper
package bx

import (
	"encoding/binary"
	"math"
)

var LE = binary.LittleEndian

// --- LE: read ---
func U16(b []byte) uint16 { return LE.Uint16(b) }
func U32(b []byte) uint32 { return LE.Uint32(b) }
func U64(b []byte) uint64 { return LE.Uint64(b) }

// --- LE: write ---
func PutU16(b []byte, v uint16) { LE.PutUint16(b, v) }
func PutU32(b []byte, v uint32) { LE.PutUint32(b, v) }
func PutU64(b []byte, v uint64) { LE.PutUint64(b, v) }

// --- LE: append ---
func AppendU8(b []byte, v uint8) []byte   { return append(b, v) }
func AppendU16(b []byte, v uint16) []byte { return LE.AppendUint16(b, v) }
func AppendU32(b []byte, v uint32) []byte { return LE.AppendUint32(b, v) }
func AppendU64(b []byte, v uint64) []byte { return LE.AppendUint64(b, v) }
func AppendI32(b []byte, v int32) []byte  { return AppendU32(b, uint32(v)) }
func AppendI64(b []byte, v int64) []byte  { return AppendU64(b, uint64(v)) }

// Floats are stored by their IEEE-754 bit pattern, NaN payloads included.
func AppendF64(b []byte, v float64) []byte { return AppendU64(b, math.Float64bits(v)) }

// Reader is a bounds-checked little-endian cursor. Once a read runs past the
// end of the buffer every later read fails too; callers check Err once.
type Reader struct {
	buf []byte
	off int
	bad bool
}

func NewReader(b []byte) *Reader { return &Reader{buf: b} }

func (r *Reader) take(n int) []byte {
	if r.bad || n < 0 || r.off+n > len(r.buf) {
		r.bad = true
		return nil
	}
	out := r.buf[r.off : r.off+n]
	r.off += n
	return out
}

func (r *Reader) U8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) U16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return U16(b)
}

func (r *Reader) U32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return U32(b)
}

func (r *Reader) U64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return U64(b)
}

func (r *Reader) I32() int32         { return int32(r.U32()) }
func (r *Reader) I64() int64         { return int64(r.U64()) }
func (r *Reader) F64() float64       { return math.Float64frombits(r.U64()) }
func (r *Reader) Bytes(n int) []byte { return r.take(n) }

// Skip advances n bytes without returning them.
func (r *Reader) Skip(n int) { _ = r.take(n) }

// Offset is the number of bytes consumed so far.
func (r *Reader) Offset() int { return r.off }

// Err reports whether any read ran past the end of the buffer.
func (r *Reader) Err() bool { return r.bad }
