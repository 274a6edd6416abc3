package record

import "fmt"

// ColKey identifies one column of one table generation: the table tag in the
// high 32 bits, the column tag in the low 32. Column tags start at 1 and are
// never reused inside a table, so the zero value can stand for "no column".
type ColKey uint64

const NullColKey ColKey = 0

func MakeColKey(tableTag, columnTag uint32) ColKey {
	return ColKey(uint64(tableTag)<<32 | uint64(columnTag))
}

func (k ColKey) TableTag() uint32  { return uint32(k >> 32) }
func (k ColKey) ColumnTag() uint32 { return uint32(k) }
func (k ColKey) IsNull() bool      { return k.ColumnTag() == 0 }

func (k ColKey) String() string {
	if k.IsNull() {
		return "col(null)"
	}
	return fmt.Sprintf("col(%d.%d)", k.TableTag(), k.ColumnTag())
}

// ObjKey identifies a record inside its table: a slot index in the low 32 bits
// and the slot generation above it. Generations stay below 1<<31 so a real key
// is never negative.
type ObjKey int64

// NullObjKey is the sentinel stored in, and returned for, an empty link.
const NullObjKey ObjKey = -1

const maxGeneration = 1<<31 - 1

func MakeObjKey(generation, slot uint32) ObjKey {
	return ObjKey(int64(generation&maxGeneration)<<32 | int64(slot))
}

func (k ObjKey) Slot() uint32       { return uint32(k) }
func (k ObjKey) Generation() uint32 { return uint32(uint64(k) >> 32) }
func (k ObjKey) IsNull() bool       { return k < 0 }

// NextGeneration is the generation a slot moves to when its record is
// deleted. It wraps before reaching the sign bit.
func NextGeneration(gen uint32) uint32 {
	if gen >= maxGeneration {
		return 0
	}
	return gen + 1
}

func (k ObjKey) String() string {
	if k.IsNull() {
		return "obj(null)"
	}
	return fmt.Sprintf("obj(%d@%d)", k.Slot(), k.Generation())
}
