package storage

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Header offsets
const (
	offFlags   = 0
	offPageID  = 2
	offLower   = 6
	offUpper   = 8
	offSpecial = 10
)

// Slot flags
const (
	SlotFlagNormal  uint16 = 0
	SlotFlagDeleted uint16 = 1 << 0
)

type Slot struct {
	Offset uint16
	Length uint16
	Flags  uint16
}

// +------------------+ 0
// | PageHeaderData   |
// | LinePointers[]   | <-- pd_lower
// +------------------+
// |   Free space     |
// +------------------+ <-- pd_upper
// |  Tuple Data      |
// |  (grows down)    |
// +------------------+ Block/Page Size (8192)
//
// A slot number stays attached to its tuple for the tuple's whole life:
// updates repoint the slot at new bytes and Compact moves bytes without
// renumbering. Deleted slots are handed out again by InsertTuple.
type Page struct {
	Buf []byte // fixed-size 8KB
}

func NewPage(buf []byte, pageID uint32) (*Page, error) {
	if len(buf) != PageSize {
		return nil, ErrWrongSize
	}
	p := &Page{Buf: buf}
	p.init(pageID)
	return p, nil
}

// ---- low-level header getters/setters ----
func (p *Page) u16(off int) uint16       { return binary.LittleEndian.Uint16(p.Buf[off:]) }
func (p *Page) setU16(off int, v uint16) { binary.LittleEndian.PutUint16(p.Buf[off:], v) }

func (p *Page) PageID() uint32 {
	return binary.LittleEndian.Uint32(p.Buf[offPageID:])
}

func (p *Page) lower() uint16     { return p.u16(offLower) }
func (p *Page) setLower(v uint16) { p.setU16(offLower, v) }
func (p *Page) upper() uint16     { return p.u16(offUpper) }
func (p *Page) setUpper(v uint16) { p.setU16(offUpper, v) }

func (p *Page) init(pageID uint32) {
	clear(p.Buf)
	p.setU16(offFlags, 0)
	binary.LittleEndian.PutUint32(p.Buf[offPageID:], pageID)
	p.setLower(HeaderSize)
	p.setUpper(PageSize)
	p.setU16(offSpecial, PageSize)
}

// ---- public helpers ----
func (p *Page) FreeSpace() int { return int(p.upper()) - int(p.lower()) }

func (p *Page) NumSlots() int { return (int(p.lower()) - HeaderSize) / SlotSize }

func (p *Page) IsUninitialized() bool { return p.lower() == 0 && p.upper() == 0 }

// ---- slots ----
func (p *Page) slotOff(idx int) int { return HeaderSize + idx*SlotSize }

func (p *Page) getSlot(i int) (Slot, error) {
	if i < 0 || i >= p.NumSlots() {
		return Slot{}, ErrBadSlot
	}
	o := p.slotOff(i)
	return Slot{
		Offset: p.u16(o),
		Length: p.u16(o + 2),
		Flags:  p.u16(o + 4),
	}, nil
}

func (p *Page) putSlot(idx int, s Slot) {
	o := p.slotOff(idx)
	p.setU16(o, s.Offset)
	p.setU16(o+2, s.Length)
	p.setU16(o+4, s.Flags)
}

func (p *Page) checkBounds(s Slot) error {
	start, end := int(s.Offset), int(s.Offset)+int(s.Length)
	if s.Length == 0 || start < int(p.upper()) || end > PageSize {
		return ErrCorruption
	}
	return nil
}

// freeSlot returns the first deleted slot, or -1.
func (p *Page) freeSlot() int {
	for i := 0; i < p.NumSlots(); i++ {
		if s, _ := p.getSlot(i); s.Flags == SlotFlagDeleted {
			return i
		}
	}
	return -1
}

// place copies tup into the free gap and returns its offset. The caller has
// checked that it fits.
func (p *Page) place(tup []byte) uint16 {
	u := int(p.upper()) - len(tup)
	copy(p.Buf[u:], tup)
	p.setUpper(uint16(u))
	return uint16(u)
}

// ---- tuples (payload) ----
func (p *Page) InsertTuple(tup []byte) (slot int, err error) {
	if len(tup) == 0 {
		return -1, ErrCorruption
	}
	if len(tup) > MaxTupleSize {
		return -1, ErrTupleTooLarge
	}

	slot = p.freeSlot()
	need := len(tup)
	if slot < 0 {
		need += SlotSize
	}
	if p.FreeSpace() < need {
		if p.garbage() >= need-p.FreeSpace() {
			p.Compact()
		}
		if p.FreeSpace() < need {
			return -1, ErrNoSpace
		}
	}

	off := p.place(tup)
	if slot < 0 {
		slot = p.NumSlots()
		p.setLower(p.lower() + SlotSize)
	}
	p.putSlot(slot, Slot{Offset: off, Length: uint16(len(tup)), Flags: SlotFlagNormal})
	return slot, nil
}

func (p *Page) ReadTuple(slot int) ([]byte, error) {
	s, err := p.getSlot(slot)
	if err != nil {
		return nil, err
	}
	switch s.Flags {
	case SlotFlagNormal:
		if err := p.checkBounds(s); err != nil {
			return nil, err
		}
		return p.Buf[int(s.Offset) : int(s.Offset)+int(s.Length)], nil
	case SlotFlagDeleted:
		return nil, ErrBadSlot
	default:
		return nil, ErrCorruption
	}
}

// UpdateTuple replaces the tuple in slot. It shrinks in place, otherwise
// writes the new bytes into free space (compacting first if that makes room)
// and repoints the slot. ErrNoSpace leaves the page untouched.
func (p *Page) UpdateTuple(slot int, tup []byte) error {
	s, err := p.getSlot(slot)
	if err != nil {
		return err
	}
	if s.Flags != SlotFlagNormal {
		return ErrBadSlot
	}
	if len(tup) == 0 {
		return ErrCorruption
	}
	if len(tup) > MaxTupleSize {
		return ErrTupleTooLarge
	}

	if len(tup) <= int(s.Length) {
		copy(p.Buf[int(s.Offset):], tup)
		p.putSlot(slot, Slot{Offset: s.Offset, Length: uint16(len(tup)), Flags: SlotFlagNormal})
		return nil
	}

	// After compaction the old copy is still live, so the reclaimable room
	// is garbage only.
	if p.FreeSpace() < len(tup) {
		if p.FreeSpace()+p.garbage() < len(tup) {
			return ErrNoSpace
		}
		p.Compact()
		if p.FreeSpace() < len(tup) {
			return ErrNoSpace
		}
	}
	off := p.place(tup)
	p.putSlot(slot, Slot{Offset: off, Length: uint16(len(tup)), Flags: SlotFlagNormal})
	return nil
}

func (p *Page) DeleteTuple(slot int) error {
	s, err := p.getSlot(slot)
	if err != nil {
		return err
	}
	if s.Flags == SlotFlagDeleted {
		return ErrBadSlot
	}
	p.putSlot(slot, Slot{Flags: SlotFlagDeleted})
	return nil
}

// IsLiveSlot reports whether slot holds a tuple.
func (p *Page) IsLiveSlot(slot int) (bool, error) {
	s, err := p.getSlot(slot)
	if err != nil {
		return false, err
	}
	switch s.Flags {
	case SlotFlagNormal:
		return true, nil
	case SlotFlagDeleted:
		return false, nil
	}
	return false, ErrCorruption
}

// liveBytes is the tuple data referenced by live slots.
func (p *Page) liveBytes() int {
	n := 0
	for i := 0; i < p.NumSlots(); i++ {
		if s, _ := p.getSlot(i); s.Flags == SlotFlagNormal {
			n += int(s.Length)
		}
	}
	return n
}

// garbage is the dead space between upper and the end of the page.
func (p *Page) garbage() int {
	return PageSize - int(p.upper()) - p.liveBytes()
}

// Compact rewrites the tuple area so live tuples are contiguous. Slot
// numbers do not change.
func (p *Page) Compact() {
	type live struct {
		slot int
		data []byte
	}
	var tuples []live
	for i := 0; i < p.NumSlots(); i++ {
		s, _ := p.getSlot(i)
		if s.Flags != SlotFlagNormal {
			continue
		}
		cp := make([]byte, s.Length)
		copy(cp, p.Buf[int(s.Offset):int(s.Offset)+int(s.Length)])
		tuples = append(tuples, live{slot: i, data: cp})
	}

	clear(p.Buf[p.lower():])
	p.setUpper(PageSize)
	for _, t := range tuples {
		off := p.place(t.data)
		p.putSlot(t.slot, Slot{Offset: off, Length: uint16(len(t.data)), Flags: SlotFlagNormal})
	}
}

func (p *Page) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "page %d lower=%d upper=%d free=%d slots=%d",
		p.PageID(), p.lower(), p.upper(), p.FreeSpace(), p.NumSlots())
	for i := 0; i < p.NumSlots(); i++ {
		s, _ := p.getSlot(i)
		fmt.Fprintf(&b, "\n  [%d] off=%d len=%d flags=%d", i, s.Offset, s.Length, s.Flags)
	}
	return b.String()
}
