package heap

import "fmt"

// TID (Tuple ID) row location inside of heap file:
// PageID: page logic ID
// Slot  : slot index of page
type TID struct {
	PageID uint32
	Slot   uint16
}

func (t TID) String() string { return fmt.Sprintf("(%d,%d)", t.PageID, t.Slot) }
