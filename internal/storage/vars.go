package storage

import "errors"

const (
	OneKB = 1 << 10 // 1,024

	SegmentSize       = 1 << 30                // 1,073,741,824 (1 GiB)
	PageSize          = 1 << 13                // 8,192 (8 KiB)
	MaxPagePerSegment = SegmentSize / PageSize // 131,072 pages/segment
	HeaderSize        = 12                     // 12
	SlotSize          = 6                      // 6 (3 * uint16: offset, length, flags)

	// MaxTupleSize is the largest tuple a fresh page accepts.
	MaxTupleSize = PageSize - HeaderSize - SlotSize
)

const (
	FileMode0644 = 0o644
	FileMode0755 = 0o755
)

var (
	ErrTupleTooLarge = errors.New("page: tuple too large for inline")
	ErrNoSpace       = errors.New("page: not enough free space")
	ErrBadSlot       = errors.New("page: invalid slot")
	ErrCorruption    = errors.New("page: corrupt slot or tuple bounds")
	ErrWrongSize     = errors.New("page: buffer size != PageSize")
)
