package undo

import (
	"fmt"

	"github.com/ljmsc/undo/page"
)

const (
	offsetBits = 40
	offsetMask = uint64(1)<<offsetBits - 1

	// MaxLogno is the highest undo log number a pointer can address
	MaxLogno = uint32(1)<<(64-offsetBits) - 1
)

// Ptr addresses a byte in an undo log. the upper 24 bits hold the log number,
// the lower 40 bits the offset inside the log.
type Ptr uint64

// InvalidPtr never addresses undo data since offset zero is inside a page header
const InvalidPtr Ptr = 0

// MakePtr creates a pointer from log number and offset
func MakePtr(_logno uint32, _offset uint64) Ptr {
	return Ptr(uint64(_logno)<<offsetBits | _offset&offsetMask)
}

// Logno returns the log number
func (p Ptr) Logno() uint32 {
	return uint32(uint64(p) >> offsetBits)
}

// Offset returns the offset inside the log
func (p Ptr) Offset() uint64 {
	return uint64(p) & offsetMask
}

// Block returns the number of the page the pointer is located on
func (p Ptr) Block(_pageSize int) uint64 {
	return p.Offset() / uint64(_pageSize)
}

// PageOffset returns the offset of the pointer inside its page
func (p Ptr) PageOffset(_pageSize int) int {
	return int(p.Offset() % uint64(_pageSize))
}

// PlusUsableBytes advances the pointer by n bytes of undo data, stepping over page headers
func (p Ptr) PlusUsableBytes(_n uint64, _pageSize int) Ptr {
	return MakePtr(p.Logno(), OffsetPlusUsableBytes(p.Offset(), _n, _pageSize))
}

func (p Ptr) String() string {
	return fmt.Sprintf("%06X%010X", p.Logno(), p.Offset())
}

// OffsetPlusUsableBytes advances an offset by n bytes of undo data. page
// headers don't count. if the data ends exactly at the end of a page, the
// result points behind the header of the next page.
func OffsetPlusUsableBytes(_offset uint64, _n uint64, _pageSize int) uint64 {
	size := uint64(_pageSize)
	usable := size - page.HeaderSize

	inPage := _offset % size
	if inPage < page.HeaderSize {
		_offset += page.HeaderSize - inPage
		inPage = page.HeaderSize
	}
	left := size - inPage
	if _n < left {
		return _offset + _n
	}
	_n -= left
	_offset += left
	return _offset + (_n/usable)*size + page.HeaderSize + _n%usable
}
