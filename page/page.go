// Package page holds the on-disk layout of undo log pages and the buffer pool
// used to pin, lock and write them back.
package page

import "encoding/binary"

const (
	// HeaderSize is the size of the fixed header at the start of every page.
	// No undo data is ever written into it.
	HeaderSize = 24

	// DefaultSize is the default page size in bytes
	DefaultSize = 8192

	// MaxSize is the largest supported page size. page offsets have to fit into 15 bits
	MaxSize = 0x8000

	headerLSNOffset   = 0
	headerLSNLength   = 8
	headerLowerOffset = 12
	headerLowerLength = 2
)

// Page is the raw content of one page, header included.
//
// header layout (24 byte)
// [8 LSN][4 reserved][2 lower][10 reserved]
type Page []byte

// Init resets the page to an empty page
func (p Page) Init() {
	for i := range p {
		p[i] = 0
	}
	p.SetLower(HeaderSize)
}

// IsNew returns true if the page was never initialized
func (p Page) IsNew() bool {
	for _, b := range p[:HeaderSize] {
		if b != 0 {
			return false
		}
	}
	return true
}

// LSN returns the log sequence number of the last WAL record applied to the page
func (p Page) LSN() uint64 {
	return binary.LittleEndian.Uint64(p[headerLSNOffset : headerLSNOffset+headerLSNLength])
}

// SetLSN sets the log sequence number of the page
func (p Page) SetLSN(_lsn uint64) {
	binary.LittleEndian.PutUint64(p[headerLSNOffset:headerLSNOffset+headerLSNLength], _lsn)
}

// Lower returns the low-water mark of the page. it is the offset at which the
// last insert started writing to this page and is used to resynchronize the
// insert location of a log after a full page image was restored.
func (p Page) Lower() uint16 {
	return binary.LittleEndian.Uint16(p[headerLowerOffset : headerLowerOffset+headerLowerLength])
}

// SetLower sets the low-water mark
func (p Page) SetLower(_lower uint16) {
	binary.LittleEndian.PutUint16(p[headerLowerOffset:headerLowerOffset+headerLowerLength], _lower)
}

// ValidSize returns true if the given size can be used as page size
func ValidSize(_size int) bool {
	if _size <= HeaderSize*2 || _size > MaxSize {
		return false
	}
	return _size&(_size-1) == 0
}
