package xlog

import (
	"fmt"
	"strconv"
)

var (
	ClosedErr          = fmt.Errorf("write ahead log is closed")
	InvalidChecksumErr = fmt.Errorf("invalid checksum")
	NotEnoughBytesErr  = fmt.Errorf("not enough bytes")
	TooManyBytesErr    = fmt.Errorf("too many bytes")
	BlockNotFoundErr   = fmt.Errorf("block is not referenced by the record")
	TooManyBlocksErr   = fmt.Errorf("too many blocks registered")
	EmptyRecordErr     = fmt.Errorf("record contains no data")
)

// BlockInUseErr error occurs when a block id is registered for two different pages
type BlockInUseErr struct {
	ID uint8
}

func (e BlockInUseErr) Error() string {
	return "block id " + strconv.Itoa(int(e.ID)) + " is already registered for another page"
}

// ReadErr error occurs when a record could not be read from the log
type ReadErr struct {
	Position uint64
	Err      error
}

func (e ReadErr) Error() string {
	return "can't read record at position " + strconv.FormatUint(e.Position, 10) + ": " + e.Err.Error()
}

func (e ReadErr) Unwrap() error { return e.Err }
