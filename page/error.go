package page

import (
	"fmt"
	"strconv"
)

var (
	NotFoundErr      = fmt.Errorf("page not found")
	PoolExhaustedErr = fmt.Errorf("all buffers are pinned")
	InvalidSizeErr   = fmt.Errorf("invalid page size")
	ClosedErr        = fmt.Errorf("page store is closed")
)

// ReadErr error occurs when a page could not be read from the store
type ReadErr struct {
	Tag Tag
	Err error
}

func (e ReadErr) Error() string {
	return "can't read page " + e.Tag.String() + ": " + e.Err.Error()
}

func (e ReadErr) Unwrap() error { return e.Err }

// WriteErr error occurs when a page could not be written to the store
type WriteErr struct {
	Tag Tag
	Err error
}

func (e WriteErr) Error() string {
	return "can't write page " + e.Tag.String() + ": " + e.Err.Error()
}

func (e WriteErr) Unwrap() error { return e.Err }

func (t Tag) String() string {
	return strconv.FormatUint(uint64(t.Logno), 10) + "/" + strconv.FormatUint(t.Block, 10)
}
