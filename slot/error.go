package slot

import (
	"fmt"
	"strconv"
)

var (
	UnknownPersistenceErr = fmt.Errorf("unknown persistence class")
	RangeTooLargeErr      = fmt.Errorf("physical range exceeds the max log size")
	NotEnoughBytesErr     = fmt.Errorf("not enough bytes")
	TooManyBytesErr       = fmt.Errorf("too many bytes")
)

// NotFoundErr error occurs when a slot is looked up by an unknown log number
type NotFoundErr struct {
	Logno uint32
}

func (e NotFoundErr) Error() string {
	return "undo log " + strconv.FormatUint(uint64(e.Logno), 10) + " not found"
}
