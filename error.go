package undo

import (
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var (
	NotEnoughBytesErr    = errors.New("not enough bytes for an undo chunk header")
	CorruptedOpsErr      = errors.New("corrupted undo redo operations")
	InvalidOpErr         = errors.New("invalid undo redo operation")
	RecordSetClosedErr   = errors.New("the undo record set is closed")
	AllocatedErr         = errors.New("the undo record set holds an allocation, release it first")
	NotAllocatedErr      = errors.New("no space allocated for the undo record")
	NotPreparedErr       = errors.New("the undo record set is not prepared to be closed")
	TypeHeaderWrittenErr = errors.New("the type header is already written")
	TooLargeErr          = errors.New("the undo record does not fit into an empty undo log")
	OutOfPagesErr        = errors.New("undo data exceeds the pinned pages")
	NoUndoBlocksErr      = errors.New("the record references no undo pages")
	UnknownTypeErr       = errors.New("unknown undo record set type")
	ManagerClosedErr     = errors.New("the undo manager is closed")
	UnknownRecordErr     = errors.New("unknown undo record kind")
	EmptyDataErr         = errors.New("an undo record needs at least one byte of data")
	NoBuilderErr         = errors.New("a record builder is required to log the change")
)

// OpsErr error occurs when the redo operations of a page can't be decoded
type OpsErr struct {
	Position int
	Err      error
}

func (e OpsErr) Error() string {
	return "undo redo operation at position " + strconv.Itoa(e.Position) + ": " + e.Err.Error()
}

func (e OpsErr) Unwrap() error { return e.Err }

// SizeMismatchErr error occurs when the inserted data differs from the allocated size
type SizeMismatchErr struct {
	Allocated int
	Inserted  int
}

func (e SizeMismatchErr) Error() string {
	return "allocated " + strconv.Itoa(e.Allocated) + " bytes but inserting " + strconv.Itoa(e.Inserted) + " bytes"
}

// CursorMismatchErr error occurs when replay finds the insert location of an
// undo log on a different page than the one referenced by the record
type CursorMismatchErr struct {
	Expected Ptr
	Block    uint64
}

func (e CursorMismatchErr) Error() string {
	return "undo insert location " + e.Expected.String() + " is not on block " + strconv.FormatUint(e.Block, 10)
}

// LeakErr error occurs when record sets are still open at session exit
type LeakErr struct {
	IDs []uuid.UUID
}

func (e LeakErr) Error() string {
	ids := make([]string, 0, len(e.IDs))
	for _, id := range e.IDs {
		ids = append(ids, id.String())
	}
	return "undo record sets not closed at exit: " + strings.Join(ids, ", ")
}
