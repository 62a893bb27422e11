package undo

import (
	"github.com/ljmsc/undo/page"
	"github.com/ljmsc/undo/xlog"
)

// Allocate reserves space for an undo record of the given size and pins and
// locks all pages the record and its headers will occupy. it returns the
// location the record data will be written to. the pages stay locked until Release.
// a record which touches more pages than a log record can reference is rejected with TooLargeErr.
func (u *RecordSet) Allocate(_size int) (Ptr, error) {
	if u.closed {
		return InvalidPtr, RecordSetClosedErr
	}
	if u.buffers.len() > 0 {
		return InvalidPtr, AllocatedErr
	}
	if _size < 0 {
		return InvalidPtr, SizeMismatchErr{Allocated: 0, Inserted: _size}
	}

	begin, err := u.reserve(uint64(_size))
	if err != nil {
		return InvalidPtr, err
	}
	headers := u.headerSize()
	// every page becomes one block of the log record
	if pageSpan(begin.Offset(), headers+uint64(_size), u.pageSize()) > xlog.MaxBlockID+1 {
		return InvalidPtr, TooLargeErr
	}
	if err := u.pinRange(begin, headers+uint64(_size)); err != nil {
		u.buffers.release()
		return InvalidPtr, err
	}
	u.lockPinned()
	u.allocated = _size
	return begin.PlusUsableBytes(headers, u.pageSize()), nil
}

// reserve finds an undo log with enough space for the record and its headers.
// if the current log is full a new chunk is opened in another log.
func (u *RecordSet) reserve(_size uint64) (Ptr, error) {
	slots := u.manager.slots
	for {
		if u.slot != nil {
			insert := u.slot.Insert()
			newInsert := OffsetPlusUsableBytes(insert, _size+u.headerSize(), u.pageSize())
			if newInsert <= u.recentEnd {
				return MakePtr(u.slot.Logno(), insert), nil
			}
			u.recentEnd = u.slot.End()
			if newInsert <= u.recentEnd {
				return MakePtr(u.slot.Logno(), insert), nil
			}
			if newInsert <= slots.MaxLogSize() {
				if err := slots.AdjustPhysicalRange(u.slot.Logno(), 0, newInsert); err != nil {
					return InvalidPtr, err
				}
				u.recentEnd = u.slot.End()
				return MakePtr(u.slot.Logno(), insert), nil
			}
			if insert == page.HeaderSize {
				return InvalidPtr, TooLargeErr
			}

			u.manager.logger.Printf("undo log %d is full, record set %s continues in a new log", u.slot.Logno(), u.id)
			slots.MarkFull(u.slot)
			if c := u.currentChunk(); c != nil && c.state == headerPending {
				// nothing was written to the chunk yet
				u.chunks = u.chunks[:len(u.chunks)-1]
				slots.Put(u.slot)
			}
			u.slot = nil
		}

		s, err := slots.Get(u.persistence)
		if err != nil {
			return InvalidPtr, err
		}
		previous := InvalidPtr
		if c := u.currentChunk(); c != nil {
			previous = c.ptr()
		}
		u.chunks = append(u.chunks, newChunk(s, previous))
		u.slot = s
		u.recentEnd = 0
	}
}

// pinRange pins every page touched by total bytes of undo data starting at
// begin. pages are not locked. a page which is written from its first usable
// byte on is initialized instead of read.
func (u *RecordSet) pinRange(_begin Ptr, _total uint64) error {
	size := u.pageSize()
	u.buffers.grow(int(_total/uint64(size-page.HeaderSize)) + 2)

	logno := _begin.Logno()
	offset := _begin.Offset()
	for _total > 0 {
		inPage := int(offset % uint64(size))
		if inPage < page.HeaderSize {
			offset += uint64(page.HeaderSize - inPage)
			inPage = page.HeaderSize
		}
		mode := page.ReadNormal
		if inPage == page.HeaderSize {
			mode = page.ReadZero
		}
		if _, err := u.buffers.pin(page.Tag{Logno: logno, Block: offset / uint64(size)}, mode); err != nil {
			return err
		}

		n := uint64(size - inPage)
		if _total <= n {
			return nil
		}
		_total -= n
		offset += n
	}
	return nil
}

// lockPinned locks all pinned pages
func (u *RecordSet) lockPinned() {
	u.buffers.lockAll()
}
