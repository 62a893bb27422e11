package undo

import (
	"github.com/ljmsc/undo/page"
	"github.com/ljmsc/undo/xlog"
)

// appendState tracks the write position while undo data is appended to a
// range of pinned pages
type appendState struct {
	pool     *page.Pool
	pageSize int
	buffers  []*page.Buffer
	// apply tells which buffers are written. nil means all
	apply []bool
	// builder is nil during recovery
	builder      *xlog.Builder
	firstBlockID uint8
	// last is the index of the last touched buffer, -1 before the first write
	last   int
	index  int
	insert uint64
}

func (s *appendState) write(_index int) bool {
	return s.apply == nil || s.apply[_index]
}

// append writes data at the insert location and advances it. page headers are stepped over.
func (s *appendState) append(_data []byte) error {
	for len(_data) > 0 {
		if s.index >= len(s.buffers) {
			return OutOfPagesErr
		}
		inPage := int(s.insert % uint64(s.pageSize))
		if inPage < page.HeaderSize {
			s.insert += uint64(page.HeaderSize - inPage)
			inPage = page.HeaderSize
		}
		buf := s.buffers[s.index]
		write := s.write(s.index)

		if s.last != s.index {
			// first touch of the page by this record
			if write {
				s.pool.MarkDirty(buf)
				buf.Page().SetLower(uint16(inPage))
			}
			if s.builder != nil {
				flags := xlog.FlagUndo
				if inPage == page.HeaderSize {
					flags |= xlog.FlagWillInit
				}
				if err := s.builder.RegisterBuffer(s.firstBlockID+uint8(s.index), buf, flags); err != nil {
					return err
				}
			}
			s.last = s.index
		}

		n := s.pageSize - inPage
		if len(_data) < n {
			n = len(_data)
		}
		if write {
			copy(buf.Page()[inPage:inPage+n], _data[:n])
		}
		_data = _data[n:]
		s.insert += uint64(n)
		if inPage+n == s.pageSize {
			s.index++
			s.insert += page.HeaderSize
		}
	}
	return nil
}

// appendOp writes the bytes and registers them as insert operations for the
// first block of the record
func (s *appendState) appendOp(_data []byte) error {
	if err := s.append(_data); err != nil {
		return err
	}
	if s.builder == nil {
		return nil
	}
	raw := make([]byte, 0, len(_data)+len(_data)/MaxInsertOpLength+1)
	for len(_data) > 0 {
		n := len(_data)
		if n > MaxInsertOpLength {
			n = MaxInsertOpLength
		}
		raw = InsertOp(_data[:n]).AppendTo(raw)
		_data = _data[n:]
	}
	return s.builder.RegisterBufData(s.firstBlockID, raw)
}

// Insert writes the record data to the space reserved by Allocate. pending
// chunk and type headers are written in front of it. the modified pages are
// registered with the builder using block ids from firstBlockID on. the
// headers are logged as insert operations of the first block, the record data
// itself is not logged, recovery gets it from the main data of the record.
func (u *RecordSet) Insert(_builder *xlog.Builder, _firstBlockID uint8, _data []byte) error {
	if u.closed {
		return RecordSetClosedErr
	}
	if u.allocated < 0 {
		return NotAllocatedErr
	}
	if _builder == nil {
		return NoBuilderErr
	}
	if len(_data) != u.allocated {
		return SizeMismatchErr{Allocated: u.allocated, Inserted: len(_data)}
	}
	if int(_firstBlockID)+u.buffers.len()-1 > xlog.MaxBlockID {
		return TooLargeErr
	}

	c := u.currentChunk()
	state := appendState{
		pool:         u.manager.pool,
		pageSize:     u.pageSize(),
		buffers:      u.buffers.buffers(),
		builder:      _builder,
		firstBlockID: _firstBlockID,
		last:         -1,
		insert:       u.slot.Insert(),
	}

	if c.state == headerPending {
		header := ChunkHeader{
			Size:     0,
			Previous: c.previous,
			Type:     u.typ,
		}
		if err := state.appendOp(header.marshal()); err != nil {
			return err
		}
	}
	if u.typeHeaderState == headerPending {
		if err := state.appendOp(u.typeHeader); err != nil {
			return err
		}
	}
	if err := state.append(_data); err != nil {
		return err
	}

	u.slot.SetInsert(state.insert)
	c.state = headerWritten
	u.typeHeaderState = headerWritten
	u.allocated = -1
	return nil
}
