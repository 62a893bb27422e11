package undo

import (
	"github.com/ljmsc/undo/page"
	"github.com/ljmsc/undo/xlog"
)

// PrepareToMarkClosed pins and locks the pages holding the size field of every
// chunk header. it must be called before the critical section which calls MarkClosed.
func (u *RecordSet) PrepareToMarkClosed() error {
	if u.closed {
		return RecordSetClosedErr
	}
	size := u.pageSize()
	for _, c := range u.chunks {
		c.bufferIndex = [2]int{-1, -1}
		if c.state == headerPending {
			continue
		}
		for i, f := range Fragments(c.headerOffset, chunkSizeLength, size) {
			index, err := u.buffers.findOrRead(page.Tag{Logno: c.slot.Logno(), Block: f.Block})
			if err != nil {
				return err
			}
			c.bufferIndex[i] = index
		}
	}
	u.prepared = true
	return nil
}

// MarkClosed writes the final size into the header of every chunk. the size
// is the distance between the header and the insert location of its log. the
// changes are registered as update operations with the builder. the buffer at
// position i of the record set is registered as block firstBlockID+i.
func (u *RecordSet) MarkClosed(_builder *xlog.Builder, _firstBlockID uint8) error {
	if u.closed {
		return RecordSetClosedErr
	}
	if !u.prepared {
		return NotPreparedErr
	}
	if _builder == nil {
		return NoBuilderErr
	}
	if int(_firstBlockID)+u.buffers.len()-1 > xlog.MaxBlockID {
		return TooLargeErr
	}
	size := u.pageSize()
	for _, c := range u.chunks {
		if c.state == headerPending {
			continue
		}
		raw := encodeUint64(c.slot.Insert() - c.headerOffset)
		for i, f := range Fragments(c.headerOffset, chunkSizeLength, size) {
			index := c.bufferIndex[i]
			if index < 0 {
				return NotPreparedErr
			}
			buf := u.buffers.get(index)
			field := buf.Page()[f.Offset : f.Offset+f.Length]
			copy(field, raw[:f.Length])
			raw = raw[f.Length:]
			u.manager.pool.MarkDirty(buf)

			id := _firstBlockID + uint8(index)
			if err := _builder.RegisterBuffer(id, buf, xlog.FlagUndo); err != nil {
				return err
			}
			op := UpdateOp(uint16(f.Offset), field)
			if err := _builder.RegisterBufData(id, op.AppendTo(nil)); err != nil {
				return err
			}
		}
	}
	u.closed = true
	return nil
}
