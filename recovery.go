package undo

import (
	"github.com/ljmsc/undo/page"
	"github.com/ljmsc/undo/slot"
	"github.com/ljmsc/undo/xlog"
)

type redoBlock struct {
	block  *xlog.Block
	buffer *page.Buffer
	action xlog.Action
}

// InsertInRecovery replays the undo insert of a record. data is the record
// data which was passed to Insert. the pages of the undo log referenced by
// the first undo block are written, blocks of other logs are left to
// UpdateInRecovery. it returns the location the data was written to.
func (m *Manager) InsertInRecovery(_record *xlog.Record, _data []byte) (Ptr, error) {
	size := m.pool.Size()
	var s *slot.Slot
	blocks := make([]redoBlock, 0, len(_record.Blocks))
	defer func() {
		for _, b := range blocks {
			if b.buffer != nil {
				m.pool.UnlockRelease(b.buffer)
			}
		}
	}()

	skip := false
	for i := range _record.Blocks {
		blk := &_record.Blocks[i]
		if !blk.IsUndo() {
			continue
		}
		if s == nil {
			s = m.slots.Ensure(blk.Tag.Logno)
		} else if blk.Tag.Logno != s.Logno() {
			continue
		}

		if past := (blk.Tag.Block + 1) * uint64(size); s.End() < past {
			if err := m.slots.AdjustPhysicalRange(s.Logno(), 0, past); err != nil {
				return InvalidPtr, err
			}
		}

		mode := page.ReadNormal
		if blk.WillInit() {
			mode = page.ReadZero
		}
		action, buf, err := xlog.ReadBufferForRedo(m.pool, _record, blk.ID, mode)
		if err != nil {
			return InvalidPtr, err
		}
		if len(blocks) == 0 {
			// resync the insert location with the first page of the record
			switch {
			case action == xlog.Restored:
				lower := uint64(buf.Page().Lower())
				if lower == 0 {
					lower = page.HeaderSize
				}
				s.SetInsert(blk.Tag.Block*uint64(size) + lower)
			case blk.WillInit():
				s.SetInsert(blk.Tag.Block*uint64(size) + page.HeaderSize)
			case action != xlog.NotFound && s.Insert()/uint64(size) != blk.Tag.Block:
				blocks = append(blocks, redoBlock{block: blk, buffer: buf, action: action})
				return InvalidPtr, CursorMismatchErr{Expected: MakePtr(s.Logno(), s.Insert()), Block: blk.Tag.Block}
			}
		}
		if action == xlog.NotFound {
			m.logger.Printf("undo page %d/%d not found during recovery, skipping insert", blk.Tag.Logno, blk.Tag.Block)
			skip = true
		}
		blocks = append(blocks, redoBlock{block: blk, buffer: buf, action: action})
	}
	if len(blocks) == 0 {
		m.logger.Printf("record %d references no undo pages", _record.LSN)
		return InvalidPtr, NoUndoBlocksErr
	}

	state := appendState{
		pool:     m.pool,
		pageSize: size,
		buffers:  make([]*page.Buffer, 0, len(blocks)),
		apply:    make([]bool, 0, len(blocks)),
		last:     -1,
		insert:   s.Insert(),
	}
	for _, b := range blocks {
		state.buffers = append(state.buffers, b.buffer)
		state.apply = append(state.apply, !skip && b.action == xlog.NeedsRedo)
	}
	begin := state.insert

	// leading insert operations of the first block are the headers
	var headers uint64
	ops := blocks[0].block.Data
	for len(ops) > 0 {
		op, n, err := DecodeOp(ops)
		if err != nil {
			return InvalidPtr, OpsErr{Position: len(blocks[0].block.Data) - len(ops), Err: err}
		}
		if op.Kind != OpInsert {
			break
		}
		if err := state.append(op.Data); err != nil {
			return InvalidPtr, err
		}
		headers += uint64(len(op.Data))
		ops = ops[n:]
	}
	if err := state.append(_data); err != nil {
		return InvalidPtr, err
	}

	// a record may also close the record set
	for i, b := range blocks {
		if !state.apply[i] {
			continue
		}
		if err := applyUpdates(b.buffer.Page(), b.block.Data); err != nil {
			return InvalidPtr, err
		}
		b.buffer.Page().SetLSN(uint64(_record.LSN))
		m.pool.MarkDirty(b.buffer)
	}

	s.SetInsert(state.insert)
	return MakePtr(s.Logno(), OffsetPlusUsableBytes(begin, headers, size)), nil
}

// UpdateInRecovery replays the update operations of a record to every undo
// page which doesn't contain the changes yet. missing pages are skipped.
func (m *Manager) UpdateInRecovery(_record *xlog.Record) error {
	for i := range _record.Blocks {
		blk := &_record.Blocks[i]
		if !blk.IsUndo() {
			continue
		}
		action, buf, err := xlog.ReadBufferForRedo(m.pool, _record, blk.ID, page.ReadNormal)
		if err != nil {
			return err
		}
		if action == xlog.NotFound {
			m.logger.Printf("undo page %d/%d not found during recovery, skipping update", blk.Tag.Logno, blk.Tag.Block)
			continue
		}
		if action == xlog.NeedsRedo {
			if err := applyUpdates(buf.Page(), blk.Data); err != nil {
				m.pool.UnlockRelease(buf)
				return err
			}
			buf.Page().SetLSN(uint64(_record.LSN))
			m.pool.MarkDirty(buf)
		}
		m.pool.UnlockRelease(buf)
	}
	return nil
}
