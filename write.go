package undo

import (
	"github.com/ljmsc/undo/xlog"
)

// record kinds stored in the first byte of the main data of records written
// by Append, AppendAndClose and Close
const (
	recordInsert byte = iota + 1
	recordClose
)

// Append writes one undo record and logs it to the write ahead log. it returns
// the location of the record and the LSN of the log record.
func (u *RecordSet) Append(_data []byte) (Ptr, xlog.LSN, error) {
	return u.append(_data, false)
}

// AppendAndClose writes the last undo record and closes the record set in a
// single log record. the record set is released afterwards.
func (u *RecordSet) AppendAndClose(_data []byte) (Ptr, xlog.LSN, error) {
	return u.append(_data, true)
}

func (u *RecordSet) append(_data []byte, _close bool) (Ptr, xlog.LSN, error) {
	if len(_data) == 0 {
		return InvalidPtr, 0, EmptyDataErr
	}
	ptr, err := u.Allocate(len(_data))
	if err != nil {
		return InvalidPtr, 0, err
	}
	defer u.Release()

	builder := xlog.NewBuilder()
	if err := u.Insert(builder, 0, _data); err != nil {
		return InvalidPtr, 0, err
	}
	if _close {
		if err := u.PrepareToMarkClosed(); err != nil {
			return InvalidPtr, 0, err
		}
		if err := u.MarkClosed(builder, 0); err != nil {
			return InvalidPtr, 0, err
		}
	}
	builder.RegisterData(append([]byte{recordInsert}, _data...))
	lsn, err := u.manager.wal.Insert(builder)
	if err != nil {
		return InvalidPtr, 0, err
	}
	u.SetPageLSN(lsn)
	return ptr, lsn, nil
}

// Close writes the final chunk sizes, logs them and releases the record set
func (u *RecordSet) Close() (xlog.LSN, error) {
	if u.buffers.len() > 0 {
		return 0, AllocatedErr
	}
	defer u.Release()
	if err := u.PrepareToMarkClosed(); err != nil {
		return 0, err
	}
	builder := xlog.NewBuilder()
	if err := u.MarkClosed(builder, 0); err != nil {
		return 0, err
	}
	builder.RegisterData([]byte{recordClose})
	lsn, err := u.manager.wal.Insert(builder)
	if err != nil {
		return 0, err
	}
	u.SetPageLSN(lsn)
	return lsn, nil
}

// Redo replays a record written by Append, AppendAndClose or Close
func (m *Manager) Redo(_record *xlog.Record) error {
	if len(_record.MainData) == 0 {
		return UnknownRecordErr
	}
	switch _record.MainData[0] {
	case recordInsert:
		if _, err := m.InsertInRecovery(_record, _record.MainData[1:]); err != nil {
			return err
		}
		return m.UpdateInRecovery(_record)
	case recordClose:
		return m.UpdateInRecovery(_record)
	default:
		return UnknownRecordErr
	}
}
