package undo

import (
	"github.com/google/uuid"
	"github.com/ljmsc/undo/slot"
	"github.com/ljmsc/undo/xlog"
)

// RecordSet is a group of undo records written by one owner. the records are
// stored in one or more chunks, each located in a different undo log.
// a RecordSet is not safe for concurrent use.
type RecordSet struct {
	id          uuid.UUID
	manager     *Manager
	session     *Session
	typ         Type
	persistence slot.Persistence

	// slot is the undo log currently written to
	slot      *slot.Slot
	chunks    []*chunk
	recentEnd uint64

	typeHeader      []byte
	typeHeaderState headerState

	buffers bufferSet
	// allocated is the size of the current allocation, -1 if none
	allocated int
	prepared  bool
	closed    bool
	destroyed bool
}

func newRecordSet(_manager *Manager, _session *Session, _type Type, _persistence slot.Persistence) (*RecordSet, error) {
	size, err := _type.HeaderSize()
	if err != nil {
		return nil, err
	}
	if !_persistence.Valid() {
		return nil, slot.UnknownPersistenceErr
	}
	return &RecordSet{
		id:              uuid.New(),
		manager:         _manager,
		session:         _session,
		typ:             _type,
		persistence:     _persistence,
		typeHeader:      make([]byte, size),
		typeHeaderState: headerPending,
		buffers:         bufferSet{pool: _manager.pool},
		allocated:       -1,
	}, nil
}

// ID returns the id of the record set
func (u *RecordSet) ID() uuid.UUID {
	return u.id
}

// Type returns the type of the record set
func (u *RecordSet) Type() Type {
	return u.typ
}

// Persistence returns the persistence class of the undo logs used by the record set
func (u *RecordSet) Persistence() slot.Persistence {
	return u.persistence
}

// IsClosed returns true after MarkClosed
func (u *RecordSet) IsClosed() bool {
	return u.closed
}

// Chunks returns pointers to the headers of all chunks in the order they were opened
func (u *RecordSet) Chunks() []Ptr {
	ptrs := make([]Ptr, 0, len(u.chunks))
	for _, c := range u.chunks {
		ptrs = append(ptrs, c.ptr())
	}
	return ptrs
}

// SetTypeHeader sets the content of the type header. it must be called before the first insert.
// shorter content is zero padded.
func (u *RecordSet) SetTypeHeader(_header []byte) error {
	if u.typeHeaderState == headerWritten {
		return TypeHeaderWrittenErr
	}
	if len(_header) > len(u.typeHeader) {
		return TooLargeErr
	}
	for i := range u.typeHeader {
		u.typeHeader[i] = 0
	}
	copy(u.typeHeader, _header)
	return nil
}

// SetPageLSN stamps all pages held by the record set with the LSN of the
// record which modified them
func (u *RecordSet) SetPageLSN(_lsn xlog.LSN) {
	u.buffers.setLSN(_lsn)
}

// Release unlocks and unpins all pages held by the record set. after
// MarkClosed it also hands the undo logs back and removes the record set from its session.
func (u *RecordSet) Release() {
	u.buffers.release()
	u.allocated = -1
	u.prepared = false
	for _, c := range u.chunks {
		c.bufferIndex = [2]int{-1, -1}
	}
	if !u.closed || u.destroyed {
		return
	}
	for _, c := range u.chunks {
		u.manager.slots.Put(c.slot)
	}
	u.slot = nil
	u.session.forget(u)
	u.destroyed = true
}

// needChunkHeader is true until the first insert into the current chunk
func (u *RecordSet) needChunkHeader() bool {
	return len(u.chunks) > 0 && u.chunks[len(u.chunks)-1].state == headerPending
}

func (u *RecordSet) currentChunk() *chunk {
	if len(u.chunks) == 0 {
		return nil
	}
	return u.chunks[len(u.chunks)-1]
}

// headerSize returns the amount of header bytes the next insert writes in front of its data
func (u *RecordSet) headerSize() uint64 {
	var size uint64
	if u.slot == nil || u.needChunkHeader() {
		size += ChunkHeaderSize
	}
	if u.typeHeaderState == headerPending {
		size += uint64(len(u.typeHeader))
	}
	return size
}

func (u *RecordSet) pageSize() int {
	return u.manager.pool.Size()
}
