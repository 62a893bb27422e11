package undo

import (
	"bytes"

	"github.com/ljmsc/undo/slot"
)

const (
	chunkSizeLength     = 8
	chunkPreviousLength = 8
	chunkTypeLength     = 4
	// ChunkHeaderSize is the size of the header in front of every chunk (20 byte)
	ChunkHeaderSize = chunkSizeLength + chunkPreviousLength + chunkTypeLength
)

// ChunkHeader is written in front of the records of a record set in one undo log
type ChunkHeader struct {
	// Size is the amount of undo data bytes of the chunk including this header.
	// it is zero until the record set is closed (8 byte)
	Size uint64
	// Previous points to the header of the previous chunk of the record set (8 byte)
	Previous Ptr
	// Type of the record set (4 byte)
	Type Type
}

func (h *ChunkHeader) marshal() []byte {
	buff := bytes.Buffer{}
	buff.Grow(ChunkHeaderSize)
	buff.Write(encodeUint64(h.Size))
	buff.Write(encodeUint64(uint64(h.Previous)))
	buff.Write(encodeUint32(uint32(h.Type)))
	return buff.Bytes()
}

func (h *ChunkHeader) unmarshal(_raw []byte) error {
	if len(_raw) < ChunkHeaderSize {
		return NotEnoughBytesErr
	}
	h.Size = decodeUint64(_raw[:chunkSizeLength])
	_raw = _raw[chunkSizeLength:]
	h.Previous = Ptr(decodeUint64(_raw[:chunkPreviousLength]))
	_raw = _raw[chunkPreviousLength:]
	h.Type = Type(decodeUint32(_raw[:chunkTypeLength]))
	return nil
}

type headerState int

const (
	headerPending headerState = iota
	headerWritten
)

// chunk is the part of a record set located in one undo log
type chunk struct {
	slot         *slot.Slot
	headerOffset uint64
	previous     Ptr
	state        headerState
	// bufferIndex references the buffers holding the size field of the header.
	// set by PrepareToMarkClosed, -1 if unused
	bufferIndex [2]int
}

func newChunk(_slot *slot.Slot, _previous Ptr) *chunk {
	return &chunk{
		slot:         _slot,
		headerOffset: _slot.Insert(),
		previous:     _previous,
		state:        headerPending,
		bufferIndex:  [2]int{-1, -1},
	}
}

func (c *chunk) ptr() Ptr {
	return MakePtr(c.slot.Logno(), c.headerOffset)
}
