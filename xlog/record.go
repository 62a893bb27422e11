// Package xlog is the write ahead log used by the undo layer. it assembles
// records that reference modified undo pages, stores them in a framed log
// file and hands them back to recovery.
package xlog

import (
	"encoding/binary"
	"sort"

	"github.com/ljmsc/undo/page"
)

// LSN is the log sequence number of a record. it is the byte position in the
// log right behind the record.
type LSN uint64

// Flags describe a block referenced by a record
type Flags uint8

const (
	// FlagWillInit marks a page which is initialized by the record. no full
	// page image is taken and recovery doesn't need to read the page.
	FlagWillInit Flags = 1 << iota
	// FlagUndo marks a page of an undo log
	FlagUndo
	// FlagForceImage forces a full page image of the page
	FlagForceImage
)

// MaxBlockID is the highest block id a record can reference
const MaxBlockID = 32

// block encoding
// [1 ID][1 Flags][4 Logno][8 Block][4 DataSize][Data][4 ImageSize][Image]
const (
	blockFixedLength = 1 + 1 + 4 + 8 + 4 + 4
)

// Block is a page referenced by a record
type Block struct {
	ID    uint8
	Tag   page.Tag
	Flags Flags
	// Data is the data registered for the block. for undo pages it holds the
	// redo operations of the page
	Data []byte
	// Image is a full page image. it is empty if none was taken
	Image []byte
}

// WillInit returns true if the record initializes the page
func (b *Block) WillInit() bool {
	return b.Flags&FlagWillInit != 0
}

// IsUndo returns true if the block is a page of an undo log
func (b *Block) IsUndo() bool {
	return b.Flags&FlagUndo != 0
}

// HasImage returns true if the record carries a full page image of the block
func (b *Block) HasImage() bool {
	return len(b.Image) > 0
}

// Record is a decoded write ahead log record
type Record struct {
	// LSN is the position right behind the record
	LSN LSN
	// Blocks are the referenced pages ordered by id
	Blocks   []Block
	MainData []byte
}

// Block returns the block with the given id or nil
func (r *Record) Block(_id uint8) *Block {
	for i := range r.Blocks {
		if r.Blocks[i].ID == _id {
			return &r.Blocks[i]
		}
	}
	return nil
}

// Encode returns the binary representation of the record without LSN
func (r *Record) Encode() []byte {
	size := 1 + 4 + len(r.MainData)
	for _, b := range r.Blocks {
		size += blockFixedLength + len(b.Data) + len(b.Image)
	}
	raw := make([]byte, 0, size)
	raw = append(raw, byte(len(r.Blocks)))

	blocks := make([]Block, len(r.Blocks))
	copy(blocks, r.Blocks)
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].ID < blocks[j].ID })

	for _, b := range blocks {
		raw = append(raw, b.ID, byte(b.Flags))
		raw = appendUint32(raw, b.Tag.Logno)
		raw = appendUint64(raw, b.Tag.Block)
		raw = appendUint32(raw, uint32(len(b.Data)))
		raw = append(raw, b.Data...)
		raw = appendUint32(raw, uint32(len(b.Image)))
		raw = append(raw, b.Image...)
	}
	raw = appendUint32(raw, uint32(len(r.MainData)))
	raw = append(raw, r.MainData...)
	return raw
}

// Decode parses the binary representation into the record
func (r *Record) Decode(_raw []byte) error {
	if len(_raw) < 1 {
		return NotEnoughBytesErr
	}
	count := int(_raw[0])
	_raw = _raw[1:]
	r.Blocks = make([]Block, 0, count)
	for i := 0; i < count; i++ {
		if len(_raw) < blockFixedLength-4 {
			return NotEnoughBytesErr
		}
		b := Block{
			ID:    _raw[0],
			Flags: Flags(_raw[1]),
		}
		b.Tag.Logno = binary.LittleEndian.Uint32(_raw[2:6])
		b.Tag.Block = binary.LittleEndian.Uint64(_raw[6:14])
		var err error
		_raw = _raw[14:]
		if b.Data, _raw, err = readSized(_raw); err != nil {
			return err
		}
		if b.Image, _raw, err = readSized(_raw); err != nil {
			return err
		}
		r.Blocks = append(r.Blocks, b)
	}
	var err error
	if r.MainData, _raw, err = readSized(_raw); err != nil {
		return err
	}
	if len(_raw) > 0 {
		return TooManyBytesErr
	}
	return nil
}

func readSized(_raw []byte) (data []byte, rest []byte, err error) {
	if len(_raw) < 4 {
		return nil, nil, NotEnoughBytesErr
	}
	size := binary.LittleEndian.Uint32(_raw[:4])
	_raw = _raw[4:]
	if uint64(len(_raw)) < uint64(size) {
		return nil, nil, NotEnoughBytesErr
	}
	if size == 0 {
		return nil, _raw, nil
	}
	return _raw[:size], _raw[size:], nil
}

func appendUint32(_raw []byte, _value uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], _value)
	return append(_raw, b[:]...)
}

func appendUint64(_raw []byte, _value uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], _value)
	return append(_raw, b[:]...)
}
