package xlog

import (
	"sort"

	"github.com/ljmsc/undo/page"
)

type registered struct {
	id     uint8
	buffer *page.Buffer
	flags  Flags
	data   []byte
}

// Builder collects the pages and data of one record before it is inserted into the log
type Builder struct {
	blocks map[uint8]*registered
	main   []byte
}

// NewBuilder returns an empty record builder
func NewBuilder() *Builder {
	return &Builder{blocks: make(map[uint8]*registered)}
}

// RegisterBuffer references a modified page. the buffer must stay locked until
// the record was inserted. registering the same buffer again keeps the first flags.
func (b *Builder) RegisterBuffer(_id uint8, _buffer *page.Buffer, _flags Flags) error {
	if _id > MaxBlockID {
		return TooManyBlocksErr
	}
	if r, ok := b.blocks[_id]; ok {
		if r.buffer != _buffer {
			return BlockInUseErr{ID: _id}
		}
		return nil
	}
	b.blocks[_id] = &registered{
		id:     _id,
		buffer: _buffer,
		flags:  _flags,
	}
	return nil
}

// RegisterBufData appends data to a registered block
func (b *Builder) RegisterBufData(_id uint8, _data []byte) error {
	r, ok := b.blocks[_id]
	if !ok {
		return BlockNotFoundErr
	}
	r.data = append(r.data, _data...)
	return nil
}

// RegisterData appends data to the main data of the record
func (b *Builder) RegisterData(_data []byte) {
	b.main = append(b.main, _data...)
}

// BufData returns the data registered for a block so far
func (b *Builder) BufData(_id uint8) []byte {
	if r, ok := b.blocks[_id]; ok {
		return r.data
	}
	return nil
}

// Buffer returns the buffer and flags registered for the block id
func (b *Builder) Buffer(_id uint8) (*page.Buffer, Flags, bool) {
	r, ok := b.blocks[_id]
	if !ok {
		return nil, 0, false
	}
	return r.buffer, r.flags, true
}

// Len returns the amount of registered blocks
func (b *Builder) Len() int {
	return len(b.blocks)
}

// Reset clears the builder for the next record
func (b *Builder) Reset() {
	b.blocks = make(map[uint8]*registered)
	b.main = nil
}

// build creates the record. a full page image is added for every page whose
// LSN is not behind the redo pointer, unless the record initializes the page.
func (b *Builder) build(_redo LSN) *Record {
	r := &Record{
		Blocks:   make([]Block, 0, len(b.blocks)),
		MainData: b.main,
	}
	for _, reg := range b.blocks {
		blk := Block{
			ID:    reg.id,
			Tag:   reg.buffer.Tag(),
			Flags: reg.flags,
			Data:  reg.data,
		}
		p := reg.buffer.Page()
		needsImage := reg.flags&FlagForceImage != 0 || LSN(p.LSN()) <= _redo
		if needsImage && reg.flags&FlagWillInit == 0 {
			blk.Image = make([]byte, len(p))
			copy(blk.Image, p)
		}
		r.Blocks = append(r.Blocks, blk)
	}
	sort.Slice(r.Blocks, func(i, j int) bool { return r.Blocks[i].ID < r.Blocks[j].ID })
	return r
}
