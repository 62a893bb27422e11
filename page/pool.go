package page

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/NebulousLabs/errors"
)

// Tag identifies a page: the block number inside an undo log
type Tag struct {
	Logno uint32
	Block uint64
}

// ReadMode defines how Pin fills a buffer which is not yet in the pool
type ReadMode int

const (
	// ReadNormal reads the page from the store. the page must exist
	ReadNormal ReadMode = iota
	// ReadZero returns an initialized empty page without reading the store
	ReadZero
)

// Buffer is a page held in the pool
type Buffer struct {
	tag  Tag
	data Page
	// content is the content lock of the page
	content sync.RWMutex
	locked  int32
	// the following fields are protected by the pool mutex
	pins  int
	dirty bool
	used  bool
}

// Tag returns the tag of the page in the buffer
func (b *Buffer) Tag() Tag {
	return b.tag
}

// Page returns the page content. the caller must hold the content lock to modify it
func (b *Buffer) Page() Page {
	return b.data
}

// Lock acquires the exclusive content lock
func (b *Buffer) Lock() {
	b.content.Lock()
	atomic.StoreInt32(&b.locked, 1)
}

// Unlock releases the content lock
func (b *Buffer) Unlock() {
	atomic.StoreInt32(&b.locked, 0)
	b.content.Unlock()
}

// IsLocked returns true while the content lock is held
func (b *Buffer) IsLocked() bool {
	return atomic.LoadInt32(&b.locked) == 1
}

// Barrier is called with the highest LSN of the pages before they are written
// to the store. the log must be durable up to that LSN when it returns.
type Barrier func(_lsn uint64) error

// Pool caches pages of all undo logs in memory
type Pool struct {
	size     int
	capacity int
	store    Store
	barrier  Barrier
	mutex    sync.Mutex
	buffers  map[Tag]*Buffer
	// hand is the clock hand used to find a victim for eviction
	hand  []Tag
	clock int
}

// NewPool creates a buffer pool for pages of the given size.
// capacity is the max amount of buffers held in memory
func NewPool(_store Store, _size int, _capacity int) (*Pool, error) {
	if !ValidSize(_size) {
		return nil, InvalidSizeErr
	}
	if _capacity < 1 {
		return nil, fmt.Errorf("pool capacity must be greater than zero")
	}
	return &Pool{
		size:     _size,
		capacity: _capacity,
		store:    _store,
		buffers:  make(map[Tag]*Buffer, _capacity),
		hand:     make([]Tag, 0, _capacity),
	}, nil
}

// Size returns the page size
func (p *Pool) Size() int {
	return p.size
}

// SetBarrier sets the function which makes the log durable before dirty pages are written
func (p *Pool) SetBarrier(_barrier Barrier) {
	p.mutex.Lock()
	p.barrier = _barrier
	p.mutex.Unlock()
}

// Pin returns a pinned buffer for the given tag. the buffer is not locked.
// with ReadZero the page is initialized as empty page.
func (p *Pool) Pin(_tag Tag, _mode ReadMode) (*Buffer, error) {
	p.mutex.Lock()
	if b, ok := p.buffers[_tag]; ok {
		b.pins++
		b.used = true
		p.mutex.Unlock()
		if _mode == ReadZero {
			// the buffer is shared, its content may only change under the content lock
			b.content.Lock()
			b.data.Init()
			b.content.Unlock()
			p.MarkDirty(b)
		}
		return b, nil
	}
	defer p.mutex.Unlock()

	if err := p.makeRoom(); err != nil {
		return nil, err
	}

	b := &Buffer{
		tag:  _tag,
		data: make(Page, p.size),
		pins: 1,
		used: true,
	}
	switch _mode {
	case ReadZero:
		b.data.Init()
		b.dirty = true
	default:
		found, err := p.store.ReadPage(_tag, b.data)
		if err != nil {
			return nil, ReadErr{Tag: _tag, Err: err}
		}
		if !found {
			return nil, ReadErr{Tag: _tag, Err: NotFoundErr}
		}
	}
	p.buffers[_tag] = b
	p.hand = append(p.hand, _tag)
	return b, nil
}

// Exists returns true if the page is held in the pool or the store
func (p *Pool) Exists(_tag Tag) (bool, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if _, ok := p.buffers[_tag]; ok {
		return true, nil
	}
	return p.store.HasPage(_tag)
}

// MarkDirty marks the buffer as modified. the caller must hold the content lock
func (p *Pool) MarkDirty(_buffer *Buffer) {
	p.mutex.Lock()
	_buffer.dirty = true
	p.mutex.Unlock()
}

// Release drops one pin of the buffer
func (p *Pool) Release(_buffer *Buffer) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if _buffer.pins <= 0 {
		panic("release of unpinned buffer " + _buffer.tag.String())
	}
	_buffer.pins--
}

// UnlockRelease releases the content lock and drops one pin
func (p *Pool) UnlockRelease(_buffer *Buffer) {
	_buffer.Unlock()
	p.Release(_buffer)
}

// Flush writes all dirty pages to the store. every page is copied under its
// shared content lock, so a page locked by a writer is written once the writer is done.
func (p *Pool) Flush() error {
	p.mutex.Lock()
	tags := make([]Tag, 0, len(p.buffers))
	for tag, b := range p.buffers {
		if b.dirty {
			tags = append(tags, tag)
		}
	}
	p.mutex.Unlock()

	image := make(Page, p.size)
	var errs []error
	for _, tag := range tags {
		if err := p.flushBuffer(tag, image); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Compose(errs...); err != nil {
		return err
	}
	return p.store.Sync()
}

// flushBuffer writes a copy of the page if it is still in the pool and dirty.
// only one buffer is pinned at a time, writers pinning new pages always find room.
func (p *Pool) flushBuffer(_tag Tag, _image Page) error {
	p.mutex.Lock()
	b, ok := p.buffers[_tag]
	if !ok || !b.dirty {
		p.mutex.Unlock()
		return nil
	}
	b.pins++
	barrier := p.barrier
	p.mutex.Unlock()

	b.content.RLock()
	copy(_image, b.data)
	// a writer needs the exclusive lock to dirty the page again
	p.mutex.Lock()
	b.dirty = false
	p.mutex.Unlock()
	b.content.RUnlock()

	var err error
	if barrier != nil {
		err = barrier(_image.LSN())
	}
	if err == nil {
		if werr := p.store.WritePage(_tag, _image); werr != nil {
			err = WriteErr{Tag: _tag, Err: werr}
		}
	}

	p.mutex.Lock()
	if err != nil {
		b.dirty = true
	}
	b.pins--
	p.mutex.Unlock()
	return err
}

// Discard removes all pages of the log below the given block from the pool and the store.
// pinned pages are kept in memory.
func (p *Pool) Discard(_logno uint32, _before uint64) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	for tag, b := range p.buffers {
		if tag.Logno != _logno || tag.Block >= _before || b.pins > 0 {
			continue
		}
		delete(p.buffers, tag)
	}
	p.compactHand()
	return p.store.Discard(_logno, _before)
}

// Drop forgets all buffers without writing them back.
// it is used to simulate a crash
func (p *Pool) Drop() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.buffers = make(map[Tag]*Buffer, p.capacity)
	p.hand = p.hand[:0]
	p.clock = 0
}

// Close flushes all pages and closes the store
func (p *Pool) Close() error {
	return errors.Compose(p.Flush(), p.store.Close())
}

// makeRoom evicts an unpinned buffer if the pool is full. the pool mutex must be held
func (p *Pool) makeRoom() error {
	if len(p.buffers) < p.capacity {
		return nil
	}
	// two rounds of the clock are enough to clear all used bits
	for i := 0; i < 2*len(p.hand); i++ {
		if p.clock >= len(p.hand) {
			p.clock = 0
		}
		tag := p.hand[p.clock]
		b := p.buffers[tag]
		if b.pins > 0 {
			p.clock++
			continue
		}
		if b.used {
			b.used = false
			p.clock++
			continue
		}
		if b.dirty {
			if p.barrier != nil {
				if err := p.barrier(b.data.LSN()); err != nil {
					return err
				}
			}
			if err := p.store.WritePage(tag, b.data); err != nil {
				return WriteErr{Tag: tag, Err: err}
			}
		}
		delete(p.buffers, tag)
		p.hand = append(p.hand[:p.clock], p.hand[p.clock+1:]...)
		return nil
	}
	return PoolExhaustedErr
}

func (p *Pool) compactHand() {
	hand := p.hand[:0]
	for _, tag := range p.hand {
		if _, ok := p.buffers[tag]; ok {
			hand = append(hand, tag)
		}
	}
	p.hand = hand
	p.clock = 0
}
