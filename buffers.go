package undo

import (
	"github.com/ljmsc/undo/page"
	"github.com/ljmsc/undo/xlog"
)

type bufferEntry struct {
	buffer *page.Buffer
	locked bool
}

// bufferSet holds the pages pinned by a record set. pages are pinned in one
// pass and locked in a second one, so no content lock is held while waiting for I/O.
type bufferSet struct {
	pool    *page.Pool
	entries []bufferEntry
}

func (s *bufferSet) len() int {
	return len(s.entries)
}

func (s *bufferSet) get(_index int) *page.Buffer {
	return s.entries[_index].buffer
}

func (s *bufferSet) buffers() []*page.Buffer {
	buffers := make([]*page.Buffer, 0, len(s.entries))
	for _, e := range s.entries {
		buffers = append(buffers, e.buffer)
	}
	return buffers
}

func (s *bufferSet) find(_tag page.Tag) int {
	for i, e := range s.entries {
		if e.buffer.Tag() == _tag {
			return i
		}
	}
	return -1
}

// grow makes sure the set can hold n more buffers. capacity is doubled
func (s *bufferSet) grow(_n int) {
	need := len(s.entries) + _n
	if need <= cap(s.entries) {
		return
	}
	c := cap(s.entries)
	if c == 0 {
		c = 4
	}
	for c < need {
		c *= 2
	}
	entries := make([]bufferEntry, len(s.entries), c)
	copy(entries, s.entries)
	s.entries = entries
}

// pin pins the page without locking it. a page already in the set is not pinned twice
func (s *bufferSet) pin(_tag page.Tag, _mode page.ReadMode) (int, error) {
	if i := s.find(_tag); i >= 0 {
		return i, nil
	}
	buf, err := s.pool.Pin(_tag, _mode)
	if err != nil {
		return -1, err
	}
	s.grow(1)
	s.entries = append(s.entries, bufferEntry{buffer: buf})
	return len(s.entries) - 1, nil
}

// lockAll acquires the content lock of every buffer not yet locked
func (s *bufferSet) lockAll() {
	for i := range s.entries {
		if s.entries[i].locked {
			continue
		}
		s.entries[i].buffer.Lock()
		s.entries[i].locked = true
	}
}

// findOrRead returns the index of the page and reads it if it is not in the set.
// the page must exist.
func (s *bufferSet) findOrRead(_tag page.Tag) (int, error) {
	i, err := s.pin(_tag, page.ReadNormal)
	if err != nil {
		return -1, err
	}
	if !s.entries[i].locked {
		s.entries[i].buffer.Lock()
		s.entries[i].locked = true
	}
	return i, nil
}

func (s *bufferSet) setLSN(_lsn xlog.LSN) {
	for _, e := range s.entries {
		e.buffer.Page().SetLSN(uint64(_lsn))
	}
}

// release unlocks and unpins all buffers
func (s *bufferSet) release() {
	for _, e := range s.entries {
		if e.locked {
			e.buffer.Unlock()
		}
		s.pool.Release(e.buffer)
	}
	s.entries = s.entries[:0]
}
