// Package slot manages the metadata of undo logs: the insert and end
// locations, the discard horizon and the free lists that hand out logs to
// writers.
package slot

import (
	"sync"
)

// Persistence is the persistence class of an undo log
type Persistence byte

const (
	Permanent Persistence = 'p'
	Unlogged  Persistence = 'u'
	Temporary Persistence = 't'
)

// Valid returns true for a known persistence class
func (p Persistence) Valid() bool {
	switch p {
	case Permanent, Unlogged, Temporary:
		return true
	default:
		return false
	}
}

// Slot holds the metadata of one undo log. a slot is handed out to exactly one
// writer at a time, so insert is only changed by its owner. end and discard
// may be moved by other backends.
type Slot struct {
	logno       uint32
	persistence Persistence
	// metaLock protects insert, end, discard and full
	metaLock sync.RWMutex
	// insert is the offset of the next byte to write
	insert uint64
	// end is the offset up to which physical space is allocated
	end uint64
	// discard is the offset below which all data was discarded
	discard uint64
	// full is set once the log accepts no new writers
	full bool
	// owned is true while the slot is handed out to a writer
	owned bool
}

// Logno returns the number of the undo log
func (s *Slot) Logno() uint32 {
	return s.logno
}

// Persistence returns the persistence class of the undo log
func (s *Slot) Persistence() Persistence {
	return s.persistence
}

// Insert returns the insert location. only the owner of the slot may call it
// without further synchronization since nobody else moves it.
func (s *Slot) Insert() uint64 {
	s.metaLock.RLock()
	defer s.metaLock.RUnlock()
	return s.insert
}

// SetInsert moves the insert location
func (s *Slot) SetInsert(_insert uint64) {
	s.metaLock.Lock()
	s.insert = _insert
	s.metaLock.Unlock()
}

// End returns the end of the physically allocated range
func (s *Slot) End() uint64 {
	s.metaLock.RLock()
	defer s.metaLock.RUnlock()
	return s.end
}

// Discard returns the discard horizon
func (s *Slot) Discard() uint64 {
	s.metaLock.RLock()
	defer s.metaLock.RUnlock()
	return s.discard
}

// IsFull returns true if the slot was marked full
func (s *Slot) IsFull() bool {
	s.metaLock.RLock()
	defer s.metaLock.RUnlock()
	return s.full
}
