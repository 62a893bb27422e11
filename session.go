package undo

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/ljmsc/undo/slot"
)

// Session owns the record sets created by one backend. every record set must
// be closed and released before the session exits.
type Session struct {
	manager *Manager
	mutex   sync.Mutex
	live    map[uuid.UUID]*RecordSet
	abort   func(err error)
}

// SetAbortHandler replaces the function which is called by Exit if record
// sets are still open. the default logs the error and terminates the process.
func (s *Session) SetAbortHandler(fn func(err error)) {
	s.mutex.Lock()
	s.abort = fn
	s.mutex.Unlock()
}

// Create returns a new empty record set. no space is reserved until the first Allocate
func (s *Session) Create(_type Type, _persistence slot.Persistence) (*RecordSet, error) {
	u, err := newRecordSet(s.manager, s, _type, _persistence)
	if err != nil {
		return nil, err
	}
	s.mutex.Lock()
	s.live[u.id] = u
	s.mutex.Unlock()
	return u, nil
}

// Live returns the amount of record sets which are not yet closed and released
func (s *Session) Live() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.live)
}

// Check returns a LeakErr if record sets are still open
func (s *Session) Check() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if len(s.live) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(s.live))
	for id := range s.live {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return LeakErr{IDs: ids}
}

// Exit ends the session. an open record set would keep its undo logs forever,
// so the abort handler is called if one is left.
func (s *Session) Exit() {
	err := s.Check()
	if err == nil {
		return
	}
	s.mutex.Lock()
	abort := s.abort
	s.mutex.Unlock()
	abort(err)
}

func (s *Session) forget(_u *RecordSet) {
	s.mutex.Lock()
	delete(s.live, _u.id)
	s.mutex.Unlock()
}
