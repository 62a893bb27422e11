package page

import "sync"

// Store is the persistent home of undo log pages
type Store interface {
	// ReadPage reads the page into _page. found is false if the page doesn't exist or was discarded
	ReadPage(_tag Tag, _page Page) (found bool, err error)
	HasPage(_tag Tag) (bool, error)
	WritePage(_tag Tag, _page Page) error
	// Discard removes all pages of the log below the given block
	Discard(_logno uint32, _before uint64) error
	Sync() error
	Close() error
}

// MemStore keeps pages in memory. it is used for tests and logs which don't survive a restart
type MemStore struct {
	mutex sync.RWMutex
	pages map[Tag][]byte
}

// NewMemStore creates an empty in-memory store
func NewMemStore() *MemStore {
	return &MemStore{pages: make(map[Tag][]byte)}
}

func (m *MemStore) ReadPage(_tag Tag, _page Page) (bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	raw, ok := m.pages[_tag]
	if !ok {
		return false, nil
	}
	copy(_page, raw)
	return true, nil
}

func (m *MemStore) HasPage(_tag Tag) (bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	_, ok := m.pages[_tag]
	return ok, nil
}

func (m *MemStore) WritePage(_tag Tag, _page Page) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	raw := make([]byte, len(_page))
	copy(raw, _page)
	m.pages[_tag] = raw
	return nil
}

func (m *MemStore) Discard(_logno uint32, _before uint64) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for tag := range m.pages {
		if tag.Logno == _logno && tag.Block < _before {
			delete(m.pages, tag)
		}
	}
	return nil
}

func (m *MemStore) Sync() error { return nil }

func (m *MemStore) Close() error { return nil }
