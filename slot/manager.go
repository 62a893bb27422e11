package slot

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

const (
	// DefaultMaxLogSize is the max size of one undo log (1 TB)
	DefaultMaxLogSize = uint64(1) << 40
	// DefaultSegmentSize is the granularity in which physical space is allocated
	DefaultSegmentSize = uint64(1) << 20

	metaNextKey = "next"
)

// Config for a slot Manager
type Config struct {
	// PageSize is the size of an undo log page in bytes
	PageSize int
	// HeaderSize is the size of the page header. a new log starts inserting behind it
	HeaderSize int
	// MaxLogSize is the max size of a single undo log in bytes
	MaxLogSize uint64
	// SegmentSize is the step in which the physical range of a log is extended
	SegmentSize uint64
}

// Validate validates the config
func (c Config) Validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be set")
	}
	if c.HeaderSize < 0 || c.HeaderSize >= c.PageSize {
		return fmt.Errorf("header size must be smaller than the page size")
	}
	if c.SegmentSize%uint64(c.PageSize) != 0 {
		return fmt.Errorf("segment size must be a multiple of the page size")
	}
	if c.MaxLogSize%uint64(c.PageSize) != 0 {
		return fmt.Errorf("max log size must be a multiple of the page size")
	}
	return nil
}

// Manager hands out undo logs to writers and keeps track of their metadata
type Manager struct {
	config Config
	mutex  sync.Mutex
	slots  map[uint32]*Slot
	free   map[Persistence][]*Slot
	next   uint32
}

// NewManager creates a slot manager without any undo logs
func NewManager(config Config) (*Manager, error) {
	if config.MaxLogSize == 0 {
		config.MaxLogSize = DefaultMaxLogSize
	}
	if config.SegmentSize == 0 {
		config.SegmentSize = DefaultSegmentSize
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Manager{
		config: config,
		slots:  make(map[uint32]*Slot),
		free:   make(map[Persistence][]*Slot),
	}, nil
}

// MaxLogSize returns the max size of a single undo log
func (m *Manager) MaxLogSize() uint64 {
	return m.config.MaxLogSize
}

// Get returns a writable slot of the given persistence class. a slot from the
// free list is reused, otherwise a new undo log is created.
func (m *Manager) Get(_persistence Persistence) (*Slot, error) {
	if !_persistence.Valid() {
		return nil, UnknownPersistenceErr
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()

	free := m.free[_persistence]
	for len(free) > 0 {
		s := free[len(free)-1]
		free = free[:len(free)-1]
		m.free[_persistence] = free
		if s.IsFull() {
			continue
		}
		s.owned = true
		return s, nil
	}

	s := m.create(m.next, _persistence)
	s.owned = true
	return s, nil
}

// Put returns the slot to the free list of its persistence class. a full slot
// is not handed out again.
func (m *Manager) Put(_slot *Slot) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if !_slot.owned {
		return
	}
	_slot.owned = false
	if _slot.IsFull() {
		return
	}
	m.free[_slot.persistence] = append(m.free[_slot.persistence], _slot)
}

// MarkFull marks the slot as full. it will never accept new writers again
func (m *Manager) MarkFull(_slot *Slot) {
	_slot.metaLock.Lock()
	_slot.full = true
	_slot.metaLock.Unlock()
}

// AdjustPhysicalRange moves the discard horizon and the end of the log.
// both values only move forward. the end is rounded up to the segment size.
func (m *Manager) AdjustPhysicalRange(_logno uint32, _discard uint64, _end uint64) error {
	s, err := m.Lookup(_logno)
	if err != nil {
		return err
	}
	if _end > m.config.MaxLogSize {
		return RangeTooLargeErr
	}
	if rest := _end % m.config.SegmentSize; rest != 0 {
		_end += m.config.SegmentSize - rest
	}
	if _end > m.config.MaxLogSize {
		_end = m.config.MaxLogSize
	}

	s.metaLock.Lock()
	defer s.metaLock.Unlock()
	if _end > s.end {
		s.end = _end
	}
	if _discard > s.discard {
		s.discard = _discard
	}
	return nil
}

// Lookup returns the slot of the given undo log
func (m *Manager) Lookup(_logno uint32) (*Slot, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	s, ok := m.slots[_logno]
	if !ok {
		return nil, NotFoundErr{Logno: _logno}
	}
	return s, nil
}

// Ensure returns the slot of the given undo log. if the log is unknown, e.g.
// because it was created after the last checkpoint, an empty permanent log is created.
func (m *Manager) Ensure(_logno uint32) *Slot {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if s, ok := m.slots[_logno]; ok {
		return s
	}
	return m.create(_logno, Permanent)
}

// Slots returns all slots sorted by log number
func (m *Manager) Slots() []*Slot {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	slots := make([]*Slot, 0, len(m.slots))
	for _, s := range m.slots {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].logno < slots[j].logno })
	return slots
}

// Snapshot captures the metadata of all undo logs
func (m *Manager) Snapshot() Metadata {
	meta := Metadata{}
	m.mutex.Lock()
	meta.PutUint64(metaNextKey, uint64(m.next))
	slots := make([]*Slot, 0, len(m.slots))
	for _, s := range m.slots {
		slots = append(slots, s)
	}
	m.mutex.Unlock()

	for _, s := range slots {
		prefix := strconv.FormatUint(uint64(s.logno), 10) + "."
		s.metaLock.RLock()
		meta.PutUint64(prefix+"insert", s.insert)
		meta.PutUint64(prefix+"end", s.end)
		meta.PutUint64(prefix+"discard", s.discard)
		flags := uint64(s.persistence)
		if s.full {
			flags |= 1 << 8
		}
		meta.PutUint64(prefix+"flags", flags)
		s.metaLock.RUnlock()
	}
	return meta
}

// Restore replaces all slots with the state captured by Snapshot.
// items of the metadata which don't belong to a slot are ignored.
func (m *Manager) Restore(_meta Metadata) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.slots = make(map[uint32]*Slot)
	m.free = make(map[Persistence][]*Slot)
	m.next = uint32(_meta.GetUint64(metaNextKey))

	lognos := make([]uint32, 0)
	for name := range _meta {
		if !strings.HasSuffix(name, ".flags") {
			continue
		}
		logno, err := strconv.ParseUint(strings.TrimSuffix(name, ".flags"), 10, 32)
		if err != nil {
			return fmt.Errorf("invalid slot metadata item %s: %w", name, err)
		}
		lognos = append(lognos, uint32(logno))
	}
	sort.Slice(lognos, func(i, j int) bool { return lognos[i] < lognos[j] })

	for _, logno := range lognos {
		prefix := strconv.FormatUint(uint64(logno), 10) + "."
		flags := _meta.GetUint64(prefix + "flags")
		persistence := Persistence(flags & 0xff)
		if !persistence.Valid() {
			return UnknownPersistenceErr
		}
		s := m.create(logno, persistence)
		s.insert = _meta.GetUint64(prefix + "insert")
		s.end = _meta.GetUint64(prefix + "end")
		s.discard = _meta.GetUint64(prefix + "discard")
		s.full = flags&(1<<8) != 0
		if !s.full {
			m.free[persistence] = append(m.free[persistence], s)
		}
	}
	return nil
}

// create adds a new empty undo log. the manager mutex must be held
func (m *Manager) create(_logno uint32, _persistence Persistence) *Slot {
	s := &Slot{
		logno:       _logno,
		persistence: _persistence,
		insert:      uint64(m.config.HeaderSize),
	}
	m.slots[_logno] = s
	if _logno >= m.next {
		m.next = _logno + 1
	}
	return s
}
