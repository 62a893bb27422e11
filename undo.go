// Package undo stores undo records in undo logs. record sets reserve space in
// a log, write their records to pinned pages and log every change to a write
// ahead log, so recovery can rebuild the pages after a crash.
package undo

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"sync"

	nerrors "github.com/NebulousLabs/errors"
	"github.com/google/uuid"
	"github.com/ljmsc/undo/page"
	"github.com/ljmsc/undo/slot"
	"github.com/ljmsc/undo/xlog"
)

const (
	checkpointFileName = "checkpoint"
	walFileName        = "undo.wal"
	pageDirName        = "pages"

	metaRedoKey = "redo"
)

// Config for an undo Manager
type Config struct {
	// Dir is the directory for pages, write ahead log and checkpoint. if empty
	// everything is kept in memory
	Dir string

	// PageSize is the size of an undo page in bytes. it must be a power of two
	// default = 8192
	PageSize int

	// PoolSize is the amount of pages held in memory
	// default = 128
	PoolSize int

	// MaxLogSize is the max size of one undo log. a record set continues in a new log if it is reached
	// default = 1 TB
	MaxLogSize uint64

	// SegmentSize is the step in which the physical range of a log grows
	// default = 1 MB
	SegmentSize uint64

	// Logger for unusual events like log rollover or skipped pages during recovery
	// default = stderr with prefix "undo: "
	Logger *log.Logger
}

// Validate validates the config
func (c Config) Validate() error {
	if !page.ValidSize(c.PageSize) {
		return fmt.Errorf("page size %d must be a power of two up to %d", c.PageSize, page.MaxSize)
	}
	if c.PageSize <= page.HeaderSize+ChunkHeaderSize+transactionHeaderSize {
		return errors.New("page size is too small for the undo headers")
	}
	if c.PoolSize < 2 {
		return errors.New("pool size must be at least 2")
	}
	return nil
}

// Manager owns the undo logs, their pages and the write ahead log
type Manager struct {
	config Config
	logger *log.Logger
	pool   *page.Pool
	slots  *slot.Manager
	wal    *xlog.Log

	mutex sync.Mutex
	// checkpoint holds the last checkpoint of an in-memory manager
	checkpoint []byte
	closed     bool
}

// Bootstrap a Manager. existing pages, write ahead log and checkpoint in the directory are opened.
// call Recover afterwards to replay the records written after the last checkpoint.
func Bootstrap(config Config) (*Manager, error) {
	// set default values for unset config parameters
	if config.PageSize == 0 {
		config.PageSize = page.DefaultSize
	}
	if config.PoolSize == 0 {
		config.PoolSize = 128
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "undo: ", log.LstdFlags)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	slots, err := slot.NewManager(slot.Config{
		PageSize:    config.PageSize,
		HeaderSize:  page.HeaderSize,
		MaxLogSize:  config.MaxLogSize,
		SegmentSize: config.SegmentSize,
	})
	if err != nil {
		return nil, err
	}

	m := &Manager{
		config: config,
		logger: config.Logger,
		slots:  slots,
	}

	var store page.Store
	if config.Dir == "" {
		store = page.NewMemStore()
		m.wal = xlog.OpenMem()
	} else {
		fs, err := page.OpenFileStore(filepath.Join(config.Dir, pageDirName), config.PageSize)
		if err != nil {
			return nil, err
		}
		store = fs
		if m.wal, err = xlog.Open(filepath.Join(config.Dir, walFileName)); err != nil {
			return nil, nerrors.Compose(err, fs.Close())
		}
	}
	if m.pool, err = page.NewPool(store, config.PageSize, config.PoolSize); err != nil {
		return nil, nerrors.Compose(err, m.wal.Close(), store.Close())
	}
	// a page is never written before the records which changed it
	m.pool.SetBarrier(func(_lsn uint64) error {
		return m.wal.SyncTo(xlog.LSN(_lsn))
	})

	if err := m.loadCheckpoint(); err != nil {
		return nil, nerrors.Compose(err, m.Close())
	}
	return m, nil
}

// Pool returns the page pool
func (m *Manager) Pool() *page.Pool {
	return m.pool
}

// Slots returns the slot manager
func (m *Manager) Slots() *slot.Manager {
	return m.slots
}

// WAL returns the write ahead log
func (m *Manager) WAL() *xlog.Log {
	return m.wal
}

// NewSession creates a session which owns record sets
func (m *Manager) NewSession() *Session {
	return &Session{
		manager: m,
		live:    make(map[uuid.UUID]*RecordSet),
		abort:   func(err error) { m.logger.Fatal(err) },
	}
}

// Checkpoint writes all dirty pages and the slot metadata to disk. recovery
// starts at the returned position of the write ahead log.
func (m *Manager) Checkpoint() (xlog.LSN, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.closed {
		return 0, ManagerClosedErr
	}

	redo, err := m.wal.Checkpoint()
	if err != nil {
		return 0, err
	}
	if err := m.pool.Flush(); err != nil {
		return 0, err
	}
	meta := m.slots.Snapshot()
	meta.PutUint64(metaRedoKey, uint64(redo))
	raw := meta.Bytes()

	if m.config.Dir == "" {
		m.checkpoint = raw
		return redo, nil
	}
	name := filepath.Join(m.config.Dir, checkpointFileName)
	if err := ioutil.WriteFile(name+".tmp", raw, 0600); err != nil {
		return 0, err
	}
	if err := os.Rename(name+".tmp", name); err != nil {
		return 0, err
	}
	return redo, nil
}

// loadCheckpoint restores the slots and the redo pointer of the last checkpoint
func (m *Manager) loadCheckpoint() error {
	raw := m.checkpoint
	if m.config.Dir != "" {
		var err error
		raw, err = ioutil.ReadFile(filepath.Join(m.config.Dir, checkpointFileName))
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	if raw == nil {
		return nil
	}
	meta := slot.Metadata{}
	if err := slot.ParseMetadata(raw, meta); err != nil {
		return fmt.Errorf("invalid checkpoint: %w", err)
	}
	if err := m.slots.Restore(meta); err != nil {
		return err
	}
	m.wal.SetRedoPointer(xlog.LSN(meta.GetUint64(metaRedoKey)))
	return nil
}

// Recover replays all records written after the last checkpoint. fn is
// called for every record, if it is nil Redo is used.
func (m *Manager) Recover(fn func(_record *xlog.Record) error) error {
	if fn == nil {
		fn = m.Redo
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := xlog.Stream(ctx, m.wal, m.wal.RedoPointer())
	if stream == nil {
		return ManagerClosedErr
	}
	count := 0
	for envelope := range stream {
		if envelope.Err != nil {
			return envelope.Err
		}
		if err := fn(envelope.Record); err != nil {
			return fmt.Errorf("can't replay record %d: %w", envelope.Record.LSN, err)
		}
		count++
	}
	if count > 0 {
		m.logger.Printf("replayed %d records from %d", count, m.wal.RedoPointer())
	}
	return nil
}

// Discard drops all pages of the log in front of the given offset
func (m *Manager) Discard(_logno uint32, _before uint64) error {
	if err := m.slots.AdjustPhysicalRange(_logno, _before, 0); err != nil {
		return err
	}
	return m.pool.Discard(_logno, _before/uint64(m.config.PageSize))
}

// Close writes all dirty pages and closes the write ahead log
func (m *Manager) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.closed {
		return ManagerClosedErr
	}
	m.closed = true
	var errs []error
	if err := m.wal.Sync(); err != nil {
		errs = append(errs, err)
	}
	if err := m.pool.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := m.wal.Close(); err != nil {
		errs = append(errs, err)
	}
	return nerrors.Compose(errs...)
}
