package xlog

import (
	"errors"
	"fmt"
	"sync"
)

// Log is an append only write ahead log
type Log struct {
	name    string
	backend backend
	mutex   sync.Mutex
	// redo is the redo pointer of the last checkpoint. a page whose LSN is not
	// behind it gets a full page image on its next modification
	redo LSN
	// synced is the position up to which the log is durable
	synced LSN
	closed bool
}

// Open opens or creates a file backed log with the given name
func Open(_name string) (*Log, error) {
	b, err := openFileBackend(_name)
	if err != nil {
		return nil, err
	}
	return &Log{name: _name, backend: b, synced: LSN(b.Size())}, nil
}

// OpenMem creates a log which is kept in memory
func OpenMem() *Log {
	return &Log{name: ":memory:", backend: &memBackend{}}
}

// Name returns the name of the log as presented to Open
func (l *Log) Name() string {
	return l.name
}

// Insert writes the record assembled by the builder and returns its LSN.
// the builder is reset afterwards.
func (l *Log) Insert(_builder *Builder) (LSN, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.closed {
		return 0, ClosedErr
	}
	if _builder.Len() == 0 && len(_builder.main) == 0 {
		return 0, EmptyRecordErr
	}

	r := _builder.build(l.redo)
	f := frame{Payload: r.Encode()}
	raw, err := f.marshal()
	if err != nil {
		return 0, err
	}
	if err := l.backend.Append(raw); err != nil {
		return 0, fmt.Errorf("can't append record to log: %w", err)
	}
	_builder.Reset()
	return LSN(l.backend.Size()), nil
}

// Checkpoint moves the redo pointer to the end of the log and returns it.
// recovery starts reading at the returned position.
func (l *Log) Checkpoint() (LSN, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.closed {
		return 0, ClosedErr
	}
	if err := l.backend.Sync(); err != nil {
		return 0, err
	}
	l.redo = LSN(l.backend.Size())
	l.synced = l.redo
	return l.redo, nil
}

// SetRedoPointer sets the redo pointer after a restart
func (l *Log) SetRedoPointer(_redo LSN) {
	l.mutex.Lock()
	l.redo = _redo
	l.mutex.Unlock()
}

// RedoPointer returns the redo pointer of the last checkpoint
func (l *Log) RedoPointer() LSN {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.redo
}

// End returns the position behind the last record
func (l *Log) End() LSN {
	return LSN(l.backend.Size())
}

// Sync flushes the log to disk
func (l *Log) Sync() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.closed {
		return ClosedErr
	}
	return l.sync()
}

// SyncTo makes sure the log is durable up to the given LSN. it only flushes
// if records behind the last sync are needed.
func (l *Log) SyncTo(_lsn LSN) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if _lsn <= l.synced {
		return nil
	}
	if l.closed {
		return ClosedErr
	}
	return l.sync()
}

// Synced returns the position up to which the log is durable
func (l *Log) Synced() LSN {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.synced
}

// sync flushes the backend. the log mutex must be held
func (l *Log) sync() error {
	size := LSN(l.backend.Size())
	if err := l.backend.Sync(); err != nil {
		return err
	}
	l.synced = size
	return nil
}

// IsClosed returns true if the log is already closed
func (l *Log) IsClosed() bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.closed
}

// Close closes the log
func (l *Log) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.closed {
		return ClosedErr
	}
	l.closed = true
	return l.backend.Close()
}

// Read returns a reader which starts at the given position. the position must
// be the start of a record, e.g. a redo pointer or zero.
func (l *Log) Read(_from LSN) *Reader {
	return &Reader{log: l, pos: uint64(_from)}
}

// Reader iterates over the records of a log
type Reader struct {
	log    *Log
	pos    uint64
	record *Record
	err    error
}

// Next reads the next record. it returns false at the end of the log or on error.
// an incomplete or corrupted record at the tail marks the end of the log.
func (r *Reader) Next() bool {
	if r.err != nil {
		return false
	}
	if r.log.IsClosed() {
		r.err = ClosedErr
		return false
	}
	size := r.log.backend.Size()
	if r.pos+frameMetadataLength > size {
		return false
	}

	head := make([]byte, frameMetadataLength)
	if _, err := r.log.backend.ReadAt(head, int64(r.pos)); err != nil {
		r.err = ReadErr{Position: r.pos, Err: err}
		return false
	}
	f := frame{}
	if err := f.unmarshalHead(head); err != nil {
		r.err = ReadErr{Position: r.pos, Err: err}
		return false
	}
	if r.pos+frameMetadataLength+f.size > size {
		return false
	}

	raw := make([]byte, frameMetadataLength+f.size)
	if _, err := r.log.backend.ReadAt(raw, int64(r.pos)); err != nil {
		r.err = ReadErr{Position: r.pos, Err: err}
		return false
	}
	if err := f.unmarshal(raw); err != nil {
		if errors.Is(err, InvalidChecksumErr) {
			return false
		}
		r.err = ReadErr{Position: r.pos, Err: err}
		return false
	}

	rec := &Record{}
	if err := rec.Decode(f.Payload); err != nil {
		r.err = ReadErr{Position: r.pos, Err: err}
		return false
	}
	r.pos += uint64(len(raw))
	rec.LSN = LSN(r.pos)
	r.record = rec
	return true
}

// Record returns the record read by the last call to Next
func (r *Reader) Record() *Record {
	return r.record
}

// Err returns the error which stopped the reader
func (r *Reader) Err() error {
	return r.err
}
