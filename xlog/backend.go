package xlog

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// backend is the storage of the framed log
type backend interface {
	io.ReaderAt
	Append(_raw []byte) error
	Size() uint64
	Sync() error
	Close() error
}

type fileBackend struct {
	file *os.File
	size uint64
}

func openFileBackend(_name string) (*fileBackend, error) {
	file, err := os.OpenFile(_name, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("can't open log file: %w", err)
	}
	// can't use seek function since file is append mode - use stat instead
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return &fileBackend{file: file, size: uint64(info.Size())}, nil
}

func (f *fileBackend) ReadAt(_p []byte, _off int64) (int, error) {
	return f.file.ReadAt(_p, _off)
}

func (f *fileBackend) Append(_raw []byte) error {
	n, err := f.file.Write(_raw)
	f.size += uint64(n)
	return err
}

func (f *fileBackend) Size() uint64 {
	return f.size
}

func (f *fileBackend) Sync() error {
	if err := f.file.Sync(); err != nil {
		return fmt.Errorf("can't sync file changes to disk: %w", err)
	}
	return nil
}

func (f *fileBackend) Close() error {
	return f.file.Close()
}

type memBackend struct {
	mutex sync.RWMutex
	data  []byte
}

func (m *memBackend) ReadAt(_p []byte, _off int64) (int, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if _off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(_p, m.data[_off:])
	if n < len(_p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *memBackend) Append(_raw []byte) error {
	m.mutex.Lock()
	m.data = append(m.data, _raw...)
	m.mutex.Unlock()
	return nil
}

func (m *memBackend) Size() uint64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return uint64(len(m.data))
}

func (m *memBackend) Sync() error { return nil }

func (m *memBackend) Close() error { return nil }
