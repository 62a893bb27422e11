package page

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/NebulousLabs/errors"
)

const fileSuffix = ".undo"

// FileStore stores the pages of each undo log in its own file inside a directory.
// a page is located at block * page size. discarded pages are punched out of the file.
type FileStore struct {
	dir  string
	size int
	// block is the block size of the filesystem
	block  int64
	mutex  sync.Mutex
	files  map[uint32]*os.File
	closed bool
}

// OpenFileStore opens or creates a file store in the given directory
func OpenFileStore(_dir string, _size int) (*FileStore, error) {
	if !ValidSize(_size) {
		return nil, InvalidSizeErr
	}
	if err := os.MkdirAll(_dir, 0700); err != nil {
		return nil, fmt.Errorf("can't create page directory: %w", err)
	}
	block, err := blockSize(_dir)
	if err != nil {
		return nil, err
	}
	return &FileStore{
		dir:   _dir,
		size:  _size,
		block: block,
		files: make(map[uint32]*os.File),
	}, nil
}

func (f *FileStore) ReadPage(_tag Tag, _page Page) (bool, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	file, err := f.file(_tag.Logno, false)
	if err != nil || file == nil {
		return false, err
	}
	n, err := file.ReadAt(_page[:f.size], f.offset(_tag))
	if err == io.EOF && n < f.size {
		return false, nil
	}
	if err != nil && err != io.EOF {
		return false, err
	}
	// a punched hole or a page beyond the last written one reads as zeros
	if _page.IsNew() {
		return false, nil
	}
	return true, nil
}

func (f *FileStore) HasPage(_tag Tag) (bool, error) {
	head := make(Page, f.size)
	return f.ReadPage(_tag, head)
}

func (f *FileStore) WritePage(_tag Tag, _page Page) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	file, err := f.file(_tag.Logno, true)
	if err != nil {
		return err
	}
	if _, err := file.WriteAt(_page[:f.size], f.offset(_tag)); err != nil {
		return fmt.Errorf("can't write page to file: %w", err)
	}
	return nil
}

func (f *FileStore) Discard(_logno uint32, _before uint64) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	file, err := f.file(_logno, false)
	if err != nil || file == nil {
		return err
	}
	length := int64(_before) * int64(f.size)
	// whole filesystem blocks are punched out, the rest of the range is zeroed
	aligned := length
	if f.block > 0 {
		aligned -= length % f.block
	}
	if err := punch(file, 0, aligned); err != nil {
		return err
	}
	return zero(file, aligned, length-aligned)
}

// Sync flushes all files to disk
func (f *FileStore) Sync() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	var errs []error
	for _, file := range f.files {
		if err := syncFile(file); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Compose(errs...)
}

// Close closes all files of the store
func (f *FileStore) Close() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.closed {
		return ClosedErr
	}
	f.closed = true
	var errs []error
	for _, file := range f.files {
		if err := file.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Compose(errs...)
}

func (f *FileStore) offset(_tag Tag) int64 {
	return int64(_tag.Block) * int64(f.size)
}

// file returns the file of the given log. if create is false and the file
// doesn't exist nil is returned. the store mutex must be held
func (f *FileStore) file(_logno uint32, _create bool) (*os.File, error) {
	if f.closed {
		return nil, ClosedErr
	}
	if file, ok := f.files[_logno]; ok {
		return file, nil
	}
	name := filepath.Join(f.dir, strconv.FormatUint(uint64(_logno), 10)+fileSuffix)
	flags := os.O_RDWR
	if _create {
		flags |= os.O_CREATE
	}
	file, err := os.OpenFile(name, flags, 0600)
	if err != nil {
		if !_create && os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("can't open undo log file: %w", err)
	}
	f.files[_logno] = file
	return file, nil
}
