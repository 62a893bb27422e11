package undo

import (
	"errors"
	"io/ioutil"
	"log"
	"testing"

	"github.com/ljmsc/undo/page"
	"github.com/ljmsc/undo/slot"
	"github.com/ljmsc/undo/xlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bootstrapHelper(t testing.TB, config Config) *Manager {
	t.Helper()
	if config.PageSize == 0 {
		config.PageSize = testPageSize
	}
	if config.Logger == nil {
		config.Logger = log.New(ioutil.Discard, "", 0)
	}
	m, err := Bootstrap(config)
	require.NoError(t, err)
	return m
}

func closingHelper(m *Manager) {
	if err := m.Close(); err != nil && err != ManagerClosedErr {
		panic(err)
	}
}

func createHelper(t testing.TB, m *Manager, _type Type) *RecordSet {
	t.Helper()
	u, err := m.NewSession().Create(_type, slot.Permanent)
	require.NoError(t, err)
	return u
}

func dataHelper(n int, seed byte) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = seed + byte(i)
	}
	return data
}

// readHelper reads n bytes of undo data starting at ptr
func readHelper(t testing.TB, m *Manager, ptr Ptr, n int) []byte {
	t.Helper()
	data := make([]byte, 0, n)
	for _, f := range Fragments(ptr.Offset(), n, m.pool.Size()) {
		buf, err := m.pool.Pin(page.Tag{Logno: ptr.Logno(), Block: f.Block}, page.ReadNormal)
		require.NoError(t, err)
		data = append(data, buf.Page()[f.Offset:f.Offset+f.Length]...)
		m.pool.Release(buf)
	}
	return data
}

func chunkHeaderHelper(t testing.TB, m *Manager, ptr Ptr) ChunkHeader {
	t.Helper()
	header := ChunkHeader{}
	require.NoError(t, header.unmarshal(readHelper(t, m, ptr, ChunkHeaderSize)))
	return header
}

func lowerHelper(t testing.TB, m *Manager, tag page.Tag) uint16 {
	t.Helper()
	buf, err := m.pool.Pin(tag, page.ReadNormal)
	require.NoError(t, err)
	defer m.pool.Release(buf)
	return buf.Page().Lower()
}

// pagesHelper copies every page of all undo logs
func pagesHelper(t testing.TB, m *Manager) map[page.Tag][]byte {
	t.Helper()
	size := uint64(m.pool.Size())
	pages := make(map[page.Tag][]byte)
	for _, s := range m.slots.Slots() {
		last := (s.Insert() - 1) / size
		for block := s.Discard() / size; block <= last; block++ {
			tag := page.Tag{Logno: s.Logno(), Block: block}
			buf, err := m.pool.Pin(tag, page.ReadNormal)
			if errors.Is(err, page.NotFoundErr) {
				continue
			}
			require.NoError(t, err)
			pages[tag] = append([]byte(nil), buf.Page()...)
			m.pool.Release(buf)
		}
	}
	return pages
}

func insertsHelper(m *Manager) map[uint32]uint64 {
	inserts := make(map[uint32]uint64)
	for _, s := range m.slots.Slots() {
		if s.Insert() > page.HeaderSize {
			inserts[s.Logno()] = s.Insert()
		}
	}
	return inserts
}

// crashHelper forgets everything which was not part of the last checkpoint
// and replays the write ahead log
func crashHelper(t testing.TB, m *Manager) {
	t.Helper()
	m.pool.Drop()
	require.NoError(t, m.slots.Restore(slot.Metadata{}))
	m.wal.SetRedoPointer(0)
	require.NoError(t, m.loadCheckpoint())
	require.NoError(t, m.Recover(nil))
}

func TestBootstrap(t *testing.T) {
	m, err := Bootstrap(Config{Logger: log.New(ioutil.Discard, "", 0)})
	require.NoError(t, err)
	assert.Equal(t, page.DefaultSize, m.Pool().Size())
	assert.NoError(t, m.Close())
	assert.Equal(t, ManagerClosedErr, m.Close())
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{PageSize: 1000, PoolSize: 10}.Validate())
	assert.Error(t, Config{PageSize: 64, PoolSize: 10}.Validate())
	assert.Error(t, Config{PageSize: 256, PoolSize: 1}.Validate())
	assert.NoError(t, Config{PageSize: 256, PoolSize: 2}.Validate())
}

func TestRecoverFileBacked(t *testing.T) {
	dir := t.TempDir()
	m := bootstrapHelper(t, Config{Dir: dir})

	u := createHelper(t, m, TypeTransaction)
	data1 := dataHelper(300, 1)
	ptr1, _, err := u.Append(data1)
	require.NoError(t, err)
	_, err = m.Checkpoint()
	require.NoError(t, err)
	data2 := dataHelper(50, 2)
	ptr2, _, err := u.Append(data2)
	require.NoError(t, err)
	_, err = u.Close()
	require.NoError(t, err)
	inserts := insertsHelper(m)
	require.NoError(t, m.Close())

	m = bootstrapHelper(t, Config{Dir: dir})
	defer closingHelper(m)
	require.NoError(t, m.Recover(nil))

	assert.Equal(t, data1, readHelper(t, m, ptr1, len(data1)))
	assert.Equal(t, data2, readHelper(t, m, ptr2, len(data2)))
	assert.Equal(t, inserts, insertsHelper(m))
	header := chunkHeaderHelper(t, m, MakePtr(ptr1.Logno(), page.HeaderSize))
	assert.Equal(t, inserts[ptr1.Logno()]-page.HeaderSize, header.Size)
	assert.Equal(t, TypeTransaction, header.Type)
}

func TestDiscard(t *testing.T) {
	m := bootstrapHelper(t, Config{})
	defer closingHelper(m)

	u := createHelper(t, m, TypeSimple)
	_, _, err := u.Append(dataHelper(1000, 0))
	require.NoError(t, err)
	require.NoError(t, m.Pool().Flush())

	require.NoError(t, m.Discard(0, 2*testPageSize))
	ok, err := m.Pool().Exists(page.Tag{Logno: 0, Block: 1})
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = m.Pool().Exists(page.Tag{Logno: 0, Block: 2})
	require.NoError(t, err)
	assert.True(t, ok)

	s, err := m.Slots().Lookup(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2*testPageSize), s.Discard())
}

func TestCheckpointWhileAppending(t *testing.T) {
	m := bootstrapHelper(t, Config{PoolSize: 512})
	defer closingHelper(m)

	u := createHelper(t, m, TypeSimple)
	done := make(chan error, 1)
	go func() {
		for i := 0; i < 200; i++ {
			if _, _, err := u.Append(dataHelper(400, byte(i))); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	for i := 0; i < 50; i++ {
		_, err := m.Checkpoint()
		require.NoError(t, err)
	}
	require.NoError(t, <-done)
	_, err := m.Checkpoint()
	require.NoError(t, err)

	// every page written by a checkpoint is complete
	pages := pagesHelper(t, m)
	inserts := insertsHelper(m)
	crashHelper(t, m)
	assert.Equal(t, pages, pagesHelper(t, m))
	assert.Equal(t, inserts, insertsHelper(m))
}

func TestEvictionSyncsLog(t *testing.T) {
	m := bootstrapHelper(t, Config{PoolSize: 4})
	defer closingHelper(m)

	u := createHelper(t, m, TypeSimple)
	var lsn xlog.LSN
	for i := 0; i < 3; i++ {
		_, l, err := u.Append(dataHelper(testPageSize, byte(i)))
		require.NoError(t, err)
		lsn = l
	}
	assert.Equal(t, xlog.LSN(0), m.WAL().Synced())

	// pinning more pages than the pool holds evicts dirty pages
	_, _, err := u.Append(dataHelper(3*testPageSize, 9))
	require.NoError(t, err)
	assert.True(t, m.WAL().Synced() >= lsn)
}

func TestRecoverClosedManager(t *testing.T) {
	m := bootstrapHelper(t, Config{})
	require.NoError(t, m.Close())
	assert.Equal(t, ManagerClosedErr, m.Recover(nil))
}
