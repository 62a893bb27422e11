package slot

import (
	"errors"
	"testing"

	"github.com/matryer/is"
)

const testPageSize = 256

func managerHelper(is *is.I) *Manager {
	m, err := NewManager(Config{
		PageSize:    testPageSize,
		HeaderSize:  24,
		MaxLogSize:  16 * testPageSize,
		SegmentSize: 4 * testPageSize,
	})
	is.NoErr(err)
	return m
}

func TestConfigValidate(t *testing.T) {
	is := is.New(t)
	is.True(Config{}.Validate() != nil)
	is.True(Config{PageSize: 256, HeaderSize: 256}.Validate() != nil)
	is.True(Config{PageSize: 256, HeaderSize: 24, SegmentSize: 100}.Validate() != nil)
	is.True(Config{PageSize: 256, HeaderSize: 24, MaxLogSize: 1000}.Validate() != nil)
	is.NoErr(Config{PageSize: 256, HeaderSize: 24}.Validate())
}

func TestGetPut(t *testing.T) {
	is := is.New(t)
	m := managerHelper(is)

	first, err := m.Get(Permanent)
	is.NoErr(err)
	is.Equal(first.Logno(), uint32(0))
	is.Equal(first.Insert(), uint64(24))
	is.Equal(first.Persistence(), Permanent)

	// an owned slot is not handed out twice
	second, err := m.Get(Permanent)
	is.NoErr(err)
	is.Equal(second.Logno(), uint32(1))

	m.Put(first)
	again, err := m.Get(Permanent)
	is.NoErr(err)
	is.Equal(again, first)

	// free lists are separated by persistence
	m.Put(second)
	temp, err := m.Get(Temporary)
	is.NoErr(err)
	is.Equal(temp.Logno(), uint32(2))

	_, err = m.Get(Persistence('x'))
	is.Equal(err, UnknownPersistenceErr)
}

func TestFullSlotIsNotReused(t *testing.T) {
	is := is.New(t)
	m := managerHelper(is)

	s, err := m.Get(Unlogged)
	is.NoErr(err)
	m.MarkFull(s)
	is.True(s.IsFull())
	m.Put(s)

	next, err := m.Get(Unlogged)
	is.NoErr(err)
	is.True(next != s)
}

func TestAdjustPhysicalRange(t *testing.T) {
	is := is.New(t)
	m := managerHelper(is)
	s, err := m.Get(Permanent)
	is.NoErr(err)

	is.NoErr(m.AdjustPhysicalRange(s.Logno(), 0, 300))
	is.Equal(s.End(), uint64(4*testPageSize))

	// values only move forward
	is.NoErr(m.AdjustPhysicalRange(s.Logno(), 512, 100))
	is.Equal(s.End(), uint64(4*testPageSize))
	is.Equal(s.Discard(), uint64(512))
	is.NoErr(m.AdjustPhysicalRange(s.Logno(), 0, 0))
	is.Equal(s.Discard(), uint64(512))

	// the end is capped at the max log size
	is.NoErr(m.AdjustPhysicalRange(s.Logno(), 0, 15*testPageSize+1))
	is.Equal(s.End(), uint64(16*testPageSize))
	is.Equal(m.AdjustPhysicalRange(s.Logno(), 0, 16*testPageSize+1), RangeTooLargeErr)

	err = m.AdjustPhysicalRange(99, 0, 1)
	notFound := NotFoundErr{}
	is.True(errors.As(err, &notFound))
	is.Equal(notFound.Logno, uint32(99))
}

func TestEnsure(t *testing.T) {
	is := is.New(t)
	m := managerHelper(is)

	s := m.Ensure(7)
	is.Equal(s.Logno(), uint32(7))
	is.Equal(s.Insert(), uint64(24))
	is.Equal(m.Ensure(7), s)

	// new logs are created behind the highest known one
	next, err := m.Get(Permanent)
	is.NoErr(err)
	is.Equal(next.Logno(), uint32(8))
}

func TestSnapshotRestore(t *testing.T) {
	is := is.New(t)
	m := managerHelper(is)

	a, err := m.Get(Permanent)
	is.NoErr(err)
	a.SetInsert(1000)
	is.NoErr(m.AdjustPhysicalRange(a.Logno(), 256, 1000))
	b, err := m.Get(Temporary)
	is.NoErr(err)
	m.MarkFull(b)
	m.Put(a)

	meta := m.Snapshot()
	restored := managerHelper(is)
	is.NoErr(restored.Restore(meta))

	slots := restored.Slots()
	is.Equal(len(slots), 2)
	is.Equal(slots[0].Logno(), a.Logno())
	is.Equal(slots[0].Insert(), uint64(1000))
	is.Equal(slots[0].End(), uint64(4*testPageSize))
	is.Equal(slots[0].Discard(), uint64(256))
	is.Equal(slots[1].Persistence(), Temporary)
	is.True(slots[1].IsFull())

	// the non-full log is free again
	s, err := restored.Get(Permanent)
	is.NoErr(err)
	is.Equal(s.Logno(), a.Logno())
	s, err = restored.Get(Temporary)
	is.NoErr(err)
	is.Equal(s.Logno(), uint32(2))
}

func TestRestoreInvalid(t *testing.T) {
	is := is.New(t)
	m := managerHelper(is)
	meta := Metadata{}
	meta.PutUint64("0.flags", uint64('x'))
	is.Equal(m.Restore(meta), UnknownPersistenceErr)

	meta = Metadata{}
	meta.PutUint64("abc.flags", uint64(Permanent))
	is.True(m.Restore(meta) != nil)
}
