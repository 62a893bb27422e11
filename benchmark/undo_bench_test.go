package benchmark

import (
	"io/ioutil"
	"log"
	"math/rand"
	"testing"

	"github.com/matryer/is"

	"github.com/ljmsc/undo"
	"github.com/ljmsc/undo/slot"
	"github.com/ljmsc/undo/xlog"
)

const (
	benchTestDir = "../tmp/undo_bench/"

	recordSize = 128
)

func bootstrap(is *is.I, dir string) *undo.Manager {
	m, err := undo.Bootstrap(undo.Config{
		Dir:    dir,
		Logger: log.New(ioutil.Discard, "", 0),
	})
	is.NoErr(err)
	return m
}

func randomData(n int) []byte {
	data := make([]byte, n)
	_, _ = rand.Read(data)
	return data
}

func BenchmarkAppendMem(b *testing.B) {
	is := is.New(b)
	m := bootstrap(is, "")
	defer m.Close()

	u, err := m.NewSession().Create(undo.TypeSimple, slot.Permanent)
	is.NoErr(err)
	data := randomData(recordSize)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := u.Append(data); err != nil {
			is.NoErr(err)
		}
	}
	b.StopTimer()
	_, err = u.Close()
	is.NoErr(err)
}

func BenchmarkAppendFile(b *testing.B) {
	is := is.New(b)
	prepare(benchTestDir)
	defer cleanup(benchTestDir)
	m := bootstrap(is, benchTestDir)
	defer m.Close()

	u, err := m.NewSession().Create(undo.TypeTransaction, slot.Permanent)
	is.NoErr(err)
	data := randomData(recordSize)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := u.Append(data); err != nil {
			is.NoErr(err)
		}
		if err := m.WAL().Sync(); err != nil {
			is.NoErr(err)
		}
	}
	b.StopTimer()
	_, err = u.Close()
	is.NoErr(err)
}

func BenchmarkRecover(b *testing.B) {
	is := is.New(b)
	m := bootstrap(is, "")
	defer m.Close()

	u, err := m.NewSession().Create(undo.TypeSimple, slot.Permanent)
	is.NoErr(err)
	for i := 0; i < 1000; i++ {
		_, _, err := u.Append(randomData(1 + rand.Intn(4*recordSize)))
		is.NoErr(err)
	}
	_, err = u.Close()
	is.NoErr(err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Pool().Drop()
		is.NoErr(m.Recover(func(_record *xlog.Record) error {
			return m.Redo(_record)
		}))
	}
}
