package undo

import (
	"testing"

	"github.com/matryer/is"
)

func TestChunkHeaderMarshal(t *testing.T) {
	is := is.New(t)
	header := ChunkHeader{
		Size:     1234,
		Previous: MakePtr(4, 4096+24),
		Type:     TypeTransaction,
	}
	raw := header.marshal()
	is.Equal(len(raw), ChunkHeaderSize)
	is.Equal(decodeUint64(raw[:8]), uint64(1234))

	other := ChunkHeader{}
	is.NoErr(other.unmarshal(raw))
	is.Equal(other, header)
}

func TestChunkHeaderUnmarshalShort(t *testing.T) {
	is := is.New(t)
	header := ChunkHeader{}
	is.Equal(header.unmarshal(make([]byte, ChunkHeaderSize-1)), NotEnoughBytesErr)
}

func TestTypeHeaderSize(t *testing.T) {
	is := is.New(t)
	size, err := TypeTransaction.HeaderSize()
	is.NoErr(err)
	is.Equal(size, 42)
	size, err = TypeSimple.HeaderSize()
	is.NoErr(err)
	is.Equal(size, 8)
	_, err = Type(99).HeaderSize()
	is.Equal(err, UnknownTypeErr)
}
