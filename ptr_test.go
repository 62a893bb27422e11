package undo

import (
	"testing"

	"github.com/matryer/is"
)

const testPageSize = 256

func TestMakePtr(t *testing.T) {
	is := is.New(t)
	p := MakePtr(0xabcdef, 1<<39+5)
	is.Equal(p.Logno(), uint32(0xabcdef))
	is.Equal(p.Offset(), uint64(1<<39+5))

	p = MakePtr(MaxLogno, offsetMask)
	is.Equal(p.Logno(), MaxLogno)
	is.Equal(p.Offset(), offsetMask)

	is.Equal(MakePtr(1, 0x10).String(), "0000010000000010")
}

func TestPtrBlock(t *testing.T) {
	is := is.New(t)
	p := MakePtr(3, 2*testPageSize+100)
	is.Equal(p.Block(testPageSize), uint64(2))
	is.Equal(p.PageOffset(testPageSize), 100)
}

func TestOffsetPlusUsableBytes(t *testing.T) {
	usable := uint64(testPageSize - 24)
	tests := []struct {
		name   string
		offset uint64
		n      uint64
		want   uint64
	}{
		{name: "inside page", offset: 24, n: 10, want: 34},
		{name: "last byte of page", offset: 24, n: usable - 1, want: 255},
		{name: "exact page fill", offset: 24, n: usable, want: 256 + 24},
		{name: "one byte into next page", offset: 24, n: usable + 1, want: 256 + 25},
		{name: "page start steps over header", offset: 0, n: 5, want: 29},
		{name: "tail of page", offset: 250, n: 6, want: 256 + 24},
		{name: "tail of page plus one", offset: 250, n: 7, want: 256 + 25},
		{name: "two full pages", offset: 24, n: 2 * usable, want: 512 + 24},
		{name: "two full pages plus one", offset: 24, n: 2*usable + 1, want: 512 + 25},
		{name: "zero bytes", offset: 100, n: 0, want: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			is.Equal(OffsetPlusUsableBytes(tt.offset, tt.n, testPageSize), tt.want)
		})
	}
}

func TestOffsetPlusUsableBytesComposes(t *testing.T) {
	is := is.New(t)
	for offset := uint64(24); offset < 3*testPageSize; offset += 7 {
		if offset%testPageSize < 24 {
			continue
		}
		for a := uint64(0); a < 600; a += 13 {
			for b := uint64(0); b < 600; b += 29 {
				step := OffsetPlusUsableBytes(OffsetPlusUsableBytes(offset, a, testPageSize), b, testPageSize)
				is.Equal(step, OffsetPlusUsableBytes(offset, a+b, testPageSize))
			}
		}
	}
}

func TestPtrPlusUsableBytes(t *testing.T) {
	is := is.New(t)
	p := MakePtr(7, 250).PlusUsableBytes(10, testPageSize)
	is.Equal(p.Logno(), uint32(7))
	is.Equal(p.Offset(), uint64(256+24+4))
}
