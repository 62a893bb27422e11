package undo

import (
	"testing"

	"github.com/matryer/is"
)

func TestFragments(t *testing.T) {
	tests := []struct {
		name   string
		offset uint64
		length int
		want   []Fragment
	}{
		{name: "inside page", offset: 100, length: 8, want: []Fragment{{Block: 0, Offset: 100, Length: 8}}},
		{name: "ends with page", offset: 248, length: 8, want: []Fragment{{Block: 0, Offset: 248, Length: 8}}},
		{name: "straddles pages", offset: 252, length: 8, want: []Fragment{{Block: 0, Offset: 252, Length: 4}, {Block: 1, Offset: 24, Length: 4}}},
		{name: "last byte of page", offset: 255, length: 8, want: []Fragment{{Block: 0, Offset: 255, Length: 1}, {Block: 1, Offset: 24, Length: 7}}},
		{name: "page start", offset: 512, length: 8, want: []Fragment{{Block: 2, Offset: 24, Length: 8}}},
		{name: "empty", offset: 100, length: 0, want: []Fragment{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			is.Equal(Fragments(tt.offset, tt.length, testPageSize), tt.want)
		})
	}
}

func TestFragmentsCoverRange(t *testing.T) {
	is := is.New(t)
	for offset := uint64(24); offset < 2*testPageSize; offset++ {
		if offset%testPageSize < 24 {
			continue
		}
		total := 0
		for _, f := range Fragments(offset, 8, testPageSize) {
			is.True(f.Offset >= 24)
			is.True(f.Offset+f.Length <= testPageSize)
			total += f.Length
		}
		is.Equal(total, 8)
	}
}

func TestPageSpan(t *testing.T) {
	is := is.New(t)
	is.Equal(pageSpan(100, 0, testPageSize), 0)
	for _, offset := range []uint64{0, 24, 100, 255, 256, 300, 511} {
		for length := 1; length < 4*testPageSize; length += 7 {
			is.Equal(pageSpan(offset, uint64(length), testPageSize), len(Fragments(offset, length, testPageSize)))
		}
	}
}
