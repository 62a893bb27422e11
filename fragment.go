package undo

import "github.com/ljmsc/undo/page"

// Fragment is the part of a byte range which is located on one page
type Fragment struct {
	Block  uint64
	Offset int
	Length int
}

// Fragments splits length bytes of undo data starting at offset into the
// parts located on each page. page headers are stepped over.
func Fragments(_offset uint64, _length int, _pageSize int) []Fragment {
	size := uint64(_pageSize)
	frags := make([]Fragment, 0, 2)
	for _length > 0 {
		inPage := int(_offset % size)
		if inPage < page.HeaderSize {
			_offset += uint64(page.HeaderSize - inPage)
			inPage = page.HeaderSize
		}
		n := _pageSize - inPage
		if _length < n {
			n = _length
		}
		frags = append(frags, Fragment{
			Block:  _offset / size,
			Offset: inPage,
			Length: n,
		})
		_length -= n
		_offset = (_offset/size+1)*size + page.HeaderSize
	}
	return frags
}

// pageSpan returns the number of pages touched by length bytes of undo data starting at offset
func pageSpan(_offset uint64, _length uint64, _pageSize int) int {
	if _length == 0 {
		return 0
	}
	size := uint64(_pageSize)
	inPage := _offset % size
	if inPage < page.HeaderSize {
		inPage = page.HeaderSize
	}
	first := size - inPage
	if _length <= first {
		return 1
	}
	usable := size - page.HeaderSize
	return 1 + int((_length-first+usable-1)/usable)
}
