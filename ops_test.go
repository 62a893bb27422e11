package undo

import (
	"errors"
	"testing"

	"github.com/ljmsc/undo/page"
	"github.com/matryer/is"
)

func TestInsertOpEncoding(t *testing.T) {
	is := is.New(t)
	raw := InsertOp([]byte("abc")).AppendTo(nil)
	is.Equal(raw, []byte{3, 'a', 'b', 'c'})
	is.Equal(InsertOp([]byte("abc")).Size(), len(raw))
}

func TestUpdateOpEncoding(t *testing.T) {
	is := is.New(t)
	raw := UpdateOp(0x123, []byte{1, 2}).AppendTo(nil)
	is.Equal(raw, []byte{0x81, 0x23, 0x00, 0x02, 1, 2})
	is.Equal(UpdateOp(0x123, []byte{1, 2}).Size(), len(raw))
}

func TestDecodeOps(t *testing.T) {
	is := is.New(t)
	raw := InsertOp([]byte("header")).AppendTo(nil)
	raw = UpdateOp(0x7ff0, []byte{9, 8, 7}).AppendTo(raw)
	raw = InsertOp([]byte("x")).AppendTo(raw)

	ops, err := DecodeOps(raw)
	is.NoErr(err)
	is.Equal(len(ops), 3)
	is.Equal(ops[0].Kind, OpInsert)
	is.Equal(ops[0].Data, []byte("header"))
	is.Equal(ops[1].Kind, OpUpdate)
	is.Equal(ops[1].Offset, uint16(0x7ff0))
	is.Equal(ops[1].Data, []byte{9, 8, 7})
	is.Equal(ops[2].Data, []byte("x"))
}

func TestDecodeOpsCorrupted(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{name: "truncated update header", raw: []byte{0x81, 0x23}},
		{name: "update size overrun", raw: []byte{0x81, 0x23, 0x00, 0x05, 1}},
		{name: "insert overrun", raw: []byte{5, 1, 2}},
		{name: "empty insert", raw: []byte{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			_, err := DecodeOps(tt.raw)
			is.True(errors.Is(err, CorruptedOpsErr))
			opsErr := OpsErr{}
			is.True(errors.As(err, &opsErr))
			is.Equal(opsErr.Position, 0)
		})
	}
}

func TestOpValidate(t *testing.T) {
	is := is.New(t)
	is.NoErr(InsertOp([]byte("a")).Validate(testPageSize))
	is.True(InsertOp(nil).Validate(testPageSize) != nil)
	is.True(InsertOp(make([]byte, MaxInsertOpLength+1)).Validate(testPageSize) != nil)

	is.True(UpdateOp(page.HeaderSize-1, []byte{1}).Validate(testPageSize) != nil)
	// an update may end exactly at the end of the page
	is.NoErr(UpdateOp(testPageSize-8, make([]byte, 8)).Validate(testPageSize))
	is.True(UpdateOp(testPageSize-7, make([]byte, 8)).Validate(testPageSize) != nil)
}

func TestApplyUpdates(t *testing.T) {
	is := is.New(t)
	p := make(page.Page, testPageSize)
	p.Init()

	raw := InsertOp([]byte("skipped")).AppendTo(nil)
	raw = UpdateOp(100, []byte{1, 2, 3}).AppendTo(raw)
	raw = UpdateOp(testPageSize-2, []byte{4, 5}).AppendTo(raw)
	is.NoErr(applyUpdates(p, raw))
	is.Equal([]byte(p[100:103]), []byte{1, 2, 3})
	is.Equal([]byte(p[testPageSize-2:]), []byte{4, 5})
	is.Equal(p[24], byte(0))

	err := applyUpdates(p, UpdateOp(10, []byte{1}).AppendTo(nil))
	is.True(errors.Is(err, CorruptedOpsErr))
}
