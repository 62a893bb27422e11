package undo

import (
	"github.com/ljmsc/undo/page"
)

// OpKind distinguishes the two redo operations
type OpKind uint8

const (
	// OpInsert appends bytes at the current insert location of the page
	OpInsert OpKind = iota
	// OpUpdate overwrites bytes at a fixed offset of the page
	OpUpdate
)

const (
	opUpdateFlag         = 0x80
	opInsertHeaderLength = 1
	opUpdateHeaderLength = 4

	// MaxInsertOpLength is the max amount of bytes carried by an insert operation
	MaxInsertOpLength = 0x7f
)

// Op is one redo operation for an undo page.
//
// wire format
// insert: [1 length (top bit clear)][length bytes]
// update: [1 0x80|offset>>8][1 offset&0xff][1 size>>8][1 size&0xff][size bytes]
type Op struct {
	Kind OpKind
	// Offset is the page offset of an update
	Offset uint16
	Data   []byte
}

// InsertOp creates an insert operation
func InsertOp(_data []byte) Op {
	return Op{Kind: OpInsert, Data: _data}
}

// UpdateOp creates an update operation
func UpdateOp(_offset uint16, _data []byte) Op {
	return Op{Kind: OpUpdate, Offset: _offset, Data: _data}
}

// Size returns the encoded size of the operation
func (o Op) Size() int {
	if o.Kind == OpUpdate {
		return opUpdateHeaderLength + len(o.Data)
	}
	return opInsertHeaderLength + len(o.Data)
}

// Validate checks that the operation can be encoded and applied to a page of the given size
func (o Op) Validate(_pageSize int) error {
	switch o.Kind {
	case OpInsert:
		if len(o.Data) == 0 || len(o.Data) > MaxInsertOpLength {
			return InvalidOpErr
		}
	case OpUpdate:
		if int(o.Offset) < page.HeaderSize || int(o.Offset) >= page.MaxSize {
			return InvalidOpErr
		}
		if int(o.Offset)+len(o.Data) > _pageSize {
			return InvalidOpErr
		}
	default:
		return InvalidOpErr
	}
	return nil
}

// AppendTo appends the encoded operation to raw
func (o Op) AppendTo(_raw []byte) []byte {
	if o.Kind == OpUpdate {
		var head [opUpdateHeaderLength]byte
		encodeUpdateHeader(head[:], o.Offset, uint16(len(o.Data)))
		_raw = append(_raw, head[:]...)
		return append(_raw, o.Data...)
	}
	_raw = append(_raw, byte(len(o.Data)))
	return append(_raw, o.Data...)
}

func encodeUpdateHeader(_head []byte, _offset uint16, _size uint16) {
	_head[0] = opUpdateFlag | byte(_offset>>8)
	_head[1] = byte(_offset & 0xff)
	_head[2] = byte(_size >> 8)
	_head[3] = byte(_size & 0xff)
}

// DecodeOp decodes the first operation of raw. it returns the operation and
// the amount of consumed bytes. the data of the operation references raw.
func DecodeOp(_raw []byte) (Op, int, error) {
	if len(_raw) == 0 {
		return Op{}, 0, CorruptedOpsErr
	}
	if _raw[0]&opUpdateFlag == 0 {
		length := int(_raw[0])
		if length == 0 || opInsertHeaderLength+length > len(_raw) {
			return Op{}, 0, CorruptedOpsErr
		}
		return InsertOp(_raw[opInsertHeaderLength : opInsertHeaderLength+length]), opInsertHeaderLength + length, nil
	}

	if len(_raw) < opUpdateHeaderLength {
		return Op{}, 0, CorruptedOpsErr
	}
	offset := uint16(_raw[0]&^opUpdateFlag)<<8 | uint16(_raw[1])
	size := int(_raw[2])<<8 | int(_raw[3])
	if opUpdateHeaderLength+size > len(_raw) {
		return Op{}, 0, CorruptedOpsErr
	}
	end := opUpdateHeaderLength + size
	return UpdateOp(offset, _raw[opUpdateHeaderLength:end]), end, nil
}

// DecodeOps decodes all operations of raw
func DecodeOps(_raw []byte) ([]Op, error) {
	ops := make([]Op, 0)
	pos := 0
	for pos < len(_raw) {
		op, n, err := DecodeOp(_raw[pos:])
		if err != nil {
			return nil, OpsErr{Position: pos, Err: err}
		}
		ops = append(ops, op)
		pos += n
	}
	return ops, nil
}

// applyUpdates applies all update operations of raw to the page. insert
// operations are skipped, they are replayed by InsertInRecovery.
func applyUpdates(_page page.Page, _raw []byte) error {
	pos := 0
	for pos < len(_raw) {
		op, n, err := DecodeOp(_raw[pos:])
		if err != nil {
			return OpsErr{Position: pos, Err: err}
		}
		if op.Kind == OpUpdate {
			if err := op.Validate(len(_page)); err != nil {
				return OpsErr{Position: pos, Err: CorruptedOpsErr}
			}
			copy(_page[op.Offset:], op.Data)
		}
		pos += n
	}
	return nil
}
