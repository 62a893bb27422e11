package undo

import "strconv"

// Type of a record set. it defines the size of the type header written once
// in front of the first chunk.
type Type uint32

const (
	// TypeTransaction holds the undo records of a transaction
	TypeTransaction Type = iota + 1
	// TypeSimple holds undo records without transaction bookkeeping
	TypeSimple
)

const (
	transactionHeaderSize = 42
	simpleHeaderSize      = 8
)

// HeaderSize returns the size of the type header
func (t Type) HeaderSize() (int, error) {
	switch t {
	case TypeTransaction:
		return transactionHeaderSize, nil
	case TypeSimple:
		return simpleHeaderSize, nil
	default:
		return 0, UnknownTypeErr
	}
}

func (t Type) String() string {
	switch t {
	case TypeTransaction:
		return "transaction"
	case TypeSimple:
		return "simple"
	default:
		return "type(" + strconv.FormatUint(uint64(t), 10) + ")"
	}
}
