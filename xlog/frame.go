package xlog

import (
	"bytes"
	"encoding/binary"
	"hash/fnv"
)

const (
	frameSizeLength     = 8
	frameChecksumLength = 8
	frameMetadataLength = frameSizeLength + frameChecksumLength
)

// frame wraps one encoded record on disk
// [8 size][8 checksum][payload]
type frame struct {
	// size is the total length of the payload
	size uint64
	// checksum is a checksum of the payload
	checksum uint64
	// Payload is the encoded record
	Payload []byte
}

func (f *frame) marshal() (data []byte, err error) {
	buff := bytes.Buffer{}
	buff.Grow(frameMetadataLength + len(f.Payload))

	_, err = buff.Write(encodeUint64(uint64(len(f.Payload))))
	if err != nil {
		return nil, err
	}

	_, err = buff.Write(encodeUint64(checksum(f.Payload)))
	if err != nil {
		return nil, err
	}

	_, err = buff.Write(f.Payload)
	if err != nil {
		return nil, err
	}

	return buff.Bytes(), nil
}

// unmarshalHead reads size and checksum of the frame
func (f *frame) unmarshalHead(data []byte) error {
	if len(data) < frameMetadataLength {
		return NotEnoughBytesErr
	}
	f.size = binary.LittleEndian.Uint64(data[:frameSizeLength])
	f.checksum = binary.LittleEndian.Uint64(data[frameSizeLength:frameMetadataLength])
	return nil
}

func (f *frame) unmarshal(data []byte) error {
	if err := f.unmarshalHead(data); err != nil {
		return err
	}
	data = data[frameMetadataLength:]
	if uint64(len(data)) < f.size {
		return NotEnoughBytesErr
	}

	f.Payload = data[:f.size]

	if checksum(f.Payload) != f.checksum {
		return InvalidChecksumErr
	}

	return nil
}

// checksum hashes the payload of a frame with fnv-64a
func checksum(_payload []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(_payload)
	return h.Sum64()
}

func encodeUint64(value uint64) []byte {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint64(raw, value)
	return raw
}
