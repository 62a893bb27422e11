package slot

import (
	"encoding/binary"
	"sort"
)

// metadata construction
// [8 ItemCount][ [][8 ItemNameSize][ItemName][8 ItemDataSize][ItemData] ]

const (
	metaItemCountField    = 8
	metaItemNameSizeField = 8
	metaItemDataSizeField = 8

	int64Bytes = 8
)

// Metadata is a flat key value map which can be written to disk
type Metadata map[string][]byte

// ParseMetadata decodes b into m
func ParseMetadata(b []byte, m Metadata) error {
	if len(b) < metaItemCountField {
		return NotEnoughBytesErr
	}
	itemCount := binary.LittleEndian.Uint64(b[:metaItemCountField])
	b = b[metaItemCountField:]

	for i := uint64(0); i < itemCount; i++ {
		if len(b) < metaItemNameSizeField {
			return NotEnoughBytesErr
		}
		nameSize := binary.LittleEndian.Uint64(b[:metaItemNameSizeField])
		b = b[metaItemNameSizeField:]
		if uint64(len(b)) < nameSize+metaItemDataSizeField {
			return NotEnoughBytesErr
		}
		itemName := string(b[:nameSize])
		b = b[nameSize:]

		dataSize := binary.LittleEndian.Uint64(b[:metaItemDataSizeField])
		b = b[metaItemDataSizeField:]
		if uint64(len(b)) < dataSize {
			return NotEnoughBytesErr
		}
		m[itemName] = b[:dataSize]
		b = b[dataSize:]
	}
	if len(b) > 0 {
		return TooManyBytesErr
	}

	return nil
}

// Size returns the encoded size in bytes
func (m Metadata) Size() uint64 {
	dataSize := uint64(0)
	for name, data := range m {
		dataSize += metaItemNameSizeField + uint64(len(name))
		dataSize += metaItemDataSizeField + uint64(len(data))
	}
	return metaItemCountField + dataSize
}

// Bytes encodes the metadata. items are sorted by name
func (m Metadata) Bytes() []byte {
	metaBytes := make([]byte, 0, m.Size())

	itemCountBytes := make([]byte, metaItemCountField)
	binary.LittleEndian.PutUint64(itemCountBytes, uint64(len(m)))
	metaBytes = append(metaBytes, itemCountBytes...)

	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		data := m[name]
		sizeBytes := make([]byte, int64Bytes)
		binary.LittleEndian.PutUint64(sizeBytes, uint64(len(name)))
		metaBytes = append(metaBytes, sizeBytes...)
		metaBytes = append(metaBytes, name...)

		binary.LittleEndian.PutUint64(sizeBytes, uint64(len(data)))
		metaBytes = append(metaBytes, sizeBytes...)
		metaBytes = append(metaBytes, data...)
	}
	return metaBytes
}

// Has returns true if an item with the given name exists
func (m Metadata) Has(name string) bool {
	_, ok := m[name]
	return ok
}

func (m Metadata) GetUint64(name string) uint64 {
	data, ok := m[name]
	if !ok || len(data) < int64Bytes {
		return 0
	}
	return binary.LittleEndian.Uint64(data)
}

func (m Metadata) PutUint64(name string, value uint64) {
	valueBytes := make([]byte, int64Bytes)
	binary.LittleEndian.PutUint64(valueBytes, value)
	m[name] = valueBytes
}
