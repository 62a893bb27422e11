package page

import (
	"fmt"
	"os"
)

// zero overwrites the given range with zeros. only the part of the range inside the file is written
func zero(file *os.File, offset int64, length int64) error {
	info, err := file.Stat()
	if err != nil {
		return err
	}
	if offset+length > info.Size() {
		length = info.Size() - offset
	}
	if length <= 0 {
		return nil
	}
	buf := make([]byte, DefaultSize)
	for length > 0 {
		n := int64(len(buf))
		if length < n {
			n = length
		}
		if _, err := file.WriteAt(buf[:n], offset); err != nil {
			return fmt.Errorf("can't zero undo log file: %w", err)
		}
		offset += n
		length -= n
	}
	return nil
}
