package page

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// punch releases the disk space of the given range. the file size is kept
func punch(file *os.File, offset int64, length int64) error {
	if length <= 0 {
		return nil
	}
	err := unix.Fallocate(int(file.Fd()), unix.FALLOC_FL_PUNCH_HOLE|unix.FALLOC_FL_KEEP_SIZE, offset, length)
	if err == unix.EOPNOTSUPP {
		return zero(file, offset, length)
	}
	if err != nil {
		return fmt.Errorf("can't punch hole into undo log file: %w", err)
	}
	return nil
}
