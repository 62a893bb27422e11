//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris
// +build darwin dragonfly freebsd linux netbsd openbsd solaris

package page

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

func blockSize(dir string) (int64, error) {
	stat := unix.Statfs_t{}
	if err := unix.Statfs(dir, &stat); err != nil {
		return 0, fmt.Errorf("can't read directory stats: %w", err)
	}
	return int64(stat.Bsize), nil
}

func syncFile(file *os.File) error {
	if err := unix.Fsync(int(file.Fd())); err != nil {
		return fmt.Errorf("can't sync undo log file: %w", err)
	}
	return nil
}
