//go:build !darwin && !dragonfly && !freebsd && !linux && !netbsd && !openbsd && !solaris
// +build !darwin,!dragonfly,!freebsd,!linux,!netbsd,!openbsd,!solaris

package page

import "os"

func blockSize(dir string) (int64, error) {
	return DefaultSize, nil
}

func syncFile(file *os.File) error {
	return file.Sync()
}
