//go:build !linux
// +build !linux

package page

import "os"

func punch(file *os.File, offset int64, length int64) error {
	if length <= 0 {
		return nil
	}
	return zero(file, offset, length)
}
