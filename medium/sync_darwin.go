//go:build darwin

package medium

import (
	"os"

	"golang.org/x/sys/unix"
)

// Darwin has no fdatasync; F_FULLFSYNC forces the drive cache to flush
// where plain fsync may not.
func syncFD(f *os.File) error {
	if _, err := unix.FcntlInt(f.Fd(), unix.F_FULLFSYNC, 0); err == nil {
		return nil
	}
	return unix.Fsync(int(f.Fd()))
}
