//go:build unix && !linux && !freebsd && !darwin

package medium

import (
	"os"

	"golang.org/x/sys/unix"
)

func syncFD(f *os.File) error {
	return unix.Fsync(int(f.Fd()))
}
