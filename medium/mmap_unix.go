//go:build unix

package medium

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// mapImage maps the image read-write and shared so writes land in the page
// cache immediately and msync can make them durable.
func mapImage(f *os.File, size int64) ([]byte, error) {
	if size == 0 {
		return nil, fmt.Errorf("medium: empty image: %w", ErrBadGeometry)
	}
	if size > int64(^uint(0)>>1) {
		return nil, fmt.Errorf("medium: image too large to map (%d bytes)", size)
	}
	return unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

func unmapImage(data []byte) error {
	err := unix.Munmap(data)
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}

func syncMapping(data []byte) error {
	return unix.Msync(data, unix.MS_SYNC)
}
