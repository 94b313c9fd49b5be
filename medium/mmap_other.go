//go:build !unix

package medium

import "os"

// Platforms without mmap support fall back to ReadAt/WriteAt on the file.

func mapImage(_ *os.File, _ int64) ([]byte, error) {
	return nil, nil
}

func unmapImage(_ []byte) error { return nil }

func syncMapping(_ []byte) error { return nil }

func syncFD(f *os.File) error { return f.Sync() }
