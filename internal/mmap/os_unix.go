//go:build unix

package mmap

import (
	"os"

	"golang.org/x/sys/unix"
)

func osMap(f *os.File, size int) ([]byte, func([]byte) error, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	return data, unix.Munmap, nil
}

func osPrefetch(data []byte) error {
	// EINVAL only means the kernel ignored the hint.
	if err := unix.Madvise(data, unix.MADV_WILLNEED); err != nil && err != unix.EINVAL {
		return err
	}
	return nil
}
