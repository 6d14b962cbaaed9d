//go:build unix

package page

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

type mmapBacking struct{}

func newMmapBacking(pageSize int) (backing, error) {
	if osPage := os.Getpagesize(); pageSize < osPage || pageSize%osPage != 0 {
		return nil, fmt.Errorf("%w: %d is not a multiple of the OS page size %d", ErrPageSize, pageSize, osPage)
	}
	return mmapBacking{}, nil
}

func (mmapBacking) mapPage(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
}

// release keeps the mapping but drops its contents; the next touch faults in zero pages.
func (mmapBacking) release(data []byte) (bool, error) {
	if err := unix.Madvise(data, unix.MADV_DONTNEED); err != nil {
		return false, err
	}
	return true, nil
}

func (mmapBacking) unmapPage(data []byte) error {
	err := unix.Munmap(data)
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}
