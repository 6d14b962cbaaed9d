//go:build !unix

package page

import "github.com/joshuapare/kmakit/internal/buf"

// newMmapBacking falls back to heap pages when mmap is not available.
func newMmapBacking(pageSize int) (backing, error) {
	if !buf.IsPow2(pageSize) {
		return nil, ErrPageSize
	}
	return heapBacking{}, nil
}
