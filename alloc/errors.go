package alloc

import "errors"

var (
	// ErrBadSize indicates a request for fewer than one byte.
	ErrBadSize = errors.New("alloc: size must be at least 1")

	// ErrOversize indicates a request larger than one page.
	ErrOversize = errors.New("alloc: size exceeds page size")

	// ErrExhausted indicates the page provider could not supply a page.
	ErrExhausted = errors.New("alloc: page provider exhausted")

	// ErrBadRef indicates an address outside every resident page.
	ErrBadRef = errors.New("alloc: bad block address")

	// ErrMisaligned indicates an address that is not aligned to its size class.
	ErrMisaligned = errors.New("alloc: address not aligned to size class")

	// ErrNotAllocated indicates a free of a block that is not currently allocated.
	ErrNotAllocated = errors.New("alloc: block not allocated")

	// ErrSizeMismatch indicates a free whose size class differs from the allocation.
	ErrSizeMismatch = errors.New("alloc: size does not match allocation")

	// ErrConfig indicates an unusable granule/page size combination.
	ErrConfig = errors.New("alloc: invalid configuration")

	// ErrCorrupt indicates a failed internal invariant check (Strict mode).
	ErrCorrupt = errors.New("alloc: allocator state corrupt")
)
