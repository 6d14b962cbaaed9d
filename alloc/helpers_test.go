package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/kmakit/page"
)

const (
	testPageSize = 8192
	testGranule  = 32
)

// newTestBuddy creates a strict-mode buddy allocator over a heap provider.
func newTestBuddy(t testing.TB, opts *page.Options) (*BuddyAllocator, *page.HeapProvider) {
	t.Helper()
	p, err := page.NewHeap(testPageSize, opts)
	require.NoError(t, err)
	ba, err := NewBuddy(p, &Config{Granule: testGranule, Strict: true})
	require.NoError(t, err)
	return ba, p
}

// mustAlloc allocates and fails the test on error.
func mustAlloc(t testing.TB, ba *BuddyAllocator, size int) (page.Addr, []byte) {
	t.Helper()
	addr, data, err := ba.Alloc(size)
	require.NoError(t, err, "Alloc(%d)", size)
	require.NotZero(t, addr)
	require.Len(t, data, size)
	return addr, data
}

// fill writes a deterministic pattern derived from seed.
func fill(data []byte, seed byte) {
	for i := range data {
		data[i] = seed + byte(i)
	}
}

// requirePattern checks a pattern written by fill.
func requirePattern(t testing.TB, data []byte, seed byte) {
	t.Helper()
	for i := range data {
		require.Equal(t, seed+byte(i), data[i], "byte %d corrupted", i)
	}
}

// freeSizes returns the sizes of a page's free blocks keyed by offset.
func freeSizes(ps PageSnapshot) map[int]int {
	out := make(map[int]int, len(ps.Free))
	for _, blk := range ps.Free {
		out[blk.Offset] = blk.Size
	}
	return out
}
