package page

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewHeapRejectsBadPageSize(t *testing.T) {
	for _, size := range []int{0, -8192, 3000, 8191} {
		_, err := NewHeap(size, nil)
		require.ErrorIs(t, err, ErrPageSize, "size %d", size)
	}
}

func TestHeapAcquireIsAligned(t *testing.T) {
	p, err := NewHeap(8192, &Options{BaseAddr: 0x1234})
	require.NoError(t, err)

	for i := range 4 {
		pg, err := p.AcquirePage()
		require.NoError(t, err)
		require.Equal(t, PageID(i), pg.ID)
		require.Equal(t, 8192, pg.Size)
		require.Len(t, pg.Data, 8192)
		require.Zero(t, uint64(pg.Base)%8192, "page %d base 0x%x not aligned", i, pg.Base)
		require.NotZero(t, pg.Base)
	}
	require.Equal(t, Stats{Requested: 4, InUse: 4, Peak: 4}, p.Stats())
}

func TestHeapReleaseReusesIDsAndZeroes(t *testing.T) {
	p, err := NewHeap(4096, nil)
	require.NoError(t, err)

	a, err := p.AcquirePage()
	require.NoError(t, err)
	b, err := p.AcquirePage()
	require.NoError(t, err)

	a.Data[0] = 0xAA
	require.NoError(t, p.ReleasePage(a.ID))

	c, err := p.AcquirePage()
	require.NoError(t, err)
	require.Equal(t, a.ID, c.ID, "released ID should be reused")
	require.Equal(t, a.Base, c.Base)
	require.Zero(t, c.Data[0], "recycled page must be zero-filled")

	require.NoError(t, p.ReleasePage(b.ID))
	require.NoError(t, p.ReleasePage(c.ID))
	require.Equal(t, Stats{Requested: 3, Freed: 3, InUse: 0, Peak: 2}, p.Stats())
}

func TestHeapReleaseBadID(t *testing.T) {
	p, err := NewHeap(4096, nil)
	require.NoError(t, err)

	require.ErrorIs(t, p.ReleasePage(0), ErrBadPageID)
	require.ErrorIs(t, p.ReleasePage(-1), ErrBadPageID)

	pg, err := p.AcquirePage()
	require.NoError(t, err)
	require.NoError(t, p.ReleasePage(pg.ID))
	require.ErrorIs(t, p.ReleasePage(pg.ID), ErrBadPageID, "double release")
}

func TestHeapMaxPages(t *testing.T) {
	p, err := NewHeap(4096, &Options{MaxPages: 2})
	require.NoError(t, err)

	first, err := p.AcquirePage()
	require.NoError(t, err)
	_, err = p.AcquirePage()
	require.NoError(t, err)

	_, err = p.AcquirePage()
	require.True(t, errors.Is(err, ErrNoPages))

	require.NoError(t, p.ReleasePage(first.ID))
	_, err = p.AcquirePage()
	require.NoError(t, err, "a released page frees capacity")
}

func TestHeapClose(t *testing.T) {
	p, err := NewHeap(4096, nil)
	require.NoError(t, err)
	_, err = p.AcquirePage()
	require.NoError(t, err)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close(), "second close is a no-op")
	_, err = p.AcquirePage()
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, p.ReleasePage(0), ErrClosed)
}
