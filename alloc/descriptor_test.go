package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/kmakit/page"
)

func Test_DescriptorPool_Replenish(t *testing.T) {
	p, err := page.NewHeap(8192, nil)
	require.NoError(t, err)
	dp := newDescriptorPool(p, 256)

	// 32 bitmap bytes + 256 rank bytes per slot.
	require.Equal(t, 32, dp.bitmapLen)
	require.Equal(t, 8192/288, dp.perPage)

	first, err := dp.acquire()
	require.NoError(t, err)
	require.Equal(t, int32(0), first)
	require.Len(t, dp.auxPages, 1)
	require.Len(t, dp.avail, dp.perPage-1)
	require.Equal(t, 1, p.Stats().InUse)

	second, err := dp.acquire()
	require.NoError(t, err)
	require.Equal(t, int32(1), second, "lowest free slot first")

	d := &dp.slots[first]
	require.True(t, d.live)
	require.Len(t, d.bits, 32)
	require.Len(t, d.ranks, 256)
}

func Test_DescriptorPool_SlotsShareAuxPage(t *testing.T) {
	p, err := page.NewHeap(8192, nil)
	require.NoError(t, err)
	dp := newDescriptorPool(p, 256)

	a, err := dp.acquire()
	require.NoError(t, err)
	b, err := dp.acquire()
	require.NoError(t, err)

	dp.slots[a].bits.set(0)
	dp.slots[b].setRank(3, 2)

	aux := dp.auxPages[0].Data
	require.Equal(t, byte(1), aux[0], "slot 0 bitmap lives at the start of the aux page")
	require.Equal(t, byte(3), aux[288+32+3], "slot 1 rank table follows its bitmap")
	require.Zero(t, dp.slots[a].bits[1:].count(), "slots must not overlap")
}

func Test_DescriptorPool_ExhaustionGrowsByPage(t *testing.T) {
	p, err := page.NewHeap(4096, nil)
	require.NoError(t, err)
	dp := newDescriptorPool(p, 128)

	for range dp.perPage + 1 {
		_, err := dp.acquire()
		require.NoError(t, err)
	}
	require.Len(t, dp.auxPages, 2)
	require.Len(t, dp.slots, 2*dp.perPage)
}

func Test_DescriptorPool_ReleaseResetsOnReuse(t *testing.T) {
	p, err := page.NewHeap(8192, nil)
	require.NoError(t, err)
	dp := newDescriptorPool(p, 256)

	idx, err := dp.acquire()
	require.NoError(t, err)
	dp.slots[idx].bits.setRange(0, 10)
	dp.slots[idx].setRank(0, 4)
	dp.release(idx)
	require.False(t, dp.slots[idx].live)

	again, err := dp.acquire()
	require.NoError(t, err)
	require.Equal(t, idx, again)
	require.Zero(t, dp.slots[again].bits.count())
	require.Equal(t, -1, dp.slots[again].rankAt(0))
}

func Test_DescriptorPool_DrainReturnsAuxPages(t *testing.T) {
	p, err := page.NewHeap(4096, nil)
	require.NoError(t, err)
	dp := newDescriptorPool(p, 128)

	for range 2 * dp.perPage {
		_, err := dp.acquire()
		require.NoError(t, err)
	}
	require.Equal(t, 2, p.Stats().InUse)

	require.NoError(t, dp.drain())
	require.Zero(t, p.Stats().InUse)
	require.Empty(t, dp.slots)
	require.Empty(t, dp.auxPages)
}

func Test_DescriptorPool_ProviderFailure(t *testing.T) {
	p, err := page.NewHeap(4096, &page.Options{MaxPages: 1})
	require.NoError(t, err)
	_, err = p.AcquirePage()
	require.NoError(t, err)

	dp := newDescriptorPool(p, 128)
	_, err = dp.acquire()
	require.ErrorIs(t, err, page.ErrNoPages)
	require.Empty(t, dp.slots)
}
