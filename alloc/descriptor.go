package alloc

import (
	"errors"
	"fmt"

	"github.com/joshuapare/kmakit/internal/buf"
	"github.com/joshuapare/kmakit/internal/logger"
	"github.com/joshuapare/kmakit/page"
)

// pageDescriptor is the bookkeeping record of one resident page.
// bits and ranks are views into an auxiliary page owned by the descriptor pool.
type pageDescriptor struct {
	page  page.Page
	bits  bitmap
	ranks []byte // rank+1 of the allocated block starting at each granule, 0 if none
	prev  int32  // resident list links, noBlock at the ends
	next  int32
	live  bool
}

// rankAt returns the class rank of the allocated block starting at granule g, or -1.
func (d *pageDescriptor) rankAt(g int) int { return int(d.ranks[g]) - 1 }

func (d *pageDescriptor) setRank(g, rank int) { d.ranks[g] = byte(rank + 1) }

func (d *pageDescriptor) clearRank(g int) { d.ranks[g] = 0 }

// descriptorPool hands out descriptor slots. Slot storage is carved from auxiliary
// pages taken from the provider, one page at a time when the slot stack is empty.
type descriptorPool struct {
	provider  page.Provider
	bitmapLen int // bytes of bitmap per slot
	rankLen   int // bytes of rank table per slot (one per granule)
	perPage   int // slots per auxiliary page

	slots    []pageDescriptor
	avail    []int32 // free slot stack
	auxPages []page.Page
}

func newDescriptorPool(p page.Provider, granules int) *descriptorPool {
	bitmapLen := buf.CeilDiv(granules, 8)
	return &descriptorPool{
		provider:  p,
		bitmapLen: bitmapLen,
		rankLen:   granules,
		perPage:   p.PageSize() / (bitmapLen + granules),
	}
}

// acquire returns a reset descriptor slot, replenishing from the provider when the
// stack is empty.
func (dp *descriptorPool) acquire() (int32, error) {
	if len(dp.avail) == 0 {
		if err := dp.replenish(); err != nil {
			return noBlock, err
		}
	}
	n := len(dp.avail)
	idx := dp.avail[n-1]
	dp.avail = dp.avail[:n-1]

	d := &dp.slots[idx]
	d.bits.reset()
	clear(d.ranks)
	d.prev, d.next = noBlock, noBlock
	d.live = true
	return idx, nil
}

// release returns a slot to the stack.
func (dp *descriptorPool) release(idx int32) {
	d := &dp.slots[idx]
	d.page = page.Page{}
	d.prev, d.next = noBlock, noBlock
	d.live = false
	dp.avail = append(dp.avail, idx)
}

// replenish partitions one auxiliary page into descriptor slots.
func (dp *descriptorPool) replenish() error {
	aux, err := dp.provider.AcquirePage()
	if err != nil {
		return err
	}
	dp.auxPages = append(dp.auxPages, aux)

	first := int32(len(dp.slots))
	slotLen := dp.bitmapLen + dp.rankLen
	for i := range dp.perPage {
		raw, ok := buf.Slice(aux.Data, i*slotLen, slotLen)
		if !ok {
			return fmt.Errorf("%w: descriptor slot %d outside auxiliary page", ErrCorrupt, i)
		}
		dp.slots = append(dp.slots, pageDescriptor{
			bits:  bitmap(raw[:dp.bitmapLen:dp.bitmapLen]),
			ranks: raw[dp.bitmapLen:],
			prev:  noBlock,
			next:  noBlock,
		})
	}
	// Lowest index on top of the stack.
	for i := int32(len(dp.slots)) - 1; i >= first; i-- {
		dp.avail = append(dp.avail, i)
	}

	logger.L.Debug("descriptor page acquired",
		"page", aux.ID, "slots", dp.perPage, "aux_pages", len(dp.auxPages))
	return nil
}

// drain returns every auxiliary page to the provider and forgets all slots.
func (dp *descriptorPool) drain() error {
	var errs []error
	for _, aux := range dp.auxPages {
		if err := dp.provider.ReleasePage(aux.ID); err != nil {
			errs = append(errs, err)
		}
	}
	dp.slots = nil
	dp.avail = nil
	dp.auxPages = nil
	return errors.Join(errs...)
}
