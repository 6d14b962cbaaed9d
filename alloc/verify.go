package alloc

import (
	"fmt"

	"github.com/joshuapare/kmakit/internal/buf"
)

// blockKey identifies a free block for the buddy pairing check.
type blockKey struct {
	desc int32
	rank int
	off  int
}

// Verify checks the allocator's structural invariants:
//   - every block offset is a multiple of its size
//   - allocated and free blocks tile every resident page exactly once
//   - free blocks have all bitmap bits clear and allocated blocks have their first bit set
//   - bucket counts match their chains and no two free buddies of one size coexist
//   - Free calls never outnumber Alloc calls
//
// Returns nil when the allocator is not live.
func (b *BuddyAllocator) Verify() error {
	c := b.st
	if c == nil {
		return nil
	}
	ct := b.classes
	if c.frees > c.allocs {
		return fmt.Errorf("%w: %d frees > %d allocs", ErrCorrupt, c.frees, c.allocs)
	}

	cover := make(map[int32][]int)
	n := 0
	for di := c.first; di != noBlock; di = c.pool.slots[di].next {
		d := &c.pool.slots[di]
		if !d.live {
			return fmt.Errorf("%w: resident list holds released descriptor %d", ErrCorrupt, di)
		}
		cov := make([]int, ct.granules)
		for g := range ct.granules {
			r := d.rankAt(g)
			if r < 0 {
				continue
			}
			if r > ct.topRank || g%ct.span(r) != 0 {
				return fmt.Errorf("%w: page %d: allocated block at granule %d misaligned for class %d",
					ErrCorrupt, d.page.ID, g, ct.size(min(r, ct.topRank)))
			}
			if !d.bits.test(g) {
				return fmt.Errorf("%w: page %d: allocated block at granule %d has clear bitmap bit",
					ErrCorrupt, d.page.ID, g)
			}
			for k := g; k < g+ct.span(r); k++ {
				cov[k]++
			}
		}
		cover[di] = cov
		n++
	}
	if n != c.resident {
		return fmt.Errorf("%w: resident list has %d pages, expected %d", ErrCorrupt, n, c.resident)
	}

	free := make(map[blockKey]struct{})
	var err error
	for r := range ct.NumClasses() {
		chain := 0
		c.buckets.each(r, func(blk freeBlock) {
			chain++
			if err != nil {
				return
			}
			cov, ok := cover[blk.desc]
			if !ok {
				err = fmt.Errorf("%w: class %d free block refers to non-resident descriptor %d",
					ErrCorrupt, ct.size(r), blk.desc)
				return
			}
			off := int(blk.off)
			if _, serr := buf.CheckSpan(ct.pageSize, off, ct.size(r)); serr != nil {
				err = fmt.Errorf("%w: free block of class %d: %w", ErrCorrupt, ct.size(r), serr)
				return
			}
			if off%ct.size(r) != 0 {
				err = fmt.Errorf("%w: free block 0x%x misaligned for class %d", ErrCorrupt, off, ct.size(r))
				return
			}
			g := off >> ct.shift
			if !c.pool.slots[blk.desc].bits.rangeFree(g, ct.span(r)) {
				err = fmt.Errorf("%w: free block 0x%x (class %d) has set bitmap bits", ErrCorrupt, off, ct.size(r))
				return
			}
			for k := g; k < g+ct.span(r); k++ {
				cov[k]++
			}
			free[blockKey{desc: blk.desc, rank: r, off: off}] = struct{}{}
		})
		if err != nil {
			return err
		}
		if chain != c.buckets.count(r) {
			return fmt.Errorf("%w: class %d bucket count %d, chain length %d",
				ErrCorrupt, ct.size(r), c.buckets.count(r), chain)
		}
	}

	for di, cov := range cover {
		for g, k := range cov {
			if k != 1 {
				return fmt.Errorf("%w: page %d granule %d covered %d times",
					ErrCorrupt, c.pool.slots[di].page.ID, g, k)
			}
		}
	}

	for key := range free {
		if key.rank == ct.topRank {
			continue
		}
		buddy := blockKey{desc: key.desc, rank: key.rank, off: key.off ^ ct.size(key.rank)}
		if _, ok := free[buddy]; ok {
			return fmt.Errorf("%w: unmerged free buddies at 0x%x and 0x%x (class %d)",
				ErrCorrupt, key.off, buddy.off, ct.size(key.rank))
		}
	}
	return nil
}
