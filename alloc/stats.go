package alloc

import (
	"fmt"
	"io"

	"github.com/joshuapare/kmakit/page"
)

// Stats holds allocator counters. Counters survive drains; Live* fields track the
// blocks currently held by callers.
type Stats struct {
	AllocCalls    int `json:"alloc_calls"`     // Total Alloc() calls
	FreeCalls     int `json:"free_calls"`      // Total Free() calls
	AllocFastPath int `json:"alloc_fast_path"` // Allocations served from a bucket
	AllocSlowPath int `json:"alloc_slow_path"` // Allocations that needed a new page
	SplitCount    int `json:"split_count"`     // Blocks halved
	CoalesceCount int `json:"coalesce_count"`  // Buddy merges

	PagesAcquired    int `json:"pages_acquired"`     // User pages taken from the provider
	PagesReleased    int `json:"pages_released"`     // User pages returned on drain
	AuxPagesAcquired int `json:"aux_pages_acquired"` // Descriptor pages taken
	AuxPagesReleased int `json:"aux_pages_released"` // Descriptor pages returned
	Drains           int `json:"drains"`             // Full allocate/free cycles completed

	BytesRequested int64 `json:"bytes_requested"` // Sum of Alloc sizes
	BytesGranted   int64 `json:"bytes_granted"`   // Sum of class sizes handed out
	LiveRequested  int64 `json:"live_requested"`  // Requested bytes currently outstanding
	LiveGranted    int64 `json:"live_granted"`    // Class bytes currently outstanding
}

// GetStats returns a copy of the allocator counters.
func (b *BuddyAllocator) GetStats() Stats { return b.stats }

// BucketInfo describes one size class bucket.
type BucketInfo struct {
	Size int `json:"size"`
	Free int `json:"free"`
}

// Buckets returns the free block count of every size class, smallest first.
// All counts are zero while the allocator is not live.
func (b *BuddyAllocator) Buckets() []BucketInfo {
	out := make([]BucketInfo, b.classes.NumClasses())
	for r := range out {
		out[r].Size = b.classes.size(r)
		if b.st != nil {
			out[r].Free = b.st.buckets.count(r)
		}
	}
	return out
}

// Block is a page-relative block position.
type Block struct {
	Offset int `json:"offset"`
	Size   int `json:"size"`
}

// PageSnapshot is the state of one resident page.
type PageSnapshot struct {
	ID           page.PageID `json:"id"`
	Base         page.Addr   `json:"base"`
	Bitmap       string      `json:"bitmap"`        // one char per granule: '#' allocated, '.' free
	UsedGranules int         `json:"used_granules"` // set bits; excludes internal fragmentation
	Allocated    []Block     `json:"allocated"`
	Free         []Block     `json:"free"`
}

// Snapshot returns the resident pages in acquisition order.
func (b *BuddyAllocator) Snapshot() []PageSnapshot {
	c := b.st
	if c == nil {
		return nil
	}

	byDesc := make(map[int32]int)
	var out []PageSnapshot
	for di := c.first; di != noBlock; di = c.pool.slots[di].next {
		d := &c.pool.slots[di]
		ps := PageSnapshot{
			ID:           d.page.ID,
			Base:         d.page.Base,
			Bitmap:       d.bits.render(b.classes.granules),
			UsedGranules: d.bits.count(),
		}
		for g := 0; g < b.classes.granules; g++ {
			if r := d.rankAt(g); r >= 0 {
				ps.Allocated = append(ps.Allocated, Block{Offset: g << b.classes.shift, Size: b.classes.size(r)})
			}
		}
		byDesc[di] = len(out)
		out = append(out, ps)
	}

	for r := b.classes.topRank; r >= 0; r-- {
		c.buckets.each(r, func(blk freeBlock) {
			if i, ok := byDesc[blk.desc]; ok {
				out[i].Free = append(out[i].Free, Block{Offset: int(blk.off), Size: b.classes.size(r)})
			}
		})
	}
	return out
}

// PrintStats writes a human-readable statistics summary to w.
func (b *BuddyAllocator) PrintStats(w io.Writer) {
	s := b.stats
	fmt.Fprintf(w, "\n=== BUDDY ALLOCATOR STATISTICS ===\n")
	fmt.Fprintf(w, "Alloc calls:        %d (fast: %d, slow: %d)\n", s.AllocCalls, s.AllocFastPath, s.AllocSlowPath)
	fmt.Fprintf(w, "Free calls:         %d\n", s.FreeCalls)
	fmt.Fprintf(w, "Splits:             %d\n", s.SplitCount)
	fmt.Fprintf(w, "Coalesces:          %d\n", s.CoalesceCount)
	fmt.Fprintf(w, "Pages in/out:       %d / %d\n", s.PagesAcquired, s.PagesReleased)
	fmt.Fprintf(w, "Aux pages in/out:   %d / %d\n", s.AuxPagesAcquired, s.AuxPagesReleased)
	fmt.Fprintf(w, "Drains:             %d\n", s.Drains)
	fmt.Fprintf(w, "Bytes requested:    %d\n", s.BytesRequested)
	fmt.Fprintf(w, "Bytes granted:      %d\n", s.BytesGranted)
	if s.BytesGranted > 0 {
		fmt.Fprintf(w, "Internal frag:      %.1f%%\n",
			100.0*float64(s.BytesGranted-s.BytesRequested)/float64(s.BytesGranted))
	}
	fmt.Fprintf(w, "Outstanding:        %d blocks, %d pages resident\n", b.Outstanding(), b.ResidentPages())
	fmt.Fprintf(w, "==================================\n\n")
}
