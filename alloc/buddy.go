package alloc

import (
	"errors"
	"fmt"

	"github.com/joshuapare/kmakit/internal/buf"
	"github.com/joshuapare/kmakit/internal/logger"
	"github.com/joshuapare/kmakit/page"
)

// BuddyAllocator is a binary buddy allocator over provider pages.
type BuddyAllocator struct {
	p       page.Provider
	cfg     Config
	classes *classTable

	// st is nil until the first successful Alloc and again after a drain.
	st *controller

	stats Stats
}

var _ Allocator = (*BuddyAllocator)(nil)

// controller is the live allocator state between lazy init and drain.
type controller struct {
	allocs int // successful Alloc calls
	frees  int // successful Free calls

	buckets *bucketTable
	pool    *descriptorPool

	// Resident user pages, doubly linked through descriptor slots.
	first, last int32
	resident    int
}

// NewBuddy creates a buddy allocator drawing pages from p.
//
// Parameters:
//   - p: The page provider. Its page size fixes the largest size class
//   - cfg: Granule and checking options (use nil for DefaultConfig)
func NewBuddy(p page.Provider, cfg *Config) (*BuddyAllocator, error) {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	c := *cfg
	if c.Granule == 0 {
		c.Granule = DefaultGranule
	}
	classes, err := newClassTable(c.Granule, p.PageSize())
	if err != nil {
		return nil, err
	}
	return &BuddyAllocator{p: p, cfg: c, classes: classes}, nil
}

func (b *BuddyAllocator) newController() *controller {
	logger.L.Debug("buddy allocator init",
		"page_size", b.classes.pageSize, "granule", b.classes.granule, "classes", b.classes.NumClasses())
	return &controller{
		buckets: newBucketTable(b.classes.NumClasses()),
		pool:    newDescriptorPool(b.p, b.classes.granules),
		first:   noBlock,
		last:    noBlock,
	}
}

// Alloc returns a block of at least size bytes.
func (b *BuddyAllocator) Alloc(size int) (page.Addr, []byte, error) {
	b.stats.AllocCalls++

	if size < 1 {
		return 0, nil, fmt.Errorf("%w: %d", ErrBadSize, size)
	}
	rank, ok := b.classes.rankFor(size)
	if !ok {
		return 0, nil, fmt.Errorf("%w: %d > %d", ErrOversize, size, b.classes.pageSize)
	}

	if b.st == nil {
		b.st = b.newController()
	}
	c := b.st

	di, off, err := b.takeBlock(rank)
	if err != nil {
		if c.allocs == c.frees {
			// Nothing outstanding: drop whatever this request brought in.
			if terr := b.teardown(); terr != nil {
				err = errors.Join(err, terr)
			}
		}
		return 0, nil, fmt.Errorf("%w: %w", ErrExhausted, err)
	}

	d := &c.pool.slots[di]
	g := off >> b.classes.shift
	d.bits.setRange(g, b.classes.granulesFor(size))
	d.setRank(g, rank)
	c.allocs++

	classSize := b.classes.size(rank)
	b.stats.BytesRequested += int64(size)
	b.stats.BytesGranted += int64(classSize)
	b.stats.LiveRequested += int64(size)
	b.stats.LiveGranted += int64(classSize)

	data, ok := buf.Window(d.page.Data, off, size, classSize)
	if !ok {
		return 0, nil, fmt.Errorf("%w: block 0x%x+%d outside page %d", ErrCorrupt, off, classSize, d.page.ID)
	}
	if err := b.strictCheck(); err != nil {
		return 0, nil, err
	}
	return d.page.Base + page.Addr(off), data, nil
}

// takeBlock finds a free block of exactly rank, splitting a larger free block or a
// fresh page when the rank bucket is empty.
func (b *BuddyAllocator) takeBlock(rank int) (int32, int, error) {
	c := b.st
	for r := rank; r <= b.classes.topRank; r++ {
		blk, ok := c.buckets.pop(r)
		if !ok {
			continue
		}
		b.stats.AllocFastPath++
		b.split(blk.desc, int(blk.off), r, rank)
		return blk.desc, int(blk.off), nil
	}

	di, err := b.newPage()
	if err != nil {
		return noBlock, 0, err
	}
	b.stats.AllocSlowPath++
	b.split(di, 0, b.classes.topRank, rank)
	return di, 0, nil
}

// newPage brings a page in from the provider and links its descriptor.
func (b *BuddyAllocator) newPage() (int32, error) {
	c := b.st
	auxBefore := len(c.pool.auxPages)
	di, err := c.pool.acquire()
	b.stats.AuxPagesAcquired += len(c.pool.auxPages) - auxBefore
	if err != nil {
		return noBlock, err
	}
	pg, err := b.p.AcquirePage()
	if err != nil {
		c.pool.release(di)
		return noBlock, err
	}
	if uint64(pg.Base)%uint64(b.classes.pageSize) != 0 || !buf.Has(pg.Data, 0, b.classes.pageSize) {
		c.pool.release(di)
		_ = b.p.ReleasePage(pg.ID)
		return noBlock, fmt.Errorf("%w: page %d at 0x%x is not a whole aligned page", ErrCorrupt, pg.ID, pg.Base)
	}

	d := &c.pool.slots[di]
	d.page = pg
	d.bits.reset()

	d.prev = c.last
	if c.last == noBlock {
		c.first = di
	} else {
		c.pool.slots[c.last].next = di
	}
	c.last = di
	c.resident++
	b.stats.PagesAcquired++

	logger.L.Debug("page in", "page", pg.ID, "resident", c.resident)
	return di, nil
}

// split halves the free block (di, off) of rank from down to rank to, keeping the
// lower half and pushing each upper half into the bucket of its size.
func (b *BuddyAllocator) split(di int32, off, from, to int) {
	for r := from; r > to; r-- {
		half := b.classes.size(r - 1)
		b.st.buckets.push(r-1, di, off+half)
		b.stats.SplitCount++
	}
}

// Free returns the block at addr. size must be the value passed to Alloc.
func (b *BuddyAllocator) Free(addr page.Addr, size int) error {
	b.stats.FreeCalls++

	if size < 1 {
		return fmt.Errorf("%w: %d", ErrBadSize, size)
	}
	rank, ok := b.classes.rankFor(size)
	if !ok {
		return fmt.Errorf("%w: %d > %d", ErrOversize, size, b.classes.pageSize)
	}
	c := b.st
	if c == nil {
		return fmt.Errorf("%w: 0x%x (no live allocations)", ErrBadRef, addr)
	}

	di := b.findDescriptor(addr)
	if di == noBlock {
		return fmt.Errorf("%w: 0x%x", ErrBadRef, addr)
	}
	d := &c.pool.slots[di]
	off := int(addr - d.page.Base)
	classSize := b.classes.size(rank)
	if off%classSize != 0 {
		return fmt.Errorf("%w: offset 0x%x, class %d", ErrMisaligned, off, classSize)
	}
	g := off >> b.classes.shift
	switch got := d.rankAt(g); {
	case got < 0:
		return fmt.Errorf("%w: 0x%x", ErrNotAllocated, addr)
	case got != rank:
		return fmt.Errorf("%w: 0x%x allocated as class %d, freed as class %d",
			ErrSizeMismatch, addr, b.classes.size(got), classSize)
	}

	d.clearRank(g)
	d.bits.clearRange(g, b.classes.span(rank))
	b.coalesce(di, off, rank)

	c.frees++
	b.stats.LiveRequested -= int64(size)
	b.stats.LiveGranted -= int64(classSize)

	if c.frees == c.allocs {
		return b.teardown()
	}
	return b.strictCheck()
}

// findDescriptor masks addr to its page base and scans the resident list.
func (b *BuddyAllocator) findDescriptor(addr page.Addr) int32 {
	c := b.st
	base := page.Addr(buf.AlignDown(uint64(addr), uint64(b.classes.pageSize)))
	for di := c.first; di != noBlock; di = c.pool.slots[di].next {
		if c.pool.slots[di].page.Base == base {
			return di
		}
	}
	return noBlock
}

// coalesce merges the just-freed block (di, off) of rank with its buddy for as long
// as the buddy is entirely free, then pushes the result into its bucket.
func (b *BuddyAllocator) coalesce(di int32, off, rank int) {
	c := b.st
	d := &c.pool.slots[di]
	for rank < b.classes.topRank {
		size := b.classes.size(rank)
		buddy := off ^ size
		if !d.bits.rangeFree(buddy>>b.classes.shift, b.classes.span(rank)) {
			break
		}
		// An all-clear buddy that is not a whole free block of this rank would mean
		// an earlier merge was missed; keep the block as is.
		if !c.buckets.remove(rank, di, buddy) {
			break
		}
		off = min(off, buddy)
		rank++
		b.stats.CoalesceCount++
	}
	if rank == b.classes.topRank {
		d.bits.reset()
	}
	c.buckets.push(rank, di, off)
}

// teardown returns every resident page and auxiliary page to the provider and
// resets the allocator to its uninitialized state.
func (b *BuddyAllocator) teardown() error {
	c := b.st
	if c == nil {
		return nil
	}
	var errs []error
	for di := c.first; di != noBlock; {
		d := &c.pool.slots[di]
		next := d.next
		if err := b.p.ReleasePage(d.page.ID); err != nil {
			errs = append(errs, err)
		} else {
			b.stats.PagesReleased++
		}
		c.pool.release(di)
		di = next
	}
	aux := len(c.pool.auxPages)
	if err := c.pool.drain(); err != nil {
		errs = append(errs, err)
	} else {
		b.stats.AuxPagesReleased += aux
	}
	b.stats.Drains++
	b.stats.LiveRequested, b.stats.LiveGranted = 0, 0
	b.st = nil

	logger.L.Debug("buddy allocator drained", "pages", c.resident, "aux_pages", aux)
	if len(errs) > 0 {
		return fmt.Errorf("alloc: drain: %w", errors.Join(errs...))
	}
	return nil
}

// Reset returns every page to the provider regardless of outstanding allocations.
// Addresses handed out earlier become invalid.
func (b *BuddyAllocator) Reset() error {
	return b.teardown()
}

// Live reports whether allocator state exists (an allocation cycle is in progress).
func (b *BuddyAllocator) Live() bool { return b.st != nil }

// Outstanding returns the number of allocations not yet freed.
func (b *BuddyAllocator) Outstanding() int {
	if b.st == nil {
		return 0
	}
	return b.st.allocs - b.st.frees
}

// ResidentPages returns the number of user pages currently held.
func (b *BuddyAllocator) ResidentPages() int {
	if b.st == nil {
		return 0
	}
	return b.st.resident
}

// PageSize returns the provider's page size (the largest class).
func (b *BuddyAllocator) PageSize() int { return b.classes.pageSize }

// Classes returns the block size of every class, smallest first.
func (b *BuddyAllocator) Classes() []int {
	return append([]int(nil), b.classes.sizes...)
}

func (b *BuddyAllocator) strictCheck() error {
	if !b.cfg.Strict {
		return nil
	}
	return b.Verify()
}
