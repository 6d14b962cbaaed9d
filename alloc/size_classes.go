package alloc

import (
	"fmt"

	"github.com/joshuapare/kmakit/internal/buf"
)

// classTable maps request sizes to power-of-two size classes.
// Rank r has size granule << r; the top rank is a whole page.
type classTable struct {
	granule  int
	pageSize int
	shift    int // log2(granule)
	sizes    []int
	granules int // granules per page
	topRank  int
}

func newClassTable(granule, pageSize int) (*classTable, error) {
	if !buf.IsPow2(granule) || granule < minGranule {
		return nil, fmt.Errorf("%w: granule %d must be a power of two >= %d", ErrConfig, granule, minGranule)
	}
	if !buf.IsPow2(pageSize) || pageSize < granule {
		return nil, fmt.Errorf("%w: page size %d must be a power of two >= granule %d", ErrConfig, pageSize, granule)
	}

	n := buf.Log2(pageSize/granule) + 1
	t := &classTable{
		granule:  granule,
		pageSize: pageSize,
		shift:    buf.Log2(granule),
		sizes:    make([]int, n),
		granules: pageSize / granule,
		topRank:  n - 1,
	}
	for r := range n {
		t.sizes[r] = granule << r
	}
	return t, nil
}

// rankFor returns the smallest class rank whose size is >= size.
// ok is false for sizes above one page.
func (t *classTable) rankFor(size int) (rank int, ok bool) {
	if size > t.pageSize {
		return 0, false
	}
	if size <= t.granule {
		return 0, true
	}
	return buf.Log2(buf.NextPow2(size)) - t.shift, true
}

// size returns the block size of rank.
func (t *classTable) size(rank int) int { return t.sizes[rank] }

// span returns the number of granules covered by a block of rank.
func (t *classTable) span(rank int) int { return 1 << rank }

// granulesFor returns ceil(size/granule).
func (t *classTable) granulesFor(size int) int { return buf.CeilDiv(size, t.granule) }

// NumClasses returns the number of size classes.
func (t *classTable) NumClasses() int { return len(t.sizes) }
