package page

import (
	"fmt"

	"github.com/joshuapare/kmakit/internal/buf"
	"github.com/joshuapare/kmakit/internal/logger"
)

// backing maps and unmaps the memory behind page slots.
type backing interface {
	mapPage(size int) ([]byte, error)

	// release is called when a page goes back to the table. keep reports whether the
	// slot should hold on to data for reuse.
	release(data []byte) (keep bool, err error)

	unmapPage(data []byte) error
}

// slot is one entry of the page table. A slot with data but !live is a cached
// mapping waiting to be reused.
type slot struct {
	data []byte
	live bool
}

// table is the page table shared by every provider.
type table struct {
	mem      backing
	pageSize int
	base     Addr
	maxPages int

	slots []slot
	free  []PageID // released slot IDs, reused LIFO

	stats  Stats
	closed bool
}

func newTable(pageSize int, opts *Options, mem backing) (*table, error) {
	if !buf.IsPow2(pageSize) {
		return nil, fmt.Errorf("%w: %d", ErrPageSize, pageSize)
	}
	var o Options
	if opts != nil {
		o = *opts
	}
	base := o.BaseAddr
	if base == 0 {
		base = DefaultBaseAddr
	}
	// Round up to a page multiple so masking an address yields its page base.
	ps := Addr(pageSize)
	base = (base + ps - 1) &^ (ps - 1)

	return &table{
		mem:      mem,
		pageSize: pageSize,
		base:     base,
		maxPages: o.MaxPages,
		slots:    make([]slot, 0, 16),
	}, nil
}

// PageSize returns the constant page size.
func (t *table) PageSize() int { return t.pageSize }

// AcquirePage hands out a zero-filled page.
func (t *table) AcquirePage() (Page, error) {
	if t.closed {
		return Page{}, ErrClosed
	}
	if t.maxPages > 0 && t.stats.InUse >= t.maxPages {
		return Page{}, fmt.Errorf("%w: limit of %d pages reached", ErrNoPages, t.maxPages)
	}

	var id PageID
	if n := len(t.free); n > 0 {
		id = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		id = PageID(len(t.slots))
		t.slots = append(t.slots, slot{})
	}

	s := &t.slots[id]
	if s.data == nil {
		data, err := t.mem.mapPage(t.pageSize)
		if err != nil {
			t.free = append(t.free, id)
			return Page{}, fmt.Errorf("%w: %w", ErrNoPages, err)
		}
		s.data = data
	}
	s.live = true

	t.stats.Requested++
	t.stats.InUse++
	t.stats.Peak = max(t.stats.Peak, t.stats.InUse)

	p := t.page(id)
	logger.L.Debug("page acquired", "id", p.ID, "base", fmt.Sprintf("0x%x", p.Base))
	return p, nil
}

// ReleasePage takes a page back.
func (t *table) ReleasePage(id PageID) error {
	if t.closed {
		return ErrClosed
	}
	if id < 0 || int(id) >= len(t.slots) || !t.slots[id].live {
		return fmt.Errorf("%w: %d", ErrBadPageID, id)
	}

	s := &t.slots[id]
	keep, err := t.mem.release(s.data)
	if err != nil {
		return fmt.Errorf("page: release %d: %w", id, err)
	}
	if !keep {
		s.data = nil
	}
	s.live = false
	t.free = append(t.free, id)

	t.stats.Freed++
	t.stats.InUse--
	logger.L.Debug("page released", "id", id)
	return nil
}

// Stats returns page accounting.
func (t *table) Stats() Stats { return t.stats }

func (t *table) page(id PageID) Page {
	return Page{
		ID:   id,
		Base: t.base + Addr(int(id)*t.pageSize),
		Size: t.pageSize,
		Data: t.slots[id].data,
	}
}

// close unmaps every slot, live or cached.
func (t *table) close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	var firstErr error
	for i := range t.slots {
		if t.slots[i].data == nil {
			continue
		}
		if err := t.mem.unmapPage(t.slots[i].data); err != nil && firstErr == nil {
			firstErr = err
		}
		t.slots[i] = slot{}
	}
	t.free = nil
	return firstErr
}
