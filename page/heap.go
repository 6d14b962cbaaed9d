package page

// HeapProvider hands out pages allocated on the Go heap.
type HeapProvider struct {
	*table
}

var _ Provider = (*HeapProvider)(nil)

// NewHeap creates a heap-backed provider of pageSize-byte pages.
func NewHeap(pageSize int, opts *Options) (*HeapProvider, error) {
	t, err := newTable(pageSize, opts, heapBacking{})
	if err != nil {
		return nil, err
	}
	return &HeapProvider{table: t}, nil
}

// Close drops every page. The provider is unusable afterwards.
func (p *HeapProvider) Close() error { return p.close() }

type heapBacking struct{}

func (heapBacking) mapPage(size int) ([]byte, error) { return make([]byte, size), nil }

func (heapBacking) release([]byte) (bool, error) { return false, nil }

func (heapBacking) unmapPage([]byte) error { return nil }
