package page

// MmapProvider hands out pages backed by anonymous memory mappings.
type MmapProvider struct {
	*table
}

var _ Provider = (*MmapProvider)(nil)

// NewMmap creates an mmap-backed provider of pageSize-byte pages.
// The page size must also be a multiple of the OS page size on mmap platforms.
func NewMmap(pageSize int, opts *Options) (*MmapProvider, error) {
	mem, err := newMmapBacking(pageSize)
	if err != nil {
		return nil, err
	}
	t, err := newTable(pageSize, opts, mem)
	if err != nil {
		return nil, err
	}
	return &MmapProvider{table: t}, nil
}

// Close unmaps every page, including cached ones. The provider is unusable afterwards.
func (p *MmapProvider) Close() error { return p.close() }
