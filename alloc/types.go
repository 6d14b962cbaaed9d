package alloc

import "github.com/joshuapare/kmakit/page"

// Allocator defines the malloc/free contract shared by allocation strategies.
//
// Implementations:
//   - BuddyAllocator: binary buddy system with per-page bitmaps
type Allocator interface {
	// Alloc returns the address of a block of at least size bytes and a view of its
	// first size bytes. The view's capacity is the full block.
	Alloc(size int) (page.Addr, []byte, error)

	// Free returns the block at addr. size must equal the value passed to Alloc.
	Free(addr page.Addr, size int) error
}

// DefaultGranule is the minimum block size.
const DefaultGranule = 32

// minGranule keeps per-page bookkeeping smaller than a page.
const minGranule = 8

// Config configures a BuddyAllocator. A nil *Config means DefaultConfig.
type Config struct {
	// Granule is the minimum allocation unit. Power of two, >= 8.
	Granule int

	// Strict runs the full invariant check after every Alloc and Free and fails
	// the call with ErrCorrupt on violation. Slow; for tests and trace replay.
	Strict bool
}

// DefaultConfig is used when NewBuddy gets a nil config.
var DefaultConfig = Config{Granule: DefaultGranule}
