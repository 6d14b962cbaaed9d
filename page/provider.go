package page

// Addr is a virtual address inside a provider's address space. Zero is the null address.
type Addr uint64

// PageID identifies a page handed out by a Provider.
type PageID int32

// DefaultBaseAddr is where the first page of a provider's address space starts.
const DefaultBaseAddr Addr = 0x1000_0000

// Page is one fixed-size, page-aligned memory block.
type Page struct {
	ID   PageID
	Base Addr   // multiple of Size
	Size int    // constant for a provider
	Data []byte // len(Data) == Size
}

// Provider supplies and reclaims pages.
//
// Implementations:
//   - HeapProvider: Go heap backed pages
//   - MmapProvider: anonymous mmap backed pages
type Provider interface {
	// PageSize returns the constant size of every page.
	PageSize() int

	// AcquirePage returns a fresh zero-filled page, or ErrNoPages.
	AcquirePage() (Page, error)

	// ReleasePage returns a page. Its memory must not be touched afterwards.
	ReleasePage(id PageID) error
}

// Options configures a provider. A nil *Options means defaults.
type Options struct {
	// MaxPages caps the number of simultaneously held pages (0 = unlimited).
	MaxPages int

	// BaseAddr is the address of page 0. Rounded up to a page multiple; zero means
	// DefaultBaseAddr.
	BaseAddr Addr
}

// Stats holds page accounting for a provider.
type Stats struct {
	Requested int `json:"requested"` // successful AcquirePage calls
	Freed     int `json:"freed"`     // successful ReleasePage calls
	InUse     int `json:"in_use"`    // pages currently handed out
	Peak      int `json:"peak"`      // maximum of InUse
}
