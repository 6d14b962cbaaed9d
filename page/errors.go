package page

import "errors"

var (
	// ErrNoPages indicates the provider cannot supply another page.
	ErrNoPages = errors.New("page: no pages available")

	// ErrBadPageID indicates a release of a page that is not currently handed out.
	ErrBadPageID = errors.New("page: bad page id")

	// ErrPageSize indicates a page size that is not a positive power of two.
	ErrPageSize = errors.New("page: page size must be a power of two")

	// ErrClosed indicates use of a provider after Close.
	ErrClosed = errors.New("page: provider closed")
)
