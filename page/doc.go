// Package page supplies fixed-size, page-aligned memory pages to allocators.
//
// # Overview
//
// A Provider hands out pages of a single size chosen at construction and takes them
// back by ID. Every page carries a virtual base address that is a multiple of the page
// size, so an allocator can recover a page base from any address inside it by masking
// off the low bits:
//
//	base := page.Addr(buf.AlignDown(uint64(addr), uint64(p.PageSize())))
//
// Address zero is never handed out and serves as the null address.
//
// # Implementations
//
// HeapProvider: pages are ordinary Go byte slices. Released pages are dropped and
// reclaimed by the garbage collector.
//
// MmapProvider: pages are anonymous private mappings outside the Go heap. Released
// mappings are kept and advised away (MADV_DONTNEED) so a recycled page comes back
// zero-filled without another mmap call. Close unmaps everything. On platforms without
// mmap it falls back to heap pages.
//
// Both share the same page table: IDs are slot indexes, released IDs are reused
// most-recently-released first, and an optional MaxPages cap turns exhaustion into
// ErrNoPages.
//
// # Thread Safety
//
// Providers are not thread-safe. Callers must serialize access.
package page
