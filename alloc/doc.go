// Package alloc provides a buddy-system allocator over fixed-size pages.
//
// # Overview
//
// BuddyAllocator hands out blocks of power-of-two sizes carved from pages supplied
// by a page.Provider. It exposes a malloc/free style contract:
//
//   - Alloc(size): return the address and a byte view of a block of at least size bytes
//   - Free(addr, size): return a block; size must match the Alloc call
//
// # Size Classes
//
// Block sizes are granule * 2^k, from the granule (32 bytes by default) up to one
// full page. With the default 8KB page there are 9 classes:
//
//	Class 0:   32 bytes
//	Class 1:   64 bytes
//	Class 2:  128 bytes
//	...
//	Class 8: 8192 bytes (whole page)
//
// Each class has a free-list bucket. Requests round up to the smallest class that
// fits.
//
// # Splitting and Coalescing
//
// A miss in the target bucket takes the next larger free block, or a fresh page,
// and halves it until it reaches the target class. The lower half is always kept
// and the upper half is pushed to the bucket of its size, so the buddy of a block
// at page offset o with size s is always at o ^ s.
//
// Free walks the buddy relation upward: while the buddy's granules are all clear in
// the page bitmap, the buddy is unlinked from its bucket and the pair merges into a
// block of twice the size at min(o, o^s). Merging stops at the first busy buddy or
// at a whole page.
//
// # Bookkeeping
//
// Nothing is ever written into user memory. Each resident page has a descriptor
// holding its occupancy bitmap (one bit per granule) and a table of allocated block
// classes. Descriptor storage is carved out of auxiliary pages requested from the
// same provider, replenished one page at a time when the slot stack runs dry.
// Free-list entries live in an index-based arena.
//
// # Lifecycle
//
// The allocator state is created lazily on the first successful Alloc. When the
// number of Free calls catches up with the number of Alloc calls, every page
// (user and auxiliary) goes back to the provider and the state resets; the next
// Alloc starts from scratch. A page that is internally free stays resident until
// that global drain.
//
// # Usage Example
//
//	p, err := page.NewHeap(8192, nil)
//	if err != nil {
//	    return err
//	}
//	ba, err := alloc.NewBuddy(p, nil)
//	if err != nil {
//	    return err
//	}
//
//	addr, buf, err := ba.Alloc(40)
//	if err != nil {
//	    return err
//	}
//	copy(buf, payload)
//
//	err = ba.Free(addr, 40)
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Callers must synchronize access externally.
package alloc
