// Package buf contains bounds-checked slicing and the power-of-two arithmetic
// shared by the page providers and the allocator.
package buf

import "math/bits"

// IsPow2 reports whether n is a positive power of two.
func IsPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Log2 returns floor(log2(n)) for n > 0 and -1 otherwise.
//
//	Log2(1)    = 0
//	Log2(32)   = 5
//	Log2(8192) = 13
func Log2(n int) int {
	if n <= 0 {
		return -1
	}
	return bits.Len(uint(n)) - 1
}

// CeilDiv returns ceil(a/b) for a >= 0, b > 0.
func CeilDiv(a, b int) int {
	return (a + b - 1) / b
}

// NextPow2 returns the smallest power of two >= n (1 for n <= 1).
//
//	NextPow2(40)  = 64
//	NextPow2(64)  = 64
//	NextPow2(65)  = 128
func NextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// AlignDown rounds n down to a multiple of align (a power of two).
func AlignDown(n, align uint64) uint64 {
	return n &^ (align - 1)
}
