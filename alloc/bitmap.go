package alloc

import "math/bits"

// bitmap tracks per-granule occupancy of one page. Bit i is set iff granule i is
// part of an allocated block. The backing bytes live in an auxiliary page.
// Callers guarantee indexes are within the page.
type bitmap []byte

func (m bitmap) set(i int) { m[i>>3] |= 1 << (i & 7) }

func (m bitmap) clear(i int) { m[i>>3] &^= 1 << (i & 7) }

func (m bitmap) test(i int) bool { return m[i>>3]&(1<<(i&7)) != 0 }

// reset clears every bit.
func (m bitmap) reset() {
	for i := range m {
		m[i] = 0
	}
}

func (m bitmap) setRange(i, n int) {
	for ; n > 0; i, n = i+1, n-1 {
		m.set(i)
	}
}

func (m bitmap) clearRange(i, n int) {
	for ; n > 0; i, n = i+1, n-1 {
		m.clear(i)
	}
}

// rangeFree reports whether granules [i, i+n) are all clear.
func (m bitmap) rangeFree(i, n int) bool {
	for ; n > 0 && i&7 != 0; i, n = i+1, n-1 {
		if m.test(i) {
			return false
		}
	}
	for ; n >= 8; i, n = i+8, n-8 {
		if m[i>>3] != 0 {
			return false
		}
	}
	for ; n > 0; i, n = i+1, n-1 {
		if m.test(i) {
			return false
		}
	}
	return true
}

// count returns the number of set bits.
func (m bitmap) count() int {
	n := 0
	for _, b := range m {
		n += bits.OnesCount8(b)
	}
	return n
}

// render returns one character per granule: '#' set, '.' clear.
func (m bitmap) render(granules int) string {
	out := make([]byte, granules)
	for i := range granules {
		if m.test(i) {
			out[i] = '#'
		} else {
			out[i] = '.'
		}
	}
	return string(out)
}
