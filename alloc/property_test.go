package alloc

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/kmakit/page"
)

type liveBlock struct {
	addr page.Addr
	size int
	data []byte
	seed byte
}

// Test_Fuzz_RandomAllocFree runs random alloc/free sequences in strict mode and
// checks that no block's contents are disturbed by other operations.
func Test_Fuzz_RandomAllocFree(t *testing.T) {
	for _, seed := range []int64{1, 42, 12345} {
		ba, p := newTestBuddy(t, nil)
		rng := rand.New(rand.NewSource(seed)) // Fixed seed for reproducibility

		var live []liveBlock
		for i := range 2000 {
			if len(live) == 0 || rng.Intn(100) < 55 {
				size := 1 + rng.Intn(testPageSize)
				if rng.Intn(4) > 0 {
					size = 1 + rng.Intn(256) // mostly small
				}
				addr, data, err := ba.Alloc(size)
				require.NoError(t, err, "seed %d step %d: Alloc(%d)", seed, i, size)
				blk := liveBlock{addr: addr, size: size, data: data, seed: byte(rng.Intn(256))}
				fill(blk.data, blk.seed)
				live = append(live, blk)
			} else {
				idx := rng.Intn(len(live))
				blk := live[idx]
				requirePattern(t, blk.data, blk.seed)
				require.NoError(t, ba.Free(blk.addr, blk.size), "seed %d step %d", seed, i)
				live[idx] = live[len(live)-1]
				live = live[:len(live)-1]
			}
			require.Equal(t, len(live), ba.Outstanding())
		}

		for _, blk := range live {
			requirePattern(t, blk.data, blk.seed)
		}
		for _, blk := range live {
			require.NoError(t, ba.Free(blk.addr, blk.size))
		}
		require.False(t, ba.Live(), "seed %d", seed)
		require.Zero(t, p.Stats().InUse, "seed %d", seed)

		s := ba.GetStats()
		require.Equal(t, s.PagesAcquired, s.PagesReleased)
		require.Equal(t, s.AuxPagesAcquired, s.AuxPagesReleased)
		require.Zero(t, s.LiveGranted)
	}
}

// Test_Fuzz_Conservation checks that free and allocated bytes of every resident
// page add up to the page size, and that granted bytes match the class sizes.
func Test_Fuzz_Conservation(t *testing.T) {
	ba, _ := newTestBuddy(t, nil)
	rng := rand.New(rand.NewSource(7))

	var live []liveBlock
	var granted int64
	for range 400 {
		if len(live) > 0 && rng.Intn(3) == 0 {
			idx := rng.Intn(len(live))
			require.NoError(t, ba.Free(live[idx].addr, live[idx].size))
			granted -= int64(cap(live[idx].data))
			live[idx] = live[len(live)-1]
			live = live[:len(live)-1]
			continue
		}
		size := 1 + rng.Intn(1500)
		addr, data, err := ba.Alloc(size)
		require.NoError(t, err)
		granted += int64(cap(data))
		live = append(live, liveBlock{addr: addr, size: size, data: data})

		total := 0
		for _, ps := range ba.Snapshot() {
			sum := 0
			for _, blk := range ps.Allocated {
				sum += blk.Size
				total += blk.Size
			}
			for _, blk := range ps.Free {
				sum += blk.Size
			}
			require.Equal(t, testPageSize, sum, "page %d", ps.ID)
		}
		require.Equal(t, granted, int64(total))
		require.Equal(t, granted, ba.GetStats().LiveGranted)
	}
	require.NoError(t, ba.Reset())
}

func Benchmark_Buddy_SteadyState(b *testing.B) {
	p, err := page.NewHeap(testPageSize, nil)
	if err != nil {
		b.Fatal(err)
	}
	ba, err := NewBuddy(p, nil)
	if err != nil {
		b.Fatal(err)
	}

	type held struct {
		addr page.Addr
		size int
	}
	allocated := make([]held, 0, 1000)
	for range 500 {
		addr, _, _ := ba.Alloc(128)
		allocated = append(allocated, held{addr, 128})
	}

	b.ReportAllocs()
	rng := rand.New(rand.NewSource(42))

	for b.Loop() {
		shouldAlloc := len(allocated) < 500 || (len(allocated) < 700 && rng.Float32() < 0.5)
		if !shouldAlloc {
			idx := rng.Intn(len(allocated))
			if err := ba.Free(allocated[idx].addr, allocated[idx].size); err != nil {
				b.Fatal(err)
			}
			allocated[idx] = allocated[len(allocated)-1]
			allocated = allocated[:len(allocated)-1]
		} else {
			size := 16 + rng.Intn(1024)
			addr, _, err := ba.Alloc(size)
			if err != nil {
				b.Fatal(err)
			}
			allocated = append(allocated, held{addr, size})
		}
	}
}
