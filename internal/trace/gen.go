package trace

import "math/rand/v2"

// GenOptions shapes a generated trace.
type GenOptions struct {
	// Seed for reproducibility
	Seed uint64

	// Requests is the number of REQUEST lines (0 = DefaultRequests)
	Requests int

	// MaxSize bounds request sizes, inclusive (0 = DefaultMaxSize)
	MaxSize int

	// FreeRatio is the chance of freeing a live block instead of requesting a new
	// one, 0.0-1.0 (0 = DefaultFreeRatio)
	FreeRatio float64
}

// Generate produces a valid trace. Every requested id is freed by the end, so
// replaying it against a buddy allocator ends with all pages returned.
//
// Sizes are skewed towards small requests: three quarters fall in the lowest
// sixteenth of the range.
func Generate(opts GenOptions) []Op {
	if opts.Requests <= 0 {
		opts.Requests = DefaultRequests
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.FreeRatio <= 0 || opts.FreeRatio >= 1 {
		opts.FreeRatio = DefaultFreeRatio
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	ops := make([]Op, 0, 2*opts.Requests)
	var live []int
	nextID := 0

	for nextID < opts.Requests {
		if len(live) > 0 && rng.Float64() < opts.FreeRatio {
			i := rng.IntN(len(live))
			ops = append(ops, Op{Kind: Free, ID: live[i]})
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
			continue
		}
		ops = append(ops, Op{Kind: Request, ID: nextID, Size: genSize(rng, opts.MaxSize)})
		live = append(live, nextID)
		nextID++
	}

	rng.Shuffle(len(live), func(i, j int) { live[i], live[j] = live[j], live[i] })
	for _, id := range live {
		ops = append(ops, Op{Kind: Free, ID: id})
	}
	return ops
}

func genSize(rng *rand.Rand, maxSize int) int {
	small := max(maxSize/16, 1)
	if rng.IntN(4) > 0 {
		return 1 + rng.IntN(small)
	}
	return 1 + rng.IntN(maxSize)
}
