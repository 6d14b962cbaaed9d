package trace

import (
	"fmt"

	"github.com/joshuapare/kmakit/alloc"
	"github.com/joshuapare/kmakit/internal/logger"
	"github.com/joshuapare/kmakit/page"
)

// PageCounter reports page accounting for the provider behind an allocator.
type PageCounter interface {
	PageSize() int
	Stats() page.Stats
}

// ReplayOptions configures Replay. A nil *ReplayOptions means defaults.
type ReplayOptions struct {
	// SkipVerify disables writing and checking the per-id data pattern.
	SkipVerify bool

	// OnStep, if set, is called after every successful operation.
	OnStep func(step int, op Op)
}

// Result holds the statistics of a replay.
type Result struct {
	Requests       int   `json:"requests"`
	Frees          int   `json:"frees"`
	BytesRequested int64 `json:"bytes_requested"` // sum of all request sizes
	PeakRequested  int64 `json:"peak_requested"`  // maximum of live requested bytes
	PeakPages      int   `json:"peak_pages"`      // maximum provider pages in use
	FinalPages     int   `json:"final_pages"`     // provider pages in use after the last op
	PageSize       int   `json:"page_size"`

	// Efficiency is PeakRequested / (PeakPages * PageSize).
	Efficiency float64 `json:"efficiency"`
}

type liveBlock struct {
	addr page.Addr
	data []byte
}

// Replay runs ops against a. Each block is filled with a pattern derived from its
// id, and the pattern is checked before the block is freed, so overlapping blocks
// show up as ErrDataCorrupt.
func Replay(a alloc.Allocator, pc PageCounter, ops []Op, opts *ReplayOptions) (*Result, error) {
	var o ReplayOptions
	if opts != nil {
		o = *opts
	}

	res := &Result{PageSize: pc.PageSize()}
	live := make(map[int]liveBlock)
	var liveBytes int64
	baseline := pc.Stats().InUse

	for step, op := range ops {
		switch op.Kind {
		case Request:
			if _, ok := live[op.ID]; ok {
				return res, fmt.Errorf("%s: %w: %d", where(step, op), ErrDuplicateID, op.ID)
			}
			addr, data, err := a.Alloc(op.Size)
			if err != nil {
				return res, fmt.Errorf("%s: %w", where(step, op), err)
			}
			if !o.SkipVerify {
				fillPattern(data, op.ID)
			}
			live[op.ID] = liveBlock{addr: addr, data: data}
			res.Requests++
			res.BytesRequested += int64(op.Size)
			liveBytes += int64(op.Size)
			res.PeakRequested = max(res.PeakRequested, liveBytes)

		case Free:
			blk, ok := live[op.ID]
			if !ok {
				return res, fmt.Errorf("%s: %w: %d", where(step, op), ErrUnknownID, op.ID)
			}
			if !o.SkipVerify {
				if i := checkPattern(blk.data, op.ID); i >= 0 {
					return res, fmt.Errorf("%s: %w: id %d at 0x%x, byte %d",
						where(step, op), ErrDataCorrupt, op.ID, blk.addr, i)
				}
			}
			if err := a.Free(blk.addr, len(blk.data)); err != nil {
				return res, fmt.Errorf("%s: %w", where(step, op), err)
			}
			delete(live, op.ID)
			res.Frees++
			liveBytes -= int64(len(blk.data))

		default:
			return res, fmt.Errorf("%s: %w: kind %d", where(step, op), ErrSyntax, op.Kind)
		}

		res.PeakPages = max(res.PeakPages, pc.Stats().InUse-baseline)
		if o.OnStep != nil {
			o.OnStep(step, op)
		}
	}

	res.FinalPages = pc.Stats().InUse - baseline
	if res.PeakPages > 0 {
		res.Efficiency = float64(res.PeakRequested) / float64(res.PeakPages*res.PageSize)
	}
	logger.L.Debug("replay finished",
		"ops", len(ops), "peak_pages", res.PeakPages, "efficiency", res.Efficiency)
	return res, nil
}

func where(step int, op Op) string {
	if op.Line > 0 {
		return fmt.Sprintf("line %d (%s)", op.Line, op)
	}
	return fmt.Sprintf("op %d (%s)", step, op)
}

func fillPattern(data []byte, id int) {
	seed := byte(id*131 + 7)
	for i := range data {
		data[i] = seed + byte(i)
	}
}

// checkPattern returns the index of the first byte that differs from the pattern,
// or -1.
func checkPattern(data []byte, id int) int {
	seed := byte(id*131 + 7)
	for i := range data {
		if data[i] != seed+byte(i) {
			return i
		}
	}
	return -1
}
