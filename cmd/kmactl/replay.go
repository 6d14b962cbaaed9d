package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/kmakit/alloc"
	"github.com/joshuapare/kmakit/internal/trace"
)

var (
	replayAlloc allocFlags
	replayPages bool
	replayStats bool
	replayFast  bool
)

func init() {
	cmd := newReplayCmd()
	cmd.Flags().IntVar(&replayAlloc.pageSize, "page-size", 8192, "Page size in bytes (power of two)")
	cmd.Flags().IntVar(&replayAlloc.granule, "granule", alloc.DefaultGranule, "Smallest block size in bytes (power of two)")
	cmd.Flags().StringVar(&replayAlloc.provider, "provider", "heap", "Page provider: heap or mmap")
	cmd.Flags().IntVar(&replayAlloc.maxPages, "max-pages", 0, "Cap on pages held at once (0 = unlimited)")
	cmd.Flags().BoolVar(&replayAlloc.strict, "check", false, "Verify allocator invariants after every operation")
	cmd.Flags().BoolVar(&replayPages, "pages", false, "Show page occupancy maps at peak usage")
	cmd.Flags().BoolVar(&replayStats, "stats", false, "Show allocator counters")
	cmd.Flags().BoolVar(&replayFast, "no-verify", false, "Skip writing and checking block contents")
	rootCmd.AddCommand(cmd)
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <trace>",
		Short: "Replay an allocation trace",
		Long: `The replay command runs a REQUEST/FREE trace against the buddy allocator.
Every block is filled with a pattern derived from its id and checked before it is
freed. The report shows peak requested bytes, peak pages and the resulting
utilization.

Example:
  kmactl replay 1.trace
  kmactl replay 1.trace --check --pages
  kmactl replay 1.trace --provider mmap --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(args)
		},
	}
	return cmd
}

// ReplayReport is the JSON form of a replay.
type ReplayReport struct {
	Trace     string               `json:"trace"`
	Ops       int                  `json:"ops"`
	Result    *trace.Result        `json:"result"`
	Allocator *alloc.Stats         `json:"allocator,omitempty"`
	Pages     []alloc.PageSnapshot `json:"pages,omitempty"`
}

func runReplay(args []string) error {
	tracePath := args[0]

	printVerbose("Reading trace: %s\n", tracePath)
	f, err := os.Open(tracePath)
	if err != nil {
		return fmt.Errorf("failed to open trace: %w", err)
	}
	ops, err := trace.Parse(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", tracePath, err)
	}
	printVerbose("Parsed %s operations\n", formatNumber(len(ops)))

	src, ba, err := replayAlloc.open()
	if err != nil {
		return err
	}
	defer src.Close()

	var peak []alloc.PageSnapshot
	opts := &trace.ReplayOptions{SkipVerify: replayFast}
	if replayPages {
		best := -1
		opts.OnStep = func(int, trace.Op) {
			if n := ba.ResidentPages(); n > best {
				best = n
				peak = ba.Snapshot()
			}
		}
	}

	res, err := trace.Replay(ba, src, ops, opts)
	if err != nil {
		if rerr := ba.Reset(); rerr != nil {
			printVerbose("Warning: reset after failure: %v\n", rerr)
		}
		return fmt.Errorf("%s: %w", tracePath, err)
	}

	if jsonOut {
		report := ReplayReport{Trace: tracePath, Ops: len(ops), Result: res, Pages: peak}
		if replayStats {
			s := ba.GetStats()
			report.Allocator = &s
		}
		return printJSON(report)
	}

	printInfo("\nReplay: %s\n", tracePath)
	printInfo("%s\n\n", strings.Repeat("=", 40))
	printInfo("Operations:\n")
	printInfo("  Requests: %s\n", formatNumber(res.Requests))
	printInfo("  Frees: %s\n", formatNumber(res.Frees))
	printInfo("  Bytes requested: %s (%s)\n\n", formatNumber(res.BytesRequested), formatBytes(res.BytesRequested))

	printInfo("Utilization:\n")
	printInfo("  Page size: %s bytes\n", formatNumber(res.PageSize))
	printInfo("  Peak requested: %s (%s)\n", formatNumber(res.PeakRequested), formatBytes(res.PeakRequested))
	printInfo("  Peak pages: %s (%s)\n", formatNumber(res.PeakPages),
		formatBytes(int64(res.PeakPages)*int64(res.PageSize)))
	printInfo("  Pages after replay: %s\n", formatNumber(res.FinalPages))
	printInfo("  Efficiency: %s\n", formatPercent(res.Efficiency))

	if replayStats && !quiet {
		ba.PrintStats(os.Stdout)
	}
	if len(peak) > 0 && !quiet {
		printInfo("\nPages at peak (%d):\n", len(peak))
		renderPages(os.Stdout, peak, noColor)
	}
	return nil
}
