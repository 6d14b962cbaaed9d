package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/kmakit/internal/trace"
)

var (
	genOpts   trace.GenOptions
	genOutput string
)

func init() {
	cmd := newGenCmd()
	cmd.Flags().Uint64Var(&genOpts.Seed, "seed", 1, "Random seed")
	cmd.Flags().IntVar(&genOpts.Requests, "requests", trace.DefaultRequests, "Number of REQUEST operations")
	cmd.Flags().IntVar(&genOpts.MaxSize, "max-size", trace.DefaultMaxSize, "Largest request size in bytes")
	cmd.Flags().Float64Var(&genOpts.FreeRatio, "free-ratio", trace.DefaultFreeRatio, "Chance of a FREE while blocks are live")
	cmd.Flags().StringVarP(&genOutput, "output", "o", "", "Output file (default stdout)")
	rootCmd.AddCommand(cmd)
}

func newGenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a random allocation trace",
		Long: `The gen command writes a random REQUEST/FREE trace. Every request is freed
by the end of the trace, and the same seed always produces the same trace.

Example:
  kmactl gen --seed 7 --requests 5000 -o 7.trace
  kmactl gen --max-size 512 | kmactl replay /dev/stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen()
		},
	}
	return cmd
}

func runGen() error {
	ops := trace.Generate(genOpts)

	var w io.Writer = os.Stdout
	if genOutput != "" {
		f, err := os.Create(genOutput)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	header := fmt.Sprintf("%s seed=%d requests=%d max-size=%d free-ratio=%g\n",
		trace.CommentPrefix, genOpts.Seed, genOpts.Requests, genOpts.MaxSize, genOpts.FreeRatio)
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	if err := trace.Write(w, ops); err != nil {
		return fmt.Errorf("failed to write trace: %w", err)
	}
	if genOutput != "" {
		printVerbose("Wrote %s operations to %s\n", formatNumber(len(ops)), genOutput)
	}
	return nil
}
