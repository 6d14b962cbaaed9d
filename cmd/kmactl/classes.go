package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/kmakit/alloc"
)

var classesAlloc = allocFlags{pageSize: 8192, granule: alloc.DefaultGranule, provider: "heap"}

func init() {
	cmd := newClassesCmd()
	cmd.Flags().IntVar(&classesAlloc.pageSize, "page-size", 8192, "Page size in bytes (power of two)")
	cmd.Flags().IntVar(&classesAlloc.granule, "granule", alloc.DefaultGranule, "Smallest block size in bytes (power of two)")
	rootCmd.AddCommand(cmd)
}

func newClassesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classes",
		Short: "List the size classes of a page configuration",
		Long: `The classes command lists every buddy size class for a page size and
granule, with the number of granules and blocks per page of each class.

Example:
  kmactl classes
  kmactl classes --page-size 4096 --granule 16 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClasses()
		},
	}
	return cmd
}

// ClassInfo describes one size class.
type ClassInfo struct {
	Rank     int `json:"rank"`
	Size     int `json:"size"`
	Granules int `json:"granules"`
	PerPage  int `json:"per_page"`
}

func runClasses() error {
	src, ba, err := classesAlloc.open()
	if err != nil {
		return err
	}
	defer src.Close()

	sizes := ba.Classes()
	classes := make([]ClassInfo, len(sizes))
	for r, size := range sizes {
		classes[r] = ClassInfo{
			Rank:     r,
			Size:     size,
			Granules: size / sizes[0],
			PerPage:  ba.PageSize() / size,
		}
	}

	if jsonOut {
		return printJSON(classes)
	}

	printInfo("\nSize classes: page %s bytes, granule %s bytes\n",
		formatNumber(ba.PageSize()), formatNumber(sizes[0]))
	printInfo("%s\n", strings.Repeat("=", 40))
	printInfo("  %4s  %8s  %8s  %8s\n", "rank", "size", "granules", "per page")
	for _, c := range classes {
		printInfo("  %4d  %8s  %8s  %8s\n",
			c.Rank, formatNumber(c.Size), formatNumber(c.Granules), formatNumber(c.PerPage))
	}
	return nil
}
