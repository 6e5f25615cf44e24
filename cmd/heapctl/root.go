package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	smallSegments  int
	mediumSegments int
	largeSegments  int

	managerWorkers   int
	collectorWorkers int
)

var rootCmd = &cobra.Command{
	Use:   "heapctl",
	Short: "Inspect and drive a heapkit-managed heap",
	Long: `heapctl builds an in-process heapkit.Manager and either reports
its segment occupancy or drives a synthetic allocation workload against
it, for exercising the allocator and collector outside of a test binary.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().IntVar(&smallSegments, "small-segments", 4, "Number of small-object segments")
	rootCmd.PersistentFlags().IntVar(&mediumSegments, "medium-segments", 2, "Number of medium-object segments")
	rootCmd.PersistentFlags().IntVar(&largeSegments, "large-segments", 2, "Number of large-object segments")
	rootCmd.PersistentFlags().IntVar(&managerWorkers, "manager-workers", 4, "Workers in the coalescing pool")
	rootCmd.PersistentFlags().IntVar(&collectorWorkers, "collector-workers", 4, "Workers in the mark/sweep pool")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	execute()
}
