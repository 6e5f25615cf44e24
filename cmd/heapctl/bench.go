package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/internal/testutil"
)

var (
	benchMutators   int
	benchAllocMin   int
	benchAllocMax   int
	benchAllocCount int
)

func init() {
	cmd := newBenchCmd()
	cmd.Flags().IntVar(&benchMutators, "mutators", 8, "Number of concurrent allocating goroutines")
	cmd.Flags().IntVar(&benchAllocMin, "alloc-min", 16, "Minimum allocation size in bytes")
	cmd.Flags().IntVar(&benchAllocMax, "alloc-max", 4096, "Maximum allocation size in bytes (exclusive)")
	cmd.Flags().IntVar(&benchAllocCount, "alloc-count", 10_000, "Allocations per mutator")
	rootCmd.AddCommand(cmd)
}

func newBenchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bench",
		Short: "Drive a synthetic concurrent allocation workload",
		Long: `bench spins up a heap and a number of goroutines, each issuing random
sized allocations against it, then reports how many succeeded versus how
many exhausted the heap even after a collection.

Example:
  heapctl bench --mutators 16 --alloc-max 8192`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench()
		},
	}
}

func runBench() error {
	m, err := buildManager()
	if err != nil {
		return err
	}
	defer m.Close()

	result := testutil.Run(testutil.WorkloadConfig{
		Mutators:   benchMutators,
		AllocMin:   benchAllocMin,
		AllocMax:   benchAllocMax,
		AllocCount: benchAllocCount,
	}, func(n uint32) bool {
		_, ok := m.Allocate(n)
		return ok
	})

	fmt.Fprintf(os.Stdout, "attempted: %d, succeeded: %d, failed: %d\n",
		result.Attempted, result.Succeeded, result.Attempted-result.Succeeded)
	return nil
}
