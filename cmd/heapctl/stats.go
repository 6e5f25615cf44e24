package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	rootCmd.AddCommand(newStatsCmd())
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print segment occupancy for a freshly built heap",
		Long: `stats builds a heap with the configured segment counts and prints
each segment's free-byte count, formatted with thousands separators.

Example:
  heapctl stats --small-segments 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats()
		},
	}
}

func runStats() error {
	m, err := buildManager()
	if err != nil {
		return err
	}
	defer m.Close()

	p := message.NewPrinter(language.English)
	for i, free := range m.SegmentSnapshot() {
		p.Fprintf(os.Stdout, "segment %d: %d bytes free\n", i, free)
	}
	fmt.Fprintln(os.Stdout, "done")
	return nil
}
