// Package testutil provides an allocation-workload driver for exercising
// a Manager under concurrent load. It exists purely for benchmarks, tests,
// and the heapctl bench subcommand — the heap, gc, roots, and workqueue
// packages never import it.
package testutil

import (
	"sync"

	"github.com/joshuapare/heapkit/internal/xrand"
)

// WorkloadConfig tunes the simulated allocation pattern.
type WorkloadConfig struct {
	Mutators   int
	AllocMin   int
	AllocMax   int
	AllocCount int
}

// WorkloadResult reports what a Run call observed.
type WorkloadResult struct {
	Attempted int64
	Succeeded int64
}

// Run spawns cfg.Mutators goroutines, each calling alloc cfg.AllocCount
// times with a uniformly random size in [cfg.AllocMin, cfg.AllocMax),
// and reports how many allocations succeeded.
func Run(cfg WorkloadConfig, alloc func(n uint32) bool) WorkloadResult {
	var attempted, succeeded int64
	var mu sync.Mutex
	var wg sync.WaitGroup

	wg.Add(cfg.Mutators)
	for i := 0; i < cfg.Mutators; i++ {
		go func() {
			defer wg.Done()
			var localAttempted, localSucceeded int64
			for j := 0; j < cfg.AllocCount; j++ {
				size := xrand.IntRange(cfg.AllocMin, cfg.AllocMax)
				localAttempted++
				if alloc(uint32(size)) {
					localSucceeded++
				}
			}
			mu.Lock()
			attempted += localAttempted
			succeeded += localSucceeded
			mu.Unlock()
		}()
	}
	wg.Wait()

	return WorkloadResult{Attempted: attempted, Succeeded: succeeded}
}
