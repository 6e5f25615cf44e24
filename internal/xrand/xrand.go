// Package xrand provides the one random-integer primitive the workload
// harness needs: a uniformly distributed int in a closed-open range.
package xrand

import "math/rand"

// IntRange returns a pseudo-random integer in [lo, hi). Panics if hi <= lo,
// matching math/rand's own panic-on-nonpositive-n contract.
func IntRange(lo, hi int) int {
	return lo + rand.Intn(hi-lo)
}
