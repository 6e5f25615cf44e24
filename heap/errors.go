package heap

import "errors"

// ErrInvalidConfig is returned by NewDirectory when a Config fails
// validation: zero segments across every class, a non-positive fast-path
// retry budget, a threshold ordering that leaves a class unreachable, or a
// MinSplitRemainder smaller than a header. Manager's own
// constructor reuses it for its worker-count validation (spec.md §7's
// InvalidConfig condition covers both "zero hash-map capacity" and "zero
// workers").
var ErrInvalidConfig = errors.New("heap: invalid config")
