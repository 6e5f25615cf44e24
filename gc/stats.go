package gc

import "time"

// CollectionStats summarizes one mark-sweep-coalesce cycle. Collect itself
// only fills in the mark/sweep fields (RootsVisited through Corrupted) and
// Duration, which covers mark and sweep only;
// SegmentsCoalesced is the directory's own accounting, filled in by
// Manager.CollectGarbage once it runs the coalescing pass that follows
// Collect.
type CollectionStats struct {
	RootsVisited      int
	BlocksMarked      int
	BlocksSwept       int
	BytesFreed        int64
	Corrupted         int
	SegmentsCoalesced int
	Duration          time.Duration
}
