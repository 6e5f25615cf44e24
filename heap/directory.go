package heap

import (
	"fmt"
	"sync"

	"go.uber.org/atomic"

	"github.com/joshuapare/heapkit/workqueue"
)

// directoryEntry tracks the free-list head and free-byte accounting for a
// single segment. The free-list head is guarded by mu; freeBytes is kept as
// an atomic so findSuitableSegment can reject segments without taking a lock.
type directoryEntry struct {
	seg *Segment

	mu           sync.Mutex
	freeListHead Ref

	freeBytes atomic.Int32
}

// Directory is the fixed array of per-segment bookkeeping for every segment
// in a heap, plus one rotating scan cursor per size class.
type Directory struct {
	cfg     Config
	entries []directoryEntry
	cursors [numClasses]atomic.Int32
}

// NewDirectory validates cfg and allocates every segment it calls for.
func NewDirectory(cfg Config) (*Directory, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return newDirectory(cfg)
}

func newDirectory(cfg Config) (*Directory, error) {
	d := &Directory{cfg: cfg, entries: make([]directoryEntry, cfg.totalSegments())}
	for i := range d.entries {
		seg, err := newSegment(i)
		if err != nil {
			d.closeUpTo(i)
			return nil, err
		}
		d.entries[i].seg = seg
		d.entries[i].freeListHead = newRef(i, 0)
		d.entries[i].freeBytes.Store(SegmentSize - HeaderSize)
	}
	return d, nil
}

func (d *Directory) closeUpTo(n int) {
	for i := 0; i < n; i++ {
		_ = d.entries[i].seg.Close()
	}
}

// Close releases every segment's backing memory.
func (d *Directory) Close() error {
	d.closeUpTo(len(d.entries))
	return nil
}

// NumSegments returns the total number of segments across every size class.
func (d *Directory) NumSegments() int { return len(d.entries) }

// SegmentAt returns the segment at directory index i.
func (d *Directory) SegmentAt(i int) *Segment { return d.entries[i].seg }

func (d *Directory) entry(i int) *directoryEntry { return &d.entries[i] }

// LockAll locks every segment's mutex in ascending index order and returns
// an UnlockAll function that releases them in the reverse order, mirroring
// the C++ source's array-of-lock_guards destruction order. Always locking
// in the same total order across every caller avoids deadlock between a
// concurrent CollectGarbage and the fast allocation path's per-segment
// TryLock (TryLock never blocks, so it can't participate in a deadlock
// cycle with a blocking LockAll).
func (d *Directory) LockAll() (unlock func()) {
	for i := range d.entries {
		d.entries[i].mu.Lock()
	}
	return func() {
		for i := len(d.entries) - 1; i >= 0; i-- {
			d.entries[i].mu.Unlock()
		}
	}
}

// cursorFor returns the rotating scan-start index for cls, validated to lie
// within that class's segment range; out-of-range values (including the
// zero value on first use, when the range doesn't start at 0) fall back to
// the range's start. See DESIGN.md open-question 3.
func (d *Directory) cursorFor(cls Class) int {
	start, end := d.cfg.classRange(cls)
	if end <= start {
		return start
	}
	c := int(d.cursors[cls].Load())
	if c < start || c >= end {
		return start
	}
	return c
}

func (d *Directory) advanceCursor(cls Class, idx int) {
	d.cursors[cls].Store(int32(idx))
}

// Allocate finds a segment in bytes' size class with enough free space and
// carves a block out of it. bytes must already be 16-byte-aligned. It
// returns (NilRef, false) when bytes exceeds every class's threshold, when
// no segment in the class reports enough free bytes, or when the chosen
// segment's free list has no single block large enough; a contended
// segment is waited for rather than skipped. It never errors — an
// out-of-memory condition is the caller's (Manager's) business, not the
// directory's.
func (d *Directory) Allocate(bytes uint32) (Ref, bool) {
	cls, ok := d.cfg.Classify(bytes)
	if !ok {
		return NilRef, false
	}
	idx := d.findSuitableSegment(cls, bytes)
	if idx < 0 {
		return NilRef, false
	}
	e := &d.entries[idx]
	e.mu.Lock()
	ref, ok := d.allocateFromSegment(idx, bytes)
	e.mu.Unlock()
	return ref, ok
}

// findSuitableSegment scans a size class's segments starting just after the
// class's rotating cursor, looking for one whose free-byte count can fit
// the request and whose lock is immediately available. While scanning it
// also remembers the largest free segment seen (even if its lock is busy)
// as a fallback: if no segment is both big-enough and uncontended, the
// fallback is used instead of failing outright, at the cost of a blocking
// lock acquisition inside Allocate.
func (d *Directory) findSuitableSegment(cls Class, bytes uint32) int {
	start, end := d.cfg.classRange(cls)
	count := end - start
	if count <= 0 {
		return -1
	}

	cursor := d.cursorFor(cls)
	startOffset := cursor - start

	fallbackIdx := -1
	var fallbackFree int32 = -1

	for offset := 0; offset < count; offset++ {
		relative := (startOffset + offset + 1) % count
		idx := start + relative

		e := &d.entries[idx]
		free := e.freeBytes.Load()
		if free < int32(bytes)+HeaderSize {
			continue
		}

		if fallbackIdx == -1 || fallbackFree < free {
			fallbackIdx = idx
			fallbackFree = free
		}

		if !e.mu.TryLock() {
			continue
		}
		e.mu.Unlock()

		d.advanceCursor(cls, idx)
		return idx
	}

	if fallbackIdx != -1 {
		d.advanceCursor(cls, fallbackIdx)
	}
	return fallbackIdx
}

// allocateFromSegment removes the first free block of at least bytes from
// segment idx's free list, splitting off any large-enough remainder as a
// new free block. Caller must hold the segment's lock.
func (d *Directory) allocateFromSegment(idx int, bytes uint32) (Ref, bool) {
	e := &d.entries[idx]
	seg := e.seg

	var prev Ref = NilRef
	current := e.freeListHead

	for !current.IsNil() {
		if current.IsFree(seg) && uint32(current.Size(seg)) >= bytes {
			break
		}
		prev = current
		current = current.Next(seg)
	}
	if current.IsNil() {
		return NilRef, false
	}

	remaining := uint32(current.Size(seg)) - bytes
	if remaining >= uint32(d.cfg.MinSplitRemainder) {
		newOff := current.Offset() + HeaderSize + int32(bytes)
		newHdr := newRef(idx, newOff)
		newHdr.SetSize(seg, int32(remaining)-HeaderSize)
		newHdr.SetNext(seg, current.Next(seg))
		newHdr.SetFree(seg, true)
		newHdr.SetMarked(seg, false)

		current.SetSize(seg, int32(bytes))
		current.SetNext(seg, newHdr)
	}

	current.SetFree(seg, false)
	current.SetMarked(seg, false)

	next := current.Next(seg)
	if prev.IsNil() {
		e.freeListHead = next
	} else {
		prev.SetNext(seg, next)
	}
	current.SetNext(seg, NilRef)

	e.freeBytes.Sub(current.Size(seg) + HeaderSize)
	return current, true
}

// coalesceSegment walks segment idx's header chain start to finish,
// forward-merging adjacent free blocks, and rebuilds the free list from
// whatever is free afterward. Caller must hold the segment's lock. A
// corrupted chain (zero size, or a header that would cross the segment
// boundary) truncates the walk at the point of corruption rather than
// panicking; whatever was coalesced up to that point is still published.
// It reports whether at least one forward merge happened, and whether the
// chain was corrupted — both purely diagnostic (spec.md's HeapCorruption
// condition is explicitly not propagated to the caller; CoalesceAll surfaces
// it only so Manager.CollectGarbage can log it, not to change behavior).
func (d *Directory) coalesceSegment(idx int) (merged, corrupted bool) {
	e := &d.entries[idx]
	seg := e.seg
	end := int32(len(seg.data))

	var freeList Ref = NilRef
	var freeBytes int32

	off := int32(0)
	for off+HeaderSize <= end {
		hdr := seg.headerAt(off)
		size := hdr.Size(seg)
		if size <= 0 || off+HeaderSize+size > end {
			corrupted = true
			break
		}

		for {
			nextOff := off + HeaderSize + hdr.Size(seg)
			if nextOff+HeaderSize > end {
				break
			}
			nextHdr := seg.headerAt(nextOff)
			if !hdr.IsFree(seg) || !nextHdr.IsFree(seg) {
				break
			}
			hdr.SetSize(seg, hdr.Size(seg)+HeaderSize+nextHdr.Size(seg))
			merged = true
		}

		if hdr.IsFree(seg) {
			hdr.SetNext(seg, freeList)
			freeList = hdr
			freeBytes += hdr.Size(seg) + HeaderSize
		}

		off += HeaderSize + hdr.Size(seg)
	}

	e.freeListHead = freeList
	e.freeBytes.Store(freeBytes)
	return merged, corrupted
}

// CoalesceAll runs coalesceSegment across every segment in parallel via
// pool, blocking until every segment has been processed. Caller must hold
// every segment's lock (normally via a prior LockAll, as part of
// Manager.CollectGarbage's STW section). It returns the number of segments
// that had at least one pair of adjacent free blocks merged, for
// gc.CollectionStats.SegmentsCoalesced.
func (d *Directory) CoalesceAll(pool workqueue.Pool) (int, error) {
	var coalesced, corrupted atomic.Int32
	err := workqueue.Run(pool, len(d.entries), func(i int) {
		merged, bad := d.coalesceSegment(i)
		if merged {
			coalesced.Inc()
		}
		if bad {
			corrupted.Inc()
		}
	})
	if err != nil {
		return int(coalesced.Load()), err
	}
	if n := corrupted.Load(); n > 0 {
		return int(coalesced.Load()), fmt.Errorf("heap: %d segment(s) had a corrupted header chain during coalesce", n)
	}
	return int(coalesced.Load()), nil
}

// Snapshot returns a point-in-time free-byte count for every segment,
// ordered by directory index, for stats reporting.
func (d *Directory) Snapshot() []int32 {
	out := make([]int32, len(d.entries))
	for i := range d.entries {
		out[i] = d.entries[i].freeBytes.Load()
	}
	return out
}

// reset reinitializes every segment to a single free block and clears
// accounting. Used by tests to restore a Directory to its freshly
// constructed state without reallocating segment memory.
func (d *Directory) reset() {
	for i := range d.entries {
		e := &d.entries[i]
		e.mu.Lock()
		e.seg.reset()
		e.freeListHead = newRef(i, 0)
		e.freeBytes.Store(SegmentSize - HeaderSize)
		e.mu.Unlock()
	}
}
