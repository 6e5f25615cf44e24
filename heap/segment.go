package heap

// SegmentSize is the fixed size, in bytes, of a single heap segment (4 MiB).
const SegmentSize = 4 * 1024 * 1024

// Segment is a contiguous, fixed-size region of the heap, carved into one
// or more blocks threaded through in-band headers. A freshly constructed
// segment holds exactly one header at offset 0 spanning the whole region.
type Segment struct {
	index int
	data  []byte
	// release, when non-nil, returns the backing buffer to the OS.
	// nil on the plain-memory fallback, where the GC reclaims it normally.
	release func()
}

// newSegment allocates and initializes a segment at the given heap index.
func newSegment(index int) (*Segment, error) {
	data, release, err := allocSegmentMemory(SegmentSize)
	if err != nil {
		return nil, err
	}

	seg := &Segment{index: index, data: data, release: release}
	seg.reset()
	return seg, nil
}

// reset re-initializes the segment to its fresh state: a single free
// header at offset 0 spanning the entire region.
func (s *Segment) reset() {
	for i := range s.data {
		s.data[i] = 0
	}
	root := newRef(s.index, 0)
	root.SetSize(s, SegmentSize-HeaderSize)
	root.SetFree(s, true)
	root.SetMarked(s, false)
	root.SetNext(s, NilRef)
}

// Index returns this segment's position in the heap's segment array.
func (s *Segment) Index() int { return s.index }

// Bytes exposes the raw backing buffer. Callers outside this package use
// it only through Ref accessors; exported for instrumentation/tests.
func (s *Segment) Bytes() []byte { return s.data }

// Close releases the segment's backing memory, if the platform allocator
// requires explicit release (mmap does; the plain-memory fallback does not).
func (s *Segment) Close() error {
	if s.release != nil {
		s.release()
		s.release = nil
	}
	return nil
}

// headerAt returns a Ref for the header that starts at the given byte
// offset within this segment.
func (s *Segment) headerAt(offset int32) Ref {
	return newRef(s.index, offset)
}

// Walk invokes fn for every header in the segment, in ascending offset
// order, stopping early if fn returns false. It guards against corrupted
// chains: a zero size or a header that would cross the segment boundary
// halts the walk (see gc.Collector's HeapCorruption handling).
func (s *Segment) Walk(fn func(Ref) bool) (truncated bool) {
	off := int32(0)
	end := int32(len(s.data))
	for off+HeaderSize <= end {
		hdr := s.headerAt(off)
		size := hdr.Size(s)
		// A zero or negative size, or one that would cross the segment
		// boundary, is corruption per spec.md's HeapCorruption
		// condition: truncate the walk rather than loop forever.
		if size <= 0 || off+HeaderSize+size > end {
			return true
		}
		if !fn(hdr) {
			return false
		}
		off += HeaderSize + size
	}
	return false
}
