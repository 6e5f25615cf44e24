package heap

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"
)

// HeaderSize is the fixed size, in bytes, of a block header.
//
// Layout (16 bytes total):
//
//	offset 0:  next  (uint32) — free-list link, segment-relative offset plus one (0 = none); unused while allocated
//	offset 4:  size  (uint32) — payload byte count, excluding this header
//	offset 8:  flags (uint32) — bit 0 = free, bit 1 = marked; upper bits reserved
//	offset 12: reserved (uint32)
const HeaderSize = 16

const (
	flagFree   uint32 = 1 << 0
	flagMarked uint32 = 1 << 1
)

const (
	offNext  = 0
	offSize  = 4
	offFlags = 8
)

// Ref is an opaque handle to a block header: a segment index plus a
// byte offset within that segment's buffer. It carries no bytes of its
// own — all accessors read and write through the owning Segment.
type Ref struct {
	segment int32
	offset  int32
}

// NilRef is the sentinel Ref meaning "no block". It is distinct from the
// zero-value Ref, which names the block at offset 0 of segment 0 (offset 0
// is always a legal header position — every segment's initial free block
// sits there).
var NilRef = Ref{segment: -1, offset: -1}

// IsNil reports whether r refers to no block.
func (r Ref) IsNil() bool { return r.segment < 0 }

// SegmentIndex returns the index of the segment that owns this block.
func (r Ref) SegmentIndex() int { return int(r.segment) }

// Offset returns the byte offset of this block's header within its segment.
func (r Ref) Offset() int32 { return r.offset }

func newRef(segment int, offset int32) Ref {
	return Ref{segment: int32(segment), offset: offset}
}

// flagsPtr returns a *uint32 aliasing the flags word inside seg's buffer.
// Header offsets are always 16-byte aligned and the flags word sits at
// offset+8, so the resulting pointer is always 4-byte aligned — a
// requirement the atomic package does not check but silently relies on.
func (r Ref) flagsPtr(seg *Segment) *uint32 {
	return (*uint32)(unsafe.Pointer(&seg.data[r.offset+offFlags]))
}

// Next returns the free-list successor link, or NilRef if there is none.
// Valid only while the block sits on a free list.
func (r Ref) Next(seg *Segment) Ref {
	raw := binary.LittleEndian.Uint32(seg.data[r.offset+offNext:])
	if raw == 0 {
		return NilRef
	}
	return newRef(seg.index, int32(raw)-1)
}

// SetNext sets the free-list successor link, or clears it when next is nil.
func (r Ref) SetNext(seg *Segment, next Ref) {
	var raw uint32
	if !next.IsNil() {
		raw = uint32(next.offset) + 1
	}
	binary.LittleEndian.PutUint32(seg.data[r.offset+offNext:], raw)
}

// Size returns the payload byte count (excluding the header).
func (r Ref) Size(seg *Segment) int32 {
	return int32(binary.LittleEndian.Uint32(seg.data[r.offset+offSize:]))
}

// SetSize sets the payload byte count (excluding the header).
func (r Ref) SetSize(seg *Segment, size int32) {
	binary.LittleEndian.PutUint32(seg.data[r.offset+offSize:], uint32(size))
}

// IsFree reports the free bit (acquire load).
func (r Ref) IsFree(seg *Segment) bool {
	return atomic.LoadUint32(r.flagsPtr(seg))&flagFree != 0
}

// IsMarked reports the marked bit (acquire load).
func (r Ref) IsMarked(seg *Segment) bool {
	return atomic.LoadUint32(r.flagsPtr(seg))&flagMarked != 0
}

// SetFree atomically sets or clears the free bit (release semantics),
// preserving all other bits including the reserved upper bits.
func (r Ref) SetFree(seg *Segment, free bool) {
	setFlagBit(r.flagsPtr(seg), flagFree, free)
}

// SetMarked atomically sets or clears the marked bit (release semantics).
func (r Ref) SetMarked(seg *Segment, marked bool) {
	setFlagBit(r.flagsPtr(seg), flagMarked, marked)
}

// MarkOr atomically ORs the marked bit in, returning whether it was
// already set. Used by the collector, where many roots may race to mark
// the same block; fetch-or with release semantics makes the race safe.
func (r Ref) MarkOr(seg *Segment) (wasMarked bool) {
	p := r.flagsPtr(seg)
	for {
		old := atomic.LoadUint32(p)
		if old&flagMarked != 0 {
			return true
		}
		if atomic.CompareAndSwapUint32(p, old, old|flagMarked) {
			return false
		}
	}
}

func setFlagBit(p *uint32, bit uint32, set bool) {
	for {
		old := atomic.LoadUint32(p)
		var next uint32
		if set {
			next = old | bit
		} else {
			next = old &^ bit
		}
		if next == old || atomic.CompareAndSwapUint32(p, old, next) {
			return
		}
	}
}

// Payload returns the block's data slice, i.e. the bytes immediately
// following the header, sized to the block's current payload size.
func (r Ref) Payload(seg *Segment) []byte {
	size := r.Size(seg)
	start := r.offset + HeaderSize
	return seg.data[start : start+size]
}
