package heap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Segment_Reset_SingleFreeHeader(t *testing.T) {
	seg := newTestSegment(t)

	var seen []Ref
	truncated := seg.Walk(func(r Ref) bool {
		seen = append(seen, r)
		return true
	})

	require.False(t, truncated)
	require.Len(t, seen, 1)
	require.Equal(t, int32(SegmentSize-HeaderSize), seen[0].Size(seg))
	require.True(t, seen[0].IsFree(seg))
}

func Test_Segment_Walk_StopsOnZeroSize(t *testing.T) {
	seg := newTestSegment(t)
	root := seg.headerAt(0)
	root.SetSize(seg, 0)

	var count int
	truncated := seg.Walk(func(Ref) bool {
		count++
		return true
	})

	require.True(t, truncated)
	require.Zero(t, count)
}

func Test_Segment_Walk_StopsOnOutOfBoundsSize(t *testing.T) {
	seg := newTestSegment(t)
	root := seg.headerAt(0)
	root.SetSize(seg, int32(SegmentSize))

	truncated := seg.Walk(func(Ref) bool { return true })
	require.True(t, truncated)
}

func Test_Segment_Walk_EarlyStop(t *testing.T) {
	seg := newTestSegment(t)
	root := seg.headerAt(0)
	root.SetSize(seg, 32)
	second := newRef(seg.index, HeaderSize+32)
	second.SetSize(seg, SegmentSize-2*HeaderSize-32)
	second.SetFree(seg, true)
	root.SetNext(seg, second)

	var visited int
	seg.Walk(func(Ref) bool {
		visited++
		return false
	})
	require.Equal(t, 1, visited)
}
