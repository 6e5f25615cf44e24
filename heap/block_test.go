package heap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestSegment(t *testing.T) *Segment {
	t.Helper()
	seg, err := newSegment(0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = seg.Close() })
	return seg
}

func Test_Ref_SizeAndNextRoundTrip(t *testing.T) {
	seg := newTestSegment(t)
	root := seg.headerAt(0)

	root.SetSize(seg, 128)
	require.Equal(t, int32(128), root.Size(seg))

	next := newRef(seg.index, 256)
	root.SetNext(seg, next)
	require.Equal(t, next, root.Next(seg))

	root.SetNext(seg, NilRef)
	require.True(t, root.Next(seg).IsNil())
}

func Test_Ref_FreeAndMarkedFlags(t *testing.T) {
	seg := newTestSegment(t)
	ref := seg.headerAt(0)

	require.True(t, ref.IsFree(seg), "fresh segment's root header starts free")
	require.False(t, ref.IsMarked(seg))

	ref.SetFree(seg, false)
	require.False(t, ref.IsFree(seg))

	ref.SetMarked(seg, true)
	require.True(t, ref.IsMarked(seg))

	ref.SetFree(seg, true)
	require.True(t, ref.IsFree(seg))
	require.True(t, ref.IsMarked(seg), "SetFree must not disturb the marked bit")
}

func Test_Ref_MarkOr(t *testing.T) {
	seg := newTestSegment(t)
	ref := seg.headerAt(0)

	wasMarked := ref.MarkOr(seg)
	require.False(t, wasMarked)
	require.True(t, ref.IsMarked(seg))

	wasMarked = ref.MarkOr(seg)
	require.True(t, wasMarked)
}

func Test_Ref_Payload(t *testing.T) {
	seg := newTestSegment(t)
	ref := seg.headerAt(0)
	ref.SetSize(seg, 64)

	payload := ref.Payload(seg)
	require.Len(t, payload, 64)

	payload[0] = 0xAB
	require.Equal(t, byte(0xAB), seg.data[HeaderSize])
}

func Test_NilRef_IsNil(t *testing.T) {
	require.True(t, NilRef.IsNil())
	require.False(t, newRef(0, 0).IsNil())
}
