package heap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/workqueue"
)

func testConfig() Config {
	return Config{
		SmallSegments:     2,
		MediumSegments:    1,
		LargeSegments:     1,
		SmallThreshold:    256,
		MediumThreshold:   2048,
		LargeThreshold:    256 * 1024,
		FastPathRetries:   3,
		MinSplitRemainder: HeaderSize + 16,
	}
}

func newTestDirectory(t *testing.T) *Directory {
	t.Helper()
	dir, err := NewDirectory(testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = dir.Close() })
	return dir
}

func newTestPool(t *testing.T) workqueue.Pool {
	t.Helper()
	pool, err := workqueue.NewPool(4)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func Test_NewDirectory_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.FastPathRetries = 0
	_, err := NewDirectory(cfg)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func Test_Directory_Allocate_SimpleFit(t *testing.T) {
	dir := newTestDirectory(t)

	ref, ok := dir.Allocate(64)
	require.True(t, ok)
	require.False(t, ref.IsNil())

	seg := dir.SegmentAt(ref.SegmentIndex())
	require.Equal(t, int32(64), ref.Size(seg))
	require.False(t, ref.IsFree(seg))
}

func Test_Directory_Allocate_SplitsRemainder(t *testing.T) {
	dir := newTestDirectory(t)

	ref, ok := dir.Allocate(64)
	require.True(t, ok)
	seg := dir.SegmentAt(ref.SegmentIndex())

	// 64 bytes leaves a remainder far above MinSplitRemainder, so the
	// segment's free-list head should now be a fresh free block covering
	// the rest of the segment (the allocated block itself is unlinked).
	remainder := dir.entry(ref.SegmentIndex()).freeListHead
	require.False(t, remainder.IsNil())
	require.True(t, remainder.IsFree(seg))
	require.Equal(t, int32(SegmentSize-2*HeaderSize-64), remainder.Size(seg))
}

func Test_Directory_Allocate_ExhaustsClassAndFails(t *testing.T) {
	cfg := testConfig()
	cfg.SmallSegments = 1
	dir, err := NewDirectory(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dir.Close() })

	var failed bool
	for i := 0; i < SegmentSize/16+10; i++ {
		if _, ok := dir.Allocate(200); !ok {
			failed = true
			break
		}
	}
	require.True(t, failed, "a single small segment must eventually exhaust")
}

func Test_Directory_Allocate_RoutesBySizeClass(t *testing.T) {
	dir := newTestDirectory(t)
	cfg := testConfig()

	smallRef, ok := dir.Allocate(64)
	require.True(t, ok)
	start, end := cfg.classRange(Small)
	require.GreaterOrEqual(t, smallRef.SegmentIndex(), start)
	require.Less(t, smallRef.SegmentIndex(), end)

	mediumRef, ok := dir.Allocate(1024)
	require.True(t, ok)
	start, end = cfg.classRange(Medium)
	require.GreaterOrEqual(t, mediumRef.SegmentIndex(), start)
	require.Less(t, mediumRef.SegmentIndex(), end)

	largeRef, ok := dir.Allocate(100_000)
	require.True(t, ok)
	start, end = cfg.classRange(Large)
	require.GreaterOrEqual(t, largeRef.SegmentIndex(), start)
	require.Less(t, largeRef.SegmentIndex(), end)
}

func Test_Directory_Allocate_RejectsOversizedRequest(t *testing.T) {
	dir := newTestDirectory(t)
	_, ok := dir.Allocate(1 << 30)
	require.False(t, ok)
}

func Test_Directory_CoalesceAll_MergesAdjacentFreeBlocks(t *testing.T) {
	cfg := testConfig()
	cfg.SmallSegments = 1
	dir, err := NewDirectory(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dir.Close() })

	pool := newTestPool(t)

	first, ok := dir.Allocate(64)
	require.True(t, ok)
	second, ok := dir.Allocate(64)
	require.True(t, ok)
	require.Equal(t, first.SegmentIndex(), second.SegmentIndex())

	seg := dir.SegmentAt(first.SegmentIndex())
	e := dir.entry(first.SegmentIndex())

	first.SetFree(seg, true)
	second.SetFree(seg, true)

	coalesced, err := dir.CoalesceAll(pool)
	require.NoError(t, err)
	require.Equal(t, 1, coalesced)

	// Every block in this segment is free after the two frees above,
	// so coalescing must merge them back into the original single
	// segment-sized free block, whose free-byte count is its payload plus
	// its header.
	require.False(t, e.freeListHead.IsNil())
	require.True(t, e.freeListHead.IsFree(seg))
	require.Equal(t, int32(SegmentSize-HeaderSize), e.freeListHead.Size(seg))
	require.Equal(t, int32(SegmentSize), e.freeBytes.Load())
}

func Test_Directory_CoalesceAll_TruncatesOnCorruption(t *testing.T) {
	cfg := testConfig()
	cfg.SmallSegments = 1
	dir, err := NewDirectory(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dir.Close() })

	pool := newTestPool(t)
	seg := dir.SegmentAt(0)
	root := seg.headerAt(0)
	root.SetSize(seg, 0)

	_, err = dir.CoalesceAll(pool)
	require.Error(t, err)

	e := dir.entry(0)
	require.True(t, e.freeListHead.IsNil())
	require.Zero(t, e.freeBytes.Load())
}

func Test_Directory_LockAll_RoundTrip(t *testing.T) {
	dir := newTestDirectory(t)
	unlock := dir.LockAll()

	locked := dir.entries[0].mu.TryLock()
	require.False(t, locked, "LockAll must hold every segment's mutex")

	unlock()

	_, ok := dir.Allocate(64)
	require.True(t, ok)
}
