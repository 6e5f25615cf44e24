package heapkit

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/joshuapare/heapkit/gc"
	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/pkg/metrics"
	"github.com/joshuapare/heapkit/roots"
	"github.com/joshuapare/heapkit/workqueue"
)

// debugAlloc is a compile-time toggle for periodic allocator-state dumps,
// following hive/alloc/fastalloc.go's debugAlloc/logAlloc pattern.
const debugAlloc = false

// logAlloc enables per-allocation tracing to stderr, controlled by the
// HEAP_LOG_ALLOC environment variable.
var logAlloc = os.Getenv("HEAP_LOG_ALLOC") != ""

// Manager is the entry point: a Directory of segments, a root Table, and
// a Collector, wired together with the single-flight collection protocol
// described in spec.md §4.G/§4.H.
type Manager struct {
	cfg heap.Config
	dir *heap.Directory

	roots     *roots.Table
	collector *gc.Collector

	// managerPool runs the directory's coalescing pass; collectorPool runs
	// the collector's mark and sweep fan-out — spec.md §5's "two worker
	// pools: one for the heap manager (coalescing) and one for the
	// collector (marking + sweeping)".
	managerPool       workqueue.Pool
	collectorPool     workqueue.Pool
	ownsManagerPool   bool
	ownsCollectorPool bool

	log    *slog.Logger
	metric *metrics.Registry

	allocCalls atomic.Int64

	gcInProgress atomic.Bool
	gcMu         sync.Mutex
	gcCond       *sync.Cond
}

// Option configures optional dependencies on a Manager.
type Option func(*Manager)

// WithLogger injects a *slog.Logger used for warnings (corrupted segment
// chains, pool submission failures). Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithMetrics injects a *metrics.Registry. A nil Registry (the default)
// makes every recorded metric a no-op.
func WithMetrics(reg *metrics.Registry) Option {
	return func(m *Manager) { m.metric = reg }
}

// WithManagerPool injects a pre-built workqueue.Pool for the coalescing
// pass, overriding the pool New would otherwise build from managerWorkers.
func WithManagerPool(pool workqueue.Pool) Option {
	return func(m *Manager) { m.managerPool = pool }
}

// WithCollectorPool injects a pre-built workqueue.Pool for the collector's
// mark/sweep fan-out, overriding the pool New would otherwise build from
// collectorWorkers.
func WithCollectorPool(pool workqueue.Pool) Option {
	return func(m *Manager) { m.collectorPool = pool }
}

// New constructs a Manager over cfg's size classes, allocating every
// segment cfg calls for up front, plus the two worker pools spec.md §5
// requires: managerWorkers workers for coalescing, collectorWorkers workers
// for marking and sweeping. Per spec.md §6's construct contract, New fails
// with heap.ErrInvalidConfig if either count is <= 0, even when a
// WithManagerPool/WithCollectorPool option will go on to replace the pool
// built from it.
func New(cfg heap.Config, managerWorkers, collectorWorkers int, opts ...Option) (*Manager, error) {
	if managerWorkers <= 0 || collectorWorkers <= 0 {
		return nil, heap.ErrInvalidConfig
	}

	dir, err := heap.NewDirectory(cfg)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:   cfg,
		dir:   dir,
		roots: roots.NewTable(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	if m.managerPool == nil {
		pool, err := workqueue.NewPool(managerWorkers)
		if err != nil {
			_ = dir.Close()
			return nil, fmt.Errorf("heapkit: build manager worker pool: %w", err)
		}
		m.managerPool = pool
		m.ownsManagerPool = true
	}
	if m.collectorPool == nil {
		pool, err := workqueue.NewPool(collectorWorkers)
		if err != nil {
			if m.ownsManagerPool {
				m.managerPool.Close()
			}
			_ = dir.Close()
			return nil, fmt.Errorf("heapkit: build collector worker pool: %w", err)
		}
		m.collectorPool = pool
		m.ownsCollectorPool = true
	}
	m.collector = gc.New(m.collectorPool, m.log, m.metric)
	m.gcCond = sync.NewCond(&m.gcMu)
	return m, nil
}

// Close releases every segment's backing memory and, for each worker pool
// this Manager built itself, shuts it down.
func (m *Manager) Close() error {
	if m.ownsManagerPool {
		m.managerPool.Close()
	}
	if m.ownsCollectorPool {
		m.collectorPool.Close()
	}
	return m.dir.Close()
}

// Allocate rounds n up to the nearest 16 bytes and hands back a reference
// to a free block of at least that size, or (heap.NilRef, false) if
// n == 0, exceeds every size class's threshold, or the heap has no room
// even after a collection.
func (m *Manager) Allocate(n uint32) (heap.Ref, bool) {
	if n == 0 {
		return heap.NilRef, false
	}
	bytes := roundUp16(n)

	calls := m.allocCalls.Inc()
	if debugAlloc && calls%25000 == 0 {
		m.log.Debug("heapkit: allocator stats", "calls", calls, "segments", m.dir.Snapshot())
	}
	if logAlloc {
		fmt.Fprintf(os.Stderr, "[ALLOC] request: %d bytes -> aligned %d bytes\n", n, bytes)
	}

	for i := 0; i < m.cfg.FastPathRetries; i++ {
		if ref, ok := m.dir.Allocate(bytes); ok {
			m.observeAllocation(bytes, true)
			return ref, true
		}
	}

	if logAlloc {
		fmt.Fprintf(os.Stderr, "[ALLOC] fast path exhausted for %d bytes, triggering collection\n", bytes)
	}
	m.triggerCollection()

	ref, ok := m.dir.Allocate(bytes)
	m.observeAllocation(bytes, ok)
	if !ok {
		return heap.NilRef, false
	}
	return ref, true
}

func (m *Manager) observeAllocation(bytes uint32, ok bool) {
	cls, _ := m.cfg.Classify(bytes)
	m.metric.ObserveAllocation(classLabel(cls), ok, int(bytes))
}

func classLabel(cls heap.Class) string {
	switch cls {
	case heap.Small:
		return "small"
	case heap.Medium:
		return "medium"
	case heap.Large:
		return "large"
	default:
		return "unknown"
	}
}

func roundUp16(n uint32) uint32 {
	return (n + 15) &^ 15
}

// triggerCollection implements the single-flight GC protocol: the first
// caller to observe gcInProgress==false runs the collection and wakes
// everyone else; every other concurrent caller parks on gcCond until it's
// done. This stands in for std::atomic<bool>::wait/notify_all, which Go's
// atomic package doesn't expose — spec.md §9 sanctions the mutex+condvar
// substitute explicitly.
func (m *Manager) triggerCollection() {
	if m.gcInProgress.CompareAndSwap(false, true) {
		m.CollectGarbage()
		m.gcMu.Lock()
		m.gcInProgress.Store(false)
		m.gcCond.Broadcast()
		m.gcMu.Unlock()
		return
	}

	m.gcMu.Lock()
	for m.gcInProgress.Load() {
		m.gcCond.Wait()
	}
	m.gcMu.Unlock()
}

// CollectGarbage runs a full stop-the-world collection: every root and
// every segment is locked for its duration. It is safe to call directly
// (spec.md's "warning: may be expensive if called frequently" applies
// here too), independent of the single-flight protocol Allocate uses
// internally.
func (m *Manager) CollectGarbage() {
	start := time.Now()

	m.roots.Lock()
	defer m.roots.Unlock()

	unlock := m.dir.LockAll()
	defer unlock()

	stats := m.collector.Collect(m.roots, m.dir)

	segmentsCoalesced, err := m.dir.CoalesceAll(m.managerPool)
	if err != nil {
		m.log.Warn("heapkit: coalescing pass reported an error", "error", err)
	}
	stats.SegmentsCoalesced = segmentsCoalesced

	m.log.Debug("heapkit: collection complete",
		"roots_visited", stats.RootsVisited,
		"blocks_marked", stats.BlocksMarked,
		"blocks_swept", stats.BlocksSwept,
		"bytes_freed", stats.BytesFreed,
		"corrupted_segments", stats.Corrupted,
		"segments_coalesced", stats.SegmentsCoalesced,
		"duration", time.Since(start))
}

// AddRoot registers root under key, replacing any existing root at that
// key.
func (m *Manager) AddRoot(key string, root roots.Root) { m.roots.AddRoot(key, root) }

// GetRoot returns the root registered under key, if any.
func (m *Manager) GetRoot(key string) (roots.Root, bool) { return m.roots.GetRoot(key) }

// RemoveRoot unregisters key.
func (m *Manager) RemoveRoot(key string) { m.roots.RemoveRoot(key) }

// ClearRoots removes every registered root.
func (m *Manager) ClearRoots() { m.roots.Clear() }

// SegmentSnapshot returns a point-in-time free-byte count per segment,
// for diagnostics (heapctl stats).
func (m *Manager) SegmentSnapshot() []int32 { return m.dir.Snapshot() }
