package gc

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.uber.org/atomic"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/pkg/metrics"
	"github.com/joshuapare/heapkit/roots"
	"github.com/joshuapare/heapkit/workqueue"
)

// debugGC is a compile-time toggle for dumping each corrupted segment found
// during sweep, following hive/alloc/fastalloc.go's debugAlloc/logAlloc
// pattern.
const debugGC = false

// logGC enables per-collection tracing to stderr, controlled by the
// HEAP_LOG_GC environment variable.
var logGC = os.Getenv("HEAP_LOG_GC") != ""

// Collector runs mark and sweep phases across a heap.Directory, fanning
// work out through an injected worker pool.
type Collector struct {
	pool   workqueue.Pool
	log    *slog.Logger
	metric *metrics.Registry
}

// New returns a Collector that submits mark/sweep tasks to pool. log may
// be nil (defaults to slog.Default()); metric may be nil (metrics become
// no-ops).
func New(pool workqueue.Pool, log *slog.Logger, metric *metrics.Registry) *Collector {
	if log == nil {
		log = slog.Default()
	}
	return &Collector{pool: pool, log: log, metric: metric}
}

// Collect marks every block reachable from table, then sweeps every
// segment in dir: marked blocks are unmarked for next time, unmarked
// blocks are freed. Callers (Manager.CollectGarbage) are responsible for
// holding table's lock and every segment's lock for the duration of this
// call — Collect itself takes no locks.
func (c *Collector) Collect(table *roots.Table, dir *heap.Directory) CollectionStats {
	start := time.Now()

	if logGC {
		// table is already locked by the caller (Manager.CollectGarbage) for
		// the duration of this call, so Count (which takes the same lock)
		// cannot be called here without deadlocking; segments is all we log
		// up front.
		fmt.Fprintf(os.Stderr, "[GC] starting collection: segments=%d\n", dir.NumSegments())
	}

	rootsVisited := atomic.NewInt64(0)
	blocksMarked := atomic.NewInt64(0)

	mv := &markVisitor{dir: dir, blocksMarked: blocksMarked}

	var tasks []func()
	table.Each(func(_ string, root roots.Root) {
		rootsVisited.Inc()
		r := root
		tasks = append(tasks, func() { r.Accept(mv) })
	})
	if err := runAll(c.pool, tasks); err != nil {
		c.log.Warn("gc: mark task submission failed", "error", err)
	}

	blocksSwept := atomic.NewInt64(0)
	bytesFreed := atomic.NewInt64(0)
	corrupted := atomic.NewInt64(0)

	n := dir.NumSegments()
	if err := workqueue.Run(c.pool, n, func(i int) {
		swept, freed, ok := c.sweepSegment(dir.SegmentAt(i))
		blocksSwept.Add(int64(swept))
		bytesFreed.Add(int64(freed))
		if !ok {
			corrupted.Inc()
			c.log.Warn("gc: truncated corrupted segment during sweep", "segment", i)
			if debugGC {
				dumpSegmentState(dir.SegmentAt(i))
			}
		}
	}); err != nil {
		c.log.Warn("gc: sweep task submission failed", "error", err)
	}

	stats := CollectionStats{
		RootsVisited: int(rootsVisited.Load()),
		BlocksMarked: int(blocksMarked.Load()),
		BlocksSwept:  int(blocksSwept.Load()),
		BytesFreed:   bytesFreed.Load(),
		Corrupted:    int(corrupted.Load()),
		Duration:     time.Since(start),
	}
	c.metric.ObserveCollection(stats.Duration.Seconds(), stats.BytesFreed)

	if logGC {
		fmt.Fprintf(os.Stderr, "[GC] complete: roots=%d marked=%d swept=%d freed=%d corrupted=%d duration=%s\n",
			stats.RootsVisited, stats.BlocksMarked, stats.BlocksSwept, stats.BytesFreed, stats.Corrupted, stats.Duration)
	}
	return stats
}

// dumpSegmentState writes a corrupted segment's index and buffer length to
// stderr for debugging, gated behind debugGC.
func dumpSegmentState(seg *heap.Segment) {
	fmt.Fprintf(os.Stderr, "[GC] segment %d corrupted: %d bytes\n", seg.Index(), len(seg.Bytes()))
}

func runAll(pool workqueue.Pool, tasks []func()) error {
	return workqueue.Run(pool, len(tasks), func(i int) { tasks[i]() })
}

// sweepSegment clears the marked bit on every marked block and frees
// every block that wasn't marked. It returns false if the header chain
// was corrupt (a zero-size or out-of-bounds header truncated the walk).
func (c *Collector) sweepSegment(seg *heap.Segment) (swept int, bytesFreed int64, ok bool) {
	truncated := seg.Walk(func(ref heap.Ref) bool {
		if ref.IsMarked(seg) {
			ref.SetMarked(seg, false)
			return true
		}
		if !ref.IsFree(seg) {
			swept++
			bytesFreed += int64(ref.Size(seg)) + heap.HeaderSize
		}
		ref.SetFree(seg, true)
		return true
	})
	return swept, bytesFreed, !truncated
}

// markVisitor implements roots.Visitor, OR-ing the marked bit onto every
// non-nil reference a root holds.
type markVisitor struct {
	dir          *heap.Directory
	blocksMarked *atomic.Int64
}

func (m *markVisitor) mark(ref heap.Ref) {
	if ref.IsNil() {
		return
	}
	seg := m.dir.SegmentAt(ref.SegmentIndex())
	if wasMarked := ref.MarkOr(seg); !wasMarked {
		m.blocksMarked.Inc()
	}
}

func (m *markVisitor) VisitStack(s *roots.Stack) {
	for _, ref := range s.Refs() {
		m.mark(ref)
	}
}

func (m *markVisitor) VisitGlobal(g *roots.Global) {
	m.mark(g.Ref())
}

func (m *markVisitor) VisitRegister(r *roots.Register) {
	m.mark(r.Ref())
}
