// Package workqueue provides the "submit a task, wait on a countdown"
// primitive used by the collector (mark/sweep tasks) and the heap
// directory (coalesce tasks) to fan work out and block until every task
// has run.
package workqueue

import (
	"github.com/panjf2000/ants/v2"
)

// Pool submits tasks to a bounded goroutine pool. Submit never blocks the
// caller beyond acquiring a free worker; Close releases the pool's workers.
type Pool interface {
	Submit(task func()) error
	Close()
}

// antsPool adapts github.com/panjf2000/ants/v2 to the Pool interface.
type antsPool struct {
	p *ants.Pool
}

// NewPool constructs a Pool backed by size workers. size <= 0 builds an ants
// pool with no upper bound on its worker count.
func NewPool(size int) (Pool, error) {
	opts := ants.Options{PreAlloc: false}
	var p *ants.Pool
	var err error
	if size > 0 {
		p, err = ants.NewPool(size, ants.WithOptions(opts))
	} else {
		p, err = ants.NewPool(-1, ants.WithOptions(opts))
	}
	if err != nil {
		return nil, err
	}
	return &antsPool{p: p}, nil
}

func (a *antsPool) Submit(task func()) error {
	return a.p.Submit(task)
}

func (a *antsPool) Close() {
	a.p.Release()
}
