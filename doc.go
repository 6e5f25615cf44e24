// Package heapkit composes the heap, gc, roots, and workqueue packages
// into a single concurrent, collected heap: Manager.Allocate hands out
// blocks, Manager.CollectGarbage reclaims what's no longer reachable from
// the registered roots.
package heapkit
