// Package heap implements the segregated free-list memory beneath
// heapkit's managed heap: fixed-size segments, in-band block headers, and
// the per-segment allocation and coalescing logic. It has no notion of
// roots or garbage collection — those live in the roots and gc packages,
// composed together by the root heapkit package's Manager.
package heap
