// Package gc implements the mark-sweep collector: marking every block
// reachable from a root table, then sweeping every segment to free
// whatever wasn't marked. It knows nothing about allocation or
// coalescing — those stay in the heap package, composed alongside this
// one by the root heapkit package's Manager during a stop-the-world
// collection.
package gc
