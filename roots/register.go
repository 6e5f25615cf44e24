package roots

import "github.com/joshuapare/heapkit/heap"

// Register is a single-slot root analogous to a CPU register holding a
// heap pointer: identical shape to Global, kept as a distinct type so
// the collector's Visitor dispatches on root kind rather than role.
type Register struct {
	ref heap.Ref
}

// NewRegister returns a Register pointing at ref (heap.NilRef for unset).
func NewRegister(ref heap.Ref) *Register {
	return &Register{ref: ref}
}

// Ref returns the reference currently held.
func (r *Register) Ref() heap.Ref { return r.ref }

// SetRef points the register at a new heap reference.
func (r *Register) SetRef(ref heap.Ref) { r.ref = ref }

// Clear nils the register's slot without removing it from its Table entry,
// distinct from Table.RemoveRoot, which drops the entry itself.
func (r *Register) Clear() { r.ref = heap.NilRef }

// Accept dispatches to v.VisitRegister.
func (r *Register) Accept(v Visitor) { v.VisitRegister(r) }
