package roots

import "github.com/joshuapare/heapkit/heap"

// Global is a single-slot root, analogous to a global variable: exactly
// one heap reference, settable at any time.
type Global struct {
	ref heap.Ref
}

// NewGlobal returns a Global pointing at ref (heap.NilRef for unset).
func NewGlobal(ref heap.Ref) *Global {
	return &Global{ref: ref}
}

// Ref returns the reference currently held.
func (g *Global) Ref() heap.Ref { return g.ref }

// SetRef points the global at a new heap reference.
func (g *Global) SetRef(ref heap.Ref) { g.ref = ref }

// Clear nils the global's slot without removing it from its Table entry,
// distinct from Table.RemoveRoot, which drops the entry itself.
func (g *Global) Clear() { g.ref = heap.NilRef }

// Accept dispatches to v.VisitGlobal.
func (g *Global) Accept(v Visitor) { v.VisitGlobal(g) }
