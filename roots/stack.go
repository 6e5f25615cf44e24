package roots

import "github.com/joshuapare/heapkit/heap"

// stackEntry is one variable slot on a Stack: its name, the scope it was
// pushed in, and the heap reference it currently points at (heap.NilRef if
// unset or removed).
type stackEntry struct {
	name  string
	scope uint64
	ref   heap.Ref
}

// Stack is a thread-local-style scoped stack of named variables, each
// holding a reference into the heap. Scopes nest: PushScope opens a new
// one, PopScope discards every variable pushed since the matching
// PushScope. It is not safe for concurrent use by multiple goroutines —
// mirroring the "thread local" assumption of the structure it's named
// after — callers needing concurrent roots should use one Stack per
// goroutine, registered under distinct Table keys.
type Stack struct {
	scope   uint64
	entries []stackEntry
	index   map[string]int
}

// NewStack returns a Stack with its first scope (scope 1) already open.
func NewStack() *Stack {
	return &Stack{scope: 1, index: make(map[string]int)}
}

// Init declares a new variable in the current scope, pointing it at ref
// (heap.NilRef is valid and means "not yet assigned").
func (s *Stack) Init(name string, ref heap.Ref) error {
	if _, ok := s.index[name]; ok {
		return ErrAlreadyDefined
	}
	s.entries = append(s.entries, stackEntry{name: name, scope: s.scope, ref: ref})
	s.index[name] = len(s.entries) - 1
	return nil
}

// ReassignRef points an already-declared variable at a new heap reference.
func (s *Stack) ReassignRef(name string, ref heap.Ref) error {
	idx, ok := s.index[name]
	if !ok {
		return ErrNotFound
	}
	s.entries[idx].ref = ref
	return nil
}

// RemoveRef clears an already-declared variable's reference, without
// removing the variable itself from scope.
func (s *Stack) RemoveRef(name string) error {
	idx, ok := s.index[name]
	if !ok {
		return ErrNotFound
	}
	s.entries[idx].ref = heap.NilRef
	return nil
}

// PushScope opens a new nested scope.
func (s *Stack) PushScope() {
	s.scope++
}

// PopScope closes the current scope, retiring every variable declared
// since the matching PushScope. Scope 1 (the stack's base scope) is only
// retired when force is true — mirroring the destructor's forced final
// pop versus an ordinary, in-band pop_scope call.
func (s *Stack) PopScope(force bool) {
	if (s.scope <= 1 && !force) || s.scope == 0 {
		return
	}
	for len(s.entries) > 0 && s.entries[len(s.entries)-1].scope == s.scope {
		last := s.entries[len(s.entries)-1]
		delete(s.index, last.name)
		s.entries = s.entries[:len(s.entries)-1]
	}
	s.scope--
}

// Accept dispatches to v.VisitStack.
func (s *Stack) Accept(v Visitor) { v.VisitStack(s) }

// Refs returns every non-nil heap reference currently live on the stack,
// for the collector's mark pass.
func (s *Stack) Refs() []heap.Ref {
	refs := make([]heap.Ref, 0, len(s.entries))
	for _, e := range s.entries {
		if !e.ref.IsNil() {
			refs = append(refs, e.ref)
		}
	}
	return refs
}
