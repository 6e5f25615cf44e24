package roots

import "sync"

// Table is the process-wide collection of named roots, each one a Stack,
// Global, or Register. A single mutex serializes every operation,
// including the collector's full walk during a collection — so that
// adding or removing a root can never race with marking.
type Table struct {
	mu    sync.Mutex
	roots map[string]Root
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{roots: make(map[string]Root)}
}

// AddRoot registers root under key, replacing any existing root at that
// key.
func (t *Table) AddRoot(key string, root Root) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.roots[key] = root
}

// GetRoot returns the root registered under key, if any.
func (t *Table) GetRoot(key string) (Root, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.roots[key]
	return r, ok
}

// RemoveRoot unregisters key, a no-op if it isn't present.
func (t *Table) RemoveRoot(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.roots, key)
}

// Clear removes every root.
func (t *Table) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.roots = make(map[string]Root)
}

// Count returns the number of registered roots.
func (t *Table) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.roots)
}

// Lock and Unlock let a collection hold the table locked for its entire
// duration, matching the root-set lock_guard scope in the source this
// table's contract is drawn from. Callers outside this package's own
// methods should use Lock/Unlock only to bracket a full collection; normal
// reads/writes go through AddRoot/GetRoot/RemoveRoot/Clear.
func (t *Table) Lock() { t.mu.Lock() }

// Unlock releases a lock taken with Lock.
func (t *Table) Unlock() { t.mu.Unlock() }

// Each invokes fn for every registered root. Callers that need a
// consistent view across the whole table should call this with the table
// already locked via Lock.
func (t *Table) Each(fn func(key string, root Root)) {
	for k, r := range t.roots {
		fn(k, r)
	}
}
