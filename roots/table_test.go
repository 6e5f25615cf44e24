package roots

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Table_AddGetRemove(t *testing.T) {
	tbl := NewTable()

	_, ok := tbl.GetRoot("x")
	require.False(t, ok)

	g := NewGlobal(someRef)
	tbl.AddRoot("x", g)
	require.Equal(t, 1, tbl.Count())

	got, ok := tbl.GetRoot("x")
	require.True(t, ok)
	require.Same(t, g, got)

	tbl.RemoveRoot("x")
	require.Zero(t, tbl.Count())

	// removing an absent key is a no-op, not an error.
	tbl.RemoveRoot("x")
}

func Test_Table_AddRoot_ReplacesExisting(t *testing.T) {
	tbl := NewTable()
	tbl.AddRoot("x", NewGlobal(someRef))
	tbl.AddRoot("x", NewRegister(someRef))

	got, ok := tbl.GetRoot("x")
	require.True(t, ok)
	_, isRegister := got.(*Register)
	require.True(t, isRegister)
}

func Test_Table_Clear(t *testing.T) {
	tbl := NewTable()
	tbl.AddRoot("a", NewGlobal(someRef))
	tbl.AddRoot("b", NewRegister(someRef))
	require.Equal(t, 2, tbl.Count())

	tbl.Clear()
	require.Zero(t, tbl.Count())
}

func Test_Table_Each_VisitsEveryRoot(t *testing.T) {
	tbl := NewTable()
	tbl.AddRoot("a", NewGlobal(someRef))
	tbl.AddRoot("b", NewRegister(someRef))

	tbl.Lock()
	seen := make(map[string]bool)
	tbl.Each(func(key string, root Root) { seen[key] = true })
	tbl.Unlock()

	require.Equal(t, map[string]bool{"a": true, "b": true}, seen)
}

func Test_Table_LockUnlock_RoundTrips(t *testing.T) {
	tbl := NewTable()
	tbl.Lock()
	tbl.Unlock()

	// the table must still be usable through its normal methods.
	tbl.AddRoot("x", NewGlobal(someRef))
	require.Equal(t, 1, tbl.Count())
}
