package roots

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap"
)

func Test_Global_SetAndGetRef(t *testing.T) {
	g := NewGlobal(heap.NilRef)
	require.True(t, g.Ref().IsNil())

	g.SetRef(someRef)
	require.Equal(t, someRef, g.Ref())
}

func Test_Global_Clear_NilsRefWithoutRemovingFromTable(t *testing.T) {
	tbl := NewTable()
	g := NewGlobal(someRef)
	tbl.AddRoot("g", g)

	g.Clear()
	require.True(t, g.Ref().IsNil())

	got, ok := tbl.GetRoot("g")
	require.True(t, ok, "Clear must not remove the table entry")
	require.Same(t, g, got)
}

func Test_Global_Accept_DispatchesToVisitGlobal(t *testing.T) {
	g := NewGlobal(someRef)
	v := &recordingVisitor{}
	g.Accept(v)
	require.Same(t, g, v.global)
}
