package symtab

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vexlang/lower/compiler/types"
)

func TestDeclareAndLookup(t *testing.T) {
	tbl := NewTable()
	root := tbl.Root()

	sym := root.Declare("x", types.NewAtomic(types.Int, 32, false), Auto, 10)
	require.Equal(t, "x", sym.Name)

	inner := root.Nested()
	got, ok := inner.Lookup("x")
	require.True(t, ok)
	require.Same(t, sym, got)

	_, ok = inner.Lookup("y")
	require.False(t, ok)
}

func TestShadowingInNestedScope(t *testing.T) {
	tbl := NewTable()
	root := tbl.Root()
	outer := root.Declare("x", types.NewAtomic(types.Int, 32, false), Auto, 1)

	inner := root.Nested()
	innerX := inner.Declare("x", types.NewAtomic(types.Float, 32, false), Auto, 2)

	got, _ := inner.Lookup("x")
	require.Same(t, innerX, got)

	got, _ = root.Lookup("x")
	require.Same(t, outer, got)
}

func TestRedeclarePanics(t *testing.T) {
	tbl := NewTable()
	root := tbl.Root()
	root.Declare("x", types.NewAtomic(types.Int, 32, false), Auto, 1)

	require.Panics(t, func() {
		root.Declare("x", types.NewAtomic(types.Int, 32, false), Auto, 2)
	})
}
