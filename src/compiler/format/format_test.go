package format

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vexlang/lower/compiler/ir"
)

func TestFuncRendersBlocksAndInstructions(t *testing.T) {
	f := ir.NewFunc("f")
	entry := f.NewBlock("entry")

	imm := entry.Append(f, ir.Imm{Value: 7}, "int32")
	loc := entry.Append(f, ir.Alloca{Name: "x", Type: "int32"}, "int32*")
	entry.Append(f, ir.Store{Val: imm, Ptr: loc}, "void")
	entry.Append(f, ir.Ret{Values: nil}, "void")

	out, err := Func(context.Background(), nil, f)
	require.NoError(t, err)

	s := string(out)
	require.Contains(t, s, "func f {")
	require.Contains(t, s, "entry")
	require.Contains(t, s, "imm 7")
	require.Contains(t, s, "alloca x")
	require.Contains(t, s, "store")
	require.Contains(t, s, "ret")
}

func TestPackageRendersEveryFunc(t *testing.T) {
	f1 := ir.NewFunc("a")
	f1.NewBlock("entry").Append(f1, ir.Ret{}, "void")

	f2 := ir.NewFunc("b")
	f2.NewBlock("entry").Append(f2, ir.Ret{}, "void")

	pkg := &ir.Package{Path: "test", Funcs: []*ir.Func{f1, f2}}

	out, err := Package(context.Background(), nil, pkg)
	require.NoError(t, err)

	s := string(out)
	require.Contains(t, s, "func a {")
	require.Contains(t, s, "func b {")
}

func TestValueRejectsUnsupportedShape(t *testing.T) {
	f := ir.NewFunc("f")
	f.Alloc(struct{}{}, "?")

	_, err := value(context.Background(), nil, f, 0)
	require.Error(t, err)
}
