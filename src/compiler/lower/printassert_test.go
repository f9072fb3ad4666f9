package lower

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vexlang/lower/compiler/ast"
	"github.com/vexlang/lower/compiler/expr"
	"github.com/vexlang/lower/compiler/ir"
	"github.com/vexlang/lower/compiler/symtab"
	"github.com/vexlang/lower/compiler/types"
)

func findCall(f *ir.Func, name string) (ir.Call, bool) {
	for _, v := range f.Exprs {
		if c, ok := v.(ir.Call); ok && c.Func == name {
			return c, true
		}
	}
	return ir.Call{}, false
}

// scenario 6: `print("%d %f\n", i, f);` with i: varying int32, f: uniform
// float produces the type string "If" and an arg array of length 2.
func TestPrintTypeAlphabetMatchesScenario(t *testing.T) {
	ch, ok := printTypeChar(types.NewAtomic(types.Int, 32, true))
	require.True(t, ok)
	require.Equal(t, byte('I'), ch)

	ch, ok = printTypeChar(types.NewAtomic(types.Float, 32, false))
	require.True(t, ok)
	require.Equal(t, byte('f'), ch)
}

func TestEmitPrintStmtCallsDoPrintWithFiveArgs(t *testing.T) {
	table := symtab.NewTable()
	iSym := table.Root().Declare("i", types.NewAtomic(types.Int, 32, true), symtab.Auto, 1)
	fSym := table.Root().Declare("f", types.NewAtomic(types.Float, 32, false), symtab.Auto, 1)

	f, fn := newTestFunc(4)
	iSym.Loc = fn.AllocaInst(iSym.Type.String(), "i")
	fSym.Loc = fn.AllocaInst(fSym.Type.String(), "f")

	n := &ast.PrintStmt{
		Format: "%d %f\n",
		Values: []expr.Expr{&expr.SymbolNode{Sym: iSym}, &expr.SymbolNode{Sym: fSym}},
	}

	diags := &Diagnostics{}
	emitPrintStmt(fn, diags, n)

	require.False(t, diags.HasErrors())
	call, ok := findCall(f, "__do_print")
	require.True(t, ok)
	require.Len(t, call.Args, 5)
}

func TestEmitPrintStmtRejectsNonAtomic(t *testing.T) {
	table := symtab.NewTable()
	arrSym := table.Root().Declare("a", types.Array{Elem: int32Type(), Len: 3}, symtab.Auto, 1)

	_, fn := newTestFunc(4)
	n := &ast.PrintStmt{Format: "%v", Values: []expr.Expr{&expr.SymbolNode{Sym: arrSym}}}

	diags := &Diagnostics{}
	emitPrintStmt(fn, diags, n)

	require.True(t, diags.HasErrors())
}

func TestEmitAssertStmtDispatchesOnTestVarying(t *testing.T) {
	table := symtab.NewTable()
	uniformSym := table.Root().Declare("ok", types.UniformBool, symtab.Auto, 1)
	varyingSym := table.Root().Declare("okv", types.VaryingBool, symtab.Auto, 1)

	f, fn := newTestFunc(4)
	uniformSym.Loc = fn.AllocaInst(types.UniformBool.String(), "ok")
	varyingSym.Loc = fn.AllocaInst(types.VaryingBool.String(), "okv")

	diags := &Diagnostics{}
	emitAssertStmt(fn, diags, &ast.AssertStmt{Message: "must hold", Condition: &expr.SymbolNode{Sym: uniformSym}})
	require.False(t, diags.HasErrors())
	_, ok := findCall(f, "__do_assert_uniform")
	require.True(t, ok)

	emitAssertStmt(fn, diags, &ast.AssertStmt{Message: "must hold too", Condition: &expr.SymbolNode{Sym: varyingSym}})
	require.False(t, diags.HasErrors())
	_, ok = findCall(f, "__do_assert_varying")
	require.True(t, ok)
}
