package lower

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vexlang/lower/compiler/ast"
	"github.com/vexlang/lower/compiler/expr"
	"github.com/vexlang/lower/compiler/mask"
	"github.com/vexlang/lower/compiler/symtab"
	"github.com/vexlang/lower/compiler/types"
)

func varyingBoolSym(table *symtab.Table, name string, pos int) *expr.SymbolNode {
	sym := table.Root().Declare(name, types.VaryingBool, symtab.Auto, pos)
	return &expr.SymbolNode{Sym: sym}
}

// scenario 3: both branches safe and below the predication threshold
// compile with no branch on any(mask) at all — emitPredicatedIf
// creates zero new basic blocks.
func TestSafeCheapVaryingIfIsFullyPredicated(t *testing.T) {
	table := symtab.NewTable()
	arrSym := table.Root().Declare("a", types.Array{Elem: int32Type(), Len: 5}, symtab.Auto, 1)
	base := &expr.SymbolNode{Sym: arrSym}

	idxThen := &expr.IndexNode{Base: base, Idx: &expr.ConstNode{Val: expr.Const{Type: int32Type(), Int: 0}}, BaseSize: 5}
	idxElse := &expr.IndexNode{Base: base, Idx: &expr.ConstNode{Val: expr.Const{Type: int32Type(), Int: 0}}, BaseSize: 5}

	then := &ast.ExprStmt{X: &expr.AssignNode{Target: idxThen, Value: &expr.ConstNode{Val: expr.Const{Type: int32Type(), Int: 0}}}}
	els := &ast.ExprStmt{X: &expr.AssignNode{
		Target: idxElse,
		Value:  &expr.BinaryNode{Op: "+", L: idxElse, R: &expr.ConstNode{Val: expr.Const{Type: int32Type(), Int: 1}}, Typ: int32Type()},
	}}

	cond := varyingBoolSym(table, "cond", 1)
	n := ast.NewIfStmt(1, cond, then, els, false)

	f, fn := newTestFunc(4)
	fn.SetInternalMask(mask.Runtime(4))

	before := len(f.Blocks)
	diags := &Diagnostics{}
	emitIfStmt(fn, diags, n)

	require.False(t, diags.HasErrors())
	require.Equal(t, before, len(f.Blocks), "predication emits no new control-flow blocks")
}

// scenario 4: a non-constant varying index makes the indexed store
// unsafe, so the mixed-mask path gates the body behind any(mask & cond).
func TestUnsafeIndexForcesMaskedBranch(t *testing.T) {
	table := symtab.NewTable()
	arrSym := table.Root().Declare("a", types.Array{Elem: int32Type(), Len: 5}, symtab.Auto, 1)
	base := &expr.SymbolNode{Sym: arrSym}
	idxSym := table.Root().Declare("i", types.NewAtomic(types.Int, 32, true), symtab.Auto, 1)

	idx := &expr.IndexNode{Base: base, Idx: &expr.SymbolNode{Sym: idxSym}, BaseSize: 5}
	then := &ast.ExprStmt{X: &expr.AssignNode{Target: idx, Value: &expr.ConstNode{Val: expr.Const{Type: int32Type(), Int: 0}}}}

	cond := varyingBoolSym(table, "cond", 1)
	n := ast.NewIfStmt(1, cond, then, nil, false)

	f, fn := newTestFunc(4)
	fn.SetInternalMask(mask.Runtime(4))

	before := len(f.Blocks)
	diags := &Diagnostics{}
	emitIfStmt(fn, diags, n)

	require.False(t, diags.HasErrors())
	require.Greater(t, len(f.Blocks), before, "mixed-mask lowering introduces gating blocks")
}

// a coherent-check varying if (case V.2) must not leak its all-on
// specialization's M_int into the surrounding mask: nested inside a
// runtime (non-constant) mask, M_int after the if must still be
// runtime, not the all-on constant emitAllOnBody uses internally.
func TestCoherentVaryingIfRestoresSurroundingInternalMask(t *testing.T) {
	table := symtab.NewTable()
	xT := types.NewAtomic(types.Int, 32, true)
	sym := table.Root().Declare("x", xT, symtab.Auto, 1)

	then := &ast.ExprStmt{X: &expr.AssignNode{
		Target: &expr.SymbolNode{Sym: sym},
		Value:  &expr.ConstNode{Val: expr.Const{Type: int32Type(), Int: 1}},
	}}
	els := &ast.ExprStmt{X: &expr.AssignNode{
		Target: &expr.SymbolNode{Sym: sym},
		Value:  &expr.ConstNode{Val: expr.Const{Type: int32Type(), Int: 2}},
	}}

	cond := varyingBoolSym(table, "cond", 1)
	n := ast.NewIfStmt(1, cond, then, els, true)

	_, fn := newTestFunc(4)
	sym.Loc = fn.AllocaInst(xT.String(), "x")
	fn.SetInternalMask(mask.Runtime(4))

	diags := &Diagnostics{}
	emitIfStmt(fn, diags, n)

	require.False(t, diags.HasErrors())
	require.False(t, fn.GetInternalMask().Const(), "M_int must stay the runtime mask from before the if, not emitAllOnBody's all-on constant")
}

// an assert in the Then branch of a varying if whose mask is provably
// all-on at lowering time (case V.1) still takes emitAllOnBody's
// mixed-result sub-path when the test is data-dependent; that
// sub-path must gate the assert behind a runtime any(mask) branch
// rather than running it unconditionally, since safety.Stmt rejects
// AssertStmt outright.
func TestAssertInAllOnMixedSubPathIsGatedNotPredicated(t *testing.T) {
	table := symtab.NewTable()

	then := &ast.AssertStmt{Message: "nonzero", Condition: &expr.ConstNode{Val: expr.Const{Type: types.UniformBool, Bool: true}}}

	cond := varyingBoolSym(table, "cond", 1)
	n := ast.NewIfStmt(1, cond, then, nil, false)

	f, fn := newTestFunc(4)

	diags := &Diagnostics{}
	emitIfStmt(fn, diags, n)

	require.False(t, diags.HasErrors())

	hasMixedGate := false
	for _, b := range f.Blocks {
		if b.Name == "if.then" {
			hasMixedGate = true
		}
	}
	require.True(t, hasMixedGate, "assert must be reached through a masked gate block, not inlined unconditionally")

	_, hasAssertCall := findCall(f, "__do_assert_uniform")
	require.True(t, hasAssertCall, "assert call should still be emitted somewhere in the mixed sub-path")
}

func TestUniformIfBranchesUnconditionally(t *testing.T) {
	table := symtab.NewTable()
	sym := table.Root().Declare("cond", types.UniformBool, symtab.Auto, 1)
	cond := &expr.SymbolNode{Sym: sym}

	then := &ast.ExprStmt{}
	n := ast.NewIfStmt(1, cond, then, nil, false)
	require.False(t, n.AnyCheck)

	_, fn := newTestFunc(4)
	sym.Loc = fn.AllocaInst(types.UniformBool.String(), "cond")

	diags := &Diagnostics{}
	emitIfStmt(fn, diags, n)

	require.False(t, diags.HasErrors())
	require.NotNil(t, fn.GetCurrentBasicBlock(), "both branches fall through to if.exit")
}
