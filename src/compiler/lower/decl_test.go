package lower

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vexlang/lower/compiler/ast"
	"github.com/vexlang/lower/compiler/emit"
	"github.com/vexlang/lower/compiler/expr"
	"github.com/vexlang/lower/compiler/ir"
	"github.com/vexlang/lower/compiler/symtab"
	"github.com/vexlang/lower/compiler/types"
)

func newTestFunc(width int) (*ir.Func, *emit.Func) {
	f := ir.NewFunc("f")
	c := emit.NewFunc(f, width)
	entry := c.CreateBasicBlock("entry")
	c.SetCurrentBasicBlock(entry)
	return f, c
}

func int32Type() types.Atomic { return types.NewAtomic(types.Int, 32, false) }

// scenario 1: `int x = 3+4;` — optimize folds the initializer and
// captures the constant on the symbol; emit stores a single immediate.
func TestConstantDeclOptimizeCapturesAndEmitsSingleStore(t *testing.T) {
	table := symtab.NewTable()
	sym := table.Root().Declare("x", int32Type().AsConst(), symtab.Auto, 1)

	decl := &ast.DeclStmt{
		Base: ast.Base{Pos: 1},
		Decls: []ast.VariableDeclaration{{
			Symbol: sym,
			Initializer: &expr.BinaryNode{
				Op:  "+",
				L:   &expr.ConstNode{Val: expr.Const{Type: int32Type(), Int: 3}},
				R:   &expr.ConstNode{Val: expr.Const{Type: int32Type(), Int: 4}},
				Typ: int32Type(),
			},
		}},
	}

	optimized := Optimize(context.Background(), decl).(*ast.DeclStmt)

	c, ok := optimized.Decls[0].Symbol.Const.(expr.Const)
	require.True(t, ok)
	require.Equal(t, int64(7), c.Int)

	f, fn := newTestFunc(4)
	diags := &Diagnostics{}
	Emit(fn, diags, optimized)

	require.False(t, diags.HasErrors())
	require.NotNil(t, sym.Loc)

	var stores []ir.Store
	for _, v := range f.Exprs {
		if st, ok := v.(ir.Store); ok {
			stores = append(stores, st)
		}
	}
	require.Len(t, stores, 1)
	require.Equal(t, ir.Imm{Value: int64(7)}, f.Exprs[stores[0].Val])
}

// scenario 2: `uniform int a[] = {10, 20, 30};` at local scope resolves
// the deferred size and emits three element stores.
func TestDeferredSizeArrayResolvesAndEmitsElementStores(t *testing.T) {
	table := symtab.NewTable()
	elemT := int32Type()
	arrT := types.Array{Elem: elemT, Len: 0}
	sym := table.Root().Declare("a", arrT, symtab.Auto, 1)

	decl := &ast.VariableDeclaration{
		Symbol: sym,
		Initializer: &ast.BraceInit{Elems: []expr.Expr{
			&expr.ConstNode{Val: expr.Const{Type: elemT, Int: 10}},
			&expr.ConstNode{Val: expr.Const{Type: elemT, Int: 20}},
			&expr.ConstNode{Val: expr.Const{Type: elemT, Int: 30}},
		}},
	}

	f, fn := newTestFunc(4)
	diags := &Diagnostics{}
	emitOneDecl(fn, diags, 1, decl)

	require.False(t, diags.HasErrors())
	resolved, ok := sym.Type.(types.Array)
	require.True(t, ok)
	require.Equal(t, 3, resolved.ElementCount())

	var stored []ir.Value
	for _, v := range f.Exprs {
		if st, ok := v.(ir.Store); ok {
			stored = append(stored, f.Exprs[st.Val])
		}
	}
	require.Equal(t, []ir.Value{ir.Imm{Value: int64(10)}, ir.Imm{Value: int64(20)}, ir.Imm{Value: int64(30)}}, stored)
}

func TestUnsizedArrayWithoutBraceInitIsAnError(t *testing.T) {
	table := symtab.NewTable()
	arrT := types.Array{Elem: int32Type(), Len: 0}
	sym := table.Root().Declare("a", arrT, symtab.Auto, 1)

	decl := &ast.VariableDeclaration{Symbol: sym, Initializer: &expr.ConstNode{Val: expr.Const{Type: int32Type(), Int: 1}}}

	_, fn := newTestFunc(4)
	diags := &Diagnostics{}
	emitOneDecl(fn, diags, 1, decl)

	require.True(t, diags.HasErrors())
}

func TestStaticDeclRequiresConstantInitializer(t *testing.T) {
	table := symtab.NewTable()
	sym := table.Root().Declare("s", int32Type(), symtab.Static, 1)

	nonConst := &expr.SymbolNode{Sym: table.Root().Declare("other", int32Type(), symtab.Auto, 2)}

	_, fn := newTestFunc(4)
	diags := &Diagnostics{}
	emitOneDecl(fn, diags, 1, &ast.VariableDeclaration{Symbol: sym, Initializer: nonConst})

	require.True(t, diags.HasErrors())
}

// scenario: `static int s;` with no initializer zero-fills the static
// slot unconditionally, regardless of ZeroFillUninitialized.
func TestStaticDeclWithoutInitializerZeroFills(t *testing.T) {
	table := symtab.NewTable()
	sym := table.Root().Declare("s", int32Type(), symtab.Static, 1)

	f, fn := newTestFunc(4)
	diags := &Diagnostics{}
	emitOneDecl(fn, diags, 1, &ast.VariableDeclaration{Symbol: sym})

	require.False(t, diags.HasErrors())
	found := false
	for _, v := range f.Exprs {
		if st, ok := v.(ir.Store); ok && st.Ptr == sym.Loc {
			_, isUndef := f.Exprs[st.Val].(ir.Undef)
			require.False(t, isUndef, "static decl stored undef, want a zero immediate")
			found = true
		}
	}
	require.True(t, found, "expected a store into the static slot")
}

// a reference-typed local must have an initializer (spec §3.4); with
// none given, declInit reports an error instead of storing undef.
func TestReferenceDeclWithoutInitializerIsAnError(t *testing.T) {
	table := symtab.NewTable()
	target := int32Type()
	sym := table.Root().Declare("r", types.Reference{Target: target}, symtab.Auto, 1)

	_, fn := newTestFunc(4)
	diags := &Diagnostics{}
	emitOneDecl(fn, diags, 1, &ast.VariableDeclaration{Symbol: sym})

	require.True(t, diags.HasErrors())
}

// a static unsized array is rejected: deferred-size resolution is only
// valid for local (automatic) storage per spec §3.4.
func TestUnsizedStaticArrayIsAnError(t *testing.T) {
	table := symtab.NewTable()
	arrT := types.Array{Elem: int32Type(), Len: 0}
	sym := table.Root().Declare("a", arrT, symtab.Static, 1)

	decl := &ast.VariableDeclaration{
		Symbol: sym,
		Initializer: &ast.BraceInit{Elems: []expr.Expr{
			&expr.ConstNode{Val: expr.Const{Type: int32Type(), Int: 10}},
		}},
	}

	_, fn := newTestFunc(4)
	diags := &Diagnostics{}
	emitOneDecl(fn, diags, 1, decl)

	require.True(t, diags.HasErrors())
}
