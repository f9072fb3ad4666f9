package lower

import (
	"github.com/vexlang/lower/compiler/ast"
	"github.com/vexlang/lower/compiler/emit"
	"github.com/vexlang/lower/compiler/expr"
	"github.com/vexlang/lower/compiler/ir"
	"github.com/vexlang/lower/compiler/symtab"
	"github.com/vexlang/lower/compiler/types"
)

// emitDeclStmt lowers every VariableDeclaration in a DeclStmt, per
// spec §4.2.
func emitDeclStmt(ctx *emit.Func, diags *Diagnostics, pos int, n *ast.DeclStmt) {
	for i := range n.Decls {
		emitOneDecl(ctx, diags, pos, &n.Decls[i])
	}
}

func emitOneDecl(ctx *emit.Func, diags *Diagnostics, pos int, d *ast.VariableDeclaration) {
	sym := d.Symbol
	t := sym.Type

	// Deferred-size array resolution (spec §4.2): an array declared
	// with zero length must have a brace initializer whose arity
	// becomes the array's real size.
	if arr, ok := t.(types.Array); ok && arr.ElementCount() == 0 {
		if sym.Storage == symtab.Static {
			diags.Errorf(pos, "unsized array %s must be local, not static", sym.Name)
			return
		}
		brace, ok := d.Initializer.(*ast.BraceInit)
		if !ok {
			diags.Errorf(pos, "unsized array %s without brace initializer", sym.Name)
			return
		}
		sym.Type = arr.Sized(len(brace.Elems))
		t = sym.Type
	}

	if sym.Storage == symtab.Static {
		emitStaticDecl(ctx, diags, pos, sym, t, d.Initializer)
		return
	}

	loc := ctx.AllocaInst(t.String(), sym.Name)
	sym.Loc = loc
	ctx.EmitVariableDebugInfo(sym)
	sym.ParentFunc = ctx.GetFunction()
	sym.VaryingCFDepth = ctx.VaryingCFDepth()

	declInit(ctx, diags, pos, loc, t, d.Initializer)
}

func emitStaticDecl(ctx *emit.Func, diags *Diagnostics, pos int, sym *symtab.Symbol, t types.Type, init expr.Expr) {
	name := sprintf("static.%d.%s", pos, sym.Name)
	loc := ctx.GetFunction().Alloc(ir.Global{Name: name, Type: t.String()}, t.String())
	sym.Loc = loc
	ctx.EmitVariableDebugInfo(sym)
	sym.ParentFunc = ctx.GetFunction()
	sym.VaryingCFDepth = ctx.VaryingCFDepth()

	if init == nil {
		ctx.StoreInst(constImm(ctx, expr.Const{Type: t.AsNonConst()}), loc)
		return
	}

	c, ok := init.GetConstant(t.AsNonConst())
	if !ok {
		diags.Errorf(pos, "static initializer for %s must be a constant", sym.Name)
		return
	}

	v := constImm(ctx, c)
	ctx.StoreInst(v, loc)
}

// declInit is the recursive initializer algorithm of spec §4.2 steps
// 1-6: store lv (an already-allocated storage location of type T) from
// init, recursing into brace-list elements for collection types.
func declInit(ctx *emit.Func, diags *Diagnostics, pos int, lv ir.Expr, t types.Type, init expr.Expr) {
	if _, isRef := t.(types.Reference); isRef && init == nil {
		diags.Errorf(pos, "reference must be initialized")
		return
	}

	if init == nil {
		ctx.StoreInst(uninitializedValue(ctx, diags, t), lv)
		return
	}

	if ref, ok := t.(types.Reference); ok {
		if _, isBrace := init.(*ast.BraceInit); isBrace {
			diags.Errorf(pos, "reference %s cannot take a brace initializer", t)
			return
		}
		if !init.GetType().Equal(ref.Target) {
			diags.Errorf(pos, "initializer for reference must match reference type")
			return
		}
		v := init.GetValue(ctx)
		ctx.MaskedStoreInst(v, lv, ctx.GetFullMask())
		return
	}

	brace, isBrace := init.(*ast.BraceInit)
	if !isBrace {
		if !initializerConverts(init.GetType(), t) {
			diags.Errorf(pos, "can't assign type %s to %s", init.GetType(), t)
			return
		}
		v := init.GetValue(ctx)
		ctx.MaskedStoreInst(v, lv, ctx.GetFullMask())
		return
	}

	switch t.(type) {
	case types.Atomic, types.Enum:
		diags.Errorf(pos, "brace initializer not permitted for %s", t)
		return
	}

	coll, ok := t.(types.Collection)
	if !ok {
		diags.Errorf(pos, "brace initializer requires a collection type, got %s", t)
		return
	}

	n := coll.ElementCount()
	if n != len(brace.Elems) {
		diags.Errorf(pos, "%d values; %d provided", n, len(brace.Elems))
		return
	}

	for i, el := range brace.Elems {
		elemT := coll.ElementType(i)
		ptr := ctx.GetElementPtrInst(lv, i, -1, sprintf("elem%d", i))
		declInit(ctx, diags, pos, ptr, elemT, el)
	}
}

// initializerConverts is the "initializer" type-conversion context of
// spec §4.2 step 2: the two types must agree once qualifiers that
// don't affect representation (const) are stripped, or both must be
// numeric with the same uniform/varying qualifier.
func initializerConverts(from, to types.Type) bool {
	if from == nil || to == nil {
		return false
	}
	return from.AsNonConst().Equal(to.AsNonConst()) ||
		(from.IsNumeric() && to.IsNumeric() && from.IsUniform() == to.IsUniform())
}

// uninitializedValue is the value stored into an ordinary local
// declaration with no initializer: undefined by default, or a zero of
// t's type when the unit opted into ZeroFillUninitialized (spec §9's
// open question — static storage always zero-fills regardless, see
// emitStaticDecl).
func uninitializedValue(ctx *emit.Func, diags *Diagnostics, t types.Type) ir.Expr {
	if !diags.ZeroFillUninitialized {
		return ctx.UndefInst(t.String())
	}
	return constImm(ctx, expr.Const{Type: t.AsNonConst()})
}

func constImm(ctx *emit.Func, c expr.Const) ir.Expr {
	if c.Type != nil {
		if a, ok := c.Type.(types.Atomic); ok && a.Kind == types.Float {
			return ctx.GetFunction().Alloc(ir.FImm{Value: c.Float}, c.Type.String())
		}
	}
	v := c.Int
	if c.Bool {
		v = 1
	}
	return ctx.ImmInst(v, "int")
}
