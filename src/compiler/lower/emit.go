package lower

import (
	"github.com/vexlang/lower/compiler/ast"
	"github.com/vexlang/lower/compiler/emit"
	"github.com/vexlang/lower/compiler/ir"
)

// Emit lowers a single statement into ctx, dispatching to the
// per-variant emitters. Per spec §4.1: if ctx has no current basic
// block (the enclosing control flow has already terminated), emitting
// a statement is a no-op.
func Emit(ctx *emit.Func, diags *Diagnostics, s ast.Stmt) {
	if ctx.GetCurrentBasicBlock() == nil {
		return
	}

	switch n := s.(type) {
	case nil:
		return

	case *ast.ExprStmt:
		if n.X != nil {
			n.X.GetValue(ctx)
		}

	case *ast.DeclStmt:
		emitDeclStmt(ctx, diags, n.Pos, n)

	case *ast.IfStmt:
		emitIfStmt(ctx, diags, n)

	case *ast.DoStmt:
		emitDoStmt(ctx, diags, n)

	case *ast.ForStmt:
		emitForStmt(ctx, diags, n)

	case *ast.BreakStmt:
		ctx.Break(n.CoherentCheck)

	case *ast.ContinueStmt:
		ctx.Continue(n.CoherentCheck)

	case *ast.ReturnStmt:
		var vals []ir.Expr
		if n.Value != nil {
			vals = []ir.Expr{n.Value.GetValue(ctx)}
		}
		ctx.CurrentLanesReturned(vals, n.CoherentCheck)

	case *ast.StmtList:
		ctx.StartScope()
		for _, c := range n.Stmts {
			if ctx.GetCurrentBasicBlock() == nil {
				break
			}
			Emit(ctx, diags, c)
		}
		ctx.EndScope()

	case *ast.PrintStmt:
		emitPrintStmt(ctx, diags, n)

	case *ast.AssertStmt:
		emitAssertStmt(ctx, diags, n)

	default:
		diags.Errorf(s.Position(), "internal: unexpected statement variant %T", s)
	}
}
