package lower

import (
	"context"

	"tlog.app/go/tlog"

	"github.com/vexlang/lower/compiler/ast"
	"github.com/vexlang/lower/compiler/expr"
	"github.com/vexlang/lower/compiler/types"
)

// TypeCheck runs spec §4.1's type-check pass over a top-level
// statement, wrapped in a tlog span the way the teacher wraps each
// top-level unit of work (back6.go's SpawnFromContextAndWrap).
func TypeCheck(ctx context.Context, diags *Diagnostics, s ast.Stmt) (ast.Stmt, bool) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "type-check")
	defer tr.Finish()

	return typeCheckStmt(ctx, diags, s)
}

func typeCheckStmt(ctx context.Context, diags *Diagnostics, s ast.Stmt) (ast.Stmt, bool) {
	switch n := s.(type) {
	case nil:
		return nil, true

	case *ast.ExprStmt:
		if n.X == nil {
			return n, true
		}
		x, ok := n.X.TypeCheck()
		if !ok {
			return nil, false
		}
		n.X = x
		return n, true

	case *ast.DeclStmt:
		kept := n.Decls[:0]
		for _, d := range n.Decls {
			if d.Initializer != nil {
				init, ok := d.Initializer.TypeCheck()
				if !ok {
					diags.Errorf(n.Pos, "initializer type-check failed for %s", d.Symbol.Name)
					continue
				}
				d.Initializer = init
			}
			kept = append(kept, d)
		}
		n.Decls = kept
		return n, true

	case *ast.IfStmt:
		test, ok := typeCheckTest(diags, n.Test, n.Pos)
		if !ok {
			return nil, false
		}
		n.Test = test
		n.AnyCheck = test.GetType().IsVarying()
		if !n.AnyCheck && n.CoherentCheck {
			tlog.Printw("coherent hint on uniform test", "pos", n.Pos)
		}
		n.Then, _ = typeCheckStmt(ctx, diags, n.Then)
		n.Else, _ = typeCheckStmt(ctx, diags, n.Else)
		return n, true

	case *ast.DoStmt:
		test, ok := typeCheckTest(diags, n.Test, n.Pos)
		if !ok {
			return nil, false
		}
		n.Test = test
		if !test.GetType().IsVarying() && n.CoherentCheck {
			tlog.Printw("coherent hint on uniform test", "pos", n.Pos)
		}
		n.Body, _ = typeCheckStmt(ctx, diags, n.Body)
		return n, true

	case *ast.ForStmt:
		n.Init, _ = typeCheckStmt(ctx, diags, n.Init)
		if n.Test != nil {
			test, ok := typeCheckTest(diags, n.Test, n.Pos)
			if !ok {
				return nil, false
			}
			n.Test = test
			if !test.GetType().IsVarying() && n.CoherentCheck {
				tlog.Printw("coherent hint on uniform test", "pos", n.Pos)
			}
		}
		n.Step, _ = typeCheckStmt(ctx, diags, n.Step)
		n.Body, _ = typeCheckStmt(ctx, diags, n.Body)
		return n, true

	case *ast.BreakStmt, *ast.ContinueStmt:
		return n, true

	case *ast.ReturnStmt:
		if n.Value == nil {
			return n, true
		}
		v, ok := n.Value.TypeCheck()
		if !ok {
			return nil, false
		}
		n.Value = v
		return n, true

	case *ast.StmtList:
		kept := n.Stmts[:0]
		for _, c := range n.Stmts {
			checked, ok := typeCheckStmt(ctx, diags, c)
			if !ok {
				continue // a failed child must not poison its siblings (spec §9)
			}
			if checked != nil {
				kept = append(kept, checked)
			}
		}
		n.Stmts = kept
		return n, true

	case *ast.PrintStmt:
		kept := n.Values[:0]
		for _, v := range n.Values {
			checked, ok := v.TypeCheck()
			if !ok {
				diags.Errorf(n.Pos, "print argument type-check failed")
				continue
			}
			kept = append(kept, checked)
		}
		n.Values = kept
		return n, true

	case *ast.AssertStmt:
		test, ok := typeCheckTest(diags, n.Condition, n.Pos)
		if !ok {
			return nil, false
		}
		n.Condition = test
		return n, true

	default:
		diags.Errorf(0, "internal: unexpected statement variant %T", s)
		return nil, false
	}
}

// typeCheckTest type-checks e and coerces it to uniform-bool or
// varying-bool (spec §3.4's invariant), inserting an explicit `!= 0`
// comparison when e is numeric but not already bool-typed.
func typeCheckTest(diags *Diagnostics, e expr.Expr, pos int) (expr.Expr, bool) {
	if e == nil {
		diags.Errorf(pos, "missing test expression")
		return nil, false
	}

	checked, ok := e.TypeCheck()
	if !ok {
		return nil, false
	}

	t := checked.GetType()
	if t == nil {
		diags.Errorf(pos, "test expression has no type")
		return nil, false
	}

	if types.IsBoolType(t) {
		return checked, true
	}

	if !t.IsNumeric() {
		diags.Errorf(pos, "cannot convert %s to bool", t)
		return nil, false
	}

	zero := &expr.ConstNode{Val: expr.Const{Type: t.AsNonConst()}}
	boolTy := types.UniformBool
	if t.IsVarying() {
		boolTy = types.VaryingBool
	}

	cast := &expr.BinaryNode{Op: "!=", L: checked, R: zero, Typ: boolTy}
	return cast, true
}
