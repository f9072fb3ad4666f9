package lower

import (
	"context"

	"tlog.app/go/tlog"

	"github.com/vexlang/lower/compiler/ast"
)

// Optimize runs spec §4.1's optimize pass: constant-folds
// sub-expressions and sub-statements, and captures compile-time
// constant initializers on `const`-typed symbols.
func Optimize(ctx context.Context, s ast.Stmt) ast.Stmt {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "optimize")
	defer tr.Finish()

	return optimizeStmt(s)
}

func optimizeStmt(s ast.Stmt) ast.Stmt {
	switch n := s.(type) {
	case nil:
		return nil

	case *ast.ExprStmt:
		if n.X != nil {
			n.X = n.X.Optimize()
		}
		return n

	case *ast.DeclStmt:
		for i := range n.Decls {
			d := &n.Decls[i]
			if d.Initializer == nil {
				continue
			}
			d.Initializer = d.Initializer.Optimize()

			if !d.Symbol.Type.IsConst() {
				continue
			}
			if _, isBrace := d.Initializer.(*ast.BraceInit); isBrace {
				continue
			}
			if c, ok := d.Initializer.GetConstant(d.Symbol.Type.AsNonConst()); ok {
				d.Symbol.Const = c
			}
		}
		return n

	case *ast.IfStmt:
		n.Test = n.Test.Optimize()
		n.Then = optimizeStmt(n.Then)
		n.Else = optimizeStmt(n.Else)
		return n

	case *ast.DoStmt:
		n.Test = n.Test.Optimize()
		n.Body = optimizeStmt(n.Body)
		return n

	case *ast.ForStmt:
		n.Init = optimizeStmt(n.Init)
		if n.Test != nil {
			n.Test = n.Test.Optimize()
		}
		n.Step = optimizeStmt(n.Step)
		n.Body = optimizeStmt(n.Body)
		return n

	case *ast.ReturnStmt:
		if n.Value != nil {
			n.Value = n.Value.Optimize()
		}
		return n

	case *ast.StmtList:
		for i, c := range n.Stmts {
			n.Stmts[i] = optimizeStmt(c)
		}
		return n

	case *ast.PrintStmt:
		for i, v := range n.Values {
			n.Values[i] = v.Optimize()
		}
		return n

	case *ast.AssertStmt:
		n.Condition = n.Condition.Optimize()
		return n

	default:
		return s
	}
}
