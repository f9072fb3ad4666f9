// Package safety implements the safe-with-all-lanes-off predicate
// (spec §4.5): a conservative structural recursion over expressions and
// statements used by if-statement predication (spec §4.3 case V.3) to
// decide whether a branch may run unconditionally under a blended mask.
//
// Grounded on the teacher's own structural-recursion traversal style in
// front/compile7.go (type switches walking a statement/expression tree
// with no auxiliary state) — generalized here to return a bool instead
// of emitting code.
package safety

import (
	"github.com/vexlang/lower/compiler/ast"
	"github.com/vexlang/lower/compiler/expr"
)

// Expr reports whether e is safe to evaluate with every lane masked
// off, per the table in spec §4.5.
func Expr(e expr.Expr) bool {
	if e == nil {
		return true
	}

	switch n := e.(type) {
	case *expr.ConstNode, *expr.SymbolNode, *expr.SyncNode:
		return true
	case *expr.UnaryNode:
		return Expr(n.X)
	case *expr.BinaryNode:
		return Expr(n.L) && Expr(n.R)
	case *expr.AssignNode:
		return Expr(n.Target) && Expr(n.Value)
	case *expr.SelectNode:
		return Expr(n.Cond) && Expr(n.Then) && Expr(n.Else)
	case *expr.ExprListNode:
		for _, el := range n.Elems {
			if !Expr(el) {
				return false
			}
		}
		return true
	case *expr.IndexNode:
		return n.BaseSize > 0 && indexIsSafe(n)
	case *expr.CallNode:
		return false
	default:
		// Unexpected expression variant: a real compiler would treat
		// this as an internal-invariant violation (spec §7); here the
		// conservative answer is "unsafe" rather than panicking, since
		// the black-box expression layer may grow new variants.
		return false
	}
}

func indexIsSafe(n *expr.IndexNode) bool {
	if !Expr(n.Base) {
		return false
	}
	_, isConst := n.IsConstIndex()
	return isConst && n.ConstIndexInRange()
}

// Stmt reports whether s is safe to execute with every lane masked off.
func Stmt(s ast.Stmt) bool {
	if s == nil {
		return true
	}

	switch n := s.(type) {
	case *ast.BreakStmt, *ast.ContinueStmt:
		return true
	case *ast.ExprStmt:
		return Expr(n.X)
	case *ast.DeclStmt:
		for _, d := range n.Decls {
			if !Expr(d.Initializer) {
				return false
			}
		}
		return true
	case *ast.IfStmt:
		return Expr(n.Test) && Stmt(n.Then) && Stmt(n.Else)
	case *ast.DoStmt:
		return Expr(n.Test) && Stmt(n.Body)
	case *ast.ForStmt:
		return Stmt(n.Init) && Expr(n.Test) && Stmt(n.Step) && Stmt(n.Body)
	case *ast.ReturnStmt:
		return Expr(n.Value)
	case *ast.StmtList:
		for _, c := range n.Stmts {
			if !Stmt(c) {
				return false
			}
		}
		return true
	case *ast.PrintStmt:
		for _, v := range n.Values {
			if !Expr(v) {
				return false
			}
		}
		return true
	case *ast.AssertStmt:
		// Intentionally unsafe: we must not elide an assertion's
		// observable failure just because it executed under a
		// speculatively-entered, all-off mask (spec §4.5, §4.8).
		return false
	default:
		return false
	}
}
