// Package varyingcf implements the varying-break-or-continue detector
// (spec §4.6): a recursive scan deciding whether a loop body contains a
// `break`/`continue` reachable under varying control flow, used by
// do/for lowering (compiler/lower's isUniformLoop) to decide whether a
// uniform-test loop must still be lowered with varying-loop lane
// management.
//
// Grounded on the teacher's df package's structural-tuple recursion
// style (superseded here: df/df.go's data-flow tuples generalize to a
// single threaded boolean instead of a full flow lattice).
package varyingcf

import "github.com/vexlang/lower/compiler/ast"

// HasVaryingBreakOrContinue scans body (the statement tree of a loop,
// not crossing into nested loops) and reports whether it contains a
// break/continue reachable while inVaryingCF — becoming true on
// entering an if whose test is varying.
func HasVaryingBreakOrContinue(body ast.Stmt) bool {
	return scan(body, false)
}

func scan(s ast.Stmt, inVaryingCF bool) bool {
	switch n := s.(type) {
	case nil:
		return false
	case *ast.BreakStmt, *ast.ContinueStmt:
		return inVaryingCF
	case *ast.IfStmt:
		varying := inVaryingCF || n.AnyCheck
		return scan(n.Then, varying) || scan(n.Else, varying)
	case *ast.StmtList:
		for _, c := range n.Stmts {
			if scan(c, inVaryingCF) {
				return true
			}
		}
		return false
	case *ast.DoStmt, *ast.ForStmt:
		// A nested loop's break/continue targets the nested loop, not
		// this one: stop the recursion here.
		return false
	default:
		return false
	}
}
