// Package cost implements the statement cost estimator (spec §4.9): a
// pure recursive sum feeding the predication threshold used by
// if-statement lowering (spec §4.3 case V.3), plus a debug-dump printer
// in the teacher's depth-threaded app/hfmt style (format/format.go).
package cost

import (
	"context"

	"tlog.app/go/errors"
	"github.com/nikandfor/hacked/hfmt"

	"github.com/vexlang/lower/compiler/ast"
	"github.com/vexlang/lower/compiler/expr"
)

// These are opaque tuning parameters (spec §4.9): only their relative
// ordering matters, not their absolute values.
const (
	UniformLoop           = 2
	VaryingLoop           = 6
	UniformIf             = 1
	VaryingIf             = 3
	RegularBreakContinue  = 1
	CoherentBreakContinue = 3
	Return                = 1
	Funcall               = 4
	Assert                = 2

	// PredicateSafeIfStatementCost is the threshold spec §4.3 case V.3
	// compares the sum of both branches' estimated costs against before
	// choosing the predicated (blend-style) lowering.
	PredicateSafeIfStatementCost = 20
)

// Expr estimates an expression's cost by delegating to the black box
// (spec §6.2's EstimateCost).
func Expr(e expr.Expr) int {
	if e == nil {
		return 0
	}
	return e.EstimateCost()
}

// Stmt recursively sums a statement's cost, per the variant table in
// spec §4.9.
func Stmt(s ast.Stmt) int {
	switch n := s.(type) {
	case nil:
		return 0
	case *ast.ExprStmt:
		return Expr(n.X)
	case *ast.DeclStmt:
		c := 0
		for _, d := range n.Decls {
			c += Expr(d.Initializer)
		}
		return c
	case *ast.IfStmt:
		base := UniformIf
		if n.AnyCheck {
			base = VaryingIf
		}
		return base + Expr(n.Test) + Stmt(n.Then) + Stmt(n.Else)
	case *ast.DoStmt:
		base := UniformLoop
		if n.Test != nil && n.Test.GetType() != nil && n.Test.GetType().IsVarying() {
			base = VaryingLoop
		}
		return base + Expr(n.Test) + Stmt(n.Body)
	case *ast.ForStmt:
		base := UniformLoop
		if n.Test != nil && n.Test.GetType() != nil && n.Test.GetType().IsVarying() {
			base = VaryingLoop
		}
		return base + Stmt(n.Init) + Expr(n.Test) + Stmt(n.Step) + Stmt(n.Body)
	case *ast.BreakStmt:
		if n.CoherentCheck {
			return CoherentBreakContinue
		}
		return RegularBreakContinue
	case *ast.ContinueStmt:
		if n.CoherentCheck {
			return CoherentBreakContinue
		}
		return RegularBreakContinue
	case *ast.ReturnStmt:
		return Return + Expr(n.Value)
	case *ast.StmtList:
		c := 0
		for _, sub := range n.Stmts {
			c += Stmt(sub)
		}
		return c
	case *ast.PrintStmt:
		c := Funcall
		for _, v := range n.Values {
			c += Expr(v)
		}
		return c
	case *ast.AssertStmt:
		return Assert + Expr(n.Condition)
	default:
		return 0
	}
}

// Dump renders a one-line-per-statement cost breakdown in the
// teacher's depth-threaded app/hfmt style.
func Dump(ctx context.Context, b []byte, s ast.Stmt) ([]byte, error) {
	return dump(ctx, b, s, 0)
}

func dump(ctx context.Context, b []byte, s ast.Stmt, d int) (_ []byte, err error) {
	switch n := s.(type) {
	case nil:
		return b, nil
	case *ast.StmtList:
		b = app(b, d, "block (cost %d)\n", Stmt(n))
		for _, sub := range n.Stmts {
			b, err = dump(ctx, b, sub, d+1)
			if err != nil {
				return nil, errors.Wrap(err, "stmt")
			}
		}
		return b, nil
	case *ast.IfStmt:
		b = app(b, d, "if (cost %d, coherent=%v, any-check=%v)\n", Stmt(n), n.CoherentCheck, n.AnyCheck)
		b, err = dump(ctx, b, n.Then, d+1)
		if err != nil {
			return nil, errors.Wrap(err, "then")
		}
		if n.Else != nil {
			b = app(b, d, "else\n")
			b, err = dump(ctx, b, n.Else, d+1)
			if err != nil {
				return nil, errors.Wrap(err, "else")
			}
		}
		return b, nil
	case *ast.DoStmt:
		b = app(b, d, "do (cost %d, coherent=%v)\n", Stmt(n), n.CoherentCheck)
		return dump(ctx, b, n.Body, d+1)
	case *ast.ForStmt:
		b = app(b, d, "for (cost %d, coherent=%v)\n", Stmt(n), n.CoherentCheck)
		return dump(ctx, b, n.Body, d+1)
	default:
		b = app(b, d, "%T (cost %d)\n", s, Stmt(s))
		return b, nil
	}
}

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"
	b = append(b, tabs[:d]...)
	b = hfmt.Appendf(b, f, args...)
	return b
}
