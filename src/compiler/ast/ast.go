// Package ast holds the statement tree (spec §3.1): a tagged variant
// with a source position, lowered by compiler/lower through the
// type-check/optimize/emit passes described there. Expression nodes
// live in compiler/expr — ast only ever references them through the
// expr.Expr interface, the black box spec.md §1 declares as an
// external collaborator.
//
// Grounded on the teacher's ast.go tagged-variant shape (`Base{Pos,End}`
// embedded in every node, `tlog:",embed"` struct tags for trace dumps).
package ast

import (
	"github.com/vexlang/lower/compiler/emit"
	"github.com/vexlang/lower/compiler/expr"
	"github.com/vexlang/lower/compiler/ir"
	"github.com/vexlang/lower/compiler/symtab"
	"github.com/vexlang/lower/compiler/types"
)

type (
	// Stmt is any statement variant below.
	Stmt interface {
		Position() int
	}

	Base struct {
		Pos int
	}

	// ExprStmt holds an optional expression evaluated for side effects.
	ExprStmt struct {
		Base `tlog:",embed"`

		X expr.Expr // nil is a legal empty statement
	}

	// VariableDeclaration is one binding in a DeclStmt: a symbol plus an
	// optional initializer expression. Brace-list initializers are
	// represented as *BraceInit.
	VariableDeclaration struct {
		Symbol      *symtab.Symbol
		Initializer expr.Expr // nil if uninitialized
	}

	// BraceInit is a brace-list initializer `{ e0, e1, ... }`; it
	// implements expr.Expr, but its GetValue panics since it never
	// produces a runtime value on its own — compiler/lower's
	// declaration-lowering algorithm (§4.2) recurses into its Elems
	// directly instead of calling GetValue on it.
	BraceInit struct {
		Pos   int
		Elems []expr.Expr
	}

	DeclStmt struct {
		Base `tlog:",embed"`

		Decls []VariableDeclaration
	}

	// IfStmt: CoherentCheck is set at parse time by the cif keyword form
	// (spec §3.1); AnyCheck is cached at construction as
	// Test.GetType().IsVarying().
	IfStmt struct {
		Base `tlog:",embed"`

		Test          expr.Expr
		Then          Stmt
		Else          Stmt // nil if no else branch
		CoherentCheck bool
		AnyCheck      bool
	}

	DoStmt struct {
		Base `tlog:",embed"`

		Test          expr.Expr
		Body          Stmt
		CoherentCheck bool
	}

	ForStmt struct {
		Base `tlog:",embed"`

		Init          Stmt // nil if absent
		Test          expr.Expr // nil means "always true"
		Step          Stmt // nil if absent
		Body          Stmt
		CoherentCheck bool
	}

	BreakStmt struct {
		Base `tlog:",embed"`

		CoherentCheck bool
	}

	ContinueStmt struct {
		Base `tlog:",embed"`

		CoherentCheck bool
	}

	ReturnStmt struct {
		Base `tlog:",embed"`

		Value         expr.Expr // nil for a value-less return
		CoherentCheck bool
	}

	// StmtList is an ordered sequence of statements introducing a
	// lexical scope (spec §3.1, §5 scope bracketing).
	StmtList struct {
		Base `tlog:",embed"`

		Stmts []Stmt
	}

	PrintStmt struct {
		Base `tlog:",embed"`

		Format string
		Values []expr.Expr
	}

	AssertStmt struct {
		Base `tlog:",embed"`

		Message   string
		Condition expr.Expr
	}
)

func NewIfStmt(pos int, test expr.Expr, then, els Stmt, coherent bool) *IfStmt {
	return &IfStmt{
		Base:          Base{Pos: pos},
		Test:          test,
		Then:          then,
		Else:          els,
		CoherentCheck: coherent,
		AnyCheck:      test != nil && test.GetType() != nil && test.GetType().IsVarying(),
	}
}

func (b Base) Position() int { return b.Pos }

func (n *BraceInit) Print() string {
	s := "{"
	for i, e := range n.Elems {
		if i != 0 {
			s += ", "
		}
		s += e.Print()
	}
	return s + "}"
}

// BraceInit implements expr.Expr so that nested aggregates (a brace
// list inside a brace list, spec §4.2 step 5) can appear as an element
// of another BraceInit's Elems; compiler/lower's declaration-lowering
// algorithm type-switches for *BraceInit before ever calling GetValue.
func (n *BraceInit) GetType() types.Type { return nil }

func (n *BraceInit) GetValue(ctx *emit.Func) ir.Expr {
	panic("ast: BraceInit has no direct value; lower must recurse into Elems")
}

func (n *BraceInit) GetConstant(t types.Type) (expr.Const, bool) { return expr.Const{}, false }

func (n *BraceInit) TypeCheck() (expr.Expr, bool) {
	for i, e := range n.Elems {
		checked, ok := e.TypeCheck()
		if !ok {
			return nil, false
		}
		n.Elems[i] = checked
	}
	return n, true
}

func (n *BraceInit) Optimize() expr.Expr {
	for i, e := range n.Elems {
		n.Elems[i] = e.Optimize()
	}
	return n
}

func (n *BraceInit) EstimateCost() int {
	c := 0
	for _, e := range n.Elems {
		c += e.EstimateCost()
	}
	return c
}
