package cost

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vexlang/lower/compiler/ast"
	"github.com/vexlang/lower/compiler/expr"
	"github.com/vexlang/lower/compiler/types"
)

func boolConst(varying bool) expr.Expr {
	return &expr.ConstNode{Val: expr.Const{Type: types.NewAtomic(types.Bool, 1, varying)}}
}

func TestUniformIfCostsLessThanVaryingIf(t *testing.T) {
	uniform := ast.NewIfStmt(0, boolConst(false), &ast.StmtList{}, nil, false)
	varying := ast.NewIfStmt(0, boolConst(true), &ast.StmtList{}, nil, false)

	require.Less(t, Stmt(uniform), Stmt(varying))
}

func TestBreakCoherentCostsMoreThanRegular(t *testing.T) {
	require.Less(t, Stmt(&ast.BreakStmt{}), Stmt(&ast.BreakStmt{CoherentCheck: true}))
}

func TestStmtListSumsChildren(t *testing.T) {
	l := &ast.StmtList{Stmts: []ast.Stmt{
		&ast.ReturnStmt{},
		&ast.ReturnStmt{},
	}}
	require.Equal(t, 2*Return, Stmt(l))
}

func TestDumpProducesNonEmptyOutput(t *testing.T) {
	l := &ast.StmtList{Stmts: []ast.Stmt{&ast.ReturnStmt{}}}

	b, err := Dump(context.Background(), nil, l)
	require.NoError(t, err)
	require.NotEmpty(t, b)
}
