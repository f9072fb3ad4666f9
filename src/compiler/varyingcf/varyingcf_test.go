package varyingcf

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vexlang/lower/compiler/ast"
	"github.com/vexlang/lower/compiler/expr"
	"github.com/vexlang/lower/compiler/types"
)

func varyingTest() expr.Expr {
	return &expr.ConstNode{Val: expr.Const{Type: types.NewAtomic(types.Bool, 1, true)}}
}

func TestPlainBreakIsNotVarying(t *testing.T) {
	body := &ast.StmtList{Stmts: []ast.Stmt{&ast.BreakStmt{}}}
	require.False(t, HasVaryingBreakOrContinue(body))
}

func TestBreakUnderVaryingIfIsVarying(t *testing.T) {
	inner := &ast.StmtList{Stmts: []ast.Stmt{&ast.BreakStmt{}}}
	ifStmt := ast.NewIfStmt(0, varyingTest(), inner, nil, false)
	body := &ast.StmtList{Stmts: []ast.Stmt{ifStmt}}

	require.True(t, HasVaryingBreakOrContinue(body))
}

func TestBreakInsideNestedLoopDoesNotCount(t *testing.T) {
	nested := &ast.ForStmt{Body: &ast.StmtList{Stmts: []ast.Stmt{&ast.BreakStmt{}}}}
	ifStmt := ast.NewIfStmt(0, varyingTest(), nested, nil, false)
	body := &ast.StmtList{Stmts: []ast.Stmt{ifStmt}}

	require.False(t, HasVaryingBreakOrContinue(body))
}
