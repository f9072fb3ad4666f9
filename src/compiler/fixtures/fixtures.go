// Package fixtures holds programmatically-built statement trees that
// stand in for parsed .spmd source: with the lexer/parser out of
// scope (spec.md §1), cmd/lowerc and cmd/lowerwatch compile these
// named units instead of a source file.
package fixtures

import (
	"fmt"

	"github.com/vexlang/lower/compiler/ast"
	"github.com/vexlang/lower/compiler/driver"
	"github.com/vexlang/lower/compiler/expr"
	"github.com/vexlang/lower/compiler/symtab"
	"github.com/vexlang/lower/compiler/types"
)

var units = map[string]func() driver.Unit{
	"uniform-decl": uniformDecl,
	"varying-if":   varyingIf,
	"varying-loop": varyingLoop,
}

// Names lists every known fixture unit name.
func Names() []string {
	names := make([]string, 0, len(units))
	for name := range units {
		names = append(names, name)
	}
	return names
}

// Load builds the named fixture unit, or an error naming every known
// unit if name isn't one of them.
func Load(name string) (driver.Unit, error) {
	build, ok := units[name]
	if !ok {
		return driver.Unit{}, fmt.Errorf("unknown unit %q (known: %v)", name, Names())
	}
	return build(), nil
}

func uniformDecl() driver.Unit {
	table := symtab.NewTable()
	sym := table.Root().Declare("x", types.NewAtomic(types.Int, 32, false), symtab.Auto, 1)

	body := &ast.StmtList{Stmts: []ast.Stmt{
		&ast.DeclStmt{Decls: []ast.VariableDeclaration{{
			Symbol:      sym,
			Initializer: &expr.ConstNode{Val: expr.Const{Type: sym.Type, Int: 7}},
		}}},
		&ast.ReturnStmt{Value: &expr.SymbolNode{Sym: sym}},
	}}

	return driver.Unit{
		Name:  "uniform-decl",
		Funcs: []driver.Function{{Name: "main", Width: 4, Body: body}},
	}
}

func varyingIf() driver.Unit {
	table := symtab.NewTable()
	boolT := types.NewAtomic(types.Bool, 1, true)
	intT := types.NewAtomic(types.Int, 32, true)
	cond := table.Root().Declare("cond", boolT, symtab.Auto, 1)
	x := table.Root().Declare("x", intT, symtab.Auto, 2)

	body := &ast.StmtList{Stmts: []ast.Stmt{
		&ast.DeclStmt{Decls: []ast.VariableDeclaration{
			{Symbol: cond, Initializer: &expr.ConstNode{Val: expr.Const{Type: boolT, Bool: true}}},
			{Symbol: x, Initializer: &expr.ConstNode{Val: expr.Const{Type: intT, Int: 0}}},
		}},
		&ast.IfStmt{
			Test:     &expr.SymbolNode{Sym: cond},
			AnyCheck: true,
			Then: &ast.ExprStmt{X: &expr.AssignNode{
				Target: &expr.SymbolNode{Sym: x},
				Value:  &expr.ConstNode{Val: expr.Const{Type: intT, Int: 1}},
			}},
			Else: &ast.ExprStmt{X: &expr.AssignNode{
				Target: &expr.SymbolNode{Sym: x},
				Value:  &expr.ConstNode{Val: expr.Const{Type: intT, Int: 2}},
			}},
		},
		&ast.ReturnStmt{Value: &expr.SymbolNode{Sym: x}},
	}}

	return driver.Unit{
		Name:  "varying-if",
		Funcs: []driver.Function{{Name: "main", Width: 4, Body: body}},
	}
}

func varyingLoop() driver.Unit {
	table := symtab.NewTable()
	intT := types.NewAtomic(types.Int, 32, true)
	uniformIntT := types.NewAtomic(types.Int, 32, false)
	uniformBoolT := types.NewAtomic(types.Bool, 1, false)
	i := table.Root().Declare("i", uniformIntT, symtab.Auto, 1)
	sum := table.Root().Declare("sum", intT, symtab.Auto, 2)

	body := &ast.StmtList{Stmts: []ast.Stmt{
		&ast.DeclStmt{Decls: []ast.VariableDeclaration{
			{Symbol: sum, Initializer: &expr.ConstNode{Val: expr.Const{Type: intT, Int: 0}}},
		}},
		&ast.ForStmt{
			Init: &ast.DeclStmt{Decls: []ast.VariableDeclaration{
				{Symbol: i, Initializer: &expr.ConstNode{Val: expr.Const{Type: uniformIntT, Int: 0}}},
			}},
			Test: &expr.BinaryNode{
				Op:  "<",
				L:   &expr.SymbolNode{Sym: i},
				R:   &expr.ConstNode{Val: expr.Const{Type: uniformIntT, Int: 4}},
				Typ: uniformBoolT,
			},
			Step: &ast.ExprStmt{X: &expr.AssignNode{
				Target: &expr.SymbolNode{Sym: i},
				Value: &expr.BinaryNode{
					Op:  "+",
					L:   &expr.SymbolNode{Sym: i},
					R:   &expr.ConstNode{Val: expr.Const{Type: uniformIntT, Int: 1}},
					Typ: uniformIntT,
				},
			}},
			Body: &ast.ExprStmt{X: &expr.AssignNode{
				Target: &expr.SymbolNode{Sym: sum},
				Value: &expr.BinaryNode{
					Op:  "+",
					L:   &expr.SymbolNode{Sym: sum},
					R:   &expr.SymbolNode{Sym: i},
					Typ: intT,
				},
			}},
		},
		&ast.ReturnStmt{Value: &expr.SymbolNode{Sym: sum}},
	}}

	return driver.Unit{
		Name:  "varying-loop",
		Funcs: []driver.Function{{Name: "main", Width: 4, Body: body}},
	}
}
