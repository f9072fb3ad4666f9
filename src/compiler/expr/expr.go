// Package expr is the expression black box spec.md §1 and §6.2 declare
// an external collaborator: the lexer/parser/expression-AST live
// outside this core's scope, but a real module needs *something*
// behind the GetType/GetValue/GetConstant/TypeCheck/Optimize/
// EstimateCost/Print surface for compiler/lower to drive. This package
// is a small, closed set of expression variants — enough to exercise
// every statement-lowering path spec.md §4 names — grounded on the
// teacher's ast.go tagged-variant shapes and ir5.go's operator set.
package expr

import (
	"fmt"

	"github.com/vexlang/lower/compiler/emit"
	"github.com/vexlang/lower/compiler/ir"
	"github.com/vexlang/lower/compiler/symtab"
	"github.com/vexlang/lower/compiler/types"
)

type (
	// Expr is the interface every node below implements; it is exactly
	// spec.md §6.2's "Expression interface (consumed)".
	Expr interface {
		GetType() types.Type
		GetValue(ctx *emit.Func) ir.Expr
		GetConstant(t types.Type) (Const, bool)
		TypeCheck() (Expr, bool)
		Optimize() Expr
		EstimateCost() int
		Print() string
	}

	// Int32Array is implemented by constant expressions that can be
	// flattened to a []int32, per spec §6.2's AsInt32.
	Int32Array interface {
		AsInt32() ([]int32, bool)
	}

	// Const is the compile-time value captured by GetConstant and by
	// Symbol.Const (spec §4.1 optimize, §9 "Symbol-carries-mutable-fields").
	Const struct {
		Type  types.Type
		Bool  bool
		Int   int64
		Float float64
	}
)

func (c Const) asFloat() float64 {
	if c.Type != nil && c.Type.IsNumeric() && isFloatKind(c.Type) {
		return c.Float
	}
	return float64(c.Int)
}

func isFloatKind(t types.Type) bool {
	a, ok := t.(types.Atomic)
	return ok && a.Kind == types.Float
}

// ConstNode is an atomic literal; its type, uniform or varying, is Val.Type.
type ConstNode struct {
	Pos int
	Val Const
}

func (n *ConstNode) GetType() types.Type { return n.Val.Type }

func (n *ConstNode) GetValue(ctx *emit.Func) ir.Expr {
	if isFloatKind(n.Val.Type) {
		return ctx.GetFunction().Alloc(ir.FImm{Value: n.Val.asFloat()}, n.Val.Type.String())
	}
	v := n.Val.Int
	if n.Val.Type.IsBool() && n.Val.Bool {
		v = 1
	}
	return ctx.ImmInst(v, n.Val.Type.String())
}

func (n *ConstNode) GetConstant(t types.Type) (Const, bool) {
	if !n.Val.Type.Equal(t) {
		return Const{}, false
	}
	return n.Val, true
}

func (n *ConstNode) TypeCheck() (Expr, bool) { return n, true }
func (n *ConstNode) Optimize() Expr          { return n }
func (n *ConstNode) EstimateCost() int       { return 1 }
func (n *ConstNode) Print() string           { return fmt.Sprintf("const(%v)", n.Val.Int) }

func (n *ConstNode) AsInt32() ([]int32, bool) {
	if n.Val.Type.IsNumeric() && !isFloatKind(n.Val.Type) {
		return []int32{int32(n.Val.Int)}, true
	}
	return nil, false
}

// SymbolNode references a symtab.Symbol. Its type is the symbol's
// (possibly later-resolved, e.g. deferred-size array) type.
type SymbolNode struct {
	Pos int
	Sym *symtab.Symbol
}

func (n *SymbolNode) GetType() types.Type { return n.Sym.Type }

func (n *SymbolNode) GetValue(ctx *emit.Func) ir.Expr {
	loc, _ := n.Sym.Loc.(ir.Expr)
	return ctx.LoadInst(loc, n.Sym.Type.String())
}

func (n *SymbolNode) GetConstant(t types.Type) (Const, bool) {
	if n.Sym.Const == nil {
		return Const{}, false
	}
	c := n.Sym.Const.(Const)
	if !c.Type.Equal(t) {
		return Const{}, false
	}
	return c, true
}

func (n *SymbolNode) TypeCheck() (Expr, bool) { return n, true }
func (n *SymbolNode) Optimize() Expr          { return n }
func (n *SymbolNode) EstimateCost() int       { return 1 }
func (n *SymbolNode) Print() string           { return n.Sym.Name }

// UnaryNode is a unary operator ("-", "!", "~").
type UnaryNode struct {
	Pos int
	Op  string
	X   Expr
}

func (n *UnaryNode) GetType() types.Type { return n.X.GetType() }

func (n *UnaryNode) GetValue(ctx *emit.Func) ir.Expr {
	x := n.X.GetValue(ctx)
	return ctx.GetFunction().Alloc(ir.UnOp{Op: n.Op, X: x}, n.GetType().String())
}

func (n *UnaryNode) GetConstant(t types.Type) (Const, bool) {
	xc, ok := n.X.GetConstant(n.X.GetType())
	if !ok {
		return Const{}, false
	}
	switch n.Op {
	case "-":
		if isFloatKind(xc.Type) {
			xc.Float = -xc.Float
		} else {
			xc.Int = -xc.Int
		}
	case "!":
		xc.Bool = !xc.Bool
		if xc.Bool {
			xc.Int = 1
		} else {
			xc.Int = 0
		}
	case "~":
		xc.Int = ^xc.Int
	}
	return xc, xc.Type.Equal(t)
}

func (n *UnaryNode) TypeCheck() (Expr, bool) {
	x, ok := n.X.TypeCheck()
	if !ok {
		return nil, false
	}
	n.X = x
	return n, true
}

func (n *UnaryNode) Optimize() Expr {
	n.X = n.X.Optimize()
	if c, ok := n.X.GetConstant(n.X.GetType()); ok {
		folded, _ := (&UnaryNode{Op: n.Op, X: &ConstNode{Val: c}}).GetConstant(n.GetType())
		return &ConstNode{Val: folded}
	}
	return n
}

func (n *UnaryNode) EstimateCost() int { return 1 + n.X.EstimateCost() }
func (n *UnaryNode) Print() string     { return n.Op + n.X.Print() }

// BinaryNode covers arithmetic, bitwise, comparison, and logical
// operators; comparisons produce a bool of the same uniform/varying
// qualifier as their (already-unified) operands.
type BinaryNode struct {
	Pos  int
	Op   string
	L, R Expr
	Typ  types.Type // result type, set by TypeCheck
}

func (n *BinaryNode) GetType() types.Type { return n.Typ }

func (n *BinaryNode) GetValue(ctx *emit.Func) ir.Expr {
	l := n.L.GetValue(ctx)
	r := n.R.GetValue(ctx)
	if isCompare(n.Op) {
		return ctx.GetFunction().Alloc(ir.Cmp{Op: n.Op, L: l, R: r}, n.Typ.String())
	}
	return ctx.GetFunction().Alloc(ir.BinOp{Op: n.Op, L: l, R: r}, n.Typ.String())
}

func isCompare(op string) bool {
	switch op {
	case "<", ">", "<=", ">=", "==", "!=":
		return true
	}
	return false
}

func (n *BinaryNode) GetConstant(t types.Type) (Const, bool) {
	lc, ok := n.L.GetConstant(n.L.GetType())
	if !ok {
		return Const{}, false
	}
	rc, ok := n.R.GetConstant(n.R.GetType())
	if !ok {
		return Const{}, false
	}

	res := Const{Type: n.Typ}
	useFloat := isFloatKind(n.Typ)

	switch n.Op {
	case "+":
		if useFloat {
			res.Float = lc.asFloat() + rc.asFloat()
		} else {
			res.Int = lc.Int + rc.Int
		}
	case "-":
		if useFloat {
			res.Float = lc.asFloat() - rc.asFloat()
		} else {
			res.Int = lc.Int - rc.Int
		}
	case "*":
		if useFloat {
			res.Float = lc.asFloat() * rc.asFloat()
		} else {
			res.Int = lc.Int * rc.Int
		}
	case "/":
		if useFloat {
			res.Float = lc.asFloat() / rc.asFloat()
		} else if rc.Int != 0 {
			res.Int = lc.Int / rc.Int
		}
	case "<":
		res.Bool = lc.Int < rc.Int
	case ">":
		res.Bool = lc.Int > rc.Int
	case "<=":
		res.Bool = lc.Int <= rc.Int
	case ">=":
		res.Bool = lc.Int >= rc.Int
	case "==":
		res.Bool = lc.Int == rc.Int
	case "!=":
		res.Bool = lc.Int != rc.Int
	default:
		return Const{}, false
	}

	if res.Bool {
		res.Int = 1
	}

	return res, res.Type.Equal(t)
}

func (n *BinaryNode) TypeCheck() (Expr, bool) {
	l, ok := n.L.TypeCheck()
	if !ok {
		return nil, false
	}
	r, ok := n.R.TypeCheck()
	if !ok {
		return nil, false
	}
	n.L, n.R = l, r

	varying := l.GetType().IsVarying() || r.GetType().IsVarying()

	if isCompare(n.Op) {
		if varying {
			n.Typ = types.VaryingBool
		} else {
			n.Typ = types.UniformBool
		}
		return n, true
	}

	n.Typ = l.GetType()
	if varying {
		n.Typ = n.Typ.AsNonConst()
		if a, ok := n.Typ.(types.Atomic); ok {
			n.Typ = a.AsVarying()
		}
	}

	return n, true
}

func (n *BinaryNode) Optimize() Expr {
	n.L = n.L.Optimize()
	n.R = n.R.Optimize()

	if c, ok := n.GetConstant(n.Typ); ok {
		return &ConstNode{Val: c}
	}

	return n
}

func (n *BinaryNode) EstimateCost() int { return 1 + n.L.EstimateCost() + n.R.EstimateCost() }
func (n *BinaryNode) Print() string {
	return fmt.Sprintf("(%s %s %s)", n.L.Print(), n.Op, n.R.Print())
}

func (n *BinaryNode) AsInt32() ([]int32, bool) {
	c, ok := n.GetConstant(n.Typ)
	if !ok || isFloatKind(c.Type) {
		return nil, false
	}
	return []int32{int32(c.Int)}, true
}

// AssignNode assigns Value to the storage named by a SymbolNode or
// IndexNode target; it is itself an expression whose value is the
// assigned value (C-like chained assignment).
type AssignNode struct {
	Pos    int
	Target Expr
	Value  Expr
}

func (n *AssignNode) GetType() types.Type { return n.Target.GetType() }

func (n *AssignNode) GetValue(ctx *emit.Func) ir.Expr {
	v := n.Value.GetValue(ctx)

	switch t := n.Target.(type) {
	case *SymbolNode:
		loc, _ := t.Sym.Loc.(ir.Expr)
		ctx.MaskedStoreInst(v, loc, ctx.GetFullMask())
	case *IndexNode:
		ptr := t.address(ctx)
		ctx.MaskedStoreInst(v, ptr, ctx.GetFullMask())
	}

	return v
}

func (n *AssignNode) GetConstant(t types.Type) (Const, bool) { return Const{}, false }

func (n *AssignNode) TypeCheck() (Expr, bool) {
	tgt, ok := n.Target.TypeCheck()
	if !ok {
		return nil, false
	}
	v, ok := n.Value.TypeCheck()
	if !ok {
		return nil, false
	}
	n.Target, n.Value = tgt, v
	return n, true
}

func (n *AssignNode) Optimize() Expr {
	n.Value = n.Value.Optimize()
	return n
}

func (n *AssignNode) EstimateCost() int { return 1 + n.Value.EstimateCost() }
func (n *AssignNode) Print() string     { return n.Target.Print() + " = " + n.Value.Print() }

// SelectNode is the ternary `cond ? then : els`.
type SelectNode struct {
	Pos              int
	Cond, Then, Else Expr
}

func (n *SelectNode) GetType() types.Type { return n.Then.GetType() }

func (n *SelectNode) GetValue(ctx *emit.Func) ir.Expr {
	c := n.Cond.GetValue(ctx)
	th := n.Then.GetValue(ctx)
	el := n.Else.GetValue(ctx)
	return ctx.GetFunction().Alloc(ir.Select{Cond: c, T: th, F: el}, n.GetType().String())
}

func (n *SelectNode) GetConstant(t types.Type) (Const, bool) {
	cc, ok := n.Cond.GetConstant(n.Cond.GetType())
	if !ok {
		return Const{}, false
	}
	if cc.Bool {
		return n.Then.GetConstant(t)
	}
	return n.Else.GetConstant(t)
}

func (n *SelectNode) TypeCheck() (Expr, bool) {
	c, ok := n.Cond.TypeCheck()
	if !ok {
		return nil, false
	}
	th, ok := n.Then.TypeCheck()
	if !ok {
		return nil, false
	}
	el, ok := n.Else.TypeCheck()
	if !ok {
		return nil, false
	}
	n.Cond, n.Then, n.Else = c, th, el
	return n, true
}

func (n *SelectNode) Optimize() Expr {
	n.Cond = n.Cond.Optimize()
	n.Then = n.Then.Optimize()
	n.Else = n.Else.Optimize()
	return n
}

func (n *SelectNode) EstimateCost() int {
	return 1 + n.Cond.EstimateCost() + n.Then.EstimateCost() + n.Else.EstimateCost()
}
func (n *SelectNode) Print() string {
	return fmt.Sprintf("(%s ? %s : %s)", n.Cond.Print(), n.Then.Print(), n.Else.Print())
}

// IndexNode indexes into an array/vector base. Per spec §4.5 it is
// safe-with-all-lanes-off only when Base's size is statically known,
// Idx is a constant expression, and that constant is in range — the
// safety package inspects IsConstIndex/ConstIndexInRange for this.
type IndexNode struct {
	Pos      int
	Base     Expr
	Idx      Expr
	BaseSize int // element count of Base's type, 0 if unknown/unbounded
}

func (n *IndexNode) elemType() types.Type {
	seq, ok := n.Base.GetType().(types.Sequential)
	if !ok {
		return nil
	}
	return seq.ElemType()
}

func (n *IndexNode) GetType() types.Type { return n.elemType() }

func (n *IndexNode) address(ctx *emit.Func) ir.Expr {
	base := n.Base.GetValue(ctx)
	idx := n.Idx.GetValue(ctx)
	return ctx.GetElementPtrInst(base, 0, idx, "elem")
}

func (n *IndexNode) GetValue(ctx *emit.Func) ir.Expr {
	ptr := n.address(ctx)
	return ctx.LoadInst(ptr, n.GetType().String())
}

func (n *IndexNode) GetConstant(t types.Type) (Const, bool) { return Const{}, false }

func (n *IndexNode) TypeCheck() (Expr, bool) {
	b, ok := n.Base.TypeCheck()
	if !ok {
		return nil, false
	}
	i, ok := n.Idx.TypeCheck()
	if !ok {
		return nil, false
	}
	n.Base, n.Idx = b, i

	if seq, ok := n.Base.GetType().(types.Sequential); ok {
		n.BaseSize = seq.ElementCount()
	}

	return n, true
}

func (n *IndexNode) Optimize() Expr {
	n.Base = n.Base.Optimize()
	n.Idx = n.Idx.Optimize()
	return n
}

func (n *IndexNode) EstimateCost() int { return 2 + n.Base.EstimateCost() + n.Idx.EstimateCost() }
func (n *IndexNode) Print() string     { return fmt.Sprintf("%s[%s]", n.Base.Print(), n.Idx.Print()) }

// IsConstIndex reports whether Idx folds to a compile-time constant,
// and ConstIndexInRange reports whether that constant lies in
// [0, BaseSize). Both are used by the safety predicate (spec §4.5).
func (n *IndexNode) IsConstIndex() (int64, bool) {
	c, ok := n.Idx.GetConstant(n.Idx.GetType())
	if !ok || isFloatKind(c.Type) {
		return 0, false
	}
	return c.Int, true
}

func (n *IndexNode) ConstIndexInRange() bool {
	v, ok := n.IsConstIndex()
	return ok && n.BaseSize > 0 && v >= 0 && v < int64(n.BaseSize)
}

// CallNode is an opaque function call: always unsafe-with-mask-off per
// spec §4.5's table ("FunctionCall | never (conservative)").
type CallNode struct {
	Pos  int
	Name string
	Args []Expr
	Typ  types.Type
}

func (n *CallNode) GetType() types.Type { return n.Typ }

func (n *CallNode) GetValue(ctx *emit.Func) ir.Expr {
	args := make([]ir.Expr, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.GetValue(ctx)
	}
	return ctx.CallInst(n.Name, args, n.Typ.String())
}

func (n *CallNode) GetConstant(t types.Type) (Const, bool) { return Const{}, false }

func (n *CallNode) TypeCheck() (Expr, bool) {
	for i, a := range n.Args {
		a, ok := a.TypeCheck()
		if !ok {
			return nil, false
		}
		n.Args[i] = a
	}
	return n, true
}

func (n *CallNode) Optimize() Expr {
	for i, a := range n.Args {
		n.Args[i] = a.Optimize()
	}
	return n
}

func (n *CallNode) EstimateCost() int {
	c := 4
	for _, a := range n.Args {
		c += a.EstimateCost()
	}
	return c
}

func (n *CallNode) Print() string {
	s := n.Name + "("
	for i, a := range n.Args {
		if i != 0 {
			s += ", "
		}
		s += a.Print()
	}
	return s + ")"
}

// ExprListNode is a comma expression list; its value and type are its
// last element's.
type ExprListNode struct {
	Pos   int
	Elems []Expr
}

func (n *ExprListNode) GetType() types.Type {
	if len(n.Elems) == 0 {
		return nil
	}
	return n.Elems[len(n.Elems)-1].GetType()
}

func (n *ExprListNode) GetValue(ctx *emit.Func) (last ir.Expr) {
	for _, e := range n.Elems {
		last = e.GetValue(ctx)
	}
	return last
}

func (n *ExprListNode) GetConstant(t types.Type) (Const, bool) {
	if len(n.Elems) == 0 {
		return Const{}, false
	}
	return n.Elems[len(n.Elems)-1].GetConstant(t)
}

func (n *ExprListNode) TypeCheck() (Expr, bool) {
	for i, e := range n.Elems {
		e, ok := e.TypeCheck()
		if !ok {
			return nil, false
		}
		n.Elems[i] = e
	}
	return n, true
}

func (n *ExprListNode) Optimize() Expr {
	for i, e := range n.Elems {
		n.Elems[i] = e.Optimize()
	}
	return n
}

func (n *ExprListNode) EstimateCost() int {
	c := 0
	for _, e := range n.Elems {
		c += e.EstimateCost()
	}
	return c
}

func (n *ExprListNode) Print() string {
	s := ""
	for i, e := range n.Elems {
		if i != 0 {
			s += ", "
		}
		s += e.Print()
	}
	return s
}

// SyncNode is the SPMD rejoin marker: always safe (spec §4.5), a no-op
// at emit time beyond an instrumentation point.
type SyncNode struct {
	Pos int
}

func (n *SyncNode) GetType() types.Type { return nil }
func (n *SyncNode) GetValue(ctx *emit.Func) ir.Expr {
	ctx.AddInstrumentationPoint("sync")
	return -1
}
func (n *SyncNode) GetConstant(t types.Type) (Const, bool) { return Const{}, false }
func (n *SyncNode) TypeCheck() (Expr, bool)                { return n, true }
func (n *SyncNode) Optimize() Expr                         { return n }
func (n *SyncNode) EstimateCost() int                      { return 1 }
func (n *SyncNode) Print() string                          { return "sync" }
