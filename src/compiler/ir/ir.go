// Package ir is the concrete CFG representation compiler/emit builds
// into: a flat arena of values per function (mirroring the teacher's
// ir5.go Expr/Type arena) plus a list of basic blocks referencing into
// it by index. This is the "low-level IR builder" spec.md §1 treats as
// an external collaborator — here it's given a real, simple body so
// the lowering core in compiler/lower is exercisable end to end.
package ir

import (
	"tlog.app/go/tlog/tlwire"

	"github.com/vexlang/lower/compiler/mask"
)

type (
	// Expr indexes into a Func's Exprs/EType arenas.
	Expr int

	Label int

	Cond string

	// Value is any instruction shape below, stored as `any` in
	// Func.Exprs the way ir5.go stores its Add/Sub/Cmp/... variants.
	Value any

	Imm struct {
		Value int64
	}

	FImm struct {
		Value float64
	}

	// Undef is the "undefined-value" store target spec §4.2 step 1
	// describes for absent initializers.
	Undef struct{}

	Arg struct {
		Num int
	}

	BinOp struct {
		Op   string // "+","-","*","/","%","&","|","^","<<",">>"
		L, R Expr
	}

	UnOp struct {
		Op string // "-","!","~"
		X  Expr
	}

	Cmp struct {
		Op   string
		L, R Expr
	}

	Select struct {
		Cond, T, F Expr
	}

	Alloca struct {
		Name string
		Type string
	}

	Global struct {
		Name string
		Type string
	}

	Load struct {
		Ptr Expr
	}

	Store struct {
		Val, Ptr Expr
	}

	// MaskedStore is a blend-style masked assignment (spec §4.3 case
	// V.3): store Val to Ptr only for lanes set in Mask, leaving the
	// others untouched. Used for predicated if/else assignments and for
	// return-value blending across multiple `return` sites.
	MaskedStore struct {
		Val, Ptr Expr
		Mask     mask.Mask
	}

	// GEP is GetElementPtrInst(base, i, j, name) from spec §6.1: an
	// element pointer into an aggregate, base plus a constant field
	// index and (for arrays) an element expression index.
	GEP struct {
		Base  Expr
		Field int
		Index Expr // -1 if not indexed
		Name  string
	}

	BitCast struct {
		X    Expr
		Type string
	}

	StringConst struct {
		S string
	}

	Call struct {
		Func string
		Args []Expr
	}

	// MaskAll/MaskAny/MaskToI64 are the All/Any/LaneMask reductions
	// (spec §6.1) when the mask isn't a compile-time constant.
	MaskAll   struct{ Mask mask.Mask }
	MaskAny   struct{ Mask mask.Mask }
	MaskToI64 struct{ Mask mask.Mask }

	PhiBranch struct {
		Block Label
		Expr  Expr
	}

	Phi []PhiBranch

	// B / BCond are block terminators, exactly the shapes ir5.go uses.
	B struct {
		Label Label
	}

	BCond struct {
		Expr       Expr
		Then, Else Label
	}

	// Ret is a function-level terminator. Statement lowering does not
	// emit it: a ReturnStmt stores into the return slots and branches to
	// the function's exit block (emit.Func.CurrentLanesReturned).
	Ret struct {
		Values []Expr
	}

	Block struct {
		Label Label
		Name  string
		Code  []Expr
	}

	Func struct {
		Name string
		In   []Expr
		Out  []Expr

		Blocks []*Block

		Exprs []Value
		EType []string // lowered type name, debug only

		nextLabel Label
	}

	Package struct {
		Path  string
		Funcs []*Func
	}
)

func NewFunc(name string) *Func {
	return &Func{Name: name}
}

func (f *Func) Alloc(v Value, typ string) Expr {
	id := Expr(len(f.Exprs))
	f.Exprs = append(f.Exprs, v)
	f.EType = append(f.EType, typ)
	return id
}

func (f *Func) NewLabel() Label {
	l := f.nextLabel
	f.nextLabel++
	return l
}

func (f *Func) NewBlock(name string) *Block {
	b := &Block{Label: f.NewLabel(), Name: name}
	f.Blocks = append(f.Blocks, b)
	return b
}

func (f *Func) Block(l Label) *Block {
	for _, b := range f.Blocks {
		if b.Label == l {
			return b
		}
	}
	return nil
}

func (b *Block) Append(f *Func, v Value, typ string) Expr {
	id := f.Alloc(v, typ)
	b.Code = append(b.Code, id)
	return id
}

// Terminated reports whether the block's last instruction is a
// terminator (B/BCond/Ret), matching GetCurrentBasicBlock's contract:
// a terminated block is no longer "current".
func (b *Block) Terminated(f *Func) bool {
	if len(b.Code) == 0 {
		return false
	}
	switch f.Exprs[b.Code[len(b.Code)-1]].(type) {
	case B, BCond, Ret:
		return true
	default:
		return false
	}
}

func (p PhiBranch) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder
	b = e.AppendMap(b, 2)
	b = e.AppendKeyInt64(b, "block", int64(p.Block))
	b = e.AppendKeyInt64(b, "expr", int64(p.Expr))
	return b
}
