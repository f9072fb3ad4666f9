// Package format renders a compiled ir.Package/ir.Func as readable
// text for debugging: one line per basic block, one line per
// instruction inside it, in the teacher's depth-threaded
// app/hfmt.Appendf style. Statement-level cost breakdowns are
// compiler/cost.Dump's job, not this package's; this one is the
// CFG/IR side.
package format

import (
	"context"
	"fmt"

	"tlog.app/go/errors"
	"github.com/nikandfor/hacked/hfmt"

	"github.com/vexlang/lower/compiler/ir"
)

// Package renders every function in p, one after another.
func Package(ctx context.Context, b []byte, p *ir.Package) (_ []byte, err error) {
	for i, f := range p.Funcs {
		if i != 0 {
			b = append(b, '\n')
		}

		b, err = Func(ctx, b, f)
		if err != nil {
			return nil, errors.Wrap(err, "func %v", f.Name)
		}
	}

	return b, nil
}

// Func renders one function: its name, then every basic block in
// creation order.
func Func(ctx context.Context, b []byte, f *ir.Func) (_ []byte, err error) {
	b = app(b, 0, "func %v {\n", f.Name)

	for _, blk := range f.Blocks {
		b, err = block(ctx, b, f, blk)
		if err != nil {
			return nil, errors.Wrap(err, "block %v", blk.Name)
		}
	}

	b = app(b, 0, "}\n")

	return b, nil
}

func block(ctx context.Context, b []byte, f *ir.Func, blk *ir.Block) (_ []byte, err error) {
	b = app(b, 1, "%v: ; %v\n", blockLabel(blk), blk.Name)

	for _, e := range blk.Code {
		b, err = value(ctx, b, f, e)
		if err != nil {
			return nil, errors.Wrap(err, "expr %v", e)
		}
	}

	return b, nil
}

func value(ctx context.Context, b []byte, f *ir.Func, e ir.Expr) (_ []byte, err error) {
	if int(e) < 0 || int(e) >= len(f.Exprs) {
		return nil, errors.New("expr %v out of range", e)
	}

	v := f.Exprs[e]
	typ := f.EType[e]

	switch v := v.(type) {
	case ir.Imm:
		b = app(b, 2, "%%%d = imm %d : %v\n", e, v.Value, typ)
	case ir.FImm:
		b = app(b, 2, "%%%d = fimm %v : %v\n", e, v.Value, typ)
	case ir.Undef:
		b = app(b, 2, "%%%d = undef : %v\n", e, typ)
	case ir.Arg:
		b = app(b, 2, "%%%d = arg %d : %v\n", e, v.Num, typ)
	case ir.BinOp:
		b = app(b, 2, "%%%d = %%%d %v %%%d : %v\n", e, v.L, v.Op, v.R, typ)
	case ir.UnOp:
		b = app(b, 2, "%%%d = %v%%%d : %v\n", e, v.Op, v.X, typ)
	case ir.Cmp:
		b = app(b, 2, "%%%d = %%%d %v %%%d : %v\n", e, v.L, v.Op, v.R, typ)
	case ir.Select:
		b = app(b, 2, "%%%d = select %%%d, %%%d, %%%d : %v\n", e, v.Cond, v.T, v.F, typ)
	case ir.Alloca:
		b = app(b, 2, "%%%d = alloca %v : %v\n", e, v.Name, typ)
	case ir.Global:
		b = app(b, 2, "%%%d = global %v : %v\n", e, v.Name, typ)
	case ir.Load:
		b = app(b, 2, "%%%d = load %%%d : %v\n", e, v.Ptr, typ)
	case ir.Store:
		b = app(b, 2, "store %%%d, %%%d\n", v.Val, v.Ptr)
	case ir.MaskedStore:
		b = app(b, 2, "mstore %%%d, %%%d, mask(w=%d const=%v)\n", v.Val, v.Ptr, v.Mask.Width(), v.Mask.Const())
	case ir.GEP:
		b = app(b, 2, "%%%d = gep %%%d, field %d, index %%%d : %v\n", e, v.Base, v.Field, v.Index, typ)
	case ir.BitCast:
		b = app(b, 2, "%%%d = bitcast %%%d : %v\n", e, v.X, v.Type)
	case ir.StringConst:
		b = app(b, 2, "%%%d = string %q : %v\n", e, v.S, typ)
	case ir.Call:
		b = app(b, 2, "%%%d = call %v(%v) : %v\n", e, v.Func, exprList(v.Args), typ)
	case ir.MaskAll:
		b = app(b, 2, "%%%d = mask.all(w=%d const=%v) : %v\n", e, v.Mask.Width(), v.Mask.Const(), typ)
	case ir.MaskAny:
		b = app(b, 2, "%%%d = mask.any(w=%d const=%v) : %v\n", e, v.Mask.Width(), v.Mask.Const(), typ)
	case ir.MaskToI64:
		b = app(b, 2, "%%%d = mask.lanemask(w=%d const=%v) : %v\n", e, v.Mask.Width(), v.Mask.Const(), typ)
	case ir.Phi:
		b = app(b, 2, "%%%d = phi %v\n", e, phiList(v))
	case ir.B:
		b = app(b, 2, "br %v\n", labelName(f, v.Label))
	case ir.BCond:
		b = app(b, 2, "br %%%d, %v, %v\n", v.Expr, labelName(f, v.Then), labelName(f, v.Else))
	case ir.Ret:
		b = app(b, 2, "ret %v\n", exprList(v.Values))
	default:
		return nil, errors.New("unsupported ir value: %T", v)
	}

	return b, nil
}

func blockLabel(b *ir.Block) string {
	return fmt.Sprintf("bb%d", b.Label)
}

func labelName(f *ir.Func, l ir.Label) string {
	if blk := f.Block(l); blk != nil {
		return blockLabel(blk)
	}
	return fmt.Sprintf("bb%d", l)
}

func exprList(es []ir.Expr) string {
	s := ""
	for i, e := range es {
		if i != 0 {
			s += ", "
		}
		s += fmt.Sprintf("%%%d", e)
	}
	return s
}

func phiList(ps ir.Phi) string {
	s := ""
	for i, p := range ps {
		if i != 0 {
			s += ", "
		}
		s += fmt.Sprintf("[%v: %%%d]", p.Block, p.Expr)
	}
	return s
}

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"
	b = append(b, tabs[:d]...)
	b = hfmt.Appendf(b, f, args...)
	return b
}
