package lower

import (
	"github.com/vexlang/lower/compiler/ast"
	"github.com/vexlang/lower/compiler/emit"
	"github.com/vexlang/lower/compiler/ir"
	"github.com/vexlang/lower/compiler/types"
)

// emitPrintStmt lowers a print statement to a call to __do_print per
// spec §4.7: the format string, a type-alphabet string encoding each
// argument's (possibly promoted) atomic type, the vector width, the
// current full mask, and an array of opaque pointers to freshly
// allocated per-argument stack slots.
func emitPrintStmt(ctx *emit.Func, diags *Diagnostics, n *ast.PrintStmt) {
	typeChars := make([]byte, 0, len(n.Values))
	slots := make([]ir.Expr, 0, len(n.Values))

	for _, v := range n.Values {
		t := v.GetType()
		if ref, ok := t.(types.Reference); ok {
			t = ref.Target
		}

		ch, ok := printTypeChar(t)
		if !ok {
			diags.Errorf(n.Pos, "print only accepts atomic types, got %s", t)
			return
		}
		typeChars = append(typeChars, ch)

		val := v.GetValue(ctx)
		slot := ctx.AllocaInst(t.String(), "print.arg")
		ctx.StoreInst(val, slot)
		slots = append(slots, slot)
	}

	fmtPtr := ctx.GetStringPtr(n.Format)
	typePtr := ctx.GetStringPtr(string(typeChars))
	width := ctx.ImmInst(int64(ctx.Width()), "int32")
	laneMask := ctx.LaneMask(ctx.GetFullMask())

	argArray := ctx.AllocaInst("i8**", "print.args")
	for i, slot := range slots {
		elemPtr := ctx.GetElementPtrInst(argArray, i, -1, sprintf("print.arg%d.ptr", i))
		ctx.StoreInst(ctx.BitCastInst(slot, "i8*"), elemPtr)
	}

	ctx.CallInst("__do_print", []ir.Expr{fmtPtr, typePtr, width, laneMask, argArray}, "void")
}

// printTypeChar returns the §4.7 type-alphabet character for t, with
// 8/16-bit integers silently promoted to 32-bit first. The type
// system carries no separate signed/unsigned flag (see DESIGN.md), so
// Kind Int always maps to the signed letters (i/I, l/L).
func printTypeChar(t types.Type) (byte, bool) {
	a, ok := t.(types.Atomic)
	if !ok {
		return 0, false
	}

	width := a.Width
	if width < 32 {
		width = 32
	}

	var ch byte
	switch a.Kind {
	case types.Bool:
		ch = 'b'
	case types.Int:
		if width >= 64 {
			ch = 'l'
		} else {
			ch = 'i'
		}
	case types.Float:
		if width >= 64 {
			ch = 'd'
		} else {
			ch = 'f'
		}
	default:
		return 0, false
	}

	if a.IsVarying() {
		ch -= 'a' - 'A'
	}
	return ch, true
}

// emitAssertStmt lowers an assert statement per spec §4.8: builds a
// static "<pos>: Assertion failed: <message>\n" string, dispatches to
// __do_assert_uniform or __do_assert_varying on the condition's type,
// and never elides the call under an all-lanes-off mask (§4.5) — an
// assert is never "safe to skip".
func emitAssertStmt(ctx *emit.Func, diags *Diagnostics, n *ast.AssertStmt) {
	t := n.Condition.GetType()
	if t == nil {
		diags.Errorf(n.Pos, "assert condition has no type")
		return
	}

	msg := sprintf("%d: Assertion failed: %s\n", n.Pos, n.Message)
	msgPtr := ctx.GetStringPtr(msg)
	cond := n.Condition.GetValue(ctx)
	fullMask := ctx.LaneMask(ctx.GetFullMask())

	fn := "__do_assert_uniform"
	if t.IsVarying() {
		fn = "__do_assert_varying"
	}

	ctx.CallInst(fn, []ir.Expr{msgPtr, cond, fullMask}, "void")
}
