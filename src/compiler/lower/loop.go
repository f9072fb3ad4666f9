package lower

import (
	"github.com/vexlang/lower/compiler/ast"
	"github.com/vexlang/lower/compiler/emit"
	"github.com/vexlang/lower/compiler/expr"
	"github.com/vexlang/lower/compiler/ir"
	"github.com/vexlang/lower/compiler/mask"
	"github.com/vexlang/lower/compiler/varyingcf"
)

// isUniformLoop decides, per spec §4.4 and the §4.6 detector, whether
// a loop's test can be lowered with ordinary (unmasked) branches: the
// test itself must be uniform AND the body must contain no break or
// continue reachable under varying control flow.
func isUniformLoop(test expr.Expr, body ast.Stmt) bool {
	if test == nil {
		return true
	}
	if test.GetType() == nil || test.GetType().IsVarying() {
		return false
	}
	return !varyingcf.HasVaryingBreakOrContinue(body)
}

func emitDoStmt(ctx *emit.Func, diags *Diagnostics, n *ast.DoStmt) {
	if ctx.GetCurrentBasicBlock() == nil {
		return
	}

	uniform := isUniformLoop(n.Test, n.Body)

	bodyB := ctx.CreateBasicBlock("do.body")
	testB := ctx.CreateBasicBlock("do.test")
	exitB := ctx.CreateBasicBlock("do.exit")

	ctx.BranchInst(bodyB)
	ctx.StartLoop(exitB, testB, uniform)

	emitLoopBody(ctx, diags, n.Body, bodyB, testB, uniform, n.CoherentCheck)

	ctx.SetCurrentBasicBlock(testB)
	if !uniform {
		ctx.RestoreContinuedLanes()
	}
	emitLoopTest(ctx, n.Test, bodyB, exitB, uniform)

	ctx.EndLoop()
	ctx.SetCurrentBasicBlock(exitB)
}

func emitForStmt(ctx *emit.Func, diags *Diagnostics, n *ast.ForStmt) {
	if ctx.GetCurrentBasicBlock() == nil {
		return
	}

	// The for-init opens a scope enclosing the whole loop (spec §4.4).
	ctx.StartScope()
	if n.Init != nil {
		Emit(ctx, diags, n.Init)
	}

	uniform := isUniformLoop(n.Test, n.Body)

	testB := ctx.CreateBasicBlock("for.test")
	bodyB := ctx.CreateBasicBlock("for.body")
	stepB := ctx.CreateBasicBlock("for.step")
	exitB := ctx.CreateBasicBlock("for.exit")

	if ctx.GetCurrentBasicBlock() != nil {
		ctx.BranchInst(testB)
	}
	ctx.StartLoop(exitB, stepB, uniform)

	ctx.SetCurrentBasicBlock(testB)
	if !uniform {
		ctx.RestoreContinuedLanes()
	}
	emitLoopTest(ctx, n.Test, bodyB, exitB, uniform)

	emitLoopBody(ctx, diags, n.Body, bodyB, stepB, uniform, n.CoherentCheck)

	ctx.SetCurrentBasicBlock(stepB)
	if n.Step != nil {
		Emit(ctx, diags, n.Step)
	}
	if ctx.GetCurrentBasicBlock() != nil {
		ctx.BranchInst(testB)
	}

	ctx.EndLoop()
	ctx.EndScope()
	ctx.SetCurrentBasicBlock(exitB)
}

// emitLoopTest evaluates test and branches to body or exit. For a
// varying test, M_int is narrowed to M_int & t first (spec §4.4: "at
// each iteration, M_int := M_int & t; branch to body if any(M_int)
// else to exit"), and the result becomes the loop's persistent mask.
// uniform is the loop-wide classification computed by isUniformLoop,
// not merely the test's own type, since a uniform test can still force
// varying-loop lowering when the body hides a varying break/continue.
func emitLoopTest(ctx *emit.Func, test expr.Expr, bodyB, exitB *ir.Block, uniform bool) {
	if ctx.GetCurrentBasicBlock() == nil {
		return
	}

	if test == nil {
		ctx.BranchInst(bodyB)
		return
	}

	if uniform {
		cond := test.GetValue(ctx)
		ctx.BranchCondInst(cond, bodyB, exitB)
		return
	}

	test.GetValue(ctx) // the runtime test value itself isn't separately trackable here (§9 simplification, see DESIGN.md); narrowing uses an opaque runtime mask

	narrowed := ctx.GetInternalMask().And(mask.Runtime(ctx.Width()))
	ctx.SetLoopMask(narrowed)
	ctx.BranchIfMaskAny(bodyB, exitB)
}

// emitLoopBody emits the loop body into bodyEntry, branching to after
// once done. A coherent varying loop additionally specializes the body
// on whether M_int is provably all-on at runtime (spec §4.4).
func emitLoopBody(ctx *emit.Func, diags *Diagnostics, body ast.Stmt, bodyEntry, after *ir.Block, uniform, coherent bool) {
	ctx.SetCurrentBasicBlock(bodyEntry)

	if uniform || !coherent {
		emitBranch(ctx, diags, body)
		if ctx.GetCurrentBasicBlock() != nil {
			ctx.BranchInst(after)
		}
		return
	}

	allB := ctx.CreateBasicBlock("loop.body.allon")
	mixedB := ctx.CreateBasicBlock("loop.body.mixed")
	ctx.BranchIfMaskAll(allB, mixedB)

	ctx.SetCurrentBasicBlock(allB)
	saved := ctx.GetInternalMask()
	ctx.SetInternalMask(mask.AllOn(ctx.Width()))
	emitBranch(ctx, diags, body)
	if ctx.GetCurrentBasicBlock() != nil {
		ctx.SetInternalMask(saved)
		ctx.BranchInst(after)
	}

	ctx.SetCurrentBasicBlock(mixedB)
	emitBranch(ctx, diags, body)
	if ctx.GetCurrentBasicBlock() != nil {
		ctx.BranchInst(after)
	}
}
