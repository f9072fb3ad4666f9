package lower

import (
	"github.com/vexlang/lower/compiler/ast"
	"github.com/vexlang/lower/compiler/cost"
	"github.com/vexlang/lower/compiler/emit"
	"github.com/vexlang/lower/compiler/ir"
	"github.com/vexlang/lower/compiler/mask"
	"github.com/vexlang/lower/compiler/safety"
)

// emitIfStmt lowers an IfStmt per spec §4.3: case U for a uniform test,
// case V (delegated to the three sub-cases of §4.3) for a varying one.
func emitIfStmt(ctx *emit.Func, diags *Diagnostics, n *ast.IfStmt) {
	if ctx.GetCurrentBasicBlock() == nil {
		return
	}

	if !n.AnyCheck {
		emitUniformIf(ctx, diags, n)
		return
	}

	emitVaryingIf(ctx, diags, n)
}

func emitUniformIf(ctx *emit.Func, diags *Diagnostics, n *ast.IfStmt) {
	thenB := ctx.CreateBasicBlock("if.then")
	elseB := ctx.CreateBasicBlock("if.else")
	exitB := ctx.CreateBasicBlock("if.exit")

	cond := n.Test.GetValue(ctx)
	ctx.BranchCondInst(cond, thenB, elseB)

	ctx.SetCurrentBasicBlock(thenB)
	ctx.StartUniformIf()
	emitBranch(ctx, diags, n.Then)
	ctx.EndIf()
	if ctx.GetCurrentBasicBlock() != nil {
		ctx.BranchInst(exitB)
	}

	ctx.SetCurrentBasicBlock(elseB)
	ctx.StartUniformIf()
	emitBranch(ctx, diags, n.Else)
	ctx.EndIf()
	if ctx.GetCurrentBasicBlock() != nil {
		ctx.BranchInst(exitB)
	}

	ctx.SetCurrentBasicBlock(exitB)
}

func emitVaryingIf(ctx *emit.Func, diags *Diagnostics, n *ast.IfStmt) {
	full := ctx.GetFullMask()
	saved := ctx.GetInternalMask()

	// Case V.1: mask provably all-on at lowering time — the mixed and
	// all-off paths are unreachable, so only the specialized body runs.
	if full.Const() && full.All() {
		done := ctx.CreateBasicBlock("if.done")
		emitAllOnBody(ctx, diags, n, done, saved)
		ctx.SetCurrentBasicBlock(done)
		ctx.SetInternalMask(saved)
		return
	}

	// Case V.2: coherent-check requests a runtime all(M_full) branch
	// between the specialized and the mixed path.
	if n.CoherentCheck {
		allB := ctx.CreateBasicBlock("if.allon")
		mixedB := ctx.CreateBasicBlock("if.mixed")
		done := ctx.CreateBasicBlock("if.done")

		ctx.BranchIfMaskAll(allB, mixedB)

		ctx.SetCurrentBasicBlock(allB)
		emitAllOnBody(ctx, diags, n, done, saved)

		ctx.SetCurrentBasicBlock(mixedB)
		emitMaskMixedBody(ctx, diags, n, done, saved)

		ctx.SetCurrentBasicBlock(done)
		ctx.SetInternalMask(saved)
		return
	}

	// Case V.3: try predication when both branches are safe to run
	// unconditionally and cheap enough.
	thenCost := cost.Stmt(n.Then)
	elseCost := cost.Stmt(n.Else)
	if safety.Stmt(n.Then) && safety.Stmt(n.Else) && thenCost+elseCost < cost.PredicateSafeIfStatementCost {
		emitPredicatedIf(ctx, diags, n)
		return
	}

	done := ctx.CreateBasicBlock("if.done")
	emitMaskMixedBody(ctx, diags, n, done, saved)
	ctx.SetCurrentBasicBlock(done)
	ctx.SetInternalMask(saved)
}

// emitAllOnBody is spec §4.3.1's "mask all on" sub-lowering: M_int is
// set all-on and M_fn is saved/restored around the body; depending on
// the runtime value of the (still data-dependent) test, it runs the
// specialized then-only, mixed, or else-only path, converging on done.
// savedInt is the caller's M_int from before the if, restored alongside
// M_fn at every path that reaches done so the all-on specialization
// never leaks out of its own branch.
func emitAllOnBody(ctx *emit.Func, diags *Diagnostics, n *ast.IfStmt, done *ir.Block, savedInt mask.Mask) {
	savedFn := ctx.GetFunctionMask()
	ctx.SetInternalMask(mask.AllOn(ctx.Width()))

	t := n.Test.GetValue(ctx)

	allB := ctx.CreateBasicBlock("if.allon.then")
	restB := ctx.CreateBasicBlock("if.allon.rest")
	ctx.BranchCondInst(runtimeAll(ctx, t), allB, restB)

	ctx.SetCurrentBasicBlock(allB)
	emitBranch(ctx, diags, n.Then)
	if ctx.GetCurrentBasicBlock() != nil {
		ctx.SetFunctionMask(savedFn)
		ctx.SetInternalMask(savedInt)
		ctx.BranchInst(done)
	}

	ctx.SetCurrentBasicBlock(restB)
	anyB := ctx.CreateBasicBlock("if.allon.mixed")
	elseOnlyB := ctx.CreateBasicBlock("if.allon.else")
	ctx.BranchCondInst(runtimeAny(ctx, t), anyB, elseOnlyB)

	// The mixed sub-branch still only knows the test result is mixed
	// across lanes, not which lanes; predication is only safe here
	// under the same safe-with-all-lanes-off/cost gate as case V.3 —
	// otherwise an assert or call in Then/Else would run unconditionally
	// for lanes whose predicate is false.
	ctx.SetCurrentBasicBlock(anyB)
	if safety.Stmt(n.Then) && safety.Stmt(n.Else) && cost.Stmt(n.Then)+cost.Stmt(n.Else) < cost.PredicateSafeIfStatementCost {
		emitPredicatedIf(ctx, diags, n)
	} else {
		emitMaskMixedBody(ctx, diags, n, done, mask.AllOn(ctx.Width()))
	}
	if ctx.GetCurrentBasicBlock() != nil {
		ctx.SetFunctionMask(savedFn)
		ctx.SetInternalMask(savedInt)
		ctx.BranchInst(done)
	}

	ctx.SetCurrentBasicBlock(elseOnlyB)
	emitBranch(ctx, diags, n.Else)
	if ctx.GetCurrentBasicBlock() != nil {
		ctx.SetFunctionMask(savedFn)
		ctx.SetInternalMask(savedInt)
		ctx.BranchInst(done)
	}
}

// emitMaskMixedBody is spec §4.3.2: each branch is entered only when
// any lane of its narrowed mask is active, and M_int is restored after.
// saved is the caller's M_int from before the if, captured once by the
// caller so it is threaded here even when the caller already invoked
// emitAllOnBody first (whose all-on specialization would otherwise be
// visible through ctx.GetInternalMask() at this point).
func emitMaskMixedBody(ctx *emit.Func, diags *Diagnostics, n *ast.IfStmt, done *ir.Block, saved mask.Mask) {
	ctx.SetInternalMask(saved)
	ctx.StartVaryingIf(saved)

	ctx.SetInternalMaskAnd(mask.Runtime(ctx.Width()))
	thenB := ctx.CreateBasicBlock("if.then")
	skipThen := ctx.CreateBasicBlock("if.then.skip")
	ctx.BranchIfMaskAny(thenB, skipThen)

	ctx.SetCurrentBasicBlock(thenB)
	emitBranch(ctx, diags, n.Then)
	if ctx.GetCurrentBasicBlock() != nil {
		ctx.BranchInst(skipThen)
	}

	ctx.SetCurrentBasicBlock(skipThen)
	ctx.SetInternalMask(saved)
	ctx.SetInternalMaskAndNot(mask.Runtime(ctx.Width()))
	elseB := ctx.CreateBasicBlock("if.else")
	skipElse := ctx.CreateBasicBlock("if.else.skip")
	ctx.BranchIfMaskAny(elseB, skipElse)

	ctx.SetCurrentBasicBlock(elseB)
	emitBranch(ctx, diags, n.Else)
	if ctx.GetCurrentBasicBlock() != nil {
		ctx.BranchInst(skipElse)
	}

	ctx.SetCurrentBasicBlock(skipElse)
	ctx.EndIf()

	if ctx.GetCurrentBasicBlock() != nil {
		ctx.BranchInst(done)
	}
}

// emitPredicatedIf runs both branches unconditionally under
// blend-style masked assignments (spec §4.3 case V.3): no branch on
// any(mask) at all.
func emitPredicatedIf(ctx *emit.Func, diags *Diagnostics, n *ast.IfStmt) {
	saved := ctx.GetInternalMask()

	ctx.SetInternalMaskAnd(mask.Runtime(ctx.Width()))
	emitBranch(ctx, diags, n.Then)

	ctx.SetInternalMask(saved)
	ctx.SetInternalMaskAndNot(mask.Runtime(ctx.Width()))
	emitBranch(ctx, diags, n.Else)

	ctx.SetInternalMask(saved)
}

func emitBranch(ctx *emit.Func, diags *Diagnostics, s ast.Stmt) {
	if s == nil || ctx.GetCurrentBasicBlock() == nil {
		return
	}

	if _, ok := s.(*ast.StmtList); ok {
		Emit(ctx, diags, s)
		return
	}

	ctx.StartScope()
	Emit(ctx, diags, s)
	ctx.EndScope()
}

func runtimeAll(ctx *emit.Func, t ir.Expr) ir.Expr {
	return ctx.CallInst("__vec_all", []ir.Expr{t}, "bool")
}

func runtimeAny(ctx *emit.Func, t ir.Expr) ir.Expr {
	return ctx.CallInst("__vec_any", []ir.Expr{t}, "bool")
}
