// Package emit is the concrete emit context spec.md §6.1 describes as
// an external collaborator. It builds an in-memory CFG (compiler/ir)
// while tracking the function mask, internal mask, loop-exit/continue
// targets and scope/if bracket bookkeeping described in spec.md §5.
//
// Grounded on the teacher's front.Scope bookkeeping (branchTo/branchCond/
// mask-stack style recursion in front/compile7.go), generalized from a
// plain scalar CFG to a mask-carrying SPMD one.
package emit

import (
	"strconv"

	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/vexlang/lower/compiler/ir"
	"github.com/vexlang/lower/compiler/mask"
	"github.com/vexlang/lower/compiler/symtab"
)

type (
	// Func is the per-function emit context: one is created per
	// function being lowered and threaded through every statement's
	// Emit call.
	Func struct {
		F     *ir.Func
		width int

		cur *ir.Block

		fnMask  mask.Mask
		intMask mask.Mask

		exitBlock *ir.Block
		retSlots  []ir.Expr

		loops  []*loopFrame
		ifs    []ifFrame
		scopes int

		debugPos int
	}

	loopFrame struct {
		exit, continueTarget *ir.Block
		uniform               bool
		loopMask              mask.Mask
		continuedMask         mask.Mask
	}

	ifFrame struct {
		varying   bool
		savedMask mask.Mask
	}
)

// NewFunc creates an emit context for f with the given SIMD width,
// starting with both masks all-on (the state a freshly entered
// function has before any test narrows them).
func NewFunc(f *ir.Func, width int) *Func {
	return &Func{
		F:       f,
		width:   width,
		fnMask:  mask.AllOn(width),
		intMask: mask.AllOn(width),
	}
}

func (c *Func) Width() int { return c.width }

// GetFunction returns the ir.Func being built, per spec §6.1 introspection.
func (c *Func) GetFunction() *ir.Func { return c.F }

func (c *Func) SetFunctionExit(b *ir.Block) { c.exitBlock = b }
func (c *Func) FunctionExit() *ir.Block     { return c.exitBlock }

// --- basic blocks ---

func (c *Func) GetCurrentBasicBlock() *ir.Block { return c.cur }

func (c *Func) CreateBasicBlock(name string) *ir.Block { return c.F.NewBlock(name) }

func (c *Func) SetCurrentBasicBlock(b *ir.Block) { c.cur = b }

func (c *Func) BranchInst(dest *ir.Block) {
	if c.cur == nil {
		return
	}
	c.cur.Append(c.F, ir.B{Label: dest.Label}, "")
	c.cur = nil
}

func (c *Func) BranchCondInst(cond ir.Expr, t, f *ir.Block) {
	if c.cur == nil {
		return
	}
	c.cur.Append(c.F, ir.BCond{Expr: cond, Then: t.Label, Else: f.Label}, "")
	c.cur = nil
}

// --- scopes ---

func (c *Func) StartScope() {
	c.scopes++
	tlog.V("scope").Printw("start scope", "depth", c.scopes, "from", loc.Callers(1, 3))
}

func (c *Func) EndScope() {
	c.scopes--
	tlog.V("scope").Printw("end scope", "depth", c.scopes, "from", loc.Callers(1, 3))
}

// --- if bracket ---

func (c *Func) StartUniformIf() {
	c.ifs = append(c.ifs, ifFrame{varying: false})
}

func (c *Func) StartVaryingIf(oldMask mask.Mask) {
	c.ifs = append(c.ifs, ifFrame{varying: true, savedMask: oldMask})
}

func (c *Func) EndIf() {
	n := len(c.ifs) - 1
	f := c.ifs[n]
	c.ifs = c.ifs[:n]

	if f.varying {
		c.SetInternalMask(f.savedMask)
	}
}

// VaryingCFDepth reports how many enclosing varying ifs/loops surround
// the current emission point (spec §6.1 introspection).
func (c *Func) VaryingCFDepth() int {
	n := 0
	for _, f := range c.ifs {
		if f.varying {
			n++
		}
	}
	for _, l := range c.loops {
		if !l.uniform {
			n++
		}
	}
	return n
}

// --- loop bracket ---

func (c *Func) StartLoop(exit, continueTarget *ir.Block, uniform bool) {
	c.loops = append(c.loops, &loopFrame{
		exit:           exit,
		continueTarget: continueTarget,
		uniform:        uniform,
		loopMask:       mask.AllOn(c.width),
		continuedMask:  mask.New(c.width),
	})
}

func (c *Func) EndLoop() {
	c.loops = c.loops[:len(c.loops)-1]
}

func (c *Func) topLoop() *loopFrame {
	return c.loops[len(c.loops)-1]
}

// SetLoopMask sets both the current loop's persistent loop mask and the
// internal mask to m — used at the top of each iteration once the test
// has been ANDed in.
func (c *Func) SetLoopMask(m mask.Mask) {
	c.topLoop().loopMask = m
	c.SetInternalMask(m)
}

func (c *Func) GetLoopMask() mask.Mask { return c.topLoop().loopMask }

// RestoreContinuedLanes brings lanes that hit `continue` last iteration
// back into the internal mask, and clears the continued-lanes bookkeeping
// for the next iteration (spec §4.4).
func (c *Func) RestoreContinuedLanes() {
	lf := c.topLoop()
	c.SetInternalMask(c.GetInternalMask().Or(lf.continuedMask))
	lf.continuedMask = mask.New(c.width)
}

// --- masks ---

func (c *Func) GetInternalMask() mask.Mask { return c.intMask }
func (c *Func) SetInternalMask(m mask.Mask) { c.intMask = m }
func (c *Func) SetInternalMaskAnd(m mask.Mask) { c.intMask = c.intMask.And(m) }
func (c *Func) SetInternalMaskAndNot(m mask.Mask) { c.intMask = c.intMask.AndNot(m) }

func (c *Func) GetFunctionMask() mask.Mask { return c.fnMask }
func (c *Func) SetFunctionMask(m mask.Mask) { c.fnMask = m }

func (c *Func) GetFullMask() mask.Mask { return c.fnMask.And(c.intMask) }

// All/Any/LaneMask are the reductions of spec §6.1: constant masks fold
// to immediates, runtime masks emit a pseudo-intrinsic call.
func (c *Func) All(m mask.Mask) ir.Expr {
	if c.cur == nil {
		return -1
	}
	if m.Const() {
		return c.cur.Append(c.F, ir.Imm{Value: boolInt(m.All())}, "bool")
	}
	return c.cur.Append(c.F, ir.MaskAll{Mask: m}, "bool")
}

func (c *Func) Any(m mask.Mask) ir.Expr {
	if c.cur == nil {
		return -1
	}
	if m.Const() {
		return c.cur.Append(c.F, ir.Imm{Value: boolInt(m.Any())}, "bool")
	}
	return c.cur.Append(c.F, ir.MaskAny{Mask: m}, "bool")
}

func (c *Func) LaneMask(m mask.Mask) ir.Expr {
	if c.cur == nil {
		return -1
	}
	if m.Const() {
		var v int64
		m.Range(func(i int) bool {
			v |= 1 << uint(i)
			return true
		})
		return c.cur.Append(c.F, ir.Imm{Value: v}, "int64")
	}
	return c.cur.Append(c.F, ir.MaskToI64{Mask: m}, "int64")
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// BranchIfMaskAll branches to bAll if the full mask is all on, bMixed
// otherwise — the runtime check behind a coherent-check if/loop.
func (c *Func) BranchIfMaskAll(bAll, bMixed *ir.Block) {
	cond := c.All(c.GetFullMask())
	c.BranchCondInst(cond, bAll, bMixed)
}

// BranchIfMaskAny branches to run if any lane of the full mask is on,
// skip otherwise.
func (c *Func) BranchIfMaskAny(run, skip *ir.Block) {
	cond := c.Any(c.GetFullMask())
	c.BranchCondInst(cond, run, skip)
}

// --- break / continue / return ---

func (c *Func) Break(coherent bool) {
	if c.cur == nil {
		return
	}

	lf := c.topLoop()

	if lf.uniform {
		c.BranchInst(lf.exit)
		return
	}

	full := c.GetFullMask()
	lf.loopMask = lf.loopMask.AndNot(full)
	c.fnMask = c.fnMask.AndNot(full)
	c.SetInternalMask(c.intMask.AndNot(full))

	if !coherent {
		return
	}

	if rest := c.GetFullMask(); rest.Const() && !rest.Any() {
		c.BranchInst(lf.exit)
		return
	}

	cont := c.CreateBasicBlock("break.cont")
	c.BranchIfMaskAny(cont, lf.exit)
	c.SetCurrentBasicBlock(cont)
}

func (c *Func) Continue(coherent bool) {
	if c.cur == nil {
		return
	}

	lf := c.topLoop()

	if lf.uniform {
		c.BranchInst(lf.continueTarget)
		return
	}

	full := c.GetFullMask()
	lf.continuedMask = lf.continuedMask.Or(full)
	c.SetInternalMask(c.intMask.AndNot(full))

	if !coherent {
		return
	}

	cont := c.CreateBasicBlock("continue.cont")
	c.BranchIfMaskAny(cont, lf.continueTarget)
	c.SetCurrentBasicBlock(cont)
}

// CurrentLanesReturned stores vals for every lane in the current full
// mask into the function's return slots, narrows the function mask,
// and — when coherent or when the whole function is done — branches to
// the function exit block.
func (c *Func) CurrentLanesReturned(vals []ir.Expr, coherent bool) {
	if c.cur == nil {
		return
	}

	full := c.GetFullMask()

	if len(c.retSlots) == 0 {
		for i := range vals {
			c.retSlots = append(c.retSlots, c.AllocaInst("any", "ret"+strconv.Itoa(i)))
		}
	}

	for i, v := range vals {
		c.MaskedStoreInst(v, c.retSlots[i], full)
	}

	c.fnMask = c.fnMask.AndNot(full)

	allDone := full.Const() && full.All() && len(c.loops) == 0
	if allDone {
		c.BranchInst(c.exitBlock)
		return
	}

	if !coherent {
		return
	}

	cont := c.CreateBasicBlock("return.cont")
	c.BranchIfMaskAny(cont, c.exitBlock)
	c.SetCurrentBasicBlock(cont)
}

// --- value construction ---

func (c *Func) AllocaInst(typ, name string) ir.Expr {
	return c.F.Alloc(ir.Alloca{Name: name, Type: typ}, typ)
}

func (c *Func) StoreInst(v, p ir.Expr) ir.Expr {
	if c.cur == nil {
		return -1
	}
	return c.cur.Append(c.F, ir.Store{Val: v, Ptr: p}, "")
}

func (c *Func) MaskedStoreInst(v, p ir.Expr, m mask.Mask) ir.Expr {
	if c.cur == nil {
		return -1
	}
	if m.Const() && m.All() {
		return c.StoreInst(v, p)
	}
	return c.cur.Append(c.F, ir.MaskedStore{Val: v, Ptr: p, Mask: m}, "")
}

func (c *Func) LoadInst(p ir.Expr, typ string) ir.Expr {
	if c.cur == nil {
		return -1
	}
	return c.cur.Append(c.F, ir.Load{Ptr: p}, typ)
}

func (c *Func) GetElementPtrInst(base ir.Expr, field int, index ir.Expr, name string) ir.Expr {
	if c.cur == nil {
		return -1
	}
	return c.cur.Append(c.F, ir.GEP{Base: base, Field: field, Index: index, Name: name}, "ptr")
}

func (c *Func) BitCastInst(v ir.Expr, typ string) ir.Expr {
	if c.cur == nil {
		return -1
	}
	return c.cur.Append(c.F, ir.BitCast{X: v, Type: typ}, typ)
}

func (c *Func) GetStringPtr(s string) ir.Expr {
	return c.F.Alloc(ir.StringConst{S: s}, "i8*")
}

func (c *Func) CallInst(fn string, args []ir.Expr, name string) ir.Expr {
	if c.cur == nil {
		return -1
	}
	return c.cur.Append(c.F, ir.Call{Func: fn, Args: args}, name)
}

func (c *Func) ImmInst(v int64, typ string) ir.Expr {
	return c.F.Alloc(ir.Imm{Value: v}, typ)
}

func (c *Func) UndefInst(typ string) ir.Expr {
	return c.F.Alloc(ir.Undef{}, typ)
}

// --- debug info: a real backend would hand these to a DWARF builder;
// here they only log, which is enough to exercise the call sites and
// to make scope-bracket bugs (mismatched enter/exit) visible in trace
// output the way EmitVariableDebugInfo would in the teacher.

func (c *Func) EmitVariableDebugInfo(sym *symtab.Symbol) {
	tlog.V("debug").Printw("variable debug info", "name", sym.Name, "pos", sym.Pos)
}

func (c *Func) SetDebugPos(pos int) { c.debugPos = pos }

func (c *Func) AddInstrumentationPoint(label string) {
	tlog.V("debug").Printw("instrumentation point", "label", label, "pos", c.debugPos)
}
