package emit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vexlang/lower/compiler/ir"
	"github.com/vexlang/lower/compiler/mask"
)

func TestUniformBranch(t *testing.T) {
	f := ir.NewFunc("f")
	c := NewFunc(f, 4)

	entry := c.CreateBasicBlock("entry")
	exit := c.CreateBasicBlock("exit")
	c.SetCurrentBasicBlock(entry)

	require.NotNil(t, c.GetCurrentBasicBlock())

	c.BranchInst(exit)

	require.Nil(t, c.GetCurrentBasicBlock())
	require.True(t, entry.Terminated(f))
}

func TestFullMaskIsConjunction(t *testing.T) {
	f := ir.NewFunc("f")
	c := NewFunc(f, 4)

	require.True(t, c.GetFullMask().All())

	m := mask.New(4)
	m.Set(0)
	c.SetInternalMask(m)

	require.Equal(t, 1, c.GetFullMask().Size())
	require.True(t, c.GetFullMask().IsSet(0))
}

func TestBreakInVaryingLoopNarrowsMaskWithoutBranching(t *testing.T) {
	f := ir.NewFunc("f")
	c := NewFunc(f, 4)

	body := c.CreateBasicBlock("body")
	exit := c.CreateBasicBlock("exit")
	c.SetCurrentBasicBlock(body)

	c.StartLoop(exit, body, false)

	only2 := mask.New(4)
	only2.Set(2)
	c.SetInternalMask(only2)

	c.Break(false)

	require.NotNil(t, c.GetCurrentBasicBlock(), "non-coherent break keeps emitting in the same block")
	require.Equal(t, 0, c.GetFullMask().Size(), "the breaking lane is masked off")
}

func TestCoherentBreakBranchesWhenMaskEmpty(t *testing.T) {
	f := ir.NewFunc("f")
	c := NewFunc(f, 4)

	body := c.CreateBasicBlock("body")
	exit := c.CreateBasicBlock("exit")
	c.SetCurrentBasicBlock(body)

	c.StartLoop(exit, body, false)

	c.Break(true)

	require.Nil(t, c.GetCurrentBasicBlock(), "branch terminator clears current block")
	require.True(t, body.Terminated(f))
}

func TestUniformBreakBranchesToExit(t *testing.T) {
	f := ir.NewFunc("f")
	c := NewFunc(f, 4)

	body := c.CreateBasicBlock("body")
	exit := c.CreateBasicBlock("exit")
	c.SetCurrentBasicBlock(body)

	c.StartLoop(exit, body, true)
	c.Break(false)

	require.Nil(t, c.GetCurrentBasicBlock())

	last := f.Exprs[body.Code[len(body.Code)-1]]
	b, ok := last.(ir.B)
	require.True(t, ok)
	require.Equal(t, exit.Label, b.Label)
}

func TestRestoreContinuedLanes(t *testing.T) {
	f := ir.NewFunc("f")
	c := NewFunc(f, 4)

	body := c.CreateBasicBlock("body")
	test := c.CreateBasicBlock("test")
	exit := c.CreateBasicBlock("exit")
	c.SetCurrentBasicBlock(body)

	c.StartLoop(exit, test, false)

	lane1 := mask.New(4)
	lane1.Set(1)
	c.SetInternalMask(lane1)
	c.Continue(false)

	require.Equal(t, 0, c.GetInternalMask().Size())

	c.SetInternalMask(mask.AllOn(4))
	c.RestoreContinuedLanes()

	require.True(t, c.GetInternalMask().IsSet(1))
}
