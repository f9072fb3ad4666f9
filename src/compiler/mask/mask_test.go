package mask

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllOnAllOff(t *testing.T) {
	on := AllOn(8)
	require.True(t, on.All())
	require.True(t, on.Const())
	require.Equal(t, 8, on.Size())

	off := New(8)
	require.False(t, off.Any())
	require.True(t, off.Const())
}

func TestAndAndNot(t *testing.T) {
	on := AllOn(4)

	t01 := New(4)
	t01.Set(0)
	t01.Set(1)

	then := on.And(t01)
	require.Equal(t, 2, then.Size())
	require.True(t, then.IsSet(0))
	require.True(t, then.IsSet(1))
	require.False(t, then.IsSet(2))

	els := on.AndNot(t01)
	require.Equal(t, 2, els.Size())
	require.False(t, els.IsSet(0))
	require.True(t, els.IsSet(2))
	require.True(t, els.IsSet(3))
}

func TestConstPropagation(t *testing.T) {
	on := AllOn(4)
	rt := Runtime(4)

	require.True(t, on.Const())
	require.False(t, rt.Const())
	require.False(t, on.And(rt).Const())
	require.True(t, on.And(on).Const())
}

func TestRange(t *testing.T) {
	m := New(130)
	m.FillSet(0, 130)

	var seen []int
	m.Range(func(i int) bool {
		seen = append(seen, i)
		return true
	})

	require.Len(t, seen, 130)
	require.Equal(t, 0, seen[0])
	require.Equal(t, 129, seen[len(seen)-1])
}
