// Package mask implements the lane bitmask values that drive masked
// control-flow lowering: the function mask, the internal (per if/loop)
// mask, and their conjunction the full mask.
package mask

import (
	"math/bits"

	"tlog.app/go/tlog/tlwire"
)

// Mask is a bitset of active lanes, plus a constant-ness tag. A mask
// built only from AllOn/New (all off) and boolean combinations of other
// constant masks is itself constant, which is what lets statement
// lowering decide at compile time that "the mask is provably all on"
// (spec §4.3 case V.1) without touching the runtime value at all.
type Mask struct {
	bits  []uint64
	b0    [1]uint64
	width int
	konst bool
}

// New returns the all-off mask for width lanes.
func New(width int) Mask {
	m := Mask{width: width, konst: true}
	m.bits = m.b0[:]
	return m
}

// AllOn returns the all-on mask for width lanes.
func AllOn(width int) Mask {
	m := New(width)
	m.FillSet(0, width)
	return m
}

// Runtime returns a non-constant mask: one whose value depends on a
// value computed at runtime (a varying test, a function argument mask,
// ...). Used when the emit context lowers a mask that isn't decidable
// at lowering time.
func Runtime(width int) Mask {
	m := New(width)
	m.konst = false
	return m
}

func (m Mask) Width() int { return m.width }

// Const reports whether this mask's value is known at lowering time.
func (m Mask) Const() bool { return m.konst }

func (m *Mask) Set(i int) {
	a, b := m.ij(i)
	m.grow(a)
	m.bits[a] |= 1 << b
}

func (m *Mask) Clear(i int) {
	a, b := m.ij(i)
	if a >= len(m.bits) {
		return
	}
	m.bits[a] &^= 1 << b
}

func (m Mask) IsSet(i int) bool {
	a, b := m.ij(i)
	if a >= len(m.bits) {
		return false
	}
	return m.bits[a]&(1<<b) != 0
}

func (m *Mask) FillSet(l, r int) {
	for i := l; i < r; i++ {
		m.Set(i)
	}
}

// And returns the conjunction of m and x; the result is constant iff
// both operands are.
func (m Mask) And(x Mask) Mask {
	r := m.Copy()
	for i, w := range x.bits {
		if i == len(r.bits) {
			break
		}
		r.bits[i] &= w
	}
	r.konst = m.konst && x.konst
	return r
}

// AndNot returns m &^ x (m with x's lanes cleared).
func (m Mask) AndNot(x Mask) Mask {
	r := m.Copy()
	for i, w := range x.bits {
		if i == len(r.bits) {
			break
		}
		r.bits[i] &^= w
	}
	r.konst = m.konst && x.konst
	return r
}

// Or returns the union of m and x.
func (m Mask) Or(x Mask) Mask {
	r := m.Copy()
	r.grow(len(x.bits) - 1)
	for i, w := range x.bits {
		r.bits[i] |= w
	}
	r.konst = m.konst && x.konst
	return r
}

func (m Mask) Copy() Mask {
	r := New(m.width)
	r.bits = append(r.bits[:0:0], m.bits...)
	r.konst = m.konst
	return r
}

// All reports whether every lane in [0,width) is set. Only meaningful
// when Const() is true; callers needing the runtime reduction go
// through the emit context's All operation instead.
func (m Mask) All() bool {
	for i := 0; i < m.width; i++ {
		if !m.IsSet(i) {
			return false
		}
	}
	return true
}

// Any reports whether at least one lane in [0,width) is set.
func (m Mask) Any() bool {
	for _, w := range m.bits {
		if w != 0 {
			return true
		}
	}
	return false
}

func (m Mask) Size() (n int) {
	for _, w := range m.bits {
		n += bits.OnesCount64(w)
	}
	return n
}

func (m Mask) Range(f func(i int) bool) {
	for i, w := range m.bits {
		if w == 0 {
			continue
		}
		for j := 0; j < 64; j++ {
			if w&(1<<j) == 0 {
				continue
			}
			if !f(i*64 + j) {
				return
			}
		}
	}
}

func (m Mask) ij(pos int) (int, int) { return pos / 64, pos % 64 }

func (m *Mask) grow(i int) {
	for i >= len(m.bits) {
		m.bits = append(m.bits, 0)
	}
}

func (m Mask) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	b = e.AppendTag(b, tlwire.Array, -1)
	m.Range(func(i int) bool {
		b = e.AppendInt(b, i)
		return true
	})
	b = e.AppendBreak(b)

	return b
}
