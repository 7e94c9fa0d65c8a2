package reactive

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputedIsLazyAndMemoized(t *testing.T) {
	g := NewGraph()
	s := NewSignal(g, 2)
	calls := 0
	c := NewComputed(g, func() int {
		calls++
		return s.Get() * 10
	})

	assert.Equal(t, 0, calls)
	assert.Equal(t, 20, c.Get())
	assert.Equal(t, 20, c.Get())
	assert.Equal(t, 1, calls)

	s.Set(3)
	assert.True(t, c.IsDirty())
	assert.Equal(t, 1, calls)
	assert.Equal(t, 30, c.Get())
	assert.Equal(t, 2, calls)
}

func TestComputedCountDoubled(t *testing.T) {
	g := NewGraph()
	count := NewSignal(g, 0)
	doubled := NewComputed(g, func() int { return count.Get() * 2 })

	assert.Equal(t, 0, doubled.Get())
	count.Set(5)
	assert.True(t, doubled.IsDirty())
	assert.Equal(t, 10, doubled.Get())
	assert.False(t, doubled.IsDirty())
}

func TestComputedDynamicDependencies(t *testing.T) {
	g := NewGraph()
	useA := NewSignal(g, true)
	a := NewSignal(g, "a")
	b := NewSignal(g, "b")
	calls := 0
	c := NewComputed(g, func() string {
		calls++
		if useA.Get() {
			return a.Get()
		}
		return b.Get()
	})

	assert.Equal(t, "a", c.Get())
	assert.Equal(t, []NodeID{useA.ID(), a.ID()}, g.Dependencies(c.ID()))

	useA.Set(false)
	assert.Equal(t, "b", c.Get())
	assert.Equal(t, []NodeID{useA.ID(), b.ID()}, g.Dependencies(c.ID()))
	assert.Empty(t, g.Dependents(a.ID()))

	// a is no longer a dependency.
	a.Set("A")
	assert.False(t, c.IsDirty())
	assert.Equal(t, 2, calls)
}

func TestComputedChain(t *testing.T) {
	g := NewGraph()
	s := NewSignal(g, 1)
	plus := NewComputed(g, func() int { return s.Get() + 1 })
	times := NewComputed(g, func() int { return plus.Get() * 3 })

	assert.Equal(t, 6, times.Get())
	assert.Equal(t, []NodeID{plus.ID()}, g.Dependencies(times.ID()))

	s.Set(2)
	assert.True(t, plus.IsDirty())
	assert.True(t, times.IsDirty())
	assert.Equal(t, 9, times.Get())
}

func TestComputedUnchangedValueStopsPropagation(t *testing.T) {
	g := NewGraph()
	n := NewSignal(g, 2)
	parity := NewComputed(g, func() bool { return n.Get()%2 == 0 })
	calls := 0
	label := NewComputed(g, func() string {
		calls++
		if parity.Get() {
			return "even"
		}
		return "odd"
	})

	assert.Equal(t, "even", label.Get())
	n.Set(4)
	assert.True(t, label.IsDirty())
	assert.Equal(t, "even", label.Get())
	assert.Equal(t, 1, calls)
}

func TestComputedDiamondIsGlitchFree(t *testing.T) {
	g := NewGraph()
	s := NewSignal(g, 1)
	left := NewComputed(g, func() int { return s.Get() * 2 })
	right := NewComputed(g, func() int { return s.Get() * 3 })

	var seen [][2]int
	NewEffect(g, func() Cleanup {
		seen = append(seen, [2]int{left.Get(), right.Get()})
		return nil
	})

	require.NoError(t, g.Batch(func() {
		s.Set(2)
		s.Set(5)
	}))
	s.Set(10)
	require.NoError(t, g.FlushSync())

	for _, pair := range seen {
		assert.Equal(t, pair[0]*3, pair[1]*2, "inconsistent pair %v", pair)
	}
	assert.Equal(t, [][2]int{{2, 3}, {10, 15}, {20, 30}}, seen)
}

func TestComputedFailureKeepsPreviousState(t *testing.T) {
	g := NewGraph()
	s := NewSignal(g, 1)
	other := NewSignal(g, 0)
	c := NewComputed(g, func() int {
		v := s.Get()
		if v < 0 {
			other.Get()
			panic(errors.New("negative"))
		}
		return v
	})

	assert.Equal(t, 1, c.Get())

	s.Set(-1)
	_, err := c.TryGet()
	var te *TrackingError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, c.ID(), te.ID)
	assert.Equal(t, KindComputed, te.Kind)
	assert.EqualError(t, errors.Unwrap(err), "negative")

	assert.True(t, c.IsDirty())
	assert.Equal(t, []NodeID{s.ID()}, g.Dependencies(c.ID()))
	assert.Empty(t, g.Dependents(other.ID()))
	assert.False(t, g.Tracking())

	s.Set(4)
	v, err := c.TryGet()
	require.NoError(t, err)
	assert.Equal(t, 4, v)
}

func TestComputedCycle(t *testing.T) {
	g := NewGraph()
	var self *Computed[int]
	self = NewComputed(g, func() int { return self.Get() + 1 })

	_, err := self.TryGet()
	assert.ErrorIs(t, err, ErrCycle)
}

func TestMemoExplicitDependencies(t *testing.T) {
	g := NewGraph()
	a := NewSignal(g, 1)
	b := NewSignal(g, 100)
	sum := Memo(g, func() int { return a.Get() + b.Get() }, a)

	assert.Equal(t, 101, sum.Get())
	assert.Equal(t, []NodeID{a.ID()}, g.Dependencies(sum.ID()))

	b.Set(200)
	assert.False(t, sum.IsDirty())
	assert.Equal(t, 101, sum.Get())

	a.Set(2)
	assert.Equal(t, 202, sum.Get())
}

func TestDerivedAliasesComputed(t *testing.T) {
	g := NewGraph()
	s := NewSignal(g, "go")
	d := Derived(g, func() int { return len(s.Get()) })
	assert.True(t, IsComputed(d))
	assert.Equal(t, 2, d.Get())
}
