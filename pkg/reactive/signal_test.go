package reactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalBasic(t *testing.T) {
	g := NewGraph()
	count := NewSignal(g, 0)

	assert.Equal(t, 0, count.Get())

	count.Set(5)
	assert.Equal(t, 5, count.Get())

	count.Update(func(n int) int { return n * 2 })
	assert.Equal(t, 10, count.Get())
	assert.Equal(t, NodeID("s1"), count.ID())
}

func TestSignalIDsAreSequential(t *testing.T) {
	g := NewGraph()
	a := NewSignal(g, 1)
	c := NewComputed(g, func() int { return a.Get() })
	e := NewEffect(g, func() Cleanup { return nil })
	b := NewSignal(g, 2)

	assert.Equal(t, NodeID("s1"), a.ID())
	assert.Equal(t, NodeID("c2"), c.ID())
	assert.Equal(t, NodeID("e3"), e.ID())
	assert.Equal(t, NodeID("s4"), b.ID())
	assert.Equal(t, []NodeID{"s1", "c2", "e3", "s4"}, g.IDs())
}

func TestSignalKey(t *testing.T) {
	g := NewGraph()
	s := NewSignal(g, "x", Key("title"))
	assert.Equal(t, NodeID("title"), s.ID())

	assert.Panics(t, func() {
		NewSignal(g, "y", Key("title"))
	})
}

func TestSignalEqualWriteIsNoop(t *testing.T) {
	g := NewGraph()
	s := NewSignal(g, 3)
	runs := 0
	NewEffect(g, func() Cleanup {
		s.Get()
		runs++
		return nil
	})
	require.Equal(t, 1, runs)

	s.Set(3)
	assert.Equal(t, 0, g.Pending())
	require.NoError(t, g.FlushSync())
	assert.Equal(t, 1, runs)
}

func TestSignalWithEquals(t *testing.T) {
	type point struct{ X, Y int }
	g := NewGraph()
	s := NewSignal(g, point{1, 2}).WithEquals(func(a, b point) bool { return a.X == b.X })

	runs := 0
	NewEffect(g, func() Cleanup {
		s.Get()
		runs++
		return nil
	})

	s.Set(point{1, 99})
	require.NoError(t, g.FlushSync())
	assert.Equal(t, 1, runs)
	assert.Equal(t, point{1, 2}, s.Peek())

	s.Set(point{2, 0})
	require.NoError(t, g.FlushSync())
	assert.Equal(t, 2, runs)
}

func TestSignalSliceEquality(t *testing.T) {
	g := NewGraph()
	s := NewSignal(g, []string{"a", "b"})
	runs := 0
	NewEffect(g, func() Cleanup {
		s.Get()
		runs++
		return nil
	})

	s.Set([]string{"a", "b"})
	require.NoError(t, g.FlushSync())
	assert.Equal(t, 1, runs)
}

func TestSignalPeekDoesNotTrack(t *testing.T) {
	g := NewGraph()
	s := NewSignal(g, 1)
	c := NewComputed(g, func() int { return s.Peek() + 1 })

	assert.Equal(t, 2, c.Get())
	assert.Empty(t, g.Dependencies(c.ID()))

	s.Set(10)
	assert.False(t, c.IsDirty())
	assert.Equal(t, 2, c.Get())
}

func TestSetValueCoercesToStoredType(t *testing.T) {
	g := NewGraph()
	s := NewSignal(g, 1)

	require.NoError(t, g.SetValue(s.ID(), float64(7)))
	assert.Equal(t, 7, s.Get())

	c := NewComputed(g, func() int { return s.Get() })
	assert.ErrorIs(t, g.SetValue(c.ID(), 1), ErrNotWritable)
	assert.ErrorIs(t, g.SetValue("nope", 1), ErrUnknownNode)
}

func TestPredicates(t *testing.T) {
	g := NewGraph()
	s := NewSignal(g, 0)
	c := NewComputed(g, func() int { return 0 })
	e := NewEffect(g, func() Cleanup { return nil })

	assert.True(t, IsSignal(s))
	assert.False(t, IsSignal(c))
	assert.True(t, IsComputed(c))
	assert.True(t, IsEffect(e))
	assert.False(t, IsEffect(42))
	assert.False(t, IsComputed(nil))
}
