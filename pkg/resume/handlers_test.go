package resume

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/resume/pkg/reactive"
)

func TestHandlerRegistry(t *testing.T) {
	r := NewHandlerRegistry()
	assert.Zero(t, r.Len())

	calls := 0
	r.Register("b", func(*reactive.Graph, Event) error { calls++; return nil })
	r.Register("a", func(*reactive.Graph, Event) error { return nil })
	assert.Equal(t, []string{"a", "b"}, r.IDs())

	fn, ok := r.Lookup("b")
	require.True(t, ok)
	require.NoError(t, fn(nil, Event{}))
	assert.Equal(t, 1, calls)

	_, ok = r.Lookup("c")
	assert.False(t, ok)

	var nilRegistry *HandlerRegistry
	_, ok = nilRegistry.Lookup("a")
	assert.False(t, ok)
}

func TestCompileSource(t *testing.T) {
	g := reactive.NewGraph()
	name := reactive.NewSignal(g, "ada", reactive.Key("name"))
	visits := reactive.NewSignal(g, 1, reactive.Key("visits"))

	fn, err := CompileSource(`function (ev, state) {
		state.set("name", state.get("name") + "-" + ev.type);
		state.set("visits", state.get("visits") + ev.data.by);
	}`)
	require.NoError(t, err)

	require.NoError(t, fn(g, Event{NodeID: "n1", Type: "click", Data: map[string]any{"by": 2}}))
	require.NoError(t, g.FlushSync())
	assert.Equal(t, "ada-click", name.Get())
	assert.Equal(t, 3, visits.Get())
}

func TestCompileSourceErrors(t *testing.T) {
	_, err := CompileSource(`function (`)
	assert.ErrorIs(t, err, ErrSourceCompile)

	_, err = CompileSource(`42`)
	assert.ErrorIs(t, err, ErrSourceCompile)

	fn, err := CompileSource(`function (ev, state) { state.set("missing", 1) }`)
	require.NoError(t, err)
	err = fn(reactive.NewGraph(), Event{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")

	fn, err = CompileSource(`function () { throw new Error("nope") }`)
	require.NoError(t, err)
	assert.ErrorContains(t, fn(reactive.NewGraph(), Event{}), "nope")
}
