package resume

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/resume/pkg/reactive"
)

func TestCreateSnapshotShape(t *testing.T) {
	p := renderCounter(t, "")
	snap := p.snap

	assert.Equal(t, SnapshotVersion, snap.Version)
	assert.Equal(t, "/counter", snap.Meta.Route)
	assert.NotZero(t, snap.Timestamp)

	require.Contains(t, snap.Signals, reactive.NodeID("count"))
	assert.NotContains(t, snap.Signals, reactive.NodeID("s1"))
	assert.JSONEq(t, "2", string(snap.Signals["count"].Value))

	doubled := snap.Computeds["doubled"]
	assert.JSONEq(t, "4", string(doubled.Value))
	assert.False(t, doubled.Dirty)
	assert.Equal(t, []reactive.NodeID{"count"}, doubled.Dependencies)

	assert.Equal(t, "inc", p.incID)
	assert.True(t, strings.HasPrefix(p.displayID, "n"))
	require.Len(t, snap.Nodes, 2)
	assert.Equal(t, []Listener{{Event: "click", HandlerID: "counter.inc"}}, snap.Nodes["inc"].Listeners)
	assert.Equal(t, map[string]string{"data-rid": "inc"}, snap.Nodes["inc"].Attrs)

	// The transient signal is not part of the snapshot, so the component
	// does not reference it.
	assert.Equal(t, []reactive.NodeID{"count", "doubled"}, snap.Components["counter-1"].Signals)
	assert.Equal(t, 2, snap.ListenerCount())
}

func TestCreateSnapshotWireFormat(t *testing.T) {
	p := renderCounter(t, "")
	data, err := p.snap.Encode()
	require.NoError(t, err)

	var top map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &top))
	for _, key := range []string{"version", "timestamp", "signals", "computeds", "nodes", "components", "islands", "meta"} {
		assert.Contains(t, top, key)
	}
	var meta map[string]any
	require.NoError(t, json.Unmarshal(top["meta"], &meta))
	assert.Equal(t, "/counter", meta["route"])

	size, err := p.snap.Size()
	require.NoError(t, err)
	assert.Equal(t, len(data), size)
}

func TestCreateSnapshotRequiresRoute(t *testing.T) {
	ser := NewSerializer(reactive.NewGraph(), WithLogger(quiet))
	snap, err := ser.CreateSnapshot(context.Background(), Meta{})
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, ErrMissingRoute)
}

func TestCreateSnapshotSizeLimit(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "")

	g := reactive.NewGraph()
	reactive.NewSignal(g, strings.Repeat("x", 512))
	ser := NewSerializer(g, WithMaxSize(256), WithMetrics(m), WithLogger(quiet))

	snap, err := ser.CreateSnapshot(context.Background(), Meta{Route: "/big"})
	assert.Nil(t, snap)
	require.ErrorIs(t, err, ErrSnapshotTooLarge)
	assert.Contains(t, err.Error(), "limit is 256")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.snapshotsTotal.WithLabelValues("too_large")))

	// The sentinel itself is never modified by an occurrence.
	assert.Equal(t, "E020: Snapshot exceeds size limit", ErrSnapshotTooLarge.Error())

	ser = NewSerializer(g, WithMaxSize(0), WithMetrics(m), WithLogger(quiet))
	snap, err = ser.CreateSnapshot(context.Background(), Meta{Route: "/big"})
	require.NoError(t, err)
	assert.NotNil(t, snap)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.snapshotsTotal.WithLabelValues("ok")))
}

func TestSourceKeptOnlyWhenEnabled(t *testing.T) {
	plain := renderCounter(t, "")
	assert.Empty(t, plain.snap.Nodes["inc"].Listeners[0].Source)

	withSource := renderCounter(t, "", WithSourceSerialization(true))
	assert.Contains(t, withSource.snap.Nodes["inc"].Listeners[0].Source, "state.set")
}

func TestRegisterNodeValidation(t *testing.T) {
	ser := NewSerializer(reactive.NewGraph(), WithLogger(quiet))

	_, err := ser.RegisterNode(Element{})
	assert.ErrorIs(t, err, ErrInvalidRegistration)

	_, err = ser.RegisterNode(Element{Tag: "a"}, Listener{Event: "click"})
	assert.ErrorIs(t, err, ErrInvalidRegistration)

	id1, err := ser.RegisterNode(Element{Tag: "a", Attrs: map[string]string{"data-rid": "link"}}, Listener{Event: "click", HandlerID: "h1"})
	require.NoError(t, err)
	id2, err := ser.RegisterNode(Element{Tag: "a", Attrs: map[string]string{"data-rid": "link"}}, Listener{Event: "focus", HandlerID: "h2"})
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	assert.Equal(t, []string{"link"}, ser.NodeIDs())

	snap, err := ser.CreateSnapshot(context.Background(), Meta{Route: "/"})
	require.NoError(t, err)
	assert.Len(t, snap.Nodes["link"].Listeners, 2)

	assert.ErrorIs(t, ser.RegisterComponent(Component{}), ErrInvalidRegistration)
}

func TestRegisterIsland(t *testing.T) {
	ser := NewSerializer(reactive.NewGraph(), WithLogger(quiet))
	isl := Island{ID: "chart", Module: "/js/chart.js", Props: MarshalProps(map[string]int{"points": 3})}

	nodeID, err := ser.RegisterIsland(isl)
	require.NoError(t, err)
	assert.Equal(t, Fingerprint(IslandElement(isl)), nodeID)

	snap, err := ser.CreateSnapshot(context.Background(), Meta{Route: "/"})
	require.NoError(t, err)
	assert.Equal(t, nodeID, snap.Islands["chart"].NodeID)
	assert.Equal(t, "div", snap.Nodes[nodeID].Tag)
	assert.Empty(t, snap.Nodes[nodeID].Listeners)

	_, err = ser.RegisterIsland(Island{ID: "x"})
	assert.ErrorIs(t, err, ErrInvalidRegistration)
}

func TestEmbedInHTMLEscapesPayload(t *testing.T) {
	g := reactive.NewGraph()
	reactive.NewSignal(g, `</script><img src=x onerror=alert(1)> & more`, reactive.Key("bio"))
	ser := NewSerializer(g, WithLogger(quiet))
	snap, err := ser.CreateSnapshot(context.Background(), Meta{Route: "/profile"})
	require.NoError(t, err)

	script, err := ser.EmbedInHTML(snap)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(script, `<script type="application/json" id="__RESUME_STATE__">`))
	assert.Equal(t, 1, strings.Count(script, "</script>"))
	assert.True(t, strings.HasSuffix(script, "</script>"))
	assert.Contains(t, script, `\u003c/script\u003e`)
	assert.Contains(t, script, `\u0026 more`)
	assert.NotContains(t, script, "<img")

	doc := mustParse(t, "<html><body>"+script+"</body></html>")
	raw, ok := doc.StateScript()
	require.True(t, ok)
	parsed, err := ParseSnapshot([]byte(raw))
	require.NoError(t, err)

	var bio string
	require.NoError(t, json.Unmarshal(parsed.Signals["bio"].Value, &bio))
	assert.Equal(t, `</script><img src=x onerror=alert(1)> & more`, bio)
}
