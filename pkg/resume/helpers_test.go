package resume

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vango-dev/resume/pkg/reactive"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

const counterPageTemplate = `<!DOCTYPE html><html><head><title>Counter</title></head><body>` +
	`<div class="counter"><button class="btn primary" data-rid="inc">+</button>` +
	`<span data-bind="doubled">4</span></div>%s</body></html>`

type page struct {
	html      string
	snap      *Snapshot
	incID     string
	displayID string
}

// renderCounter builds the producing side of a small counter page: count=2,
// doubled=4, one transient signal, a button and a display span.
func renderCounter(t *testing.T, body string, opts ...Option) page {
	t.Helper()
	g := reactive.NewGraph(reactive.WithLogger(quiet))
	count := reactive.NewSignal(g, 2, reactive.Key("count"))
	doubled := reactive.NewComputed(g, func() int { return count.Get() * 2 }, reactive.Key("doubled"))
	require.Equal(t, 4, doubled.Get())
	reactive.NewSignal(g, "scratch", reactive.Transient())

	ser := NewSerializer(g, append([]Option{WithLogger(quiet)}, opts...)...)
	incID, err := ser.RegisterNode(
		Element{Tag: "button", Attrs: map[string]string{"data-rid": "inc", "class": "btn"}},
		Listener{Event: "click", HandlerID: "counter.inc", Source: `function (ev, state) { state.set("count", state.get("count") + ev.data.step) }`},
	)
	require.NoError(t, err)
	displayID, err := ser.RegisterNode(
		Element{Tag: "span", Attrs: map[string]string{"data-bind": "doubled"}},
		Listener{Event: "mouseover", HandlerID: "counter.peek"},
	)
	require.NoError(t, err)
	require.NoError(t, ser.RegisterComponent(Component{
		ID:      "counter-1",
		Name:    "Counter",
		Signals: []reactive.NodeID{"count", "doubled", "s1"},
		Nodes:   []string{incID, displayID},
	}))

	snap, err := ser.CreateSnapshot(context.Background(), Meta{Route: "/counter"})
	require.NoError(t, err)
	script, err := ser.EmbedInHTML(snap)
	require.NoError(t, err)

	if body == "" {
		body = counterPageTemplate
	}
	return page{
		html:      fmt.Sprintf(body, script),
		snap:      snap,
		incID:     incID,
		displayID: displayID,
	}
}

func counterHandlers() *HandlerRegistry {
	h := NewHandlerRegistry()
	h.Register("counter.inc", func(g *reactive.Graph, ev Event) error {
		reactive.SignalFor(g, "count", 0).Update(func(n int) int { return n + 1 })
		return nil
	})
	h.Register("counter.peek", func(*reactive.Graph, Event) error { return nil })
	return h
}

func mustParse(t *testing.T, markup string) *Document {
	t.Helper()
	doc, err := ParseDocumentString(markup)
	require.NoError(t, err)
	return doc
}
