package devserver

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/vango-dev/resume/pkg/reactive"
	"github.com/vango-dev/resume/pkg/resume"
)

// Counter is the demo application state.
type Counter struct {
	Count   *reactive.Signal[int]
	Step    *reactive.Signal[int]
	Doubled *reactive.Computed[int]
	Parity  *reactive.Computed[string]
}

// AttachCounter binds the counter to g, creating its nodes when g does not
// hold them yet. State restored from a snapshot is picked up as is.
func AttachCounter(g *reactive.Graph) *Counter {
	c := &Counter{
		Count: reactive.SignalFor(g, "count", 0),
		Step:  reactive.SignalFor(g, "step", 1),
	}
	c.Doubled = reactive.ComputedFor(g, "doubled", func() int {
		return c.Count.Get() * 2
	})
	c.Parity = reactive.ComputedFor(g, "parity", func() string {
		if c.Count.Get()%2 == 0 {
			return "even"
		}
		return "odd"
	})
	return c
}

// Handler sources, kept in snapshots only when source serialization is on.
const (
	incSource   = `function (ev, state) { var step = (ev.data && ev.data.step) || state.get("step"); state.set("count", state.get("count") + step) }`
	decSource   = `function (ev, state) { var step = (ev.data && ev.data.step) || state.get("step"); state.set("count", state.get("count") - step) }`
	resetSource = `function (ev, state) { state.set("count", 0) }`
)

// Render registers the counter's elements with ser and returns its markup.
func (c *Counter) Render(ser *resume.Serializer) (string, error) {
	buttons := []struct {
		rid, label, handler, source string
	}{
		{"dec", "-", "counter.dec", decSource},
		{"inc", "+", "counter.inc", incSource},
		{"reset", "reset", "counter.reset", resetSource},
	}
	var nodes []string
	markup := make(map[string]string, len(buttons))
	for _, b := range buttons {
		id, err := ser.RegisterNode(
			resume.Element{Tag: "button", Attrs: map[string]string{resume.RIDAttr: b.rid}},
			resume.Listener{Event: "click", HandlerID: b.handler, Source: b.source},
		)
		if err != nil {
			return "", err
		}
		nodes = append(nodes, id)
		markup[b.rid] = fmt.Sprintf(`<button type="button" %s="%s">%s</button>`, resume.RIDAttr, b.rid, html.EscapeString(b.label))
	}

	for _, bind := range []string{"count", "doubled", "parity"} {
		id, err := ser.RegisterNode(resume.Element{Tag: "span", Attrs: map[string]string{"data-bind": bind}})
		if err != nil {
			return "", err
		}
		nodes = append(nodes, id)
	}

	props, _ := json.Marshal(map[string]int{"initialStep": c.Step.Peek()})
	if err := ser.RegisterComponent(resume.Component{
		ID:      "counter",
		Name:    "Counter",
		Props:   props,
		Signals: []reactive.NodeID{c.Count.ID(), c.Step.ID(), c.Doubled.ID(), c.Parity.ID()},
		Nodes:   nodes,
	}); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(`<div class="counter" data-component="counter">`)
	b.WriteString(markup["dec"])
	fmt.Fprintf(&b, `<span data-bind="count">%d</span>`, c.Count.Get())
	b.WriteString(markup["inc"])
	b.WriteString(markup["reset"])
	fmt.Fprintf(&b, `<p>Doubled: <span data-bind="doubled">%d</span></p>`, c.Doubled.Get())
	fmt.Fprintf(&b, `<p>The count is <span data-bind="parity">%s</span>.</p>`, html.EscapeString(c.Parity.Get()))
	b.WriteString(`</div>`)
	return b.String(), nil
}

// CounterHandlers returns the handlers for the counter's listeners.
func CounterHandlers() *resume.HandlerRegistry {
	h := resume.NewHandlerRegistry()
	h.Register("counter.inc", func(g *reactive.Graph, ev resume.Event) error {
		c := AttachCounter(g)
		step := stepOf(ev.Data, c.Step.Get())
		c.Count.Update(func(n int) int { return n + step })
		return nil
	})
	h.Register("counter.dec", func(g *reactive.Graph, ev resume.Event) error {
		c := AttachCounter(g)
		step := stepOf(ev.Data, c.Step.Get())
		c.Count.Update(func(n int) int { return n - step })
		return nil
	})
	h.Register("counter.reset", func(g *reactive.Graph, ev resume.Event) error {
		AttachCounter(g).Count.Set(0)
		return nil
	})
	return h
}

// stepOf reads {"step": n} from event data.
func stepOf(data any, fallback int) int {
	m, ok := data.(map[string]any)
	if !ok {
		return fallback
	}
	switch v := m["step"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return fallback
}
