package resume

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/vango-dev/resume/internal/errors"
	"github.com/vango-dev/resume/pkg/reactive"
)

// Document is a page parsed on the consuming host. After a successful
// Resume it holds the listeners re-attached to its elements and routes
// events to them with Dispatch.
type Document struct {
	root  *html.Node
	state *html.Node

	index    map[string]*html.Node
	bindings map[string][]binding
	g        *reactive.Graph
}

type binding struct {
	event     string
	handlerID string
	fn        HandlerFunc
}

// ParseDocument parses markup from r.
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, errors.New("E060").WithDetail("document is not parseable HTML").Wrap(err)
	}
	d := &Document{root: root}
	d.state = findStateScript(root)
	return d, nil
}

// ParseDocumentString parses markup from s.
func ParseDocumentString(s string) (*Document, error) {
	return ParseDocument(strings.NewReader(s))
}

func findStateScript(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "script" && attr(n, "id") == ScriptID {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findStateScript(c); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// StateScript returns the raw payload of the embedded snapshot.
func (d *Document) StateScript() (string, bool) {
	if d == nil || d.state == nil {
		return "", false
	}
	var b strings.Builder
	for c := d.state.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	text := strings.TrimSpace(b.String())
	return text, text != ""
}

// CanResume reports whether doc carries a non-empty snapshot. It never
// fails.
func CanResume(doc *Document) bool {
	_, ok := doc.StateScript()
	return ok
}

// buildIndex maps every element fingerprint to the first element, in
// document order, that produces it.
func (d *Document) buildIndex() {
	d.index = make(map[string]*html.Node)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n != d.state {
			id := Fingerprint(elementOf(n))
			if _, seen := d.index[id]; !seen {
				d.index[id] = n
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
}

func elementOf(n *html.Node) Element {
	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		attrs[a.Key] = a.Val
	}
	return Element{Tag: n.Data, Attrs: attrs}
}

// Lookup returns the element whose fingerprint is nodeID.
func (d *Document) Lookup(nodeID string) (Element, bool) {
	if d.index == nil {
		d.buildIndex()
	}
	n, ok := d.index[nodeID]
	if !ok {
		return Element{}, false
	}
	return elementOf(n), true
}

// Listeners returns the events bound on nodeID, in attachment order.
func (d *Document) Listeners(nodeID string) []string {
	var out []string
	for _, b := range d.bindings[nodeID] {
		out = append(out, b.event)
	}
	return out
}

// Graph returns the graph the document was resumed into, or nil.
func (d *Document) Graph() *reactive.Graph {
	return d.g
}

// Dispatch delivers an event to every listener bound for it on nodeID. The
// handlers run inside one Graph.Tick, so effects observe only the state left
// by the last handler.
func (d *Document) Dispatch(nodeID, event string, data any) error {
	if d.g == nil {
		return ErrNotResumed
	}
	var matched []binding
	for _, b := range d.bindings[nodeID] {
		if b.event == event {
			matched = append(matched, b)
		}
	}
	if len(matched) == 0 {
		return fmt.Errorf("%w: %s on %s", ErrNoListener, event, nodeID)
	}
	el, _ := d.Lookup(nodeID)
	ev := Event{NodeID: nodeID, Type: event, Data: data, Target: el}

	var handlerErr error
	flushErr := d.g.Tick(func() {
		for _, b := range matched {
			if err := invoke(b, d.g, ev); err != nil {
				handlerErr = err
				return
			}
		}
	})
	if handlerErr != nil {
		return handlerErr
	}
	return flushErr
}

func invoke(b binding, g *reactive.Graph, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("E063").WithDetailf("handler %s panicked: %v", b.handlerID, r)
		}
	}()
	if err := b.fn(g, ev); err != nil {
		return errors.New("E063").WithDetailf("handler %s", b.handlerID).Wrap(err)
	}
	return nil
}

func (d *Document) bind(nodeID string, b binding) {
	if d.bindings == nil {
		d.bindings = make(map[string][]binding)
	}
	d.bindings[nodeID] = append(d.bindings[nodeID], b)
}

// reset drops bindings from a previous resume.
func (d *Document) reset() {
	d.bindings = nil
	d.g = nil
}
