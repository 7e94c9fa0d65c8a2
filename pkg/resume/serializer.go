package resume

import (
	"context"
	"encoding/json"
	"sort"

	"go.opentelemetry.io/otel/attribute"

	"github.com/vango-dev/resume/internal/errors"
	"github.com/vango-dev/resume/pkg/reactive"
)

// Serializer records the DOM side of a rendered page and turns it, together
// with the page's reactive graph, into a Snapshot.
//
// A Serializer belongs to one render and, like the Graph it wraps, is not
// safe for concurrent use.
type Serializer struct {
	g    *reactive.Graph
	opts options

	nodes      map[string]*Node
	components map[string]Component
	islands    map[string]Island
}

// NewSerializer creates a serializer for g.
func NewSerializer(g *reactive.Graph, opts ...Option) *Serializer {
	s := &Serializer{
		g:          g,
		opts:       buildOptions(opts),
		nodes:      make(map[string]*Node),
		components: make(map[string]Component),
		islands:    make(map[string]Island),
	}
	if s.opts.serializeSource {
		s.opts.logger.Warn("handler source serialization enabled; snapshots will carry executable code")
	}
	return s
}

// Graph returns the graph being serialized.
func (s *Serializer) Graph() *reactive.Graph {
	return s.g
}

// RegisterNode records el and its listeners and returns the node id the
// consuming host will use to find the element again. Registering the same
// element twice appends the new listeners.
func (s *Serializer) RegisterNode(el Element, listeners ...Listener) (string, error) {
	if el.Tag == "" {
		return "", errors.New("E023").WithDetail("element has no tag name")
	}
	for _, l := range listeners {
		if l.Event == "" || l.HandlerID == "" {
			return "", errors.New("E023").WithDetailf("listener %q on <%s> needs an event and a handler id", l.HandlerID, el.Tag)
		}
	}

	id := Fingerprint(el)
	node, ok := s.nodes[id]
	if !ok {
		node = &Node{ID: id, Tag: el.Tag, Attrs: el.StableAttrs()}
		s.nodes[id] = node
	} else if node.Tag != el.Tag {
		s.opts.logger.Warn("node id collision", "node", id, "tag", el.Tag, "existing", node.Tag)
	}
	for _, l := range listeners {
		if !s.opts.serializeSource {
			l.Source = ""
		}
		node.Listeners = append(node.Listeners, l)
	}
	return id, nil
}

// RegisterComponent records a component instance.
func (s *Serializer) RegisterComponent(c Component) error {
	if c.ID == "" {
		return errors.New("E023").WithDetail("component has no id")
	}
	s.components[c.ID] = c
	return nil
}

// RegisterIsland records an island and registers its container element,
// returning the container's node id.
func (s *Serializer) RegisterIsland(isl Island) (string, error) {
	if isl.ID == "" || isl.Module == "" {
		return "", errors.New("E023").WithDetail("island needs an id and a module")
	}
	nodeID, err := s.RegisterNode(IslandElement(isl))
	if err != nil {
		return "", err
	}
	isl.NodeID = nodeID
	s.islands[isl.ID] = isl
	return nodeID, nil
}

// IslandElement returns the container element rendered for isl.
func IslandElement(isl Island) Element {
	props := string(isl.Props)
	if props == "" {
		props = "{}"
	}
	return Element{
		Tag: "div",
		Attrs: map[string]string{
			"id":          isl.ID,
			"data-island": isl.ID,
			"data-module": isl.Module,
			"data-props":  props,
		},
	}
}

// CreateSnapshot assembles the snapshot for the current state of the graph.
// It fails without producing anything when the route is missing or the
// encoded snapshot is larger than the configured maximum.
func (s *Serializer) CreateSnapshot(ctx context.Context, meta Meta) (snap *Snapshot, err error) {
	start := s.opts.now()
	_, span := startSpan(ctx, s.opts.tracer, "resume.CreateSnapshot", attribute.String("route", meta.Route))
	size := 0
	defer func() {
		status := "ok"
		switch {
		case errors.Is(err, ErrSnapshotTooLarge):
			status = "too_large"
		case err != nil:
			status = "error"
		}
		s.opts.metrics.observeSnapshot(status, size, s.opts.now().Sub(start).Seconds())
		span.SetAttributes(attribute.Int("snapshot.bytes", size))
		endSpan(span, err)
	}()

	if meta.Route == "" {
		return nil, errors.New("E021")
	}

	doc, err := s.g.Snapshot()
	if err != nil {
		return nil, errors.New("E022").Wrap(err)
	}

	snap = &Snapshot{
		Version:    s.opts.version,
		Timestamp:  start.UnixMilli(),
		Signals:    doc.Signals,
		Computeds:  doc.Computeds,
		Nodes:      make(map[string]Node, len(s.nodes)),
		Components: make(map[string]Component, len(s.components)),
		Islands:    make(map[string]Island, len(s.islands)),
		Meta:       meta,
	}
	for id, n := range s.nodes {
		node := *n
		node.Listeners = append([]Listener{}, n.Listeners...)
		snap.Nodes[id] = node
	}
	for id, c := range s.components {
		c.Signals = keepGraphRefs(doc, c.Signals)
		c.Nodes = keepNodeRefs(snap.Nodes, c.Nodes)
		snap.Components[id] = c
	}
	for id, isl := range s.islands {
		if _, ok := snap.Nodes[isl.NodeID]; !ok {
			isl.NodeID = ""
		}
		snap.Islands[id] = isl
	}

	encoded, err := encodeJSON(snap)
	if err != nil {
		return nil, errors.New("E022").Wrap(err)
	}
	size = len(encoded)
	if s.opts.maxSize > 0 && size > s.opts.maxSize {
		s.opts.logger.Warn("snapshot rejected", "route", meta.Route, "bytes", size, "limit", s.opts.maxSize)
		return nil, errors.New("E020").
			WithDetailf("snapshot is %d bytes, limit is %d", size, s.opts.maxSize).
			WithSuggestion("Mark large or host-specific signals Transient(), or raise snapshot.maxSize")
	}
	snap.encoded = encoded

	s.opts.logger.Debug("snapshot created",
		"route", meta.Route,
		"signals", len(snap.Signals),
		"computeds", len(snap.Computeds),
		"nodes", len(snap.Nodes),
		"bytes", size,
	)
	return snap, nil
}

// keepGraphRefs drops ids that are not part of the serialized graph.
func keepGraphRefs(doc *reactive.Document, ids []reactive.NodeID) []reactive.NodeID {
	var out []reactive.NodeID
	for _, id := range ids {
		if doc.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

func keepNodeRefs(nodes map[string]Node, ids []string) []string {
	var out []string
	for _, id := range ids {
		if _, ok := nodes[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// NodeIDs returns the ids of all registered nodes, sorted.
func (s *Serializer) NodeIDs() []string {
	ids := make([]string, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Reset forgets every registered node, component and island.
func (s *Serializer) Reset() {
	s.nodes = make(map[string]*Node)
	s.components = make(map[string]Component)
	s.islands = make(map[string]Island)
}

// MarshalProps encodes component or island props.
func MarshalProps(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
