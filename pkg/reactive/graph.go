package reactive

import (
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// DefaultMaxFlushPasses bounds how many times FlushSync drains the pending
// effect set before giving up with ErrFlushLimit.
const DefaultMaxFlushPasses = 100

// node is the registry view shared by signals, computeds and effects.
type node interface {
	nodeID() NodeID
	nodeKind() Kind
	nodeSeq() uint64
}

type signalNode struct {
	id           NodeID
	seq          uint64
	epoch        uint64
	serializable bool
	version      uint64
	val          slot
	equal        func(a, b any) bool
}

func (n *signalNode) nodeID() NodeID  { return n.id }
func (n *signalNode) nodeKind() Kind  { return KindSignal }
func (n *signalNode) nodeSeq() uint64 { return n.seq }

type computedNode struct {
	id           NodeID
	seq          uint64
	epoch        uint64
	serializable bool
	version      uint64
	val          slot
	hasValue     bool
	dirty        bool
	computing    bool
	deps         []NodeID
	depVersions  []uint64
	explicit     []NodeID // fixed dependency list for Memo; nil means tracked
	fn           func() any
	equal        func(a, b any) bool
}

func (n *computedNode) nodeID() NodeID  { return n.id }
func (n *computedNode) nodeKind() Kind  { return KindComputed }
func (n *computedNode) nodeSeq() uint64 { return n.seq }

type effectNode struct {
	id          NodeID
	seq         uint64
	epoch       uint64
	active      bool
	pending     bool
	deps        []NodeID
	depVersions []uint64
	fn          func() Cleanup
	cleanup     Cleanup
}

func (n *effectNode) nodeID() NodeID  { return n.id }
func (n *effectNode) nodeKind() Kind  { return KindEffect }
func (n *effectNode) nodeSeq() uint64 { return n.seq }

// Graph is the arena that owns every reactive node, the reverse edge index,
// the tracking scope stack and the pending effect set.
//
// A Graph is not safe for concurrent use. The only method that may be called
// from other goroutines is Post.
type Graph struct {
	nodes      map[NodeID]node
	order      []NodeID
	dependents map[NodeID]mapset.Set[NodeID]

	counter uint64
	seq     uint64
	epoch   uint64

	scopes     []*scope
	batchDepth int
	flushing   bool
	pending    map[NodeID]*effectNode

	maxFlushPasses int
	logger         *slog.Logger
	now            func() time.Time

	inboxMu  sync.Mutex
	inbox    []func()
	inflight sync.WaitGroup
}

// GraphOption configures a Graph.
type GraphOption func(*Graph)

// WithLogger sets the logger used for scheduler diagnostics.
func WithLogger(l *slog.Logger) GraphOption {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithMaxFlushPasses overrides DefaultMaxFlushPasses.
func WithMaxFlushPasses(n int) GraphOption {
	return func(g *Graph) {
		if n > 0 {
			g.maxFlushPasses = n
		}
	}
}

// WithClock sets the clock used to timestamp serialized documents.
func WithClock(now func() time.Time) GraphOption {
	return func(g *Graph) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGraph creates an empty graph.
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		nodes:          make(map[NodeID]node),
		dependents:     make(map[NodeID]mapset.Set[NodeID]),
		pending:        make(map[NodeID]*effectNode),
		maxFlushPasses: DefaultMaxFlushPasses,
		logger:         slog.Default().With("component", "reactive"),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Logger returns the graph's logger.
func (g *Graph) Logger() *slog.Logger {
	return g.logger
}

// allocID returns a fresh id for kind, or the explicit key when one is given.
func (g *Graph) allocID(kind Kind, key NodeID) NodeID {
	if key != "" {
		if _, exists := g.nodes[key]; exists {
			panic(&TrackingError{ID: key, Kind: kind, Err: ErrDuplicateID})
		}
		if n, ok := idSuffix(key); ok && n > g.counter {
			g.counter = n
		}
		return key
	}
	for {
		g.counter++
		id := NodeID(kind.prefix() + strconv.FormatUint(g.counter, 10))
		if _, exists := g.nodes[id]; !exists {
			return id
		}
	}
}

func (g *Graph) nextSeq() uint64 {
	g.seq++
	return g.seq
}

func (g *Graph) register(n node) {
	g.nodes[n.nodeID()] = n
	g.order = append(g.order, n.nodeID())
}

// Clear drops every node, edge and pending effect and invalidates all handles
// created so far. Cleanups of active effects run before they are dropped. Ids
// are not reused after a Clear.
func (g *Graph) Clear() {
	for _, id := range g.order {
		if e, ok := g.nodes[id].(*effectNode); ok && e.active {
			e.active = false
			if c := e.cleanup; c != nil {
				e.cleanup = nil
				c()
			}
		}
	}
	g.nodes = make(map[NodeID]node)
	g.order = nil
	g.dependents = make(map[NodeID]mapset.Set[NodeID])
	g.pending = make(map[NodeID]*effectNode)
	g.scopes = nil
	g.epoch++
}

// Epoch returns the number of times the graph has been cleared.
func (g *Graph) Epoch() uint64 {
	return g.epoch
}

// Has reports whether id is registered.
func (g *Graph) Has(id NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// Kind returns the kind of the node registered under id.
func (g *Graph) Kind(id NodeID) (Kind, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return 0, false
	}
	return n.nodeKind(), true
}

// Len returns the number of registered nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// IDs returns every registered id in registration order.
func (g *Graph) IDs() []NodeID {
	out := make([]NodeID, 0, len(g.order))
	for _, id := range g.order {
		if _, ok := g.nodes[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// Dependents returns the direct dependents of id in registration order.
func (g *Graph) Dependents(id NodeID) []NodeID {
	return g.dependentsOf(id)
}

// Dependencies returns the direct dependencies recorded for a computed or
// effect, in the order they were first read.
func (g *Graph) Dependencies(id NodeID) []NodeID {
	var deps []NodeID
	switch n := g.nodes[id].(type) {
	case *computedNode:
		deps = n.deps
	case *effectNode:
		deps = n.deps
	}
	return append([]NodeID(nil), deps...)
}

// IsDirty reports whether the computed registered under id is dirty.
func (g *Graph) IsDirty(id NodeID) bool {
	c, ok := g.nodes[id].(*computedNode)
	return ok && (c.dirty || (!c.hasValue && c.val.raw == nil && c.fn != nil))
}

// Pending returns the number of effects waiting for the next flush.
func (g *Graph) Pending() int {
	return len(g.pending)
}

func (g *Graph) dependentsOf(id NodeID) []NodeID {
	set, ok := g.dependents[id]
	if !ok {
		return nil
	}
	out := set.ToSlice()
	sort.Slice(out, func(i, j int) bool {
		return g.seqOf(out[i]) < g.seqOf(out[j])
	})
	return out
}

func (g *Graph) seqOf(id NodeID) uint64 {
	if n, ok := g.nodes[id]; ok {
		return n.nodeSeq()
	}
	return 0
}

// relink replaces the outgoing edges of sub. Edges present in both lists are
// left untouched.
func (g *Graph) relink(sub NodeID, old, next []NodeID) {
	keep := make(map[NodeID]struct{}, len(next))
	for _, d := range next {
		keep[d] = struct{}{}
	}
	for _, d := range old {
		if _, ok := keep[d]; ok {
			continue
		}
		if set, ok := g.dependents[d]; ok {
			set.Remove(sub)
			if set.Cardinality() == 0 {
				delete(g.dependents, d)
			}
		}
	}
	for _, d := range next {
		if _, ok := g.nodes[d]; !ok {
			continue
		}
		set, ok := g.dependents[d]
		if !ok {
			set = mapset.NewThreadUnsafeSet[NodeID]()
			g.dependents[d] = set
		}
		set.Add(sub)
	}
}

func (g *Graph) versionOf(id NodeID) (uint64, bool) {
	switch n := g.nodes[id].(type) {
	case *signalNode:
		return n.version, true
	case *computedNode:
		return n.version, true
	}
	return 0, false
}

func (g *Graph) versions(ids []NodeID) []uint64 {
	out := make([]uint64, len(ids))
	for i, id := range ids {
		out[i], _ = g.versionOf(id)
	}
	return out
}

// depsChanged brings computed dependencies up to date and reports whether any
// dependency version moved since it was recorded.
func (g *Graph) depsChanged(deps []NodeID, recorded []uint64) bool {
	if len(deps) != len(recorded) {
		return true
	}
	for i, id := range deps {
		n, ok := g.nodes[id]
		if !ok {
			return true
		}
		if c, ok := n.(*computedNode); ok {
			g.refresh(c)
		}
		if v, _ := g.versionOf(id); v != recorded[i] {
			return true
		}
	}
	return false
}
