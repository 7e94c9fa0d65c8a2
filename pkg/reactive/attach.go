package reactive

import "fmt"

// SignalFor returns a handle bound to the signal registered under id, or
// creates the signal with initial when no node has that id. It is how
// application code reattaches to state restored by Deserialize without
// re-running its constructors.
func SignalFor[T any](g *Graph, id NodeID, initial T, opts ...Option) *Signal[T] {
	switch n := g.nodes[id].(type) {
	case nil:
		return NewSignal(g, initial, append(opts, Key(string(id)))...)
	case *signalNode:
		return &Signal[T]{g: g, n: n, epoch: g.epoch}
	default:
		panic(&TrackingError{ID: id, Kind: n.nodeKind(), Err: fmt.Errorf("%w: %s is a %s", ErrTypeMismatch, id, n.nodeKind())})
	}
}

// ComputedFor returns a handle bound to the computed registered under id,
// binding fn to it when it was restored without one. The restored cached
// value is served until a dependency changes; fn is not evaluated here. When
// no node has that id the computed is created with fn.
func ComputedFor[T any](g *Graph, id NodeID, fn func() T, opts ...Option) *Computed[T] {
	switch n := g.nodes[id].(type) {
	case nil:
		return NewComputed(g, fn, append(opts, Key(string(id)))...)
	case *computedNode:
		if n.fn == nil {
			n.fn = wrapComputed(fn)
		}
		return &Computed[T]{g: g, n: n, epoch: g.epoch}
	default:
		panic(&TrackingError{ID: id, Kind: n.nodeKind(), Err: fmt.Errorf("%w: %s is a %s", ErrTypeMismatch, id, n.nodeKind())})
	}
}
