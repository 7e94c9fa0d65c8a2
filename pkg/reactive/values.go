package reactive

import "fmt"

// Value returns the current value of a signal or computed as a plain Go
// value. Restored values that no typed handle has read yet are decoded into
// generic JSON values. Dirty computeds are brought up to date first.
func (g *Graph) Value(id NodeID) (any, error) {
	switch n := g.nodes[id].(type) {
	case *signalNode:
		return n.val.plain()
	case *computedNode:
		if err := g.tryRefresh(n); err != nil {
			return nil, err
		}
		return n.val.plain()
	case *effectNode:
		return nil, fmt.Errorf("%w: %s is an effect", ErrNotWritable, id)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
}

func (g *Graph) tryRefresh(n *computedNode) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = asTrackingError(n.id, KindComputed, r)
		}
	}()
	g.refresh(n)
	return nil
}

// SetValue writes v to the signal registered under id. v is converted to the
// type currently stored in the signal so that typed handles keep reading it.
// Like Signal.Set, equal writes are ignored and effects run at the next flush.
func (g *Graph) SetValue(id NodeID, v any) error {
	n, ok := g.nodes[id].(*signalNode)
	if !ok {
		if _, exists := g.nodes[id]; exists {
			return fmt.Errorf("%w: %s", ErrNotWritable, id)
		}
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	cur := n.val.current()
	next, err := coerceLike(cur, v)
	if err != nil {
		return fmt.Errorf("reactive: set %s: %w", id, err)
	}
	if n.equal(cur, next) {
		return nil
	}
	g.writeSignal(n, next)
	return nil
}

// SerializableValues returns the current value of every serializable signal
// and computed, keyed by id. Computeds contribute their cached value without
// being evaluated. Values restored from a document and not read since are
// returned in their encoded form.
func (g *Graph) SerializableValues() map[NodeID]any {
	out := make(map[NodeID]any)
	for _, id := range g.order {
		switch n := g.nodes[id].(type) {
		case *signalNode:
			if n.serializable {
				out[id] = n.val.current()
			}
		case *computedNode:
			if n.serializable {
				out[id] = n.val.current()
			}
		}
	}
	return out
}
