package reactive

// Cleanup is returned by an effect function and runs before the next run of
// the effect and when it is stopped.
type Cleanup func()

// Effect is a side-effecting subscriber. It runs once when created and again
// at the next flush point after any dependency changes.
type Effect struct {
	g     *Graph
	n     *effectNode
	epoch uint64
}

// NewEffect creates and immediately runs an effect. A panic raised by the
// first run propagates to the caller; the effect stays registered with no
// dependencies.
func NewEffect(g *Graph, fn func() Cleanup) *Effect {
	n := &effectNode{
		id:     g.allocID(KindEffect, ""),
		seq:    g.nextSeq(),
		epoch:  g.epoch,
		active: true,
		fn:     fn,
	}
	g.register(n)
	e := &Effect{g: g, n: n, epoch: g.epoch}
	g.runEffect(n)
	return e
}

// ID returns the node id of this effect.
func (e *Effect) ID() NodeID {
	return e.n.id
}

// Kind returns KindEffect.
func (e *Effect) Kind() Kind {
	return KindEffect
}

// Active reports whether the effect is still subscribed.
func (e *Effect) Active() bool {
	return e.n.active
}

// Stop runs the pending cleanup, removes the effect from every dependency and
// from the pending set. Calling Stop more than once has no further effect.
func (e *Effect) Stop() {
	n := e.n
	if !n.active {
		return
	}
	n.active = false
	if e.epoch != e.g.epoch {
		// Clear already ran the cleanup and dropped the edges.
		return
	}
	if n.pending {
		n.pending = false
		delete(e.g.pending, n.id)
	}
	if c := n.cleanup; c != nil {
		n.cleanup = nil
		c()
	}
	e.g.relink(n.id, n.deps, nil)
	n.deps = nil
	n.depVersions = nil
}

// runEffect runs the previous cleanup and then fn in a fresh tracking scope.
// Edges are replaced only when fn returns normally. An effect stopped from
// inside its own fn keeps no edges and its returned cleanup runs at once.
func (g *Graph) runEffect(n *effectNode) {
	if c := n.cleanup; c != nil {
		n.cleanup = nil
		c()
	}
	if n.fn == nil {
		return
	}
	var cleanup Cleanup
	deps, versions := g.within(n.id, func() { cleanup = n.fn() })
	if !n.active {
		if cleanup != nil {
			cleanup()
		}
		return
	}
	n.cleanup = cleanup
	g.relink(n.id, n.deps, deps)
	n.deps = deps
	n.depVersions = versions
}
