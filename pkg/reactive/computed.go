package reactive

// Computed is a lazy, memoized derivation. A write to any dependency marks it
// dirty; the function re-runs on the next read, and only then.
type Computed[T any] struct {
	g     *Graph
	n     *computedNode
	epoch uint64
}

// NewComputed creates a computed value. fn does not run until the first read.
func NewComputed[T any](g *Graph, fn func() T, opts ...Option) *Computed[T] {
	o := applyOptions(opts)
	n := &computedNode{
		id:           g.allocID(KindComputed, o.key),
		seq:          g.nextSeq(),
		epoch:        g.epoch,
		serializable: !o.transient,
		dirty:        true,
		fn:           wrapComputed(fn),
		equal:        defaultEquals,
	}
	g.register(n)
	return &Computed[T]{g: g, n: n, epoch: g.epoch}
}

// Derived is an alias for NewComputed.
func Derived[T any](g *Graph, fn func() T, opts ...Option) *Computed[T] {
	return NewComputed(g, fn, opts...)
}

func wrapComputed[T any](fn func() T) func() any {
	if fn == nil {
		return nil
	}
	return func() any { return fn() }
}

// ID returns the node id of this computed.
func (c *Computed[T]) ID() NodeID {
	return c.n.id
}

// Kind returns KindComputed.
func (c *Computed[T]) Kind() Kind {
	return KindComputed
}

// Stale reports whether the graph was cleared after this handle was created.
func (c *Computed[T]) Stale() bool {
	return c.epoch != c.g.epoch
}

// Get returns the up-to-date value, evaluating fn first when the computed is
// dirty, and records a dependency when called from a computed or effect.
// A panic raised by fn propagates to the caller; the computed keeps its
// previous value and stays dirty.
func (c *Computed[T]) Get() T {
	if c.Stale() {
		return materialize[T](c.n.id, &c.n.val)
	}
	c.g.refresh(c.n)
	c.g.track(c.n.id)
	return materialize[T](c.n.id, &c.n.val)
}

// TryGet is Get with failures returned as a *TrackingError.
func (c *Computed[T]) TryGet() (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = asTrackingError(c.n.id, KindComputed, r)
		}
	}()
	v = c.Get()
	if c.Stale() {
		err = ErrStaleHandle
	}
	return v, err
}

// Peek returns the up-to-date value without recording a dependency.
func (c *Computed[T]) Peek() T {
	if !c.Stale() {
		c.g.refresh(c.n)
	}
	return materialize[T](c.n.id, &c.n.val)
}

// IsDirty reports whether the next read will need to re-evaluate.
func (c *Computed[T]) IsDirty() bool {
	return c.n.dirty || (!c.n.hasValue && c.n.val.raw == nil && c.n.fn != nil)
}

// WithEquals sets the equality used to decide whether a re-evaluation changed
// the value. Dependents of an unchanged computed are not re-run.
func (c *Computed[T]) WithEquals(fn func(T, T) bool) *Computed[T] {
	if fn == nil {
		c.n.equal = defaultEquals
		return c
	}
	c.n.equal = func(a, b any) bool {
		av, aok := a.(T)
		bv, bok := b.(T)
		if !aok || !bok {
			return defaultEquals(a, b)
		}
		return fn(av, bv)
	}
	return c
}

// Serializable reports whether the computed is included in snapshots.
func (c *Computed[T]) Serializable() bool {
	return c.n.serializable
}

// refresh brings n up to date. A computed restored without a function keeps
// serving its cached value.
func (g *Graph) refresh(n *computedNode) {
	if n.hasValue && !n.dirty {
		return
	}
	if n.fn == nil {
		n.dirty = false
		n.hasValue = true
		return
	}
	if n.hasValue && len(n.deps) > 0 && !g.depsChanged(n.deps, n.depVersions) {
		n.dirty = false
		return
	}
	g.evaluate(n)
}

// evaluate runs the computed function. Value, dirty flag and edges are only
// updated once fn returns normally.
func (g *Graph) evaluate(n *computedNode) {
	if n.computing {
		panic(&TrackingError{ID: n.id, Kind: KindComputed, Err: ErrCycle})
	}
	n.computing = true
	defer func() { n.computing = false }()

	var v any
	var deps []NodeID
	var versions []uint64
	if n.explicit != nil {
		for _, d := range n.explicit {
			if c, ok := g.nodes[d].(*computedNode); ok {
				g.refresh(c)
			}
		}
		g.Untracked(func() { v = n.fn() })
		deps = n.explicit
		versions = g.versions(deps)
	} else {
		deps, versions = g.within(n.id, func() { v = n.fn() })
	}

	g.relink(n.id, n.deps, deps)
	n.deps = deps
	n.depVersions = versions
	if !n.hasValue || !n.equal(n.val.current(), v) {
		n.val.set(v)
		n.version++
	}
	n.hasValue = true
	n.dirty = false
}
