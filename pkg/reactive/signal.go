package reactive

// Signal is a mutable observable cell owned by a Graph.
// Reading a Signal with Get inside a computed or effect records it as a
// dependency of that node.
type Signal[T any] struct {
	g     *Graph
	n     *signalNode
	epoch uint64
}

// NewSignal creates a new signal with the given initial value.
func NewSignal[T any](g *Graph, initial T, opts ...Option) *Signal[T] {
	o := applyOptions(opts)
	n := &signalNode{
		id:           g.allocID(KindSignal, o.key),
		seq:          g.nextSeq(),
		epoch:        g.epoch,
		serializable: !o.transient,
		equal:        defaultEquals,
	}
	n.val.set(initial)
	g.register(n)
	return &Signal[T]{g: g, n: n, epoch: g.epoch}
}

// ID returns the node id of this signal.
func (s *Signal[T]) ID() NodeID {
	return s.n.id
}

// Kind returns KindSignal.
func (s *Signal[T]) Kind() Kind {
	return KindSignal
}

// Stale reports whether the graph was cleared after this handle was created.
func (s *Signal[T]) Stale() bool {
	return s.epoch != s.g.epoch
}

// Get returns the current value and records a dependency when called from a
// computed or effect.
func (s *Signal[T]) Get() T {
	if !s.Stale() {
		s.g.track(s.n.id)
	}
	return materialize[T](s.n.id, &s.n.val)
}

// TryGet is Get with value decoding failures and stale handles reported as
// errors.
func (s *Signal[T]) TryGet() (v T, err error) {
	if s.Stale() {
		v, err = s.tryPeek()
		if err == nil {
			err = ErrStaleHandle
		}
		return v, err
	}
	defer func() {
		if r := recover(); r != nil {
			err = asTrackingError(s.n.id, KindSignal, r)
		}
	}()
	return s.Get(), nil
}

func (s *Signal[T]) tryPeek() (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = asTrackingError(s.n.id, KindSignal, r)
		}
	}()
	return s.Peek(), nil
}

// Peek returns the current value without recording a dependency.
func (s *Signal[T]) Peek() T {
	return materialize[T](s.n.id, &s.n.val)
}

// Set stores value. Writes equal to the current value are ignored. A
// successful write marks dependent computeds dirty and queues dependent
// effects for the next flush.
func (s *Signal[T]) Set(value T) {
	if s.Stale() {
		s.g.logger.Debug("write to detached signal dropped", "id", s.n.id)
		return
	}
	if s.n.equal(s.Peek(), value) {
		return
	}
	s.g.writeSignal(s.n, value)
}

// Update replaces the value with fn applied to the current one.
func (s *Signal[T]) Update(fn func(T) T) {
	s.Set(fn(s.Peek()))
}

// WithEquals returns the signal configured with a custom equality function.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	if fn == nil {
		s.n.equal = defaultEquals
		return s
	}
	s.n.equal = func(a, b any) bool {
		av, aok := a.(T)
		bv, bok := b.(T)
		if !aok || !bok {
			return defaultEquals(a, b)
		}
		return fn(av, bv)
	}
	return s
}

// Serializable reports whether the signal is included in snapshots.
func (s *Signal[T]) Serializable() bool {
	return s.n.serializable
}

func (g *Graph) writeSignal(n *signalNode, v any) {
	n.val.set(v)
	n.version++
	g.propagate(n.id)
}
