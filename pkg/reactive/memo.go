package reactive

// Memo creates a computed whose dependencies are fixed to deps instead of
// being tracked from reads. fn runs untracked, so reads inside it never add
// edges. With no deps, Memo behaves exactly like NewComputed.
func Memo[T any](g *Graph, fn func() T, deps ...Node) *Computed[T] {
	c := NewComputed(g, fn)
	if len(deps) == 0 {
		return c
	}
	ids := make([]NodeID, 0, len(deps))
	for _, d := range deps {
		if d != nil {
			ids = append(ids, d.ID())
		}
	}
	c.n.explicit = ids
	return c
}
