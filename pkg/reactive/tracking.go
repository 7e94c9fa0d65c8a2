package reactive

// scope collects the dependencies read while one computed or effect runs.
type scope struct {
	owner     NodeID
	deps      []NodeID
	versions  []uint64 // version of each dep when it was first read
	seen      map[NodeID]struct{}
	untracked bool
}

// track records id as a dependency of the innermost active scope.
func (g *Graph) track(id NodeID) {
	if len(g.scopes) == 0 {
		return
	}
	s := g.scopes[len(g.scopes)-1]
	if s.untracked || s.owner == id {
		return
	}
	if _, dup := s.seen[id]; dup {
		return
	}
	s.seen[id] = struct{}{}
	v, _ := g.versionOf(id)
	s.deps = append(s.deps, id)
	s.versions = append(s.versions, v)
}

func (g *Graph) push(s *scope) {
	g.scopes = append(g.scopes, s)
}

// pop removes s if it is still the innermost scope. A Clear during fn resets
// the stack, in which case there is nothing to pop.
func (g *Graph) pop(s *scope) {
	if n := len(g.scopes); n > 0 && g.scopes[n-1] == s {
		g.scopes[n-1] = nil
		g.scopes = g.scopes[:n-1]
	}
}

// within runs fn in a fresh tracking scope owned by owner and returns the
// dependencies it read, in first-read order, with the version each had when
// read. A dependency written by fn after reading it therefore shows up as
// changed. The scope is popped even when fn panics.
func (g *Graph) within(owner NodeID, fn func()) ([]NodeID, []uint64) {
	s := &scope{owner: owner, seen: make(map[NodeID]struct{})}
	g.push(s)
	defer g.pop(s)
	fn()
	return s.deps, s.versions
}

// Untracked runs fn without recording any dependency reads.
func (g *Graph) Untracked(fn func()) {
	s := &scope{untracked: true}
	g.push(s)
	defer g.pop(s)
	fn()
}

// Tracking reports whether a computed or effect is currently collecting
// dependencies.
func (g *Graph) Tracking() bool {
	return len(g.scopes) > 0 && !g.scopes[len(g.scopes)-1].untracked
}

// UntrackedGet reads a node's value without subscribing to it.
func UntrackedGet[T any](g *Graph, r interface{ Get() T }) T {
	var v T
	g.Untracked(func() {
		v = r.Get()
	})
	return v
}
