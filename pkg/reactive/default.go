package reactive

import (
	"sync"

	"github.com/petermattis/goid"
)

// defaults holds one graph per goroutine for callers that do not manage
// their own arena.
var defaults sync.Map // map[int64]*Graph

// Default returns the calling goroutine's default graph, creating it on first
// use. Call ReleaseDefault when the goroutine is done with it.
func Default() *Graph {
	gid := goid.Get()
	if g, ok := defaults.Load(gid); ok {
		return g.(*Graph)
	}
	g := NewGraph()
	defaults.Store(gid, g)
	return g
}

// ReleaseDefault forgets the calling goroutine's default graph.
func ReleaseDefault() {
	defaults.Delete(goid.Get())
}

// Batch runs fn as a batch on the calling goroutine's default graph.
func Batch(fn func()) error {
	return Default().Batch(fn)
}

// FlushSync flushes the calling goroutine's default graph.
func FlushSync() error {
	return Default().FlushSync()
}

// Untracked runs fn without dependency tracking on the default graph.
func Untracked(fn func()) {
	Default().Untracked(fn)
}
