// Package reactive provides the fine-grained reactive graph used by the
// resumability layer.
//
// A Graph is an explicit arena that owns every signal, computed value and
// effect created against it, together with the reverse edge index used to
// propagate changes. Graphs are single-threaded: all reads and writes on one
// graph must happen on one goroutine at a time. Independent graphs (one per
// request, one per test) never share state.
//
// # Core Types
//
// Signal[T] is a mutable observable cell:
//
//	g := reactive.NewGraph()
//	count := reactive.NewSignal(g, 0)
//	count.Get()   // tracked read
//	count.Set(5)  // write, marks dependents dirty
//
// Computed[T] is a lazy, memoized derivation. Dirtiness is pushed on write,
// values are pulled on read:
//
//	doubled := reactive.NewComputed(g, func() int { return count.Get() * 2 })
//
// Effect re-runs a side effect after its dependencies change. Re-runs are
// deferred to the next flush point (Batch, Tick or FlushSync):
//
//	reactive.NewEffect(g, func() reactive.Cleanup {
//	    fmt.Println("count is", count.Get())
//	    return nil
//	})
//
// # Serialization
//
// Graph.Serialize captures every serializable signal and computed value into a
// versioned JSON document. Graph.Deserialize rebuilds the same nodes, with the
// same ids, on another graph without running any constructor. Application code
// re-attaches typed handles with SignalFor and ComputedFor.
package reactive
