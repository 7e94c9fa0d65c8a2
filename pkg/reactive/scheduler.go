package reactive

import (
	"context"
	"fmt"
	"sort"
)

// propagate marks every transitive dependent computed of source dirty and
// queues every transitive dependent effect. Nothing is evaluated here.
func (g *Graph) propagate(source NodeID) {
	stack := g.dependentsOf(source)
	visited := make(map[NodeID]struct{}, len(stack))
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := visited[id]; ok {
			continue
		}
		visited[id] = struct{}{}

		switch n := g.nodes[id].(type) {
		case *computedNode:
			n.dirty = true
			stack = append(stack, g.dependentsOf(id)...)
		case *effectNode:
			g.schedule(n)
		}
	}
}

func (g *Graph) schedule(e *effectNode) {
	if !e.active || e.pending {
		return
	}
	e.pending = true
	g.pending[e.id] = e
}

// takePending empties the pending set and returns its effects in
// registration order.
func (g *Graph) takePending() []*effectNode {
	out := make([]*effectNode, 0, len(g.pending))
	for _, e := range g.pending {
		e.pending = false
		out = append(out, e)
	}
	g.pending = make(map[NodeID]*effectNode)
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// FlushSync runs every pending effect now, repeating until no effect is left
// pending. Effects whose dependencies did not actually change are skipped.
//
// The first effect failure stops the flush; the effects that had not run yet
// stay pending and the failure is returned as a *TrackingError.
func (g *Graph) FlushSync() error {
	g.drainInbox()
	if g.flushing {
		return nil
	}
	g.flushing = true
	defer func() { g.flushing = false }()

	for pass := 0; len(g.pending) > 0; pass++ {
		if pass >= g.maxFlushPasses {
			g.logger.Warn("flush did not settle", "passes", pass, "pending", len(g.pending))
			return fmt.Errorf("%w after %d passes", ErrFlushLimit, pass)
		}
		batch := g.takePending()
		g.logger.Debug("flush pass", "pass", pass, "effects", len(batch))
		for i, e := range batch {
			if !e.active {
				continue
			}
			if err := g.rerun(e); err != nil {
				for _, rest := range batch[i+1:] {
					g.schedule(rest)
				}
				return err
			}
		}
		g.drainInbox()
	}
	return nil
}

// rerun re-executes a scheduled effect, converting a panic into an error.
func (g *Graph) rerun(e *effectNode) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = asTrackingError(e.id, KindEffect, r)
		}
	}()
	if len(e.deps) > 0 && !g.depsChanged(e.deps, e.depVersions) {
		return nil
	}
	g.runEffect(e)
	return nil
}

// Batch runs fn with effect scheduling suspended and then flushes every
// effect made pending inside it exactly once. Nested batches flush when the
// outermost one returns.
func (g *Graph) Batch(fn func()) error {
	g.batchDepth++
	func() {
		defer func() { g.batchDepth-- }()
		fn()
	}()
	if g.batchDepth > 0 {
		return nil
	}
	return g.FlushSync()
}

// Tick runs fn as one synchronous unit of work and flushes at its end. Event
// dispatch and other external entry points use it so that effects observe
// only the final state of the unit.
func (g *Graph) Tick(fn func()) error {
	return g.Batch(fn)
}

// Batching reports whether a Batch or Tick is in progress.
func (g *Graph) Batching() bool {
	return g.batchDepth > 0
}

// Post queues fn to run on the graph's goroutine at the next flush point. It
// is the only Graph method that is safe to call from other goroutines.
func (g *Graph) Post(fn func()) {
	g.inboxMu.Lock()
	g.inbox = append(g.inbox, fn)
	g.inboxMu.Unlock()
}

func (g *Graph) drainInbox() {
	for {
		g.inboxMu.Lock()
		queued := g.inbox
		g.inbox = nil
		g.inboxMu.Unlock()
		if len(queued) == 0 {
			return
		}
		for _, fn := range queued {
			fn()
		}
	}
}

// Settle waits for every in-flight FromPromise task to finish, then flushes.
func (g *Graph) Settle(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return g.FlushSync()
}
