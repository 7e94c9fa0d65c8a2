package reactive

// FromPromise runs fn on its own goroutine and returns a signal that holds
// nil until fn succeeds. The result is written through Post, so it becomes
// visible at the next flush point (FlushSync, Batch, Tick or Settle). On
// failure the signal stays nil and the error is logged.
func FromPromise[T any](g *Graph, fn func() (T, error), opts ...Option) *Signal[*T] {
	s := NewSignal[*T](g, nil, opts...)
	g.inflight.Add(1)
	go func() {
		defer g.inflight.Done()
		v, err := fn()
		if err != nil {
			g.logger.Debug("promise rejected", "id", s.ID(), "error", err)
			return
		}
		g.Post(func() {
			s.Set(&v)
		})
	}()
	return s
}
