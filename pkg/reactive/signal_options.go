package reactive

// Option configures a signal or computed at construction.
type Option func(*nodeOptions)

type nodeOptions struct {
	key       NodeID
	transient bool
}

func applyOptions(opts []Option) nodeOptions {
	var o nodeOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Transient excludes the node from serialization. Use it for values that
// only make sense on the host that produced them (timers, connections,
// scroll position).
func Transient() Option {
	return func(o *nodeOptions) {
		o.transient = true
	}
}

// Key registers the node under an explicit id instead of a generated one.
// Keys must be unique within a graph.
func Key(id string) Option {
	return func(o *nodeOptions) {
		o.key = NodeID(id)
	}
}
