package resume

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Strategy controls how strictly Resume checks the snapshot version.
type Strategy string

const (
	// StrategyStrict requires the exact version.
	StrategyStrict Strategy = "strict"
	// StrategyCompatible requires the same major version.
	StrategyCompatible Strategy = "compatible"
	// StrategyIgnore skips the check.
	StrategyIgnore Strategy = "ignore"
)

// Valid reports whether s is one of the known strategies.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyStrict, StrategyCompatible, StrategyIgnore:
		return true
	}
	return false
}

const (
	// DefaultMaxSize is the snapshot size limit applied when none is set.
	DefaultMaxSize = 1 << 20

	// DefaultTimeout bounds Resume when no timeout is set.
	DefaultTimeout = 5 * time.Second

	tracerName = "github.com/vango-dev/resume"
)

// options is shared by Serializer and Bootstrap; each reads the fields it
// needs.
type options struct {
	maxSize         int
	version         string
	serializeSource bool

	strategy    Strategy
	timeout     time.Duration
	fallback    bool
	allowSource bool

	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

// Option configures a Serializer or a Bootstrap.
type Option func(*options)

func defaultOptions() options {
	return options{
		maxSize:  DefaultMaxSize,
		version:  SnapshotVersion,
		strategy: StrategyCompatible,
		timeout:  DefaultTimeout,
		fallback: true,
		logger:   slog.Default().With("component", "resume"),
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithMaxSize sets the largest encoded snapshot, in bytes, that
// CreateSnapshot will produce. Zero or less disables the limit.
func WithMaxSize(n int) Option {
	return func(o *options) {
		o.maxSize = n
	}
}

// WithVersion sets the version written into snapshots and, for a Bootstrap,
// the version snapshots are checked against.
func WithVersion(v string) Option {
	return func(o *options) {
		if v != "" {
			o.version = v
		}
	}
}

// WithSourceSerialization makes the serializer keep handler source code
// attached to listeners. Source in a snapshot is executable input to the
// consuming host; only enable it when the page and the consumer trust each
// other.
func WithSourceSerialization(enabled bool) Option {
	return func(o *options) {
		o.serializeSource = enabled
	}
}

// WithStrategy sets the version compatibility strategy.
func WithStrategy(s Strategy) Option {
	return func(o *options) {
		o.strategy = s
	}
}

// WithTimeout sets the cooperative deadline for Resume. Zero or less
// disables it.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithFallbackToHydration controls whether a failed Resume asks the caller
// to fall back to full reconstruction.
func WithFallbackToHydration(enabled bool) Option {
	return func(o *options) {
		o.fallback = enabled
	}
}

// WithAllowSource lets Resume compile handler source carried by a snapshot
// when no handler is registered under the listener's id.
func WithAllowSource(enabled bool) Option {
	return func(o *options) {
		o.allowSource = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records snapshot and resume metrics to m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithClock sets the clock used for timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
