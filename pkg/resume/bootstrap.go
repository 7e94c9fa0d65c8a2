package resume

import (
	"context"
	stderrors "errors"
	"io"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/vango-dev/resume/internal/errors"
	"github.com/vango-dev/resume/pkg/reactive"
)

// Bootstrap rebuilds a live page from a document carrying a snapshot.
type Bootstrap struct {
	g        *reactive.Graph
	handlers *HandlerRegistry
	opts     options
}

// Result is the outcome of Resume. Resume never panics and never returns an
// error directly; failures are reported here.
type Result struct {
	// Success is true when every stage completed.
	Success bool

	// Fallback is true when resuming failed and the caller should rebuild the
	// page by running its construction code instead.
	Fallback bool

	// Err is the failure that stopped the resume, if any.
	Err error

	// Snapshot is the parsed snapshot, when parsing got that far.
	Snapshot *Snapshot

	// Stats describe what was restored.
	Stats Stats
}

// Stats counts what a resume restored.
type Stats struct {
	Duration        time.Duration
	SnapshotBytes   int
	Signals         int
	Computeds       int
	NodesResolved   int
	Listeners       int
	Components      int
	Islands         int
	Unresolved      []string // node ids with no matching element
	MissingHandlers []string // handler ids with no implementation
}

// NewBootstrap creates a bootstrap that restores into g and binds listeners
// to handlers.
func NewBootstrap(g *reactive.Graph, handlers *HandlerRegistry, opts ...Option) *Bootstrap {
	if handlers == nil {
		handlers = NewHandlerRegistry()
	}
	return &Bootstrap{g: g, handlers: handlers, opts: buildOptions(opts)}
}

// QuickResume parses markup from r and resumes it into g.
func QuickResume(ctx context.Context, r io.Reader, g *reactive.Graph, handlers *HandlerRegistry, opts ...Option) (*Document, *Result) {
	b := NewBootstrap(g, handlers, opts...)
	doc, err := ParseDocument(r)
	if err != nil {
		return nil, b.fail(&Result{}, err, b.opts.now())
	}
	return doc, b.Resume(ctx, doc)
}

// Resume restores the snapshot embedded in doc: it checks the version,
// rebuilds the graph, finds every recorded element and re-attaches its
// listeners. Elements that cannot be found, and listeners whose handler is
// unknown, are skipped and reported in Stats; they do not fail the resume.
//
// The timeout is checked between stages and between nodes. A stage that has
// started always completes.
func (b *Bootstrap) Resume(ctx context.Context, doc *Document) *Result {
	start := b.opts.now()
	ctx, span := startSpan(ctx, b.opts.tracer, "resume.Resume",
		attribute.String("resume.strategy", string(b.opts.strategy)))

	if b.opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.opts.timeout)
		defer cancel()
	}

	res := &Result{}
	err := b.resume(ctx, doc, res)
	if err != nil {
		b.fail(res, err, start)
	} else {
		res.Success = true
		res.Stats.Duration = b.opts.now().Sub(start)
		b.opts.metrics.observeResume(res)
		b.opts.logger.Debug("resumed",
			"signals", res.Stats.Signals,
			"computeds", res.Stats.Computeds,
			"nodes", res.Stats.NodesResolved,
			"listeners", res.Stats.Listeners,
			"duration", res.Stats.Duration,
		)
	}

	span.SetAttributes(
		attribute.Int("resume.signals", res.Stats.Signals),
		attribute.Int("resume.listeners", res.Stats.Listeners),
		attribute.Int("resume.unresolved", len(res.Stats.Unresolved)),
		attribute.Bool("resume.fallback", res.Fallback),
	)
	endSpan(span, res.Err)
	return res
}

func (b *Bootstrap) fail(res *Result, err error, start time.Time) *Result {
	res.Err = err
	res.Fallback = b.opts.fallback
	res.Stats.Duration = b.opts.now().Sub(start)
	b.opts.metrics.observeResume(res)
	b.opts.logger.Error("resume failed", "error", err, "fallback", res.Fallback)
	return res
}

// checkpoint is the cooperative yield point between stages.
func checkpoint(ctx context.Context, stage string) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.New("E050").WithDetailf("deadline passed before %s", stage).Wrap(err)
	}
	return errors.New("E050").WithDetailf("cancelled before %s", stage).Wrap(err)
}

func (b *Bootstrap) resume(ctx context.Context, doc *Document, res *Result) error {
	if err := checkpoint(ctx, "parse"); err != nil {
		return err
	}
	if doc == nil {
		return errors.New("E061")
	}
	doc.reset()
	raw, ok := doc.StateScript()
	if !ok {
		return errors.New("E061")
	}
	snap, err := ParseSnapshot([]byte(raw))
	if err != nil {
		return err
	}
	res.Snapshot = snap
	res.Stats.SnapshotBytes = len(raw)

	if err := checkpoint(ctx, "version check"); err != nil {
		return err
	}
	if err := CheckVersion(b.opts.strategy, b.opts.version, snap.Version); err != nil {
		b.opts.logger.Warn("snapshot version rejected", "version", snap.Version, "want", b.opts.version, "strategy", b.opts.strategy)
		return err
	}

	if err := checkpoint(ctx, "graph restore"); err != nil {
		return err
	}
	if err := b.g.Restore(snap.GraphDocument()); err != nil {
		return errors.New("E062").Wrap(err)
	}
	res.Stats.Signals = len(snap.Signals)
	res.Stats.Computeds = len(snap.Computeds)

	ids := make([]string, 0, len(snap.Nodes))
	for id := range snap.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	compiled := make(map[string]HandlerFunc)
	for _, id := range ids {
		if err := checkpoint(ctx, "node "+id); err != nil {
			return err
		}
		if _, found := doc.Lookup(id); !found {
			res.Stats.Unresolved = append(res.Stats.Unresolved, id)
			b.opts.logger.Warn("snapshot node not found in document", "node", id, "tag", snap.Nodes[id].Tag)
			continue
		}
		res.Stats.NodesResolved++
		for _, l := range snap.Nodes[id].Listeners {
			fn, err := b.handlerFor(l, compiled)
			if err != nil {
				res.Stats.MissingHandlers = append(res.Stats.MissingHandlers, l.HandlerID)
				b.opts.logger.Warn("listener not restored", "node", id, "event", l.Event, "handler", l.HandlerID, "error", err)
				continue
			}
			doc.bind(id, binding{event: l.Event, handlerID: l.HandlerID, fn: fn})
			res.Stats.Listeners++
		}
	}
	res.Stats.Components = len(snap.Components)
	for _, isl := range snap.Islands {
		if isl.NodeID == "" {
			continue
		}
		if _, found := doc.Lookup(isl.NodeID); found {
			res.Stats.Islands++
		}
	}

	doc.g = b.g
	return nil
}

// handlerFor resolves a listener to an implementation: the registry first,
// then captured source when allowed.
func (b *Bootstrap) handlerFor(l Listener, compiled map[string]HandlerFunc) (HandlerFunc, error) {
	if fn, ok := b.handlers.Lookup(l.HandlerID); ok {
		return fn, nil
	}
	if l.Source == "" {
		return nil, errors.New("E041").WithDetailf("handler %q", l.HandlerID)
	}
	if !b.opts.allowSource {
		return nil, errors.New("E042").WithDetailf("handler %q", l.HandlerID)
	}
	key := l.HandlerID + "\x00" + l.Source
	if fn, ok := compiled[key]; ok {
		return fn, nil
	}
	fn, err := CompileSource(l.Source)
	if err != nil {
		return nil, err
	}
	compiled[key] = fn
	return fn, nil
}
