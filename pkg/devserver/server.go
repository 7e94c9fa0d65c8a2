package devserver

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/resume/internal/config"
	"github.com/vango-dev/resume/internal/errors"
	"github.com/vango-dev/resume/pkg/middleware"
	"github.com/vango-dev/resume/pkg/reactive"
	"github.com/vango-dev/resume/pkg/resume"
)

// maxEventBody bounds the JSON body accepted by the dispatch route.
const maxEventBody = 64 << 10

// Server is the preview server. It owns one live graph shared by all
// requests; handlers take mu before touching it.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	g        *reactive.Graph
	counter  *Counter
	handlers *resume.HandlerRegistry
	doc      *resume.Document
	seq      uint64

	registry *prometheus.Registry
	metrics  *resume.Metrics
	hub      *Hub
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the clock used for checkpoint timestamps and the schedule.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a server for cfg. Metrics go to a registry private to the
// server and are exposed on /metrics.
func New(cfg *config.Config, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Server{
		cfg:      cfg,
		logger:   slog.Default().With("component", "devserver"),
		now:      time.Now,
		handlers: CounterHandlers(),
		registry: prometheus.NewRegistry(),
		hub:      NewHub(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registry.MustRegister(collectors.NewGoCollector())
	s.metrics = resume.NewMetrics(s.registry, cfg.Metrics.Namespace)
	s.g = reactive.NewGraph(reactive.WithLogger(s.logger), reactive.WithClock(s.now))
	s.counter = AttachCounter(s.g)
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	metricOpts := []middleware.MetricsOption{
		middleware.WithRegistry(s.registry),
		middleware.WithNamespace(s.cfg.Metrics.Namespace),
	}
	if len(s.cfg.Metrics.Labels) > 0 {
		metricOpts = append(metricOpts, middleware.WithConstLabels(prometheus.Labels(s.cfg.Metrics.Labels)))
	}
	if len(s.cfg.Metrics.Buckets) > 0 {
		metricOpts = append(metricOpts, middleware.WithBuckets(s.cfg.Metrics.Buckets))
	}
	r.Use(middleware.Prometheus(metricOpts...))
	r.Use(middleware.OpenTelemetry(middleware.WithRequestFilter(func(r *http.Request) bool {
		return r.URL.Path != "/metrics"
	})))

	r.Get("/", s.handlePage)
	r.Get("/snapshot", s.handleSnapshot)
	r.Post("/dispatch/{node}/{event}", s.handleDispatch)
	r.Get("/checkpoints", s.handleCheckpoints)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the checkpoint hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// render serializes the live graph into a page and resumes that page into
// the same graph, so events are dispatched through exactly the bindings the
// page describes. The caller holds mu.
func (s *Server) render(ctx context.Context) (string, *resume.Snapshot, error) {
	ser := resume.NewSerializer(s.g, append(s.cfg.SerializerOptions(),
		resume.WithLogger(s.logger),
		resume.WithMetrics(s.metrics),
	)...)
	body, err := s.counter.Render(ser)
	if err != nil {
		return "", nil, err
	}
	snap, err := ser.CreateSnapshot(ctx, resume.Meta{Route: "/", Custom: map[string]any{"app": "counter"}})
	if err != nil {
		return "", nil, err
	}
	script, err := ser.EmbedInHTML(snap)
	if err != nil {
		return "", nil, err
	}
	page := renderPage("Counter", body, script)

	doc, err := resume.ParseDocumentString(page)
	if err != nil {
		return "", nil, err
	}
	bopts, err := s.cfg.BootstrapOptions()
	if err != nil {
		return "", nil, err
	}
	res := resume.NewBootstrap(s.g, s.handlers, append(bopts,
		resume.WithLogger(s.logger),
		resume.WithMetrics(s.metrics),
	)...).Resume(ctx, doc)
	if !res.Success {
		s.logger.Error("page does not resume", "error", res.Err)
		return page, snap, nil
	}
	s.doc = doc
	return page, snap, nil
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	page, _, err := s.render(r.Context())
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, page)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	_, snap, err := s.render(r.Context())
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	data, err := snap.Encode()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	node, event := chi.URLParam(r, "node"), chi.URLParam(r, "event")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	data, err := decodeEventData(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	if s.doc == nil {
		if _, _, err := s.render(r.Context()); err != nil {
			s.mu.Unlock()
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
	}
	err = resume.ErrNotResumed
	if s.doc != nil {
		err = s.doc.Dispatch(node, event, data)
	}
	var cp Checkpoint
	if err == nil {
		cp = s.checkpointLocked(ReasonDispatch)
	}
	s.mu.Unlock()

	switch {
	case err == nil:
	case stderrors.Is(err, resume.ErrNoListener):
		s.writeError(w, http.StatusNotFound, err)
		return
	case stderrors.Is(err, resume.ErrNotResumed):
		s.writeError(w, http.StatusConflict, err)
		return
	default:
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.logger.Debug("dispatched", "node", node, "event", event, "seq", cp.Sequence)
	s.hub.Broadcast(cp)
	writeJSON(w, http.StatusOK, cp)
}

func (s *Server) handleCheckpoints(w http.ResponseWriter, r *http.Request) {
	s.hub.HandleWebSocket(w, r, func() Checkpoint {
		return s.Checkpoint(ReasonConnect)
	})
}

// Checkpoint captures the current serializable state.
func (s *Server) Checkpoint(reason string) Checkpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkpointLocked(reason)
}

func (s *Server) checkpointLocked(reason string) Checkpoint {
	values := s.g.SerializableValues()
	// Cached computeds may be stale after a dispatch; Value brings them up
	// to date.
	for id := range values {
		if v, err := s.g.Value(id); err == nil {
			values[id] = v
		}
	}
	s.seq++
	return Checkpoint{
		Type:      "checkpoint",
		Reason:    reason,
		Sequence:  s.seq,
		Timestamp: s.now().UnixMilli(),
		Values:    values,
	}
}

// RunSchedule pushes a checkpoint to every client at each time matched by
// the configured cron schedule, until ctx is done.
func (s *Server) RunSchedule(ctx context.Context) error {
	expr, err := s.cfg.Schedule()
	if err != nil {
		return errors.New("E102").WithDetailf("dev.checkpointSchedule %q", s.cfg.Dev.CheckpointSchedule).Wrap(err)
	}
	for {
		now := s.now()
		next := expr.Next(now)
		if next.IsZero() {
			return nil
		}
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		cp := s.Checkpoint(ReasonSchedule)
		s.logger.Debug("scheduled checkpoint", "seq", cp.Sequence, "clients", s.hub.ClientCount())
		s.hub.Broadcast(cp)
	}
}

// ListenAndServe serves on the configured address until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.DevAddress(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	schedCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := s.RunSchedule(schedCtx); err != nil && !stderrors.Is(err, context.Canceled) {
			s.logger.Error("checkpoint schedule stopped", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("preview server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.New("E142").Wrap(err)
	case <-ctx.Done():
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.New("E142").Wrap(err)
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  errors.Code(err),
	})
}

func decodeEventData(body []byte) (any, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var data any
	if err := jsonUnmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("event data: %w", err)
	}
	return data, nil
}
