package devserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/resume/internal/config"
	"github.com/vango-dev/resume/pkg/reactive"
	"github.com/vango-dev/resume/pkg/resume"
)

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *Server {
	t.Helper()
	cfg := config.New()
	for _, m := range mutate {
		m(cfg)
	}
	return New(cfg, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

func TestPageIsResumable(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	page := rec.Body.String()
	assert.Contains(t, page, `id="`+resume.ScriptID+`"`)
	assert.Contains(t, page, `data-rid="inc"`)
	assert.Contains(t, page, `<span data-bind="count">0</span>`)

	// A client with its own graph resumes the page the server sent.
	g := reactive.NewGraph()
	doc, res := resume.QuickResume(context.Background(), strings.NewReader(page), g, CounterHandlers())
	require.True(t, res.Success, "%v", res.Err)
	assert.Equal(t, 6, res.Stats.NodesResolved)
	assert.Equal(t, 3, res.Stats.Listeners)
	assert.Empty(t, res.Stats.Unresolved)

	require.NoError(t, doc.Dispatch("inc", "click", nil))
	c := AttachCounter(g)
	assert.Equal(t, 1, c.Count.Get())
	assert.Equal(t, "odd", c.Parity.Get())
}

func TestSnapshotRoute(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/snapshot", "")
	require.Equal(t, http.StatusOK, rec.Code)

	snap, err := resume.ParseSnapshot(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "/", snap.Meta.Route)
	assert.JSONEq(t, "0", string(snap.Signals["count"].Value))
	assert.JSONEq(t, "1", string(snap.Signals["step"].Value))
	assert.JSONEq(t, `"even"`, string(snap.Computeds["parity"].Value))
	assert.Equal(t, "Counter", snap.Components["counter"].Name)
	assert.Empty(t, snap.Nodes["inc"].Listeners[0].Source)
}

func TestSnapshotRouteWithSource(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Snapshot.SerializeSource = true })
	rec := do(t, s.Handler(), http.MethodGet, "/snapshot", "")
	require.Equal(t, http.StatusOK, rec.Code)

	snap, err := resume.ParseSnapshot(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Contains(t, snap.Nodes["inc"].Listeners[0].Source, `state.set("count"`)
}

func TestSnapshotTooLarge(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Snapshot.MaxSize = 64 })
	rec := do(t, s.Handler(), http.MethodGet, "/snapshot", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "E020", body["code"])
}

func TestDispatch(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/dispatch/inc/click", `{"step": 3}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var cp Checkpoint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cp))
	assert.Equal(t, ReasonDispatch, cp.Reason)
	assert.Equal(t, 3.0, cp.Values["count"])
	assert.Equal(t, 6.0, cp.Values["doubled"])
	assert.Equal(t, "odd", cp.Values["parity"])

	rec = do(t, h, http.MethodPost, "/dispatch/dec/click", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cp))
	assert.Equal(t, 2.0, cp.Values["count"])

	rec = do(t, h, http.MethodGet, "/", "")
	assert.Contains(t, rec.Body.String(), `<span data-bind="count">2</span>`)

	rec = do(t, h, http.MethodPost, "/dispatch/reset/click", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, s.counter.Count.Peek())
}

func TestDispatchErrors(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/dispatch/inc/dblclick", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/dispatch/nowhere/click", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/dispatch/inc/click", `{"step":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/dispatch/inc/click", `{} {}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/dispatch/inc/click", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCheckpointStream(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/checkpoints", nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var cp Checkpoint
	require.NoError(t, conn.ReadJSON(&cp))
	assert.Equal(t, ReasonConnect, cp.Reason)
	assert.Equal(t, 0.0, cp.Values["count"])

	require.Eventually(t, func() bool { return s.Hub().ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	resp, err := http.Post(ts.URL+"/dispatch/inc/click", "application/json", strings.NewReader(`{"step":5}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.ReadJSON(&cp))
	assert.Equal(t, ReasonDispatch, cp.Reason)
	assert.Equal(t, 5.0, cp.Values["count"])
	assert.Equal(t, 10.0, cp.Values["doubled"])

	s.Hub().Close()
	assert.Zero(t, s.Hub().ClientCount())
}

func TestMetricsRoute(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	do(t, h, http.MethodGet, "/", "")
	do(t, h, http.MethodPost, "/dispatch/inc/click", "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `resume_snapshots_total{status="ok"}`)
	assert.Contains(t, body, `resume_resumes_total{outcome="resumed"}`)
	assert.Contains(t, body, `resume_http_requests_total{method="POST",route="/dispatch/{node}/{event}",status="200"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestMetricsLabelsAndBuckets(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Metrics.Labels = map[string]string{"env": "test"}
		c.Metrics.Buckets = []float64{0.5, 1}
	})
	h := s.Handler()
	do(t, h, http.MethodGet, "/", "")

	body := do(t, h, http.MethodGet, "/metrics", "").Body.String()
	assert.Contains(t, body, `resume_http_request_duration_seconds_bucket{env="test",route="/",le="0.5"} 1`)
	assert.NotContains(t, body, `resume_http_request_duration_seconds_bucket{env="test",route="/",le="0.005"}`)
}

func TestRunScheduleStops(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.RunSchedule(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("RunSchedule did not stop")
	}

	bad := newTestServer(t, func(c *config.Config) { c.Dev.CheckpointSchedule = "not a schedule" })
	assert.Error(t, bad.RunSchedule(context.Background()))
}

func TestStepOf(t *testing.T) {
	assert.Equal(t, 4, stepOf(map[string]any{"step": 4.0}, 1))
	assert.Equal(t, 2, stepOf(map[string]any{"step": 2}, 1))
	assert.Equal(t, 1, stepOf(map[string]any{"other": 2}, 1))
	assert.Equal(t, 7, stepOf(nil, 7))
}
