package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestPrometheusRecordsRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(WithRegistry(reg), WithNamespace("test"))

	r := chi.NewRouter()
	r.Use(c.Handler)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		if metricGaugeValue(t, c.inFlight) != 1 {
			t.Error("in-flight gauge should count the running request")
		}
		w.Write([]byte("ok"))
	})
	r.Post("/fail", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})

	for _, path := range []string{"/items/1", "/items/2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: status %d", path, rec.Code)
		}
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/fail", nil))

	if got := metricCounterValue(t, c.requestsTotal.WithLabelValues("/items/{id}", "GET", "200")); got != 2 {
		t.Errorf("requests_total(/items/{id})=%v, want 2", got)
	}
	if got := metricCounterValue(t, c.requestsTotal.WithLabelValues("/fail", "POST", "500")); got != 1 {
		t.Errorf("requests_total(/fail)=%v, want 1", got)
	}
	if got := metricHistogramCount(t, c.requestDuration.WithLabelValues("/items/{id}")); got != 2 {
		t.Errorf("request_duration count=%d, want 2", got)
	}
	if got := metricGaugeValue(t, c.inFlight); got != 0 {
		t.Errorf("in-flight=%v, want 0", got)
	}
}

func TestPrometheusUnmatchedRoute(t *testing.T) {
	c := NewCollector(WithRegistry(prometheus.NewRegistry()))
	h := c.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/raw", nil))

	if got := metricCounterValue(t, c.requestsTotal.WithLabelValues("other", "GET", "204")); got != 1 {
		t.Errorf("requests_total(other)=%v, want 1", got)
	}
}

func TestPrometheusImplicitOK(t *testing.T) {
	reg := prometheus.NewRegistry()
	mw := Prometheus(WithRegistry(reg), WithSubsystem("dev"))
	h := mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "resume_dev_requests_total" {
			found = true
			if l := f.GetMetric()[0].GetLabel(); len(l) != 3 {
				t.Errorf("labels = %v", l)
			}
		}
	}
	if !found {
		t.Error("resume_dev_requests_total not registered")
	}
}
