package resume

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors updated by Serializer and Bootstrap. A nil
// *Metrics records nothing.
type Metrics struct {
	snapshotsTotal    *prometheus.CounterVec
	snapshotBytes     prometheus.Histogram
	snapshotDuration  prometheus.Histogram
	resumesTotal      *prometheus.CounterVec
	resumeDuration    prometheus.Histogram
	signalsRestored   prometheus.Counter
	computedsRestored prometheus.Counter
	nodesResolved     *prometheus.CounterVec
	listenersAttached prometheus.Counter
}

// NewMetrics registers the resume collectors with reg under namespace. A nil
// reg means prometheus.DefaultRegisterer; an empty namespace means "resume".
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "resume"
	}
	f := promauto.With(reg)
	counter := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help}
	}
	histogram := func(name, help string, buckets []float64) prometheus.HistogramOpts {
		return prometheus.HistogramOpts{Namespace: namespace, Name: name, Help: help, Buckets: buckets}
	}

	sizes := prometheus.ExponentialBuckets(256, 4, 8)
	seconds := prometheus.DefBuckets

	return &Metrics{
		snapshotsTotal:    f.NewCounterVec(counter("snapshots_total", "Snapshots built, by outcome"), []string{"status"}),
		snapshotBytes:     f.NewHistogram(histogram("snapshot_bytes", "Encoded size of built snapshots", sizes)),
		snapshotDuration:  f.NewHistogram(histogram("snapshot_duration_seconds", "Time spent building a snapshot", seconds)),
		resumesTotal:      f.NewCounterVec(counter("resumes_total", "Resume attempts, by outcome"), []string{"outcome"}),
		resumeDuration:    f.NewHistogram(histogram("resume_duration_seconds", "Time spent resuming a document", seconds)),
		signalsRestored:   f.NewCounter(counter("signals_restored_total", "Signals restored from snapshots")),
		computedsRestored: f.NewCounter(counter("computeds_restored_total", "Computed values restored from snapshots")),
		nodesResolved:     f.NewCounterVec(counter("nodes_total", "Snapshot DOM nodes processed during resume, by resolution"), []string{"resolution"}),
		listenersAttached: f.NewCounter(counter("listeners_attached_total", "Listeners re-attached during resume")),
	}
}

func (m *Metrics) observeSnapshot(status string, size int, seconds float64) {
	if m == nil {
		return
	}
	m.snapshotsTotal.WithLabelValues(status).Inc()
	m.snapshotDuration.Observe(seconds)
	if size > 0 {
		m.snapshotBytes.Observe(float64(size))
	}
}

func (m *Metrics) observeResume(res *Result) {
	if m == nil {
		return
	}
	outcome := "resumed"
	switch {
	case res.Fallback:
		outcome = "fallback"
	case !res.Success:
		outcome = "failed"
	}
	m.resumesTotal.WithLabelValues(outcome).Inc()
	m.resumeDuration.Observe(res.Stats.Duration.Seconds())
	m.signalsRestored.Add(float64(res.Stats.Signals))
	m.computedsRestored.Add(float64(res.Stats.Computeds))
	m.nodesResolved.WithLabelValues("resolved").Add(float64(res.Stats.NodesResolved))
	m.nodesResolved.WithLabelValues("unresolved").Add(float64(len(res.Stats.Unresolved)))
	m.listenersAttached.Add(float64(res.Stats.Listeners))
}
