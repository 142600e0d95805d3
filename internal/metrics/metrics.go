// Package metrics holds the Prometheus collectors of the tailoring service.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	HTTPRequests    *prometheus.CounterVec
	ChunksRewritten prometheus.Counter
	RewriteRetries  prometheus.Counter
	Failures        *prometheus.CounterVec
	Documents       prometheus.Counter
	StageDuration   *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests processed.",
			},
			[]string{"method", "path", "status"},
		),
		ChunksRewritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "doctailor_chunks_rewritten_total",
			Help: "Chunks rewritten successfully.",
		}),
		RewriteRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "doctailor_rewrite_retries_total",
			Help: "Rewrite calls retried after a transient failure.",
		}),
		Failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "doctailor_pipeline_failures_total",
				Help: "Tailoring runs that failed, by error kind.",
			},
			[]string{"kind"},
		),
		Documents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "doctailor_documents_produced_total",
			Help: "Tailored documents written.",
		}),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "doctailor_stage_duration_seconds",
				Help:    "Duration of each pipeline stage.",
				Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"stage"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.HTTPRequests, m.ChunksRewritten, m.RewriteRetries, m.Failures, m.Documents, m.StageDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) ChunkRewritten() {
	if m == nil {
		return
	}
	m.ChunksRewritten.Inc()
}

func (m *Metrics) RewriteRetried() {
	if m == nil {
		return
	}
	m.RewriteRetries.Inc()
}

func (m *Metrics) Failed(kind string) {
	if m == nil {
		return
	}
	m.Failures.WithLabelValues(kind).Inc()
}

func (m *Metrics) DocumentProduced() {
	if m == nil {
		return
	}
	m.Documents.Inc()
}

func (m *Metrics) Request(method, path, status string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, path, status).Inc()
}
