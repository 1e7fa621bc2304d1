// Package metrics exposes pipeline instrumentation on a dedicated Prometheus
// registry so embedding applications keep their own default registry clean.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the pipeline emits to.
type Metrics struct {
	registry *prometheus.Registry

	DocumentsTotal *prometheus.CounterVec
	StageDuration  *prometheus.HistogramVec
	QualityScore   prometheus.Histogram
	FallbacksTotal *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		DocumentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docpipe",
			Name:      "documents_total",
			Help:      "Documents processed, labeled by detected type and final status.",
		}, []string{"type", "status"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "docpipe",
			Name:      "stage_duration_seconds",
			Help:      "Wall time spent per pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"stage"}),
		QualityScore: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "docpipe",
			Name:      "quality_score",
			Help:      "Overall quality score distribution.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
		FallbacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docpipe",
			Name:      "fallbacks_total",
			Help:      "Stage degradations to a fallback path.",
		}, []string{"stage"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
