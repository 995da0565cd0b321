package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the analysis service.
type Metrics struct {
	registry *prometheus.Registry

	AnalysesTotal    *prometheus.CounterVec // labels: symbol
	AnalysisFailures *prometheus.CounterVec // labels: symbol
	AnalysisDur      prometheus.Histogram
	SignalsTotal     *prometheus.CounterVec // labels: direction
	WSClients        prometheus.Gauge
}

// NewMetrics creates and registers all metrics on a private registry so
// multiple server instances never collide.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analyst_analyses_total",
			Help: "Completed analysis passes per symbol.",
		}, []string{"symbol"}),
		AnalysisFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analyst_analysis_failures_total",
			Help: "Failed analysis passes per symbol.",
		}, []string{"symbol"}),
		AnalysisDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analyst_analysis_duration_seconds",
			Help:    "Wall time of one analysis pass.",
			Buckets: prometheus.DefBuckets,
		}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analyst_signals_total",
			Help: "Signals synthesized, by direction.",
		}, []string{"direction"}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "analyst_ws_clients",
			Help: "Currently connected websocket clients.",
		}),
	}

	m.registry.MustRegister(
		m.AnalysesTotal,
		m.AnalysisFailures,
		m.AnalysisDur,
		m.SignalsTotal,
		m.WSClients,
	)
	return m
}

// Handler exposes the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
