package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the campaign API.
type Metrics struct {
	APIRequestsTotal          *prometheus.CounterVec
	APIRequestDurationSeconds *prometheus.HistogramVec
	APIErrorsTotal            *prometheus.CounterVec

	ApprovalsTotal          *prometheus.CounterVec
	ChainScanDuration       prometheus.Histogram
	ChainEventsScanned      prometheus.Gauge
	QueuePublishFailedTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		APIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crowdfund_api_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		APIRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crowdfund_api_request_duration_seconds",
				Help:    "API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		APIErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crowdfund_api_errors_total",
				Help: "Total number of API errors by type",
			},
			[]string{"type"},
		),
		ApprovalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crowdfund_approvals_total",
				Help: "Campaign approval requests by outcome",
			},
			[]string{"outcome"},
		),
		ChainScanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "crowdfund_chain_scan_duration_seconds",
				Help:    "Duration of the full CampaignCreated log scan",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		ChainEventsScanned: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "crowdfund_chain_events_scanned",
				Help: "Number of CampaignCreated events returned by the last scan",
			},
		),
		QueuePublishFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crowdfund_queue_publish_failed_total",
				Help: "Campaign events that could not be published",
			},
			[]string{"type"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.APIRequestsTotal,
		m.APIRequestDurationSeconds,
		m.APIErrorsTotal,
		m.ApprovalsTotal,
		m.ChainScanDuration,
		m.ChainEventsScanned,
		m.QueuePublishFailedTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
