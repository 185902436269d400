package sitegen

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the preview server's Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "passport").
	Namespace string

	// Buckets are the histogram buckets for request duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry receives the collectors and backs /metrics.
	// Default: a fresh prometheus.Registry per server.
	Registry *prometheus.Registry
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "passport",
		Buckets:   prometheus.DefBuckets,
	}
}

type metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	siteSwaps       prometheus.Counter
	sitePages       prometheus.Gauge
}

func newMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "preview",
			Name:      "requests_total",
			Help:      "Preview requests by page kind and status code",
		}, []string{"kind", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: "preview",
			Name:      "request_duration_seconds",
			Help:      "Preview request duration in seconds",
			Buckets:   config.Buckets,
		}, []string{"kind"}),

		siteSwaps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "preview",
			Name:      "site_swaps_total",
			Help:      "Number of times the served site was replaced",
		}),

		sitePages: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Subsystem: "preview",
			Name:      "site_pages",
			Help:      "Pages in the currently served site",
		}),
	}
}
