package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures build metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "vizsite").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for render duration.
	Buckets []float64

	// Registry is the registry to use (default: a new private registry).
	Registry *prometheus.Registry
}

// MetricsOption configures build metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the render duration buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the registry.
func WithRegistry(registry *prometheus.Registry) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Metrics holds the build metrics. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	routesTotal    *prometheus.CounterVec
	renderDuration prometheus.Histogram
	assetsCopied   prometheus.Counter
	outputBytes    *prometheus.CounterVec
	buildDuration  prometheus.Gauge
	buildsTotal    *prometheus.CounterVec
}

// NewMetrics registers the build metrics:
//   - vizsite_routes_rendered_total{status}
//   - vizsite_route_render_seconds
//   - vizsite_assets_copied_total
//   - vizsite_output_bytes_total{kind}
//   - vizsite_build_duration_seconds
//   - vizsite_builds_total{status}
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := MetricsConfig{
		Namespace: "vizsite",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		registry: config.Registry,

		routesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "routes_rendered_total",
			Help:        "Total number of pages rendered by status",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		renderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Name:        "route_render_seconds",
			Help:        "Page render duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		assetsCopied: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "assets_copied_total",
			Help:        "Total number of static assets copied to the output",
			ConstLabels: config.ConstLabels,
		}),

		outputBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "output_bytes_total",
			Help:        "Bytes written to the output by file kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		buildDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "build_duration_seconds",
			Help:        "Duration of the last build in seconds",
			ConstLabels: config.ConstLabels,
		}),

		buildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "builds_total",
			Help:        "Total number of builds by status",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordRender records one page render.
func (m *Metrics) RecordRender(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.routesTotal.WithLabelValues(status(err)).Inc()
	m.renderDuration.Observe(d.Seconds())
}

// RecordAsset records a copied asset of size bytes.
func (m *Metrics) RecordAsset(size int64) {
	if m == nil {
		return
	}
	m.assetsCopied.Inc()
	m.outputBytes.WithLabelValues("asset").Add(float64(size))
}

// RecordOutput records size bytes written for a file kind ("page",
// "generated", "gzip").
func (m *Metrics) RecordOutput(kind string, size int64) {
	if m == nil {
		return
	}
	m.outputBytes.WithLabelValues(kind).Add(float64(size))
}

// RecordBuild records a finished build.
func (m *Metrics) RecordBuild(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.buildsTotal.WithLabelValues(status(err)).Inc()
	m.buildDuration.Set(d.Seconds())
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteFile writes the metrics in the text exposition format.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
