package instrument

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/observe-go/observe/pkg/observe"
)

// MetricsConfig configures the Prometheus instrumentation sink.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "observe").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus instrumentation sink.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace:   "observe",
		Subsystem:   "",
		ConstLabels: nil,
		Registry:    prometheus.DefaultRegisterer,
	}
}

// Metrics is a Prometheus-backed observe.Instrumentation sink.
type Metrics struct {
	trackingsStarted   prometheus.Counter
	trackingsFired     prometheus.Counter
	trackingsCancelled prometheus.Counter
	trackingsActive    prometheus.Gauge
	observationsArmed  prometheus.Counter
	mutationsDelivered *prometheus.CounterVec
	observersNotified  prometheus.Counter
}

// globalMetrics is the singleton sink, created on first call to
// Prometheus(). promauto panics on duplicate registration, so repeated
// calls reuse the first instance.
var (
	globalMetrics   *Metrics
	globalMetricsMu sync.Mutex
)

// initMetrics initializes the Prometheus metrics.
func initMetrics(config MetricsConfig) *Metrics {
	factory := promauto.With(config.Registry)

	return &Metrics{
		trackingsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "trackings_started_total",
			Help:        "Total number of tracking scopes that registered observations",
			ConstLabels: config.ConstLabels,
		}),

		trackingsFired: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "trackings_fired_total",
			Help:        "Total number of tracking scopes whose onChange callback fired",
			ConstLabels: config.ConstLabels,
		}),

		trackingsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "trackings_cancelled_total",
			Help:        "Total number of tracking scopes cancelled before firing",
			ConstLabels: config.ConstLabels,
		}),

		trackingsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "trackings_active",
			Help:        "Number of armed tracking scopes awaiting their first mutation",
			ConstLabels: config.ConstLabels,
		}),

		observationsArmed: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "observations_armed_total",
			Help:        "Total number of (registrar, property) observation entries registered",
			ConstLabels: config.ConstLabels,
		}),

		mutationsDelivered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mutations_delivered_total",
			Help:        "Total number of mutations that claimed at least one observation, by property",
			ConstLabels: config.ConstLabels,
		}, []string{"property"}),

		observersNotified: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "observers_notified_total",
			Help:        "Total number of observation entries delivered to callbacks",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Prometheus returns the Prometheus instrumentation sink, creating it on
// first call.
//
// Metrics collected:
//   - observe_trackings_started_total: Counter of scopes that armed observations
//   - observe_trackings_fired_total: Counter of fired onChange callbacks
//   - observe_trackings_cancelled_total: Counter of scopes cancelled before firing
//   - observe_trackings_active: Gauge of armed scopes awaiting a mutation
//   - observe_observations_armed_total: Counter of observation entries registered
//   - observe_mutations_delivered_total: Counter of delivering mutations by property
//   - observe_observers_notified_total: Counter of entries delivered to callbacks
//
// Example:
//
//	observe.SetInstrumentation(instrument.Prometheus(
//	    instrument.WithNamespace("myapp"),
//	))
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
	return globalMetrics
}

// GetMetrics returns the singleton sink, or nil if Prometheus() has not
// been called yet.
func GetMetrics() *Metrics {
	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	return globalMetrics
}

// TrackingStarted implements observe.Instrumentation.
func (m *Metrics) TrackingStarted(registrars, keys int) {
	m.trackingsStarted.Inc()
	m.trackingsActive.Inc()
	m.observationsArmed.Add(float64(keys))
}

// TrackingFired implements observe.Instrumentation.
func (m *Metrics) TrackingFired() {
	m.trackingsFired.Inc()
	m.trackingsActive.Dec()
}

// TrackingCancelled implements observe.Instrumentation.
func (m *Metrics) TrackingCancelled() {
	m.trackingsCancelled.Inc()
	m.trackingsActive.Dec()
}

// MutationDelivered implements observe.Instrumentation.
func (m *Metrics) MutationDelivered(key observe.PropertyKey, observers int) {
	m.mutationsDelivered.WithLabelValues(key.String()).Inc()
	m.observersNotified.Add(float64(observers))
}
