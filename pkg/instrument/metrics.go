package instrument

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/statekit-dev/statekit/pkg/store"
)

// MetricsConfig configures the Prometheus metrics registration.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "statekit").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics registration.
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
		Namespace:   "statekit",
		Subsystem:   "",
		ConstLabels: nil,
		Registry:    prometheus.DefaultRegisterer,
	}
}

// RegisterMetrics registers gauges and counters backed by the engine's
// counters with the configured registry. The returned function
// unregisters them again.
func RegisterMetrics(opts ...MetricsOption) (unregister func(), err error) {
	cfg := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	opt := func(name, help string) prometheus.GaugeOpts {
		return prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: cfg.ConstLabels,
		}
	}
	counterOpt := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts(opt(name, help))
	}

	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(
			opt("mounted_stores", "Stores currently active or in their stop window."),
			func() float64 { return float64(store.Stats().MountedStores) },
		),
		prometheus.NewGaugeFunc(
			opt("active_listeners", "Registered listeners across all stores."),
			func() float64 { return float64(store.Stats().ActiveListeners) },
		),
		prometheus.NewGaugeFunc(
			opt("tasks_in_flight", "Started-but-unsettled tracked tasks."),
			func() float64 { return float64(store.Stats().TasksInFlight) },
		),
		prometheus.NewCounterFunc(
			counterOpt("actions_started_total", "Action executions since process start."),
			func() float64 { return float64(store.Stats().ActionsStarted) },
		),
		prometheus.NewCounterFunc(
			counterOpt("action_errors_total", "Failed action executions since process start."),
			func() float64 { return float64(store.Stats().ActionErrors) },
		),
		prometheus.NewCounterFunc(
			counterOpt("notifications_total", "Listener invocations since process start."),
			func() float64 { return float64(store.Stats().NotificationsDelivered) },
		),
	}

	registered := make([]prometheus.Collector, 0, len(collectors))
	for _, c := range collectors {
		if err := cfg.Registry.Register(c); err != nil {
			for _, r := range registered {
				cfg.Registry.Unregister(r)
			}
			return nil, err
		}
		registered = append(registered, c)
	}

	return func() {
		for _, r := range registered {
			cfg.Registry.Unregister(r)
		}
	}, nil
}
