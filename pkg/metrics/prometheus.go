package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/exploopio/opsboard/pkg/errors"
)

// =============================================================================
// Prometheus Collector
// =============================================================================

// PrometheusCollector implements Collector on a Prometheus registry.
type PrometheusCollector struct {
	mu       sync.RWMutex
	registry *prometheus.Registry

	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

// PrometheusConfig configures the Prometheus collector.
type PrometheusConfig struct {
	// Registry is the Prometheus registry to use. A new registry with the
	// Go runtime and process collectors is created when nil.
	Registry *prometheus.Registry

	// RegisterDefaultMetrics registers every definition of DefaultMetrics.
	RegisterDefaultMetrics bool
}

// NewPrometheusCollector creates a new Prometheus metrics collector.
func NewPrometheusCollector(cfg *PrometheusConfig) *PrometheusCollector {
	if cfg == nil {
		cfg = &PrometheusConfig{}
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	c := &PrometheusCollector{
		registry:   registry,
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}

	if cfg.RegisterDefaultMetrics {
		for _, def := range DefaultMetrics() {
			// The definitions are static and distinct, so this cannot fail.
			_ = c.Register(def)
		}
	}

	return c
}

// Register adds def to the registry. Registering the same name twice is a
// no-op.
func (c *PrometheusCollector) Register(def MetricDefinition) error {
	const op = "metrics.Register"

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.registered(def.Name) {
		return nil
	}

	var vec prometheus.Collector
	switch def.Type {
	case MetricTypeCounter:
		cv := prometheus.NewCounterVec(prometheus.CounterOpts{Name: def.Name, Help: def.Help}, def.Labels)
		c.counters[def.Name] = cv
		vec = cv
	case MetricTypeGauge:
		gv := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: def.Name, Help: def.Help}, def.Labels)
		c.gauges[def.Name] = gv
		vec = gv
	case MetricTypeHistogram:
		buckets := def.Buckets
		if len(buckets) == 0 {
			buckets = prometheus.DefBuckets
		}
		hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: def.Name, Help: def.Help, Buckets: buckets}, def.Labels)
		c.histograms[def.Name] = hv
		vec = hv
	default:
		return errors.Errorf(errors.KindInvalidInput, op, "metric %s: unknown type %q", def.Name, def.Type)
	}

	if err := c.registry.Register(vec); err != nil {
		delete(c.counters, def.Name)
		delete(c.gauges, def.Name)
		delete(c.histograms, def.Name)
		return errors.E(errors.KindConflict, op, "register "+def.Name, err)
	}
	return nil
}

func (c *PrometheusCollector) registered(name string) bool {
	_, counter := c.counters[name]
	_, gauge := c.gauges[name]
	_, histogram := c.histograms[name]
	return counter || gauge || histogram
}

// =============================================================================
// Collector Interface Implementation
// =============================================================================

func (c *PrometheusCollector) CounterInc(name string, labels ...string) {
	c.mu.RLock()
	vec, ok := c.counters[name]
	c.mu.RUnlock()
	if !ok {
		return
	}
	if counter, err := vec.GetMetricWithLabelValues(labelsToValues(labels)...); err == nil {
		counter.Inc()
	}
}

func (c *PrometheusCollector) GaugeSet(name string, value float64, labels ...string) {
	c.mu.RLock()
	vec, ok := c.gauges[name]
	c.mu.RUnlock()
	if !ok {
		return
	}
	if gauge, err := vec.GetMetricWithLabelValues(labelsToValues(labels)...); err == nil {
		gauge.Set(value)
	}
}

func (c *PrometheusCollector) HistogramObserve(name string, value float64, labels ...string) {
	c.mu.RLock()
	vec, ok := c.histograms[name]
	c.mu.RUnlock()
	if !ok {
		return
	}
	if histogram, err := vec.GetMetricWithLabelValues(labelsToValues(labels)...); err == nil {
		histogram.Observe(value)
	}
}

// Handler serves the registry in the Prometheus text or OpenMetrics format.
func (c *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the underlying Prometheus registry.
func (c *PrometheusCollector) Registry() *prometheus.Registry {
	return c.registry
}

// labelsToValues keeps the values of name/value label pairs. A trailing
// name without a value is ignored.
func labelsToValues(labels []string) []string {
	if len(labels) < 2 {
		return nil
	}
	values := make([]string, 0, len(labels)/2)
	for i := 1; i < len(labels); i += 2 {
		values = append(values, labels[i])
	}
	return values
}

var _ Collector = (*PrometheusCollector)(nil)
