// Package metrics provides metrics collection and reporting for opsboard.
// It includes interfaces for metric collection, a Prometheus-compatible
// implementation and a dashboard observer that keeps the header metrics
// exported.
package metrics

import (
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/exploopio/opsboard/pkg/clock"
)

// =============================================================================
// Collector
// =============================================================================

// Collector receives metric observations. Labels are passed as alternating
// name/value pairs in the order of the metric definition. Observations of
// unregistered metrics, or with labels that do not fit the definition, are
// dropped.
type Collector interface {
	CounterInc(name string, labels ...string)
	GaugeSet(name string, value float64, labels ...string)
	HistogramObserve(name string, value float64, labels ...string)

	// Handler serves the metrics in the collector's exposition format.
	Handler() http.Handler
}

// MetricType represents the type of metric.
type MetricType string

const (
	MetricTypeCounter   MetricType = "counter"
	MetricTypeGauge     MetricType = "gauge"
	MetricTypeHistogram MetricType = "histogram"
)

// MetricDefinition defines a metric with its metadata.
type MetricDefinition struct {
	Name    string     `json:"name"`
	Type    MetricType `json:"type"`
	Help    string     `json:"help"`
	Labels  []string   `json:"labels,omitempty"`
	Buckets []float64  `json:"buckets,omitempty"` // histograms only
}

// =============================================================================
// Default Metrics - Standard metrics for opsboard
// =============================================================================

var (
	// Dashboard header metrics
	DashboardOpenCriticalTickets = MetricDefinition{
		Name:   "opsboard_open_critical_tickets",
		Type:   MetricTypeGauge,
		Help:   "Unresolved tickets with Critical priority",
		Labels: []string{},
	}
	DashboardTicketsBreachingSLA = MetricDefinition{
		Name:   "opsboard_tickets_breaching_sla",
		Type:   MetricTypeGauge,
		Help:   "Unresolved tickets at or past 80% of their SLA",
		Labels: []string{},
	}
	DashboardVulnerableAssets = MetricDefinition{
		Name:   "opsboard_vulnerable_assets",
		Type:   MetricTypeGauge,
		Help:   "Impacted assets across filtered, unpatched vulnerabilities",
		Labels: []string{},
	}
	DashboardHighRiskDevices = MetricDefinition{
		Name:   "opsboard_high_risk_devices",
		Type:   MetricTypeGauge,
		Help:   "Endpoints below the health or compliance threshold",
		Labels: []string{},
	}
	DashboardHighRiskDevicesPercent = MetricDefinition{
		Name:   "opsboard_high_risk_devices_percent",
		Type:   MetricTypeGauge,
		Help:   "High risk endpoints as a rounded percentage of the fleet",
		Labels: []string{},
	}

	// Operation metrics
	TicketActionsTotal = MetricDefinition{
		Name:   "opsboard_ticket_actions_total",
		Type:   MetricTypeCounter,
		Help:   "Total number of ticket actions",
		Labels: []string{"action", "result"},
	}
	ViewChangesTotal = MetricDefinition{
		Name:   "opsboard_view_changes_total",
		Type:   MetricTypeCounter,
		Help:   "Total number of filter and selection changes",
		Labels: []string{"operation", "result"},
	}

	// Integration metrics
	IntegrationUp = MetricDefinition{
		Name:   "opsboard_integration_up",
		Type:   MetricTypeGauge,
		Help:   "Integration state: 1 connected, 0.5 degraded, 0 disconnected",
		Labels: []string{"integration"},
	}
	IntegrationItemsSynced = MetricDefinition{
		Name:   "opsboard_integration_items_synced_last_hour",
		Type:   MetricTypeGauge,
		Help:   "Items synced by an integration in the last hour",
		Labels: []string{"integration"},
	}

	// HTTP server metrics
	HTTPRequestsTotal = MetricDefinition{
		Name:   "opsboard_http_requests_total",
		Type:   MetricTypeCounter,
		Help:   "Total number of HTTP requests served",
		Labels: []string{"method", "route", "status"},
	}
	HTTPRequestDuration = MetricDefinition{
		Name:    "opsboard_http_request_duration_seconds",
		Type:    MetricTypeHistogram,
		Help:    "Duration of HTTP requests in seconds",
		Labels:  []string{"method", "route"},
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}
)

// DefaultMetrics returns every standard opsboard metric definition.
func DefaultMetrics() []MetricDefinition {
	return []MetricDefinition{
		DashboardOpenCriticalTickets,
		DashboardTicketsBreachingSLA,
		DashboardVulnerableAssets,
		DashboardHighRiskDevices,
		DashboardHighRiskDevicesPercent,
		TicketActionsTotal,
		ViewChangesTotal,
		IntegrationUp,
		IntegrationItemsSynced,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	}
}

// =============================================================================
// NopCollector
// =============================================================================

// NopCollector discards all metrics.
type NopCollector struct{}

func (c *NopCollector) CounterInc(name string, labels ...string)                      {}
func (c *NopCollector) GaugeSet(name string, value float64, labels ...string)         {}
func (c *NopCollector) HistogramObserve(name string, value float64, labels ...string) {}
func (c *NopCollector) Handler() http.Handler                                         { return http.NotFoundHandler() }

// =============================================================================
// InMemoryCollector
// =============================================================================

// InMemoryCollector keeps every observation in memory. Tests use it to
// assert on what a component recorded.
type InMemoryCollector struct {
	mu         sync.RWMutex
	counters   map[string]float64
	gauges     map[string]float64
	histograms map[string][]float64
}

// NewInMemoryCollector creates an empty collector.
func NewInMemoryCollector() *InMemoryCollector {
	return &InMemoryCollector{
		counters:   make(map[string]float64),
		gauges:     make(map[string]float64),
		histograms: make(map[string][]float64),
	}
}

// seriesKey identifies a series by metric name and label pairs.
func seriesKey(name string, labels []string) string {
	var b strings.Builder
	b.WriteString(name)
	for i := 0; i+1 < len(labels); i += 2 {
		b.WriteString("," + labels[i] + "=" + labels[i+1])
	}
	return b.String()
}

func (c *InMemoryCollector) CounterInc(name string, labels ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[seriesKey(name, labels)]++
}

func (c *InMemoryCollector) GaugeSet(name string, value float64, labels ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gauges[seriesKey(name, labels)] = value
}

func (c *InMemoryCollector) HistogramObserve(name string, value float64, labels ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := seriesKey(name, labels)
	c.histograms[key] = append(c.histograms[key], value)
}

func (c *InMemoryCollector) Handler() http.Handler {
	return http.NotFoundHandler()
}

// GetCounter returns the value of a counter series.
func (c *InMemoryCollector) GetCounter(name string, labels ...string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counters[seriesKey(name, labels)]
}

// GetGauge returns the value of a gauge series.
func (c *InMemoryCollector) GetGauge(name string, labels ...string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gauges[seriesKey(name, labels)]
}

// GetHistogram returns all observations of a histogram series.
func (c *InMemoryCollector) GetHistogram(name string, labels ...string) []float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.histograms[seriesKey(name, labels)])
}

// =============================================================================
// Timer
// =============================================================================

// Timer measures an operation against a clock and records it to a
// histogram.
type Timer struct {
	clock     clock.Clock
	start     time.Time
	collector Collector
	name      string
	labels    []string
}

// NewTimer starts a timer for the histogram name.
func NewTimer(clk clock.Clock, collector Collector, name string, labels ...string) *Timer {
	return &Timer{
		clock:     clk,
		start:     clk.Now(),
		collector: collector,
		name:      name,
		labels:    labels,
	}
}

// ObserveDuration records the time since the timer started. Labels passed
// here are appended to the ones given to NewTimer.
func (t *Timer) ObserveDuration(labels ...string) time.Duration {
	d := t.clock.Now().Sub(t.start)
	t.collector.HistogramObserve(t.name, d.Seconds(), append(slices.Clone(t.labels), labels...)...)
	return d
}

var (
	_ Collector = (*NopCollector)(nil)
	_ Collector = (*InMemoryCollector)(nil)
)
