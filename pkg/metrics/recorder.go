package metrics

import (
	"github.com/exploopio/opsboard/pkg/catalog"
	"github.com/exploopio/opsboard/pkg/dashboard"
)

// Result label values.
const (
	ResultApplied = "applied"
	ResultIgnored = "ignored"
)

// Recorder keeps the dashboard metrics of a Collector current. It is
// registered as a dashboard observer.
type Recorder struct {
	collector Collector
}

// NewRecorder creates a recorder writing to c. A nil collector discards
// everything.
func NewRecorder(c Collector) *Recorder {
	if c == nil {
		c = &NopCollector{}
	}
	return &Recorder{collector: c}
}

// Observe counts the operation and refreshes the header gauges.
func (r *Recorder) Observe(ev dashboard.Event, m dashboard.Metrics) {
	result := ResultApplied
	if !ev.Applied {
		result = ResultIgnored
	}

	if ev.Kind.IsTicketAction() {
		r.collector.CounterInc(TicketActionsTotal.Name, "action", ev.Kind.Action(), "result", result)
	} else {
		r.collector.CounterInc(ViewChangesTotal.Name, "operation", string(ev.Kind), "result", result)
	}
	r.RecordMetrics(m)
}

// RecordMetrics sets the header gauges.
func (r *Recorder) RecordMetrics(m dashboard.Metrics) {
	r.collector.GaugeSet(DashboardOpenCriticalTickets.Name, float64(m.OpenCriticalTickets))
	r.collector.GaugeSet(DashboardTicketsBreachingSLA.Name, float64(m.TicketsBreachingSLA))
	r.collector.GaugeSet(DashboardVulnerableAssets.Name, float64(m.VulnerableAssets))
	r.collector.GaugeSet(DashboardHighRiskDevices.Name, float64(m.DeviceRisk.HighRisk))
	r.collector.GaugeSet(DashboardHighRiskDevicesPercent.Name, float64(m.DeviceRisk.Percentage))
}

// RecordIntegrations exports the state of each integration.
func (r *Recorder) RecordIntegrations(integrations []catalog.IntegrationStatus) {
	for _, in := range integrations {
		name := string(in.Name)
		r.collector.GaugeSet(IntegrationUp.Name, integrationUp(in.Status), "integration", name)
		r.collector.GaugeSet(IntegrationItemsSynced.Name, float64(in.ItemsSyncedLastHour), "integration", name)
	}
}

func integrationUp(s catalog.ConnectionState) float64 {
	switch s {
	case catalog.ConnectionConnected:
		return 1
	case catalog.ConnectionDegraded:
		return 0.5
	}
	return 0
}

var _ dashboard.Observer = (*Recorder)(nil)
