package dashboard

import (
	"math"
	"slices"

	"github.com/exploopio/opsboard/pkg/catalog"
	"github.com/exploopio/opsboard/pkg/shared/severity"
)

// Endpoint risk thresholds. An endpoint is high risk when either score is
// strictly below its threshold.
const (
	RiskHealthThreshold     = 70
	RiskComplianceThreshold = 75
)

// SLA breach threshold as a fraction of the SLA budget, expressed as a
// ratio so the comparison stays in integers.
const (
	breachNumerator   = 4
	breachDenominator = 5
)

// DeviceRisk summarises endpoint posture.
type DeviceRisk struct {
	HighRisk   int `json:"highRisk"`
	Percentage int `json:"percentage"`
}

// Metrics holds the aggregate figures shown in the dashboard header.
//
// OpenCriticalTickets and TicketsBreachingSLA are computed over every ticket
// and ignore the ticket filters. VulnerableAssets is computed over the
// severity-filtered vulnerability list.
type Metrics struct {
	OpenCriticalTickets int        `json:"openCriticalTickets"`
	TicketsBreachingSLA int        `json:"ticketsBreachingSla"`
	VulnerableAssets    int        `json:"vulnerableAssets"`
	DeviceRisk          DeviceRisk `json:"deviceRisk"`
}

// FilterTickets returns the tickets that pass both filters, in input order.
func FilterTickets(tickets []catalog.SupportTicket, level LevelFilter, platform PlatformFilter) []catalog.SupportTicket {
	out := make([]catalog.SupportTicket, 0, len(tickets))
	for _, t := range tickets {
		if level.Matches(t.Level) && platform.Matches(t.Platform) {
			out = append(out, t)
		}
	}
	return out
}

// FilterVulnerabilities returns the records whose severity is in set,
// stably sorted by severity rank.
func FilterVulnerabilities(records []catalog.VulnerabilityRecord, set SeveritySet) []catalog.VulnerabilityRecord {
	out := make([]catalog.VulnerabilityRecord, 0, len(records))
	for _, v := range records {
		if set.Contains(v.Severity) {
			out = append(out, v)
		}
	}
	slices.SortStableFunc(out, func(a, b catalog.VulnerabilityRecord) int {
		return severity.Compare(a.Severity, b.Severity)
	})
	return out
}

// CountOpenCritical counts Critical priority tickets that are not resolved.
func CountOpenCritical(tickets []catalog.SupportTicket) int {
	n := 0
	for _, t := range tickets {
		if t.Priority == catalog.PriorityCritical && t.Status != catalog.StatusResolved {
			n++
		}
	}
	return n
}

// IsBreachingSLA reports whether an unresolved ticket has used at least 80%
// of its SLA budget.
func IsBreachingSLA(t catalog.SupportTicket) bool {
	if t.Status == catalog.StatusResolved {
		return false
	}
	return t.ElapsedMinutes*breachDenominator >= t.SLAMinutes*breachNumerator
}

// CountBreachingSLA counts tickets for which IsBreachingSLA holds.
func CountBreachingSLA(tickets []catalog.SupportTicket) int {
	n := 0
	for _, t := range tickets {
		if IsBreachingSLA(t) {
			n++
		}
	}
	return n
}

// SumVulnerableAssets adds up impacted assets of records not yet patched.
func SumVulnerableAssets(records []catalog.VulnerabilityRecord) int {
	n := 0
	for _, v := range records {
		if v.Status != catalog.RemediationPatched {
			n += v.ImpactedAssets
		}
	}
	return n
}

// CountSeverities tallies records by severity, regardless of any filter.
func CountSeverities(records []catalog.VulnerabilityRecord) severity.CountBySeverity {
	var counts severity.CountBySeverity
	for _, v := range records {
		counts.Increment(v.Severity)
	}
	return counts
}

// IsHighRisk reports whether an endpoint falls below either risk threshold.
func IsHighRisk(e catalog.EndpointHealth) bool {
	return e.HealthScore < RiskHealthThreshold || e.Compliance < RiskComplianceThreshold
}

// ComputeDeviceRisk counts high risk endpoints and their rounded share of
// the fleet. An empty fleet yields zero rather than dividing by zero.
func ComputeDeviceRisk(endpoints []catalog.EndpointHealth) DeviceRisk {
	high := 0
	for _, e := range endpoints {
		if IsHighRisk(e) {
			high++
		}
	}
	total := max(len(endpoints), 1)
	return DeviceRisk{
		HighRisk:   high,
		Percentage: int(math.Round(float64(high) / float64(total) * 100)),
	}
}
