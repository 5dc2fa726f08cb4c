// Package format turns dashboard values into display strings and tones.
// Every function is pure; callers pass the current time where it matters.
package format

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/exploopio/opsboard/pkg/catalog"
	"github.com/exploopio/opsboard/pkg/dashboard"
)

// DateLayout is the layout used for absolute timestamps.
const DateLayout = "Jan 2, 3:04 PM"

// Tone is the colour family a value is shown in.
type Tone string

const (
	ToneEmerald Tone = "emerald"
	ToneSky     Tone = "sky"
	ToneAmber   Tone = "amber"
	ToneRose    Tone = "rose"
)

// round rounds half up, matching how the web dashboard rounds.
func round(x float64) int {
	return int(math.Floor(x + 0.5))
}

// RelativeTime describes how long before now t happened.
func RelativeTime(now, t time.Time) string {
	minutes := round(now.Sub(t).Minutes())
	if minutes < 1 {
		return "just now"
	}
	if minutes < 60 {
		return fmt.Sprintf("%d min ago", minutes)
	}
	hours := round(float64(minutes) / 60)
	if hours < 24 {
		return fmt.Sprintf("%d hr ago", hours)
	}
	days := round(float64(hours) / 24)
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}

// Date formats t as e.g. "Jun 12, 6:00 PM" in loc. A nil loc keeps t's own
// location.
func Date(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DateLayout)
}

// SLAConsumption renders the share of a ticket's SLA already used.
func SLAConsumption(t catalog.SupportTicket) string {
	return fmt.Sprintf("%d%%", SLAPercent(t))
}

// SLAPercent is the rounded percentage of the SLA budget used.
func SLAPercent(t catalog.SupportTicket) int {
	return round(t.SLAConsumption() * 100)
}

// ExposureDays renders an exposure window in whole days.
func ExposureDays(hours int) string {
	return fmt.Sprintf("%d days", round(float64(hours)/24))
}

// CVSS renders a score with one decimal.
func CVSS(score float64) string {
	return fmt.Sprintf("%.1f", score)
}

// Count renders n with thousands separators.
func Count(n int) string {
	return humanize.Comma(int64(n))
}

// DeviceRisk renders e.g. "2 (50%)".
func DeviceRisk(r dashboard.DeviceRisk) string {
	return fmt.Sprintf("%d (%d%%)", r.HighRisk, r.Percentage)
}

// CriticalTicketsTone is always rose.
func CriticalTicketsTone(int) Tone { return ToneRose }

// SLAAtRiskTone turns amber once more than two tickets are at risk.
func SLAAtRiskTone(n int) Tone {
	if n > 2 {
		return ToneAmber
	}
	return ToneEmerald
}

// ImpactedAssetsTone turns rose above 250 assets.
func ImpactedAssetsTone(n int) Tone {
	if n > 250 {
		return ToneRose
	}
	return ToneSky
}

// HighRiskDevicesTone turns rose when more than one device is high risk.
func HighRiskDevicesTone(r dashboard.DeviceRisk) Tone {
	if r.HighRisk > 1 {
		return ToneRose
	}
	return ToneEmerald
}

// HealthTone colours an endpoint health score.
func HealthTone(score int) Tone {
	if score < dashboard.RiskHealthThreshold {
		return ToneRose
	}
	return ToneEmerald
}

// ComplianceTone colours an endpoint compliance score.
func ComplianceTone(score int) Tone {
	if score < dashboard.RiskComplianceThreshold {
		return ToneAmber
	}
	return ToneSky
}

// ConnectionTone colours an integration state.
func ConnectionTone(s catalog.ConnectionState) Tone {
	switch s {
	case catalog.ConnectionConnected:
		return ToneEmerald
	case catalog.ConnectionDegraded:
		return ToneAmber
	}
	return ToneRose
}

// StatusTone colours a ticket status.
func StatusTone(s catalog.TicketStatus) Tone {
	switch s {
	case catalog.StatusResolved:
		return ToneEmerald
	case catalog.StatusWaitingOnUser:
		return ToneAmber
	case catalog.StatusEscalated:
		return ToneRose
	}
	return ToneSky
}

// ActivityTone colours an activity entry by level.
func ActivityTone(l catalog.ActivityLevel) Tone {
	switch l {
	case catalog.ActivityCritical:
		return ToneRose
	case catalog.ActivityWarning:
		return ToneAmber
	}
	return ToneSky
}

// NextActions are the standing remediation steps shown beside the
// selected vulnerability.
var NextActions = []string{
	"Push emergency update to high criticality groups",
	"Validate patch success across compliance dashboards",
	"Notify stakeholders via ServiceNow change record",
}

// Runbooks lists the automation runbooks advertised on the dashboard.
var Runbooks = []string{
	"Level 1: Self-heal Office 365 profile corruption",
	"Level 2: Collect advanced VPN diagnostics & packet captures",
	"Vulnerability: Auto-mitigate CVEs via Intune/Jamf policies",
}

// Insights lists the shift-left figures shown on the dashboard.
var Insights = []string{
	"62% of printer tickets resolved automatically via remote firmware resets",
	"1,284 proactive compliance alerts closed in the last 7 days",
	"38 onboarding steps automated across HR, Identity, and SaaS requests",
}
