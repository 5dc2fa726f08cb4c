package catalog

import (
	"time"

	"github.com/exploopio/opsboard/pkg/shared/severity"
)

// =============================================================================
// Support tickets
// =============================================================================

// Platform is the device family a support ticket was raised against.
type Platform string

const (
	PlatformWindows Platform = "Windows"
	PlatformMacOS   Platform = "macOS"
	PlatformIOS     Platform = "iOS"
	PlatformAndroid Platform = "Android"
	PlatformNetwork Platform = "Network"
	PlatformPrinter Platform = "Printer"
	PlatformLinux   Platform = "Linux"
)

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformWindows, PlatformMacOS, PlatformIOS, PlatformAndroid,
		PlatformNetwork, PlatformPrinter, PlatformLinux:
		return true
	}
	return false
}

// Priority is the business priority of a ticket.
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// SupportLevel is the support tier a ticket is being worked at.
type SupportLevel string

const (
	Level1 SupportLevel = "Level 1"
	Level2 SupportLevel = "Level 2"
)

// Valid reports whether l is a known support level.
func (l SupportLevel) Valid() bool {
	return l == Level1 || l == Level2
}

// TicketStatus is the workflow state of a ticket.
type TicketStatus string

const (
	StatusNew           TicketStatus = "New"
	StatusInProgress    TicketStatus = "In Progress"
	StatusWaitingOnUser TicketStatus = "Waiting on User"
	StatusResolved      TicketStatus = "Resolved"
	StatusEscalated     TicketStatus = "Escalated"
)

// Valid reports whether s is a known ticket status.
func (s TicketStatus) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusWaitingOnUser, StatusResolved, StatusEscalated:
		return true
	}
	return false
}

// SupportTicket is an incident or request handled by the service desk.
//
// ID is stable for the lifetime of the process. The dashboard only ever
// changes Status, Level, AssignedTo, AutomationPlaybook and UpdatedAt.
type SupportTicket struct {
	ID                 string       `yaml:"id" json:"id"`
	Summary            string       `yaml:"summary" json:"summary"`
	Requester          string       `yaml:"requester" json:"requester"`
	Device             string       `yaml:"device" json:"device"`
	Platform           Platform     `yaml:"platform" json:"platform"`
	Priority           Priority     `yaml:"priority" json:"priority"`
	Level              SupportLevel `yaml:"level" json:"level"`
	Status             TicketStatus `yaml:"status" json:"status"`
	SLAMinutes         int          `yaml:"sla_minutes" json:"slaMinutes"`
	ElapsedMinutes     int          `yaml:"elapsed_minutes" json:"elapsedMinutes"`
	UpdatedAt          time.Time    `yaml:"updated_at" json:"updatedAt"`
	AssignedTo         string       `yaml:"assigned_to" json:"assignedTo"`
	AutomationPlaybook string       `yaml:"automation_playbook,omitempty" json:"automationPlaybook,omitempty"`
	EscalationPath     string       `yaml:"escalation_path,omitempty" json:"escalationPath,omitempty"`
}

// SLAConsumption returns the share of the SLA budget already spent.
// Values above 1 mean the SLA has been breached.
func (t SupportTicket) SLAConsumption() float64 {
	if t.SLAMinutes <= 0 {
		return 0
	}
	return float64(t.ElapsedMinutes) / float64(t.SLAMinutes)
}

// =============================================================================
// Vulnerabilities
// =============================================================================

// Surface is an attack surface a vulnerability applies to.
type Surface string

const (
	SurfaceWindows Surface = "Windows"
	SurfaceMacOS   Surface = "macOS"
	SurfaceNetwork Surface = "Network"
	SurfaceCloud   Surface = "Cloud"
)

// Valid reports whether s is a known surface.
func (s Surface) Valid() bool {
	switch s {
	case SurfaceWindows, SurfaceMacOS, SurfaceNetwork, SurfaceCloud:
		return true
	}
	return false
}

// RemediationStatus tracks how far remediation of a vulnerability has got.
type RemediationStatus string

const (
	RemediationInvestigating RemediationStatus = "Investigating"
	RemediationMitigating    RemediationStatus = "Mitigating"
	RemediationPatched       RemediationStatus = "Patched"
	RemediationRiskAccepted  RemediationStatus = "Risk Accepted"
)

// Valid reports whether s is a known remediation status.
func (s RemediationStatus) Valid() bool {
	switch s {
	case RemediationInvestigating, RemediationMitigating, RemediationPatched, RemediationRiskAccepted:
		return true
	}
	return false
}

// VulnerabilityRecord is a tracked CVE and its remediation plan.
type VulnerabilityRecord struct {
	ID                  string            `yaml:"id" json:"id"`
	Title               string            `yaml:"title" json:"title"`
	Severity            severity.Level    `yaml:"severity" json:"severity"`
	CVSS                float64           `yaml:"cvss" json:"cvss"`
	ImpactedAssets      int               `yaml:"impacted_assets" json:"impactedAssets"`
	PublishedAt         time.Time         `yaml:"published_at" json:"publishedAt"`
	RemediationETA      time.Time         `yaml:"remediation_eta" json:"remediationEta"`
	Status              RemediationStatus `yaml:"status" json:"status"`
	Owner               string            `yaml:"owner" json:"owner"`
	Platforms           []Surface         `yaml:"platforms" json:"platforms"`
	ExposureWindowHours int               `yaml:"exposure_window_hours" json:"exposureWindowHours"`
	RecommendedAction   string            `yaml:"recommended_action" json:"recommendedAction"`
}

// =============================================================================
// Endpoints
// =============================================================================

// OperatingSystem is the OS family reported by endpoint management.
type OperatingSystem string

const (
	OSWindows11        OperatingSystem = "Windows 11"
	OSWindows10        OperatingSystem = "Windows 10"
	OSMacOS            OperatingSystem = "macOS"
	OSIOS              OperatingSystem = "iOS"
	OSAndroid          OperatingSystem = "Android"
	OSNetworkAppliance OperatingSystem = "Network Appliance"
	OSLinux            OperatingSystem = "Linux"
)

// Valid reports whether o is a known operating system.
func (o OperatingSystem) Valid() bool {
	switch o {
	case OSWindows11, OSWindows10, OSMacOS, OSIOS, OSAndroid, OSNetworkAppliance, OSLinux:
		return true
	}
	return false
}

// VPNStatus is the tunnel state of an endpoint.
type VPNStatus string

const (
	VPNConnected    VPNStatus = "Connected"
	VPNDisconnected VPNStatus = "Disconnected"
)

// Valid reports whether s is a known VPN status.
func (s VPNStatus) Valid() bool {
	return s == VPNConnected || s == VPNDisconnected
}

// PatchStatus summarises the patch level of an endpoint.
type PatchStatus string

const (
	PatchUpToDate  PatchStatus = "Up to date"
	PatchPending   PatchStatus = "Patch pending"
	PatchOutOfDate PatchStatus = "Out of date"
)

// Valid reports whether s is a known patch status.
func (s PatchStatus) Valid() bool {
	switch s {
	case PatchUpToDate, PatchPending, PatchOutOfDate:
		return true
	}
	return false
}

// EndpointHealth is the posture of a managed device.
type EndpointHealth struct {
	Hostname    string          `yaml:"hostname" json:"hostname"`
	Owner       string          `yaml:"owner" json:"owner"`
	OS          OperatingSystem `yaml:"os" json:"os"`
	Compliance  int             `yaml:"compliance" json:"compliance"`
	HealthScore int             `yaml:"health_score" json:"healthScore"`
	OpenAlerts  int             `yaml:"open_alerts" json:"openAlerts"`
	LastSeen    string          `yaml:"last_seen" json:"lastSeen"`
	VPNStatus   VPNStatus       `yaml:"vpn_status" json:"vpnStatus"`
	PatchStatus PatchStatus     `yaml:"patch_status" json:"patchStatus"`
	Tags        []string        `yaml:"tags" json:"tags"`
}

// =============================================================================
// Integrations
// =============================================================================

// IntegrationName identifies one of the external systems the dashboard
// displays sync status for.
type IntegrationName string

const (
	IntegrationServiceNow   IntegrationName = "ServiceNow"
	IntegrationJira         IntegrationName = "Jira"
	IntegrationFreshservice IntegrationName = "Freshservice"
	IntegrationIntune       IntegrationName = "Intune"
	IntegrationJamf         IntegrationName = "Jamf"
)

// Valid reports whether n is a known integration.
func (n IntegrationName) Valid() bool {
	switch n {
	case IntegrationServiceNow, IntegrationJira, IntegrationFreshservice, IntegrationIntune, IntegrationJamf:
		return true
	}
	return false
}

// ConnectionState is the sync state of an integration.
type ConnectionState string

const (
	ConnectionConnected    ConnectionState = "Connected"
	ConnectionDegraded     ConnectionState = "Degraded"
	ConnectionDisconnected ConnectionState = "Disconnected"
)

// Valid reports whether s is a known connection state.
func (s ConnectionState) Valid() bool {
	switch s {
	case ConnectionConnected, ConnectionDegraded, ConnectionDisconnected:
		return true
	}
	return false
}

// IntegrationStatus is the last known sync state of an external system.
type IntegrationStatus struct {
	Name                IntegrationName `yaml:"name" json:"name"`
	Status              ConnectionState `yaml:"status" json:"status"`
	LastSync            string          `yaml:"last_sync" json:"lastSync"`
	ItemsSyncedLastHour int             `yaml:"items_synced_last_hour" json:"itemsSyncedLastHour"`
	Issues              string          `yaml:"issues,omitempty" json:"issues,omitempty"`
	URL                 string          `yaml:"url,omitempty" json:"url,omitempty"`
}

// =============================================================================
// Workflows
// =============================================================================

// WorkflowType is the kind of identity lifecycle workflow.
type WorkflowType string

const (
	WorkflowOnboarding   WorkflowType = "Onboarding"
	WorkflowOffboarding  WorkflowType = "Offboarding"
	WorkflowAccessReview WorkflowType = "Access Review"
)

// Valid reports whether w is a known workflow type.
func (w WorkflowType) Valid() bool {
	switch w {
	case WorkflowOnboarding, WorkflowOffboarding, WorkflowAccessReview:
		return true
	}
	return false
}

// ChecklistItem is one step of a workflow run.
type ChecklistItem struct {
	Label string `yaml:"label" json:"label"`
	Done  bool   `yaml:"done" json:"done"`
}

// WorkflowRun is an onboarding, offboarding or access review in flight.
type WorkflowRun struct {
	ID        string          `yaml:"id" json:"id"`
	User      string          `yaml:"user" json:"user"`
	Type      WorkflowType    `yaml:"type" json:"type"`
	Progress  int             `yaml:"progress" json:"progress"`
	Owner     string          `yaml:"owner" json:"owner"`
	DueAt     time.Time       `yaml:"due_at" json:"dueAt"`
	Checklist []ChecklistItem `yaml:"checklist" json:"checklist"`
}

// =============================================================================
// Activity
// =============================================================================

// ActivityCategory groups activity log entries.
type ActivityCategory string

const (
	CategoryIncident      ActivityCategory = "Incident"
	CategoryVulnerability ActivityCategory = "Vulnerability"
	CategoryAutomation    ActivityCategory = "Automation"
	CategorySecurity      ActivityCategory = "Security"
)

// Valid reports whether c is a known category.
func (c ActivityCategory) Valid() bool {
	switch c {
	case CategoryIncident, CategoryVulnerability, CategoryAutomation, CategorySecurity:
		return true
	}
	return false
}

// ActivityLevel is the optional urgency of an activity entry.
// The empty value means no level was recorded.
type ActivityLevel string

const (
	ActivityInfo     ActivityLevel = "info"
	ActivityWarning  ActivityLevel = "warning"
	ActivityCritical ActivityLevel = "critical"
)

// Valid reports whether l is empty or a known level.
func (l ActivityLevel) Valid() bool {
	switch l {
	case "", ActivityInfo, ActivityWarning, ActivityCritical:
		return true
	}
	return false
}

// ActivityLogEntry is one line of the operations timeline.
type ActivityLogEntry struct {
	ID        string           `yaml:"id" json:"id"`
	Timestamp time.Time        `yaml:"timestamp" json:"timestamp"`
	Actor     string           `yaml:"actor" json:"actor"`
	Message   string           `yaml:"message" json:"message"`
	Category  ActivityCategory `yaml:"category" json:"category"`
	Target    string           `yaml:"target,omitempty" json:"target,omitempty"`
	Level     ActivityLevel    `yaml:"level,omitempty" json:"level,omitempty"`
}
