package catalog

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/exploopio/opsboard/pkg/errors"
	"github.com/exploopio/opsboard/pkg/shared/severity"
)

func mustDefault(t *testing.T) *Catalog {
	t.Helper()
	cat, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	return cat
}

func TestDefault_Counts(t *testing.T) {
	cat := mustDefault(t)

	tests := []struct {
		name string
		got  int
		want int
	}{
		{"tickets", len(cat.Tickets()), 5},
		{"vulnerabilities", len(cat.Vulnerabilities()), 4},
		{"endpoints", len(cat.Endpoints()), 4},
		{"integrations", len(cat.Integrations()), 5},
		{"workflows", len(cat.Workflows()), 3},
		{"activity", len(cat.Activity()), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("len = %d, want %d", tt.got, tt.want)
			}
		})
	}
}

func TestDefault_TicketOrderAndFields(t *testing.T) {
	cat := mustDefault(t)
	tickets := cat.Tickets()

	wantIDs := []string{"INC-10452", "REQ-20981", "INC-10461", "INC-10433", "ACC-5521"}
	for i, id := range wantIDs {
		if tickets[i].ID != id {
			t.Errorf("tickets[%d].ID = %s, want %s", i, tickets[i].ID, id)
		}
	}

	first := tickets[0]
	if first.Platform != PlatformWindows {
		t.Errorf("Platform = %s, want Windows", first.Platform)
	}
	if first.Level != Level2 {
		t.Errorf("Level = %s, want Level 2", first.Level)
	}
	if first.Status != StatusInProgress {
		t.Errorf("Status = %s, want In Progress", first.Status)
	}
	if first.SLAMinutes != 240 || first.ElapsedMinutes != 155 {
		t.Errorf("SLA = %d/%d, want 155/240", first.ElapsedMinutes, first.SLAMinutes)
	}
	wantUpdated := time.Date(2024, 6, 12, 12, 5, 0, 0, time.UTC)
	if !first.UpdatedAt.Equal(wantUpdated) {
		t.Errorf("UpdatedAt = %v, want %v", first.UpdatedAt, wantUpdated)
	}
	if first.EscalationPath != "Network Engineering" {
		t.Errorf("EscalationPath = %q", first.EscalationPath)
	}

	if tickets[3].Device != `MacBook Pro 14"` {
		t.Errorf("Device = %q, want quoted inch mark", tickets[3].Device)
	}
	if tickets[3].AutomationPlaybook != "" {
		t.Errorf("INC-10433 should have no playbook, got %q", tickets[3].AutomationPlaybook)
	}
}

func TestDefault_Vulnerabilities(t *testing.T) {
	cat := mustDefault(t)

	v, ok := cat.Vulnerability("CVE-2024-11603")
	if !ok {
		t.Fatal("CVE-2024-11603 not found")
	}
	if v.Severity != severity.High {
		t.Errorf("Severity = %s, want High", v.Severity)
	}
	if v.CVSS != 8.7 {
		t.Errorf("CVSS = %v, want 8.7", v.CVSS)
	}
	if len(v.Platforms) != 2 || v.Platforms[0] != SurfaceNetwork || v.Platforms[1] != SurfaceWindows {
		t.Errorf("Platforms = %v, want [Network Windows]", v.Platforms)
	}

	if _, ok := cat.Vulnerability("CVE-0000-0000"); ok {
		t.Error("unknown id should not be found")
	}
}

func TestDefault_ActivityOrderPreserved(t *testing.T) {
	cat := mustDefault(t)
	activity := cat.Activity()

	for i := 1; i < len(activity); i++ {
		if activity[i].Timestamp.After(activity[i-1].Timestamp) {
			t.Errorf("activity[%d] is newer than activity[%d]", i, i-1)
		}
	}
	if activity[3].Target != "" {
		t.Errorf("ACT-8989 should have no target, got %q", activity[3].Target)
	}
	if activity[4].Level != ActivityCritical {
		t.Errorf("ACT-8983 level = %s, want critical", activity[4].Level)
	}
}

func TestAccessors_ReturnCopies(t *testing.T) {
	cat := mustDefault(t)

	tickets := cat.Tickets()
	tickets[0].Status = StatusResolved
	if cat.Tickets()[0].Status == StatusResolved {
		t.Error("mutating Tickets() result changed the catalog")
	}

	vulns := cat.Vulnerabilities()
	vulns[1].Platforms[0] = SurfaceCloud
	if cat.Vulnerabilities()[1].Platforms[0] == SurfaceCloud {
		t.Error("mutating Vulnerabilities() platforms changed the catalog")
	}

	endpoints := cat.Endpoints()
	endpoints[0].Tags[0] = "changed"
	if cat.Endpoints()[0].Tags[0] == "changed" {
		t.Error("mutating Endpoints() tags changed the catalog")
	}

	workflows := cat.Workflows()
	workflows[0].Checklist[0].Done = false
	if !cat.Workflows()[0].Checklist[0].Done {
		t.Error("mutating Workflows() checklist changed the catalog")
	}
}

func TestNew_CopiesSeed(t *testing.T) {
	seed := Seed{
		Endpoints: []EndpointHealth{{
			Hostname: "h1", OS: OSMacOS, VPNStatus: VPNConnected,
			PatchStatus: PatchUpToDate, Tags: []string{"a"},
		}},
	}
	cat, err := New(seed)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	seed.Endpoints[0].Tags[0] = "b"
	if cat.Endpoints()[0].Tags[0] != "a" {
		t.Error("catalog shares memory with the seed it was built from")
	}
}

func validTicket() SupportTicket {
	return SupportTicket{
		ID: "T-1", Platform: PlatformWindows, Priority: PriorityLow,
		Level: Level1, Status: StatusNew, SLAMinutes: 60,
	}
}

func validVulnerability() VulnerabilityRecord {
	return VulnerabilityRecord{
		ID: "V-1", Severity: severity.Low, CVSS: 3.1,
		Status: RemediationInvestigating, Platforms: []Surface{SurfaceCloud},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		seed    func() Seed
		wantErr string
	}{
		{
			name: "empty seed",
			seed: func() Seed { return Seed{} },
		},
		{
			name: "valid ticket",
			seed: func() Seed { return Seed{Tickets: []SupportTicket{validTicket()}} },
		},
		{
			name: "duplicate ticket id",
			seed: func() Seed {
				return Seed{Tickets: []SupportTicket{validTicket(), validTicket()}}
			},
			wantErr: "duplicate id",
		},
		{
			name: "unknown status",
			seed: func() Seed {
				tk := validTicket()
				tk.Status = "Closed"
				return Seed{Tickets: []SupportTicket{tk}}
			},
			wantErr: "unknown status",
		},
		{
			name: "zero sla",
			seed: func() Seed {
				tk := validTicket()
				tk.SLAMinutes = 0
				return Seed{Tickets: []SupportTicket{tk}}
			},
			wantErr: "sla minutes must be positive",
		},
		{
			name: "negative elapsed",
			seed: func() Seed {
				tk := validTicket()
				tk.ElapsedMinutes = -1
				return Seed{Tickets: []SupportTicket{tk}}
			},
			wantErr: "elapsed minutes",
		},
		{
			name: "cvss out of range",
			seed: func() Seed {
				v := validVulnerability()
				v.CVSS = 10.1
				return Seed{Vulnerabilities: []VulnerabilityRecord{v}}
			},
			wantErr: "cvss",
		},
		{
			name: "cvss not a number",
			seed: func() Seed {
				v := validVulnerability()
				v.CVSS = math.NaN()
				return Seed{Vulnerabilities: []VulnerabilityRecord{v}}
			},
			wantErr: "cvss",
		},
		{
			name: "unknown severity",
			seed: func() Seed {
				v := validVulnerability()
				v.Severity = "Informational"
				return Seed{Vulnerabilities: []VulnerabilityRecord{v}}
			},
			wantErr: "unknown severity",
		},
		{
			name: "duplicate platform",
			seed: func() Seed {
				v := validVulnerability()
				v.Platforms = []Surface{SurfaceCloud, SurfaceCloud}
				return Seed{Vulnerabilities: []VulnerabilityRecord{v}}
			},
			wantErr: "listed twice",
		},
		{
			name: "compliance over 100",
			seed: func() Seed {
				return Seed{Endpoints: []EndpointHealth{{
					Hostname: "h", OS: OSWindows11, Compliance: 101,
					VPNStatus: VPNConnected, PatchStatus: PatchUpToDate,
				}}}
			},
			wantErr: "compliance",
		},
		{
			name: "linux endpoint",
			seed: func() Seed {
				return Seed{Endpoints: []EndpointHealth{{
					Hostname: "build-01", OS: OSLinux, Compliance: 90, HealthScore: 88,
					VPNStatus: VPNConnected, PatchStatus: PatchUpToDate,
				}}}
			},
		},
		{
			name: "unknown integration",
			seed: func() Seed {
				return Seed{Integrations: []IntegrationStatus{{Name: "Zendesk", Status: ConnectionConnected}}}
			},
			wantErr: "unknown name",
		},
		{
			name: "workflow progress",
			seed: func() Seed {
				return Seed{Workflows: []WorkflowRun{{ID: "W", Type: WorkflowOnboarding, Progress: 120}}}
			},
			wantErr: "progress",
		},
		{
			name: "activity level",
			seed: func() Seed {
				return Seed{Activity: []ActivityLogEntry{{ID: "A", Category: CategorySecurity, Level: "debug"}}}
			},
			wantErr: "unknown level",
		},
		{
			name: "activity without level",
			seed: func() Seed {
				return Seed{Activity: []ActivityLogEntry{{ID: "A", Category: CategorySecurity}}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.seed())
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.wantErr)
			}
			if !errors.IsInvalidInput(err) {
				t.Errorf("Validate() kind = %v, want invalid_input", errors.GetKind(err))
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("unknown field rejected", func(t *testing.T) {
		_, err := Load(strings.NewReader("tickets:\n  - id: T-1\n    colour: red\n"))
		if err == nil {
			t.Fatal("Load() should reject unknown fields")
		}
		if !errors.IsInvalidInput(err) {
			t.Errorf("kind = %v, want invalid_input", errors.GetKind(err))
		}
	})

	t.Run("empty document", func(t *testing.T) {
		cat, err := Load(strings.NewReader(""))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(cat.Tickets()) != 0 {
			t.Errorf("tickets = %d, want 0", len(cat.Tickets()))
		}
	})
}

func TestLoad_Vulnerabilities(t *testing.T) {
	const record = `vulnerabilities:
  - id: CVE-2024-0001
    cvss: %s
    status: Investigating
    platforms: [Cloud]
`
	tests := []struct {
		cvss    string
		want    severity.Level
		wantErr bool
	}{
		{"9.1", severity.Critical, false},
		{"7.5", severity.High, false},
		{"5.0", severity.Medium, false},
		{"2.2", severity.Low, false},
		{".nan", "", true},
		{"11", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.cvss, func(t *testing.T) {
			cat, err := Load(strings.NewReader(fmt.Sprintf(record, tt.cvss)))
			if tt.wantErr {
				if !errors.IsInvalidInput(err) {
					t.Errorf("Load() error = %v, want invalid_input", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got := cat.Vulnerabilities()[0].Severity; got != tt.want {
				t.Errorf("Severity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.yaml")
	content := `tickets:
  - id: T-9
    summary: Keyboard missing keys
    requester: Sam
    device: ThinkPad
    platform: Linux
    priority: Low
    level: Level 1
    status: New
    sla_minutes: 480
    elapsed_minutes: 10
    updated_at: 2024-06-12T09:00:00Z
    assigned_to: AI L1 Assistant
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cat, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if got := cat.Tickets()[0].Platform; got != PlatformLinux {
		t.Errorf("Platform = %s, want Linux", got)
	}

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	if errors.GetKind(err) != errors.KindConfig {
		t.Errorf("missing file kind = %v, want config", errors.GetKind(err))
	}
}

func TestSupportTicket_SLAConsumption(t *testing.T) {
	tests := []struct {
		sla, elapsed int
		want         float64
	}{
		{240, 155, 155.0 / 240.0},
		{60, 60, 1},
		{0, 10, 0},
	}
	for _, tt := range tests {
		tk := SupportTicket{SLAMinutes: tt.sla, ElapsedMinutes: tt.elapsed}
		if got := tk.SLAConsumption(); got != tt.want {
			t.Errorf("SLAConsumption(%d/%d) = %v, want %v", tt.elapsed, tt.sla, got, tt.want)
		}
	}
}
