package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/exploopio/opsboard/pkg/catalog"
	"github.com/exploopio/opsboard/pkg/clock"
	"github.com/exploopio/opsboard/pkg/dashboard"
	"github.com/exploopio/opsboard/pkg/shared/severity"
)

var testNow = time.Date(2024, 6, 12, 13, 0, 0, 0, time.UTC)

// testModel creates a model over the seed catalog with a fixed clock.
func testModel(t *testing.T) (Model, *dashboard.Controller) {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default() error = %v", err)
	}
	fake := clock.Fake(testNow)
	ctrl := dashboard.New(cat, dashboard.WithClock(fake))
	model := New(ctrl, WithClock(fake), WithLocation(time.UTC))

	updated, _ := model.Update(tea.WindowSizeMsg{Width: 160, Height: 60})
	return updated.(Model), ctrl
}

func press(t *testing.T, model Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var message tea.KeyMsg
		switch k {
		case "tab":
			message = tea.KeyMsg{Type: tea.KeyTab}
		case "enter":
			message = tea.KeyMsg{Type: tea.KeyEnter}
		default:
			message = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		updated, _ := model.Update(message)
		model = updated.(Model)
	}
	return model
}

func TestNewModel(t *testing.T) {
	model, _ := testModel(t)

	if model.Focus() != FocusTickets {
		t.Errorf("initial focus = %v, want tickets", model.Focus())
	}
	if model.TicketCursor() != 0 || model.VulnerabilityCursor() != 0 {
		t.Errorf("cursors = %d/%d, want 0/0", model.TicketCursor(), model.VulnerabilityCursor())
	}
	if model.Init() != nil {
		t.Error("Init should not return a command")
	}
	ticket, ok := model.SelectedTicket()
	if !ok || ticket.ID != "INC-10452" {
		t.Errorf("SelectedTicket() = %q, %v, want INC-10452", ticket.ID, ok)
	}
}

func TestModelNavigation(t *testing.T) {
	model, _ := testModel(t)

	tests := []struct {
		key  string
		want int
	}{
		{"j", 1},
		{"j", 2},
		{"j", 3},
		{"j", 4},
		{"j", 4}, // last ticket
		{"k", 3},
		{"k", 2},
		{"k", 1},
		{"k", 0},
		{"k", 0}, // first ticket
	}
	for i, tt := range tests {
		model = press(t, model, tt.key)
		if model.TicketCursor() != tt.want {
			t.Errorf("step %d (%s): cursor = %d, want %d", i, tt.key, model.TicketCursor(), tt.want)
		}
	}
	if model.VulnerabilityCursor() != 0 {
		t.Errorf("vulnerability cursor moved to %d while tickets were focused", model.VulnerabilityCursor())
	}
}

func TestModelFocusToggle(t *testing.T) {
	model, _ := testModel(t)

	model = press(t, model, "tab")
	if model.Focus() != FocusVulnerabilities {
		t.Fatalf("focus after tab = %v, want vulnerabilities", model.Focus())
	}
	model = press(t, model, "j", "j", "j", "j", "j")
	if model.VulnerabilityCursor() != 3 {
		t.Errorf("vulnerability cursor = %d, want 3", model.VulnerabilityCursor())
	}
	if model.TicketCursor() != 0 {
		t.Errorf("ticket cursor moved to %d while vulnerabilities were focused", model.TicketCursor())
	}

	model = press(t, model, "tab")
	if model.Focus() != FocusTickets {
		t.Errorf("focus after second tab = %v, want tickets", model.Focus())
	}
}

func TestModelTicketActions(t *testing.T) {
	tests := []struct {
		name       string
		keys       []string
		id         string
		status     string
		wantStatus catalog.TicketStatus
		check      func(t *testing.T, ticket catalog.SupportTicket)
	}{
		{
			name:       "escalate",
			keys:       []string{"j", "j", "e"},
			id:         "INC-10461",
			status:     "INC-10461 escalated to Escalation Queue",
			wantStatus: catalog.StatusEscalated,
			check: func(t *testing.T, ticket catalog.SupportTicket) {
				if ticket.Level != catalog.Level2 {
					t.Errorf("Level = %s, want Level 2", ticket.Level)
				}
				if ticket.AssignedTo != dashboard.EscalationQueue {
					t.Errorf("AssignedTo = %q", ticket.AssignedTo)
				}
				if !ticket.UpdatedAt.Equal(testNow) {
					t.Errorf("UpdatedAt = %v, want %v", ticket.UpdatedAt, testNow)
				}
			},
		},
		{
			name:       "resolve",
			keys:       []string{"j", "j", "j", "j", "r"},
			id:         "ACC-5521",
			status:     "ACC-5521 resolved",
			wantStatus: catalog.StatusResolved,
		},
		{
			name:       "diagnostics",
			keys:       []string{"j", "j", "j", "d"},
			id:         "INC-10433",
			status:     "INC-10433 enriched with baseline diagnostics",
			wantStatus: catalog.StatusEscalated,
			check: func(t *testing.T, ticket catalog.SupportTicket) {
				if ticket.AutomationPlaybook != dashboard.EnrichmentPlaybook {
					t.Errorf("AutomationPlaybook = %q", ticket.AutomationPlaybook)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, ctrl := testModel(t)
			model = press(t, model, tt.keys...)

			if model.Status() != tt.status {
				t.Errorf("Status() = %q, want %q", model.Status(), tt.status)
			}
			ticket, ok := ctrl.Ticket(tt.id)
			if !ok {
				t.Fatalf("ticket %s not found", tt.id)
			}
			if ticket.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", ticket.Status, tt.wantStatus)
			}
			if tt.check != nil {
				tt.check(t, ticket)
			}
		})
	}
}

func TestModelFilters(t *testing.T) {
	model, ctrl := testModel(t)

	// Park the cursor on the last ticket so the filter has to clamp it.
	model = press(t, model, "j", "j", "j", "j")

	model = press(t, model, "l")
	if ctrl.LevelFilter() != dashboard.LevelOne {
		t.Fatalf("level filter = %s, want Level 1", ctrl.LevelFilter())
	}
	if model.Status() != "Level filter: Level 1" {
		t.Errorf("Status() = %q", model.Status())
	}
	if model.TicketCursor() != 2 {
		t.Errorf("cursor = %d, want 2 after filtering to three tickets", model.TicketCursor())
	}

	model = press(t, model, "l")
	if ctrl.LevelFilter() != dashboard.LevelTwo {
		t.Fatalf("level filter = %s, want Level 2", ctrl.LevelFilter())
	}
	ticket, _ := model.SelectedTicket()
	if ticket.ID != "INC-10433" {
		t.Errorf("selected = %s, want INC-10433", ticket.ID)
	}

	model = press(t, model, "l", "p")
	if ctrl.LevelFilter() != dashboard.LevelAll {
		t.Errorf("level filter = %s, want All", ctrl.LevelFilter())
	}
	if ctrl.PlatformFilter() != dashboard.PlatformWindows {
		t.Errorf("platform filter = %s, want Windows", ctrl.PlatformFilter())
	}
	if got := len(ctrl.FilteredTickets()); got != 2 {
		t.Errorf("Windows tickets = %d, want 2", got)
	}
	if model.TicketCursor() != 1 {
		t.Errorf("cursor = %d, want 1", model.TicketCursor())
	}
}

func TestModelSeverityToggles(t *testing.T) {
	model, ctrl := testModel(t)

	keys := map[string]severity.Level{
		"1": severity.Critical,
		"2": severity.High,
		"3": severity.Medium,
		"4": severity.Low,
	}
	for k, level := range keys {
		model = press(t, model, k)
		if ctrl.SeverityFilters().Contains(level) {
			t.Errorf("%s still shown after pressing %s", level, k)
		}
		if want := string(level) + " vulnerabilities hidden"; model.Status() != want {
			t.Errorf("Status() = %q, want %q", model.Status(), want)
		}
	}
	if got := len(ctrl.FilteredVulnerabilities()); got != 0 {
		t.Errorf("filtered vulnerabilities = %d, want 0", got)
	}

	model = press(t, model, "1")
	if !ctrl.SeverityFilters().Contains(severity.Critical) {
		t.Error("Critical should be shown again")
	}
	if model.Status() != "Critical vulnerabilities shown" {
		t.Errorf("Status() = %q", model.Status())
	}
}

func TestModelSelectVulnerability(t *testing.T) {
	model, ctrl := testModel(t)

	// Enter does nothing while the ticket list is focused.
	model = press(t, model, "enter")
	if v, _ := ctrl.ActiveVulnerability(); v.ID != "CVE-2024-27898" {
		t.Errorf("active = %s, want the first record", v.ID)
	}

	model = press(t, model, "1", "tab", "j", "enter")
	v, ok := ctrl.ActiveVulnerability()
	if !ok || v.ID != "CVE-2024-8011" {
		t.Errorf("active = %s, want CVE-2024-8011", v.ID)
	}
	if model.Status() != "Selected CVE-2024-8011" {
		t.Errorf("Status() = %q", model.Status())
	}

	// Hiding the only remaining severities empties the list and clamps the
	// cursor without dropping the selection.
	model = press(t, model, "2")
	if model.VulnerabilityCursor() != 0 {
		t.Errorf("cursor = %d, want 0", model.VulnerabilityCursor())
	}
	if v, _ := ctrl.ActiveVulnerability(); v.ID != "CVE-2024-8011" {
		t.Errorf("active = %s after filtering, want CVE-2024-8011", v.ID)
	}
}

func TestModelNoTicketSelected(t *testing.T) {
	model, _ := testModel(t)

	// Windows, macOS, Network. No seed ticket is raised on the network.
	model = press(t, model, "p", "p", "p")
	if _, ok := model.SelectedTicket(); ok {
		t.Fatal("SelectedTicket() should report false for an empty list")
	}
	model = press(t, model, "e")
	if model.Status() != "No ticket selected" {
		t.Errorf("Status() = %q, want 'No ticket selected'", model.Status())
	}
	if !strings.Contains(model.View(), "No tickets match") {
		t.Error("view should contain the empty ticket state")
	}
}

func TestModelHelpToggle(t *testing.T) {
	model, _ := testModel(t)

	if strings.Contains(model.View(), "platform filter") {
		t.Error("short help should not list the platform filter key")
	}
	model = press(t, model, "?")
	if !strings.Contains(model.View(), "platform filter") {
		t.Error("full help should list the platform filter key")
	}
	model = press(t, model, "?")
	if strings.Contains(model.View(), "platform filter") {
		t.Error("second ? should collapse the help")
	}
}

func TestModelQuit(t *testing.T) {
	for _, message := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyCtrlC},
	} {
		model, _ := testModel(t)
		_, command := model.Update(message)
		if command == nil {
			t.Fatalf("%s should return a command", message)
		}
		if _, isQuit := command().(tea.QuitMsg); !isQuit {
			t.Errorf("%s: expected QuitMsg", message)
		}
	}
}

func TestModelView(t *testing.T) {
	model, _ := testModel(t)

	view := model.View()
	for _, want := range []string{
		"Critical tickets 1",
		"SLA at risk 1",
		"Impacted assets 1,229",
		"Support tickets",
		"INC-10452",
		"ACC-5521",
		"Vulnerabilities",
		"CVE-2024-27898",
		"Remediation · CVE-2024-27898",
		"Integrations",
		"Endpoints",
		"Workflows",
		"Activity",
		"q quit",
		"1 Critical (2)",
		"2 High (2)",
		"3 Medium (0)",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view should contain %q", want)
		}
	}

	model = press(t, model, "j", "e")
	view = model.View()
	if !strings.Contains(view, "REQ-20981 escalated to Escalation Queue") {
		t.Error("view should show the status of the last action")
	}
}
