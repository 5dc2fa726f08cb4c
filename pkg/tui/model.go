// Package tui is the terminal renderer of the ops dashboard. It drives a
// dashboard.Controller from bubbletea's update loop, so the controller is
// only ever touched from one goroutine.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/exploopio/opsboard/pkg/catalog"
	"github.com/exploopio/opsboard/pkg/clock"
	"github.com/exploopio/opsboard/pkg/dashboard"
	"github.com/exploopio/opsboard/pkg/shared/severity"
)

// Focus identifies the list that receives cursor movement.
type Focus int

const (
	FocusTickets Focus = iota
	FocusVulnerabilities
)

func (focus Focus) String() string {
	if focus == FocusVulnerabilities {
		return "vulnerabilities"
	}
	return "tickets"
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	ctrl  *dashboard.Controller
	keys  KeyMap
	theme Theme
	help  help.Model
	clock clock.Clock
	loc   *time.Location

	focus        Focus
	ticketCursor int
	vulnCursor   int

	// status is the outcome of the last key action, shown above the help.
	status string

	width  int
	height int
}

// Option configures a Model.
type Option func(*Model)

// WithClock sets the time source for relative timestamps.
func WithClock(c clock.Clock) Option {
	return func(model *Model) { model.clock = c }
}

// WithLocation sets the location absolute dates are shown in.
func WithLocation(loc *time.Location) Option {
	return func(model *Model) { model.loc = loc }
}

// New creates a model driving ctrl. The model takes ownership of ctrl.
func New(ctrl *dashboard.Controller, opts ...Option) Model {
	model := Model{
		ctrl:  ctrl,
		keys:  DefaultKeyMap,
		theme: DefaultTheme,
		help:  help.New(),
		clock: clock.Real(),
		loc:   time.Local,
		width: 120,
	}
	for _, opt := range opts {
		opt(&model)
	}
	return model
}

// Run runs the model full-screen until the user quits or ctx is done.
func Run(ctx context.Context, model Model) error {
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.help.Width = message.Width

	case tea.KeyMsg:
		return model.handleKey(message)
	}
	return model, nil
}

func (model Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit

	case key.Matches(message, model.keys.Help):
		model.help.ShowAll = !model.help.ShowAll

	case key.Matches(message, model.keys.FocusToggle):
		if model.focus == FocusTickets {
			model.focus = FocusVulnerabilities
		} else {
			model.focus = FocusTickets
		}

	case key.Matches(message, model.keys.Up):
		model.moveCursor(-1)

	case key.Matches(message, model.keys.Down):
		model.moveCursor(1)

	case key.Matches(message, model.keys.LevelFilter):
		next := model.ctrl.LevelFilter().Next()
		model.ctrl.SetLevelFilter(next)
		model.status = fmt.Sprintf("Level filter: %s", next)

	case key.Matches(message, model.keys.PlatformFilter):
		next := model.ctrl.PlatformFilter().Next()
		model.ctrl.SetPlatformFilter(next)
		model.status = fmt.Sprintf("Platform filter: %s", next)

	case key.Matches(message, model.keys.ToggleCritical):
		model.toggleSeverity(severity.Critical)
	case key.Matches(message, model.keys.ToggleHigh):
		model.toggleSeverity(severity.High)
	case key.Matches(message, model.keys.ToggleMedium):
		model.toggleSeverity(severity.Medium)
	case key.Matches(message, model.keys.ToggleLow):
		model.toggleSeverity(severity.Low)

	case key.Matches(message, model.keys.Select):
		if model.focus == FocusVulnerabilities {
			records := model.ctrl.FilteredVulnerabilities()
			if model.vulnCursor < len(records) {
				model.ctrl.SelectVulnerability(records[model.vulnCursor])
				model.status = fmt.Sprintf("Selected %s", records[model.vulnCursor].ID)
			}
		}

	case key.Matches(message, model.keys.Escalate):
		model.ticketAction(model.ctrl.EscalateTicket, "escalated to "+dashboard.EscalationQueue)
	case key.Matches(message, model.keys.Resolve):
		model.ticketAction(model.ctrl.ResolveTicket, "resolved")
	case key.Matches(message, model.keys.Diagnostics):
		model.ticketAction(model.ctrl.EnrichTicket, "enriched with baseline diagnostics")
	}

	model.clampCursors()
	return model, nil
}

func (model *Model) toggleSeverity(level severity.Level) {
	model.ctrl.ToggleSeverity(level)
	state := "hidden"
	if model.ctrl.SeverityFilters().Contains(level) {
		state = "shown"
	}
	model.status = fmt.Sprintf("%s vulnerabilities %s", level, state)
}

func (model *Model) ticketAction(action func(id string) bool, done string) {
	ticket, ok := model.SelectedTicket()
	if !ok {
		model.status = "No ticket selected"
		return
	}
	if action(ticket.ID) {
		model.status = fmt.Sprintf("%s %s", ticket.ID, done)
	}
}

func (model *Model) moveCursor(delta int) {
	if model.focus == FocusTickets {
		model.ticketCursor += delta
	} else {
		model.vulnCursor += delta
	}
}

// clampCursors keeps both cursors inside their filtered lists.
func (model *Model) clampCursors() {
	model.ticketCursor = clamp(model.ticketCursor, len(model.ctrl.FilteredTickets()))
	model.vulnCursor = clamp(model.vulnCursor, len(model.ctrl.FilteredVulnerabilities()))
}

func clamp(cursor, length int) int {
	if cursor >= length {
		cursor = length - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}

// Focus returns the list that receives cursor movement.
func (model Model) Focus() Focus { return model.focus }

// TicketCursor returns the index of the highlighted ticket in the
// filtered ticket list.
func (model Model) TicketCursor() int { return model.ticketCursor }

// VulnerabilityCursor returns the index of the highlighted record in the
// filtered vulnerability list.
func (model Model) VulnerabilityCursor() int { return model.vulnCursor }

// Status returns the message describing the last action.
func (model Model) Status() string { return model.status }

// SelectedTicket returns the ticket under the ticket cursor.
func (model Model) SelectedTicket() (catalog.SupportTicket, bool) {
	tickets := model.ctrl.FilteredTickets()
	if model.ticketCursor >= len(tickets) {
		return catalog.SupportTicket{}, false
	}
	return tickets[model.ticketCursor], true
}
