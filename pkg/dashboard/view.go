package dashboard

import (
	"sync"
	"time"

	"github.com/exploopio/opsboard/pkg/catalog"
	"github.com/exploopio/opsboard/pkg/shared/severity"
)

// View is a consistent snapshot of controller state, derived lists and the
// read-only catalog collections. It is what renderers and the JSON export
// consume.
type View struct {
	GeneratedAt time.Time `json:"generatedAt"`

	LevelFilter         LevelFilter                  `json:"levelFilter"`
	PlatformFilter      PlatformFilter               `json:"platformFilter"`
	SeverityFilters     SeveritySet                  `json:"severityFilters"`
	ActiveVulnerability *catalog.VulnerabilityRecord `json:"activeVulnerability,omitempty"`

	Tickets                 []catalog.SupportTicket       `json:"tickets"`
	FilteredTickets         []catalog.SupportTicket       `json:"filteredTickets"`
	FilteredVulnerabilities []catalog.VulnerabilityRecord `json:"filteredVulnerabilities"`
	Metrics                 Metrics                       `json:"metrics"`
	SeverityCounts          severity.CountBySeverity      `json:"severityCounts"`

	Endpoints    []catalog.EndpointHealth    `json:"endpoints"`
	Integrations []catalog.IntegrationStatus `json:"integrations"`
	Workflows    []catalog.WorkflowRun       `json:"workflows"`
	Activity     []catalog.ActivityLogEntry  `json:"activity"`
}

// View captures the current state.
func (c *Controller) View() View {
	v := View{
		GeneratedAt:             c.clock.Now(),
		LevelFilter:             c.levelFilter,
		PlatformFilter:          c.platformFilter,
		SeverityFilters:         c.SeverityFilters(),
		Tickets:                 c.Tickets(),
		FilteredTickets:         c.FilteredTickets(),
		FilteredVulnerabilities: c.FilteredVulnerabilities(),
		Metrics:                 c.Metrics(),
		SeverityCounts:          c.SeverityCounts(),
		Endpoints:               c.cat.Endpoints(),
		Integrations:            c.cat.Integrations(),
		Workflows:               c.cat.Workflows(),
		Activity:                c.cat.Activity(),
	}
	if active, ok := c.ActiveVulnerability(); ok {
		v.ActiveVulnerability = &active
	}
	return v
}

// Session serialises access to a Controller for renderers that handle
// requests on several goroutines. Every operation and every View runs
// under one mutex, so a view is never taken mid-mutation.
type Session struct {
	mu   sync.Mutex
	ctrl *Controller
}

// NewSession wraps ctrl. The caller must not use ctrl directly afterwards.
func NewSession(ctrl *Controller) *Session {
	return &Session{ctrl: ctrl}
}

// Do runs fn with exclusive access to the controller.
func (s *Session) Do(fn func(*Controller)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.ctrl)
}

// View returns a snapshot of the current state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.View()
}

// Metrics returns the current header aggregates.
func (s *Session) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Metrics()
}
