// Package dashboard owns the mutable view state of the operations dashboard
// and derives filtered lists and header metrics from it.
//
// A Controller holds a private copy of the seed tickets, the ticket and
// severity filters and the selected vulnerability. Renderers read state
// through its accessors or View and change it only through the
// operations. Derived values are recomputed on every read.
//
// A Controller is not safe for concurrent use. Renderers that serve
// several goroutines wrap it in a Session.
package dashboard

import (
	"slices"

	"github.com/exploopio/opsboard/pkg/catalog"
	"github.com/exploopio/opsboard/pkg/clock"
	"github.com/exploopio/opsboard/pkg/shared/severity"
)

const (
	// EscalationQueue is the assignee of escalated tickets.
	EscalationQueue = "Escalation Queue"

	// EnrichmentPlaybook is written to tickets that have no playbook when
	// they are enriched.
	EnrichmentPlaybook = "AI enrichment: baseline diagnostics collected"
)

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the time source used to stamp ticket updates.
func WithClock(c clock.Clock) Option {
	return func(ctrl *Controller) {
		ctrl.clock = c
	}
}

// WithObserver registers an observer. Observers are called in
// registration order.
func WithObserver(o Observer) Option {
	return func(ctrl *Controller) {
		if o != nil {
			ctrl.observers = append(ctrl.observers, o)
		}
	}
}

// Controller is the dashboard view-state controller.
type Controller struct {
	cat       *catalog.Catalog
	clock     clock.Clock
	observers []Observer

	tickets         []catalog.SupportTicket
	vulnerabilities []catalog.VulnerabilityRecord
	endpoints       []catalog.EndpointHealth

	levelFilter         LevelFilter
	platformFilter      PlatformFilter
	severityFilters     SeveritySet
	activeVulnerability *catalog.VulnerabilityRecord
}

// New creates a controller in its initial state: every ticket from the
// catalog, no ticket filtering, every severity shown and the first
// vulnerability selected.
func New(cat *catalog.Catalog, opts ...Option) *Controller {
	c := &Controller{
		cat:             cat,
		clock:           clock.Real(),
		tickets:         cat.Tickets(),
		vulnerabilities: cat.Vulnerabilities(),
		endpoints:       cat.Endpoints(),
		levelFilter:     LevelAll,
		platformFilter:  PlatformAll,
		severityFilters: AllSeverities(),
	}
	if len(c.vulnerabilities) > 0 {
		first := c.vulnerabilities[0]
		c.activeVulnerability = &first
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddObserver registers an observer after construction.
func (c *Controller) AddObserver(o Observer) {
	if o != nil {
		c.observers = append(c.observers, o)
	}
}

// Catalog returns the seed catalog the controller was built from.
func (c *Controller) Catalog() *catalog.Catalog { return c.cat }

// =============================================================================
// Operations
// =============================================================================

// SetLevelFilter replaces the level filter. Values outside the selectable
// set are ignored. It reports whether the filter was applied.
func (c *Controller) SetLevelFilter(f LevelFilter) bool {
	ok := f.Valid()
	if ok {
		c.levelFilter = f
	}
	c.notify(Event{Kind: EventLevelFilter, Value: string(f), Applied: ok})
	return ok
}

// SetPlatformFilter replaces the platform filter. Values outside the
// selectable set are ignored. It reports whether the filter was applied.
func (c *Controller) SetPlatformFilter(f PlatformFilter) bool {
	ok := f.Valid()
	if ok {
		c.platformFilter = f
	}
	c.notify(Event{Kind: EventPlatformFilter, Value: string(f), Applied: ok})
	return ok
}

// ToggleSeverity removes l from the severity filters if present and
// appends it otherwise. The set may become empty. Unknown levels are
// ignored.
func (c *Controller) ToggleSeverity(l severity.Level) bool {
	ok := l.Valid()
	if ok {
		c.severityFilters = c.severityFilters.Toggle(l)
	}
	c.notify(Event{Kind: EventSeverityToggle, Value: string(l), Applied: ok})
	return ok
}

// SelectVulnerability makes v the active record. Selection is independent
// of the severity filters; any record is accepted.
func (c *Controller) SelectVulnerability(v catalog.VulnerabilityRecord) {
	sel := v
	sel.Platforms = slices.Clone(v.Platforms)
	c.activeVulnerability = &sel
	c.notify(Event{Kind: EventVulnerabilitySelect, Value: v.ID, Applied: true})
}

// SelectVulnerabilityByID selects the catalog record with the given id.
// It reports false and leaves the selection unchanged when no record
// matches.
func (c *Controller) SelectVulnerabilityByID(id string) bool {
	v, ok := c.cat.Vulnerability(id)
	if !ok {
		c.notify(Event{Kind: EventVulnerabilitySelect, Value: id, Applied: false})
		return false
	}
	c.SelectVulnerability(v)
	return true
}

// EscalateTicket moves a ticket to Level 2, marks it Escalated and assigns
// it to the escalation queue. Unknown ids are a no-op. It reports whether
// a ticket matched.
func (c *Controller) EscalateTicket(id string) bool {
	now := c.clock.Now()
	ok := c.updateTicket(id, func(t *catalog.SupportTicket) {
		t.Level = catalog.Level2
		t.Status = catalog.StatusEscalated
		t.AssignedTo = EscalationQueue
		t.UpdatedAt = now
	})
	c.notify(Event{Kind: EventTicketEscalate, TicketID: id, Applied: ok})
	return ok
}

// ResolveTicket marks a ticket Resolved. Level and assignee are left as
// they were. Unknown ids are a no-op.
func (c *Controller) ResolveTicket(id string) bool {
	now := c.clock.Now()
	ok := c.updateTicket(id, func(t *catalog.SupportTicket) {
		t.Status = catalog.StatusResolved
		t.UpdatedAt = now
	})
	c.notify(Event{Kind: EventTicketResolve, TicketID: id, Applied: ok})
	return ok
}

// EnrichTicket attaches the baseline diagnostics playbook to a ticket that
// has none. An existing playbook is never overwritten and the update time
// is not changed. Unknown ids are a no-op.
func (c *Controller) EnrichTicket(id string) bool {
	ok := c.updateTicket(id, func(t *catalog.SupportTicket) {
		if t.AutomationPlaybook == "" {
			t.AutomationPlaybook = EnrichmentPlaybook
		}
	})
	c.notify(Event{Kind: EventTicketEnrich, TicketID: id, Applied: ok})
	return ok
}

func (c *Controller) updateTicket(id string, fn func(*catalog.SupportTicket)) bool {
	for i := range c.tickets {
		if c.tickets[i].ID == id {
			fn(&c.tickets[i])
			return true
		}
	}
	return false
}

func (c *Controller) notify(ev Event) {
	if len(c.observers) == 0 {
		return
	}
	ev.At = c.clock.Now()
	m := c.Metrics()
	for _, o := range c.observers {
		o.Observe(ev, m)
	}
}

// =============================================================================
// State
// =============================================================================

// Tickets returns every ticket in seed order, ignoring filters.
func (c *Controller) Tickets() []catalog.SupportTicket {
	return slices.Clone(c.tickets)
}

// Ticket returns the current state of one ticket.
func (c *Controller) Ticket(id string) (catalog.SupportTicket, bool) {
	for _, t := range c.tickets {
		if t.ID == id {
			return t, true
		}
	}
	return catalog.SupportTicket{}, false
}

// LevelFilter returns the current level filter.
func (c *Controller) LevelFilter() LevelFilter { return c.levelFilter }

// PlatformFilter returns the current platform filter.
func (c *Controller) PlatformFilter() PlatformFilter { return c.platformFilter }

// SeverityFilters returns the current severity set in toggle order.
func (c *Controller) SeverityFilters() SeveritySet {
	return slices.Clone(c.severityFilters)
}

// ActiveVulnerability returns the selected record, if any.
func (c *Controller) ActiveVulnerability() (catalog.VulnerabilityRecord, bool) {
	if c.activeVulnerability == nil {
		return catalog.VulnerabilityRecord{}, false
	}
	v := *c.activeVulnerability
	v.Platforms = slices.Clone(v.Platforms)
	return v, true
}

// =============================================================================
// Derived views
// =============================================================================

// FilteredTickets returns the tickets that pass the level and platform
// filters.
func (c *Controller) FilteredTickets() []catalog.SupportTicket {
	return FilterTickets(c.tickets, c.levelFilter, c.platformFilter)
}

// FilteredVulnerabilities returns the records whose severity is selected,
// ordered by severity rank.
func (c *Controller) FilteredVulnerabilities() []catalog.VulnerabilityRecord {
	return cloneRecords(FilterVulnerabilities(c.vulnerabilities, c.severityFilters))
}

// SeverityCounts tallies every vulnerability by severity. The counts label
// the severity filter toggles, so they ignore the filter itself.
func (c *Controller) SeverityCounts() severity.CountBySeverity {
	return CountSeverities(c.vulnerabilities)
}

// OpenCriticalTickets counts unresolved Critical tickets across all
// tickets.
func (c *Controller) OpenCriticalTickets() int {
	return CountOpenCritical(c.tickets)
}

// TicketsBreachingSLA counts unresolved tickets at or past 80% of their SLA
// across all tickets.
func (c *Controller) TicketsBreachingSLA() int {
	return CountBreachingSLA(c.tickets)
}

// VulnerableAssets sums impacted assets over the filtered, unpatched
// vulnerabilities.
func (c *Controller) VulnerableAssets() int {
	return SumVulnerableAssets(FilterVulnerabilities(c.vulnerabilities, c.severityFilters))
}

// DeviceRisk returns the high risk endpoint count and percentage.
func (c *Controller) DeviceRisk() DeviceRisk {
	return ComputeDeviceRisk(c.endpoints)
}

// Metrics returns all header aggregates at once.
func (c *Controller) Metrics() Metrics {
	return Metrics{
		OpenCriticalTickets: c.OpenCriticalTickets(),
		TicketsBreachingSLA: c.TicketsBreachingSLA(),
		VulnerableAssets:    c.VulnerableAssets(),
		DeviceRisk:          c.DeviceRisk(),
	}
}

func cloneRecords(in []catalog.VulnerabilityRecord) []catalog.VulnerabilityRecord {
	for i := range in {
		in[i].Platforms = slices.Clone(in[i].Platforms)
	}
	return in
}
