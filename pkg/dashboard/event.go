package dashboard

import (
	"time"
)

// EventKind names a controller operation.
type EventKind string

const (
	EventLevelFilter         EventKind = "level_filter"
	EventPlatformFilter      EventKind = "platform_filter"
	EventSeverityToggle      EventKind = "severity_toggle"
	EventVulnerabilitySelect EventKind = "vulnerability_select"
	EventTicketEscalate      EventKind = "ticket_escalate"
	EventTicketResolve       EventKind = "ticket_resolve"
	EventTicketEnrich        EventKind = "ticket_enrich"
)

// IsTicketAction reports whether the event mutates a ticket.
func (k EventKind) IsTicketAction() bool {
	switch k {
	case EventTicketEscalate, EventTicketResolve, EventTicketEnrich:
		return true
	}
	return false
}

// Action returns the short verb for ticket actions ("escalate", "resolve",
// "enrich") and the kind itself otherwise.
func (k EventKind) Action() string {
	switch k {
	case EventTicketEscalate:
		return "escalate"
	case EventTicketResolve:
		return "resolve"
	case EventTicketEnrich:
		return "enrich"
	}
	return string(k)
}

// Event describes one completed controller operation.
type Event struct {
	Kind EventKind `json:"kind"`

	// TicketID is set for ticket actions.
	TicketID string `json:"ticketId,omitempty"`

	// Value is the argument of filter and selection operations.
	Value string `json:"value,omitempty"`

	// Applied is false when the operation matched nothing or was given a
	// value outside its closed set, and so left state unchanged.
	Applied bool `json:"applied"`

	At time.Time `json:"at"`
}

// Observer is notified after each controller operation completes. Observers
// run synchronously on the caller's goroutine and must not call back into
// the controller.
type Observer interface {
	Observe(ev Event, m Metrics)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev Event, m Metrics)

// Observe calls f.
func (f ObserverFunc) Observe(ev Event, m Metrics) { f(ev, m) }
