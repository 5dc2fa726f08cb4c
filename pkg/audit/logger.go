// Package audit records dashboard operations as an append-only JSON-lines
// trail.
//
// Every ticket action, filter change and selection made through the
// controller is written with a unique id, the session it happened in and the
// header metrics that resulted. Events are buffered and flushed when the
// buffer fills, on a ticker, and on Close. The trail is never read back by
// opsboard itself.
package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/exploopio/opsboard/pkg/clock"
	"github.com/exploopio/opsboard/pkg/dashboard"
	"github.com/exploopio/opsboard/pkg/errors"
	"github.com/exploopio/opsboard/pkg/logging"
)

// EventType represents the type of audit event.
type EventType string

const (
	// Lifecycle events
	EventSessionStart EventType = "session_start"
	EventSessionStop  EventType = "session_stop"

	// Ticket events
	EventTicketEscalated EventType = "ticket_escalated"
	EventTicketResolved  EventType = "ticket_resolved"
	EventTicketEnriched  EventType = "ticket_enriched"

	// View events
	EventFilterChanged         EventType = "filter_changed"
	EventSeverityToggled       EventType = "severity_toggled"
	EventVulnerabilitySelected EventType = "vulnerability_selected"
	EventOperationIgnored      EventType = "operation_ignored"

	// Request events
	EventRateLimited     EventType = "rate_limited"
	EventValidationError EventType = "validation_error"
)

// Severity represents log severity level.
type Severity string

const (
	SeverityDebug    Severity = "DEBUG"
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARN"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

// Event represents an audit event.
type Event struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Type      EventType              `json:"type"`
	Severity  Severity               `json:"severity"`
	SessionID string                 `json:"session_id,omitempty"`
	Actor     string                 `json:"actor,omitempty"`
	TicketID  string                 `json:"ticket_id,omitempty"`
	Target    string                 `json:"target,omitempty"`
	Message   string                 `json:"message"`
	Error     string                 `json:"error,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// LoggerConfig configures the audit logger.
type LoggerConfig struct {
	// SessionID is included in all events. A random id is generated when
	// empty.
	SessionID string

	// Actor names who drives the session, e.g. "tui" or "http".
	Actor string

	// LogFile is the path to the audit log file.
	// Default: ~/.opsboard/audit.log
	LogFile string

	// BufferSize is the number of events to buffer before flushing.
	// Default: 100
	BufferSize int

	// FlushInterval is how often to flush buffered events.
	// Default: 5 seconds
	FlushInterval time.Duration

	// Clock stamps events. Default: the real clock.
	Clock clock.Clock

	// Logger mirrors events at debug level and reports write failures.
	Logger logging.Logger
}

// DefaultLoggerConfig returns sensible defaults.
func DefaultLoggerConfig() *LoggerConfig {
	home, _ := os.UserHomeDir()
	if home == "" {
		home = os.TempDir()
	}

	return &LoggerConfig{
		LogFile:       filepath.Join(home, ".opsboard", "audit.log"),
		BufferSize:    100,
		FlushInterval: 5 * time.Second,
	}
}

// Logger is the audit logger.
type Logger struct {
	config *LoggerConfig
	clock  clock.Clock
	log    logging.Logger

	file *os.File
	mu   sync.Mutex

	buffer   []Event
	bufferMu sync.Mutex

	running bool
	closed  bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewLogger creates a new audit logger and opens its file for append.
func NewLogger(config *LoggerConfig) (*Logger, error) {
	if config == nil {
		config = DefaultLoggerConfig()
	}

	// Apply defaults for zero values
	if config.LogFile == "" {
		config.LogFile = DefaultLoggerConfig().LogFile
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 100
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = 5 * time.Second
	}
	if config.SessionID == "" {
		config.SessionID = uuid.NewString()
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}

	dir := filepath.Dir(config.LogFile)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.E(errors.KindConfig, "audit.NewLogger", "create log directory", err)
	}

	// 0640 = owner read/write, group read
	file, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, errors.E(errors.KindConfig, "audit.NewLogger", "open log file", err)
	}

	return &Logger{
		config: config,
		clock:  config.Clock,
		log:    logging.OrNop(config.Logger),
		file:   file,
		buffer: make([]Event, 0, config.BufferSize),
		stopCh: make(chan struct{}),
	}, nil
}

// SessionID returns the id stamped on every event.
func (l *Logger) SessionID() string { return l.config.SessionID }

// Path returns the audit file path.
func (l *Logger) Path() string { return l.config.LogFile }

// Start begins background flushing.
func (l *Logger) Start() {
	l.mu.Lock()
	if l.running || l.closed {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.stopCh = make(chan struct{})
	l.mu.Unlock()

	l.wg.Add(1)
	go l.flushLoop()
}

// Close stops background flushing, writes any buffered events and closes
// the file. It is safe to call more than once and whether or not Start was
// called.
func (l *Logger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	wasRunning := l.running
	l.running = false
	if wasRunning {
		close(l.stopCh)
	}
	l.mu.Unlock()

	l.wg.Wait()

	flushErr := l.Flush()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	if err := l.file.Close(); err != nil {
		return errors.E(errors.KindInternal, "audit.Close", err)
	}
	return flushErr
}

// Log records an audit event. Events logged after Close are dropped.
func (l *Logger) Log(event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = l.clock.Now()
	}
	if event.SessionID == "" {
		event.SessionID = l.config.SessionID
	}
	if event.Actor == "" {
		event.Actor = l.config.Actor
	}

	l.bufferMu.Lock()
	l.buffer = append(l.buffer, event)
	shouldFlush := len(l.buffer) >= l.config.BufferSize
	l.bufferMu.Unlock()

	l.log.Debug("audit %s [%s] %s", event.Type, event.Severity, event.Message)

	if shouldFlush {
		if err := l.Flush(); err != nil {
			l.log.Error("audit flush: %v", err)
		}
	}
}

// Convenience methods for common event types

// Info logs an informational event.
func (l *Logger) Info(eventType EventType, message string, details map[string]interface{}) {
	l.Log(Event{
		Type:     eventType,
		Severity: SeverityInfo,
		Message:  message,
		Details:  details,
	})
}

// Warn logs a warning event.
func (l *Logger) Warn(eventType EventType, message string, details map[string]interface{}) {
	l.Log(Event{
		Type:     eventType,
		Severity: SeverityWarning,
		Message:  message,
		Details:  details,
	})
}

// Error logs an error event.
func (l *Logger) Error(eventType EventType, message string, err error, details map[string]interface{}) {
	event := Event{
		Type:     eventType,
		Severity: SeverityError,
		Message:  message,
		Details:  details,
	}
	if err != nil {
		event.Error = err.Error()
	}
	l.Log(event)
}

// SessionStarted logs the start of a dashboard session.
func (l *Logger) SessionStarted(mode string, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}
	details["mode"] = mode
	l.Info(EventSessionStart, "Session started: "+mode, details)
}

// SessionStopped logs the end of a dashboard session.
func (l *Logger) SessionStopped(duration time.Duration) {
	l.Info(EventSessionStop, "Session stopped", map[string]interface{}{
		"duration_ms": duration.Milliseconds(),
	})
}

// Flush writes buffered events to disk.
func (l *Logger) Flush() error {
	l.bufferMu.Lock()
	if len(l.buffer) == 0 {
		l.bufferMu.Unlock()
		return nil
	}
	events := l.buffer
	l.buffer = make([]Event, 0, l.config.BufferSize)
	l.bufferMu.Unlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}

	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		data = append(data, '\n')
		if _, err := l.file.Write(data); err != nil {
			return errors.E(errors.KindInternal, "audit.Flush", "write event", err)
		}
	}

	if err := l.file.Sync(); err != nil {
		return errors.E(errors.KindInternal, "audit.Flush", "sync", err)
	}
	return nil
}

// flushLoop periodically flushes buffered events.
func (l *Logger) flushLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			if err := l.Flush(); err != nil {
				l.log.Error("audit flush: %v", err)
			}
		}
	}
}

// Observe records a completed dashboard operation. It lets the logger be
// registered directly as a dashboard observer.
func (l *Logger) Observe(ev dashboard.Event, m dashboard.Metrics) {
	event := Event{
		Timestamp: ev.At,
		Severity:  SeverityInfo,
		TicketID:  ev.TicketID,
		Target:    ev.Value,
		Details: map[string]interface{}{
			"operation":             string(ev.Kind),
			"open_critical_tickets": m.OpenCriticalTickets,
			"tickets_breaching_sla": m.TicketsBreachingSLA,
			"vulnerable_assets":     m.VulnerableAssets,
			"high_risk_devices":     m.DeviceRisk.HighRisk,
		},
	}

	switch {
	case !ev.Applied:
		event.Type = EventOperationIgnored
		event.Severity = SeverityWarning
		event.Message = ignoredMessage(ev)
	case ev.Kind == dashboard.EventTicketEscalate:
		event.Type = EventTicketEscalated
		event.Message = "Ticket " + ev.TicketID + " escalated to " + dashboard.EscalationQueue
	case ev.Kind == dashboard.EventTicketResolve:
		event.Type = EventTicketResolved
		event.Message = "Ticket " + ev.TicketID + " resolved"
	case ev.Kind == dashboard.EventTicketEnrich:
		event.Type = EventTicketEnriched
		event.Message = "Ticket " + ev.TicketID + " enriched"
	case ev.Kind == dashboard.EventLevelFilter:
		event.Type = EventFilterChanged
		event.Message = "Level filter set to " + ev.Value
		event.Details["filter"] = "level"
	case ev.Kind == dashboard.EventPlatformFilter:
		event.Type = EventFilterChanged
		event.Message = "Platform filter set to " + ev.Value
		event.Details["filter"] = "platform"
	case ev.Kind == dashboard.EventSeverityToggle:
		event.Type = EventSeverityToggled
		event.Message = "Severity " + ev.Value + " toggled"
	case ev.Kind == dashboard.EventVulnerabilitySelect:
		event.Type = EventVulnerabilitySelected
		event.Message = "Vulnerability " + ev.Value + " selected"
	default:
		event.Type = EventType(ev.Kind)
		event.Message = string(ev.Kind)
	}

	l.Log(event)
}

func ignoredMessage(ev dashboard.Event) string {
	if ev.Kind.IsTicketAction() {
		return "Ticket " + ev.TicketID + " not found for " + ev.Kind.Action()
	}
	return "Ignored " + string(ev.Kind) + " value " + ev.Value
}

var _ dashboard.Observer = (*Logger)(nil)
