package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/exploopio/opsboard/pkg/audit"
	"github.com/exploopio/opsboard/pkg/catalog"
	"github.com/exploopio/opsboard/pkg/dashboard"
	"github.com/exploopio/opsboard/pkg/errors"
	"github.com/exploopio/opsboard/pkg/shared/fingerprint"
)

// Ticket actions accepted in URLs.
const (
	ActionEscalate = "escalate"
	ActionResolve  = "resolve"
	ActionEnrich   = "enrich"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 4 << 10

type valueRequest struct {
	Value string `json:"value"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ticketAction applies action to the ticket with the given id and returns
// the updated ticket.
func (s *Server) ticketAction(id, action string) (catalog.SupportTicket, error) {
	var op func(*dashboard.Controller, string) bool
	switch action {
	case ActionEscalate:
		op = (*dashboard.Controller).EscalateTicket
	case ActionResolve:
		op = (*dashboard.Controller).ResolveTicket
	case ActionEnrich:
		op = (*dashboard.Controller).EnrichTicket
	default:
		return catalog.SupportTicket{}, errors.Errorf(errors.KindInvalidInput, "server.ticketAction", "unknown action %q", action)
	}

	var (
		t     catalog.SupportTicket
		found bool
	)
	s.session.Do(func(c *dashboard.Controller) {
		if found = op(c, id); found {
			t, _ = c.Ticket(id)
		}
	})
	if !found {
		return t, errors.Errorf(errors.KindNotFound, "server.ticketAction", "ticket %q not found", id)
	}
	return t, nil
}

func (s *Server) setLevel(value string) error {
	f, err := dashboard.ParseLevelFilter(value)
	if err != nil {
		return err
	}
	s.session.Do(func(c *dashboard.Controller) { c.SetLevelFilter(f) })
	return nil
}

func (s *Server) setPlatform(value string) error {
	f, err := dashboard.ParsePlatformFilter(value)
	if err != nil {
		return err
	}
	s.session.Do(func(c *dashboard.Controller) { c.SetPlatformFilter(f) })
	return nil
}

func (s *Server) toggleSeverity(value string) error {
	l, err := dashboard.ParseSeverity(value)
	if err != nil {
		return err
	}
	s.session.Do(func(c *dashboard.Controller) { c.ToggleSeverity(l) })
	return nil
}

func (s *Server) selectVulnerability(id string) error {
	var found bool
	s.session.Do(func(c *dashboard.Controller) { found = c.SelectVulnerabilityByID(id) })
	if !found {
		return errors.Errorf(errors.KindNotFound, "server.selectVulnerability", "vulnerability %q not found", id)
	}
	return nil
}

// =============================================================================
// JSON API
// =============================================================================

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	view := s.session.View()
	etag := viewETag(view)
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	s.writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.session.Metrics())
}

// viewETag fingerprints the state a view is derived from. GeneratedAt is
// left out so that polling an unchanged dashboard yields the same tag.
func viewETag(v dashboard.View) string {
	in := fingerprint.Input{
		Type:           fingerprint.TypeViewState,
		LevelFilter:    string(v.LevelFilter),
		PlatformFilter: string(v.PlatformFilter),
	}
	for _, l := range v.SeverityFilters {
		in.Severities = append(in.Severities, string(l))
	}
	if v.ActiveVulnerability != nil {
		in.ActiveVulnerability = v.ActiveVulnerability.ID
	}
	for _, t := range v.Tickets {
		in.Parts = append(in.Parts, fingerprint.GenerateTicket(t))
	}
	return `"` + fingerprint.Short(fingerprint.Generate(in)) + `"`
}

func (s *Server) handleTicketAction(w http.ResponseWriter, r *http.Request) {
	t, err := s.ticketAction(chi.URLParam(r, "id"), chi.URLParam(r, "action"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, t)
}

func (s *Server) handleSetLevel(w http.ResponseWriter, r *http.Request) {
	s.handleValue(w, r, s.setLevel)
}

func (s *Server) handleSetPlatform(w http.ResponseWriter, r *http.Request) {
	s.handleValue(w, r, s.setPlatform)
}

func (s *Server) handleValue(w http.ResponseWriter, r *http.Request, apply func(string) error) {
	req, err := decodeValue(r)
	if err == nil {
		err = apply(req.Value)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.session.View())
}

func (s *Server) handleToggleSeverity(w http.ResponseWriter, r *http.Request) {
	if err := s.toggleSeverity(chi.URLParam(r, "severity")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.session.View())
}

func (s *Server) handleSelectVulnerability(w http.ResponseWriter, r *http.Request) {
	if err := s.selectVulnerability(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.session.View())
}

func decodeValue(r *http.Request) (valueRequest, error) {
	var req valueRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, errors.E(errors.KindInvalidInput, "server.decodeValue", "decode request body", err)
	}
	return req, nil
}

// =============================================================================
// Responses
// =============================================================================

// writeJSON encodes v before writing the status, so a value that cannot be
// encoded turns into a logged 500 instead of a truncated success.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		s.logger.Error("%s %s: encode response: %v", r.Method, r.URL.Path, err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"kind":"internal","message":"encode response"}}`+"\n")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Debug("%s %s: write response: %v", r.Method, r.URL.Path, err)
	}
}

// writeError renders err with the status mapped from its kind. Input that
// never reached the controller is recorded in the audit trail; ignored
// operations are already recorded by the audit observer.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := errors.GetKind(err)
	status := kind.HTTPStatus()

	msg := err.Error()
	var e *errors.Error
	if errors.As(err, &e) && e.Message != "" {
		msg = e.Message
	}

	switch {
	case status >= http.StatusInternalServerError:
		s.logger.Error("%s %s: %v", r.Method, r.URL.Path, err)
	case errors.IsNotFound(err):
		s.logger.Info("%s %s: %s", r.Method, r.URL.Path, msg)
	case errors.IsInvalidInput(err):
		s.logger.Debug("%s %s: %v", r.Method, r.URL.Path, err)
		if s.audit != nil {
			s.audit.Error(audit.EventValidationError, msg, err, map[string]interface{}{
				"method": r.Method,
				"path":   r.URL.Path,
				"status": status,
			})
		}
	default:
		s.logger.Debug("%s %s: %v", r.Method, r.URL.Path, err)
	}

	s.writeJSON(w, r, status, errorBody{Error: errorDetail{Kind: kind.String(), Message: msg}})
}
