package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/exploopio/opsboard/pkg/dashboard"
	"github.com/exploopio/opsboard/pkg/format"
	"github.com/exploopio/opsboard/pkg/shared/severity"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageFuncs = template.FuncMap{
	"relative":       format.RelativeTime,
	"date":           format.Date,
	"sla":            format.SLAConsumption,
	"slaPercent":     format.SLAPercent,
	"cvss":           format.CVSS,
	"count":          format.Count,
	"exposure":       format.ExposureDays,
	"deviceRisk":     format.DeviceRisk,
	"criticalTone":   format.CriticalTicketsTone,
	"slaTone":        format.SLAAtRiskTone,
	"assetsTone":     format.ImpactedAssetsTone,
	"riskTone":       format.HighRiskDevicesTone,
	"healthTone":     format.HealthTone,
	"complianceTone": format.ComplianceTone,
	"connectionTone": format.ConnectionTone,
	"statusTone":     format.StatusTone,
	"activityTone":   format.ActivityTone,
	"breachingSLA":   dashboard.IsBreachingSLA,
	"highRisk":       dashboard.IsHighRisk,
}

var pageTemplate = template.Must(
	template.New("dashboard.html").Funcs(pageFuncs).ParseFS(templateFS, "templates/*.html"),
)

type pageData struct {
	View dashboard.View
	Now  time.Time
	Loc  *time.Location

	LevelFilters    []dashboard.LevelFilter
	PlatformFilters []dashboard.PlatformFilter
	Severities      []severity.Level

	NextActions []string
	Runbooks    []string
	Insights    []string
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		View:            s.session.View(),
		Now:             s.clock.Now(),
		Loc:             s.cfg.Location,
		LevelFilters:    dashboard.LevelFilters(),
		PlatformFilters: dashboard.PlatformFilters(),
		Severities:      severity.All(),
		NextActions:     format.NextActions,
		Runbooks:        format.Runbooks,
		Insights:        format.Insights,
	}

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		s.logger.Error("render dashboard: %v", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// =============================================================================
// Form actions
// =============================================================================

func (s *Server) handleTicketForm(w http.ResponseWriter, r *http.Request) {
	_, err := s.ticketAction(chi.URLParam(r, "id"), chi.URLParam(r, "action"))
	s.redirect(w, r, err)
}

func (s *Server) handleLevelForm(w http.ResponseWriter, r *http.Request) {
	s.redirect(w, r, s.setLevel(r.PostFormValue("value")))
}

func (s *Server) handlePlatformForm(w http.ResponseWriter, r *http.Request) {
	s.redirect(w, r, s.setPlatform(r.PostFormValue("value")))
}

func (s *Server) handleSeverityForm(w http.ResponseWriter, r *http.Request) {
	s.redirect(w, r, s.toggleSeverity(chi.URLParam(r, "severity")))
}

func (s *Server) handleSelectForm(w http.ResponseWriter, r *http.Request) {
	s.redirect(w, r, s.selectVulnerability(chi.URLParam(r, "id")))
}

// redirect sends the browser back to the page after a form action.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
