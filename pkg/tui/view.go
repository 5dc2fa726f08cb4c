package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/exploopio/opsboard/pkg/catalog"
	"github.com/exploopio/opsboard/pkg/dashboard"
	"github.com/exploopio/opsboard/pkg/format"
	"github.com/exploopio/opsboard/pkg/shared/severity"
)

// View implements tea.Model.
func (model Model) View() string {
	view := model.ctrl.View()
	now := model.clock.Now()

	sections := []string{
		model.renderHeader(view.Metrics),
		model.renderTickets(view),
		model.renderVulnerabilities(view),
		lipgloss.JoinHorizontal(lipgloss.Top,
			model.renderIntegrations(view.Integrations),
			model.renderEndpoints(view.Endpoints),
		),
		lipgloss.JoinHorizontal(lipgloss.Top,
			model.renderWorkflows(view.Workflows),
			model.renderActivity(view.Activity, now),
		),
	}
	if model.status != "" {
		sections = append(sections, lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(model.status))
	}
	sections = append(sections, model.help.View(model.keys))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (model Model) panel(title string, focused bool, width int, body string) string {
	border := model.theme.BorderColor
	if focused {
		border = model.theme.FocusBorderColor
	}
	header := lipgloss.NewStyle().Bold(true).Foreground(model.theme.HeaderForeground).Render(title)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(width).
		Render(header + "\n" + body)
}

func (model Model) fullWidth() int {
	if model.width <= 4 {
		return 0
	}
	return model.width - 4
}

func (model Model) halfWidth() int {
	if model.width <= 8 {
		return 0
	}
	return model.width/2 - 4
}

func (model Model) renderHeader(m dashboard.Metrics) string {
	pill := func(tone format.Tone, label, value string) string {
		return lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(model.theme.ToneColor(tone)).
			Padding(0, 1).
			Render(label + " " + model.theme.Tone(tone).Render(value))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		pill(format.CriticalTicketsTone(m.OpenCriticalTickets), "Critical tickets", fmt.Sprint(m.OpenCriticalTickets)),
		pill(format.SLAAtRiskTone(m.TicketsBreachingSLA), "SLA at risk", fmt.Sprint(m.TicketsBreachingSLA)),
		pill(format.ImpactedAssetsTone(m.VulnerableAssets), "Impacted assets", format.Count(m.VulnerableAssets)),
		pill(format.HighRiskDevicesTone(m.DeviceRisk), "High risk devices", format.DeviceRisk(m.DeviceRisk)),
	)
}

func (model Model) chip(label string, active bool) string {
	style := lipgloss.NewStyle().Padding(0, 1)
	if active {
		style = style.Background(model.theme.ChipActive).Foreground(model.theme.SelectedForeground).Bold(true)
	} else {
		style = style.Foreground(model.theme.FaintText)
	}
	return style.Render(label)
}

func (model Model) row(line string, selected bool) string {
	if !selected {
		return "  " + line
	}
	return lipgloss.NewStyle().
		Background(model.theme.SelectedBackground).
		Foreground(model.theme.SelectedForeground).
		Render("> " + line)
}

func (model Model) renderTickets(view dashboard.View) string {
	var b strings.Builder

	var chips []string
	for _, f := range dashboard.LevelFilters() {
		chips = append(chips, model.chip(string(f), f == view.LevelFilter))
	}
	chips = append(chips, " ")
	for _, f := range dashboard.PlatformFilters() {
		chips = append(chips, model.chip(string(f), f == view.PlatformFilter))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, chips...))
	b.WriteString("\n")

	if len(view.FilteredTickets) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(model.theme.FaintText).Render("No tickets match the current filters."))
	}
	for i, t := range view.FilteredTickets {
		sla := format.SLAConsumption(t)
		slaTone := format.ToneEmerald
		if dashboard.IsBreachingSLA(t) {
			slaTone = format.ToneRose
		}
		line := fmt.Sprintf("%-10s %-44s %-8s %-16s %s  %s",
			t.ID, truncate(t.Summary, 44), t.Priority,
			model.theme.Tone(format.StatusTone(t.Status)).Render(string(t.Status)),
			model.theme.Tone(slaTone).Render(fmt.Sprintf("%4s", sla)),
			t.AssignedTo,
		)
		b.WriteString(model.row(line, model.focus == FocusTickets && i == model.ticketCursor))
		b.WriteString("\n")
		if i == model.ticketCursor && t.AutomationPlaybook != "" {
			b.WriteString(lipgloss.NewStyle().Foreground(model.theme.FaintText).Render("    " + t.AutomationPlaybook))
			b.WriteString("\n")
		}
	}

	return model.panel("Support tickets", model.focus == FocusTickets, model.fullWidth(), strings.TrimRight(b.String(), "\n"))
}

func (model Model) renderVulnerabilities(view dashboard.View) string {
	var b strings.Builder

	var chips []string
	for i, level := range severity.All() {
		chips = append(chips, model.chip(fmt.Sprintf("%d %s (%d)", i+1, level, view.SeverityCounts.Get(level)), view.SeverityFilters.Contains(level)))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, chips...))
	b.WriteString("\n")

	if len(view.FilteredVulnerabilities) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(model.theme.FaintText).Render("No vulnerabilities match the selected severities."))
	}
	for i, v := range view.FilteredVulnerabilities {
		marker := " "
		if view.ActiveVulnerability != nil && view.ActiveVulnerability.ID == v.ID {
			marker = "*"
		}
		line := fmt.Sprintf("%s %-15s %-9s %4s %6s  %s",
			marker, v.ID, v.Severity, format.CVSS(v.CVSS), format.Count(v.ImpactedAssets), v.Status)
		b.WriteString(model.row(line, model.focus == FocusVulnerabilities && i == model.vulnCursor))
		b.WriteString("\n")
	}

	list := model.panel("Vulnerabilities", model.focus == FocusVulnerabilities, model.halfWidth(), strings.TrimRight(b.String(), "\n"))
	return lipgloss.JoinHorizontal(lipgloss.Top, list, model.renderRemediation(view.ActiveVulnerability))
}

func (model Model) renderRemediation(v *catalog.VulnerabilityRecord) string {
	if v == nil {
		return model.panel("Remediation", false, model.halfWidth(), "No vulnerability selected.")
	}
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)

	platforms := make([]string, len(v.Platforms))
	for i, p := range v.Platforms {
		platforms[i] = string(p)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", v.Title)
	b.WriteString(faint.Render(fmt.Sprintf("Owner %s · ETA %s · exposure %s",
		v.Owner, format.Date(v.RemediationETA, model.loc), format.ExposureDays(v.ExposureWindowHours))))
	b.WriteString("\n")
	b.WriteString(faint.Render("Platforms: " + strings.Join(platforms, ", ")))
	b.WriteString("\n")
	b.WriteString(v.RecommendedAction)
	for _, step := range format.NextActions {
		b.WriteString("\n• " + step)
	}
	return model.panel("Remediation · "+v.ID, false, model.halfWidth(), b.String())
}

func (model Model) renderIntegrations(integrations []catalog.IntegrationStatus) string {
	var lines []string
	for _, in := range integrations {
		line := fmt.Sprintf("%-13s %s  %s · %d/hr", in.Name,
			model.theme.Tone(format.ConnectionTone(in.Status)).Render(fmt.Sprintf("%-12s", in.Status)),
			in.LastSync, in.ItemsSyncedLastHour)
		if in.Issues != "" {
			line += "\n" + lipgloss.NewStyle().Foreground(model.theme.FaintText).Render("  "+in.Issues)
		}
		lines = append(lines, line)
	}
	return model.panel("Integrations", false, model.halfWidth(), strings.Join(lines, "\n"))
}

func (model Model) renderEndpoints(endpoints []catalog.EndpointHealth) string {
	var lines []string
	for _, e := range endpoints {
		lines = append(lines, fmt.Sprintf("%-14s health %s  compliance %s  %s",
			e.Hostname,
			model.theme.Tone(format.HealthTone(e.HealthScore)).Render(fmt.Sprintf("%3d", e.HealthScore)),
			model.theme.Tone(format.ComplianceTone(e.Compliance)).Render(fmt.Sprintf("%3d%%", e.Compliance)),
			e.PatchStatus,
		))
	}
	return model.panel("Endpoints", false, model.halfWidth(), strings.Join(lines, "\n"))
}

func (model Model) renderWorkflows(workflows []catalog.WorkflowRun) string {
	var lines []string
	for _, w := range workflows {
		done := 0
		for _, item := range w.Checklist {
			if item.Done {
				done++
			}
		}
		lines = append(lines, fmt.Sprintf("%-13s %-18s %3d%%  %d/%d steps · due %s",
			w.Type, truncate(w.User, 18), w.Progress, done, len(w.Checklist), format.Date(w.DueAt, model.loc)))
	}
	return model.panel("Workflows", false, model.halfWidth(), strings.Join(lines, "\n"))
}

func (model Model) renderActivity(entries []catalog.ActivityLogEntry, now time.Time) string {
	var lines []string
	for _, a := range entries {
		lines = append(lines, fmt.Sprintf("%s %s · %s",
			model.theme.Tone(format.ActivityTone(a.Level)).Render(fmt.Sprintf("%-13s", a.Category)),
			truncate(a.Message, 48),
			format.RelativeTime(now, a.Timestamp)))
	}
	return model.panel("Activity", false, model.halfWidth(), strings.Join(lines, "\n"))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
