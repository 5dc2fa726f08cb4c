package catalog

import (
	"math"

	"github.com/exploopio/opsboard/pkg/errors"
)

const opValidate = "catalog.Validate"

// Validate checks every record of a seed against the closed value sets and
// numeric ranges of the data model. It returns the first problem found as an
// invalid-input error naming the offending record.
func Validate(seed Seed) error {
	if err := validateTickets(seed.Tickets); err != nil {
		return err
	}
	if err := validateVulnerabilities(seed.Vulnerabilities); err != nil {
		return err
	}
	if err := validateEndpoints(seed.Endpoints); err != nil {
		return err
	}
	if err := validateIntegrations(seed.Integrations); err != nil {
		return err
	}
	if err := validateWorkflows(seed.Workflows); err != nil {
		return err
	}
	return validateActivity(seed.Activity)
}

func invalid(format string, args ...interface{}) error {
	return errors.Errorf(errors.KindInvalidInput, opValidate, format, args...)
}

func percentage(v int) bool { return v >= 0 && v <= 100 }

func validateTickets(tickets []SupportTicket) error {
	seen := make(map[string]struct{}, len(tickets))
	for i, t := range tickets {
		if t.ID == "" {
			return invalid("ticket %d: missing id", i)
		}
		if _, dup := seen[t.ID]; dup {
			return invalid("ticket %s: duplicate id", t.ID)
		}
		seen[t.ID] = struct{}{}

		switch {
		case !t.Platform.Valid():
			return invalid("ticket %s: unknown platform %q", t.ID, t.Platform)
		case !t.Priority.Valid():
			return invalid("ticket %s: unknown priority %q", t.ID, t.Priority)
		case !t.Level.Valid():
			return invalid("ticket %s: unknown level %q", t.ID, t.Level)
		case !t.Status.Valid():
			return invalid("ticket %s: unknown status %q", t.ID, t.Status)
		case t.SLAMinutes <= 0:
			return invalid("ticket %s: sla minutes must be positive, got %d", t.ID, t.SLAMinutes)
		case t.ElapsedMinutes < 0:
			return invalid("ticket %s: elapsed minutes must not be negative, got %d", t.ID, t.ElapsedMinutes)
		}
	}
	return nil
}

func validateVulnerabilities(records []VulnerabilityRecord) error {
	seen := make(map[string]struct{}, len(records))
	for i, v := range records {
		if v.ID == "" {
			return invalid("vulnerability %d: missing id", i)
		}
		if _, dup := seen[v.ID]; dup {
			return invalid("vulnerability %s: duplicate id", v.ID)
		}
		seen[v.ID] = struct{}{}

		switch {
		case !v.Severity.Valid():
			return invalid("vulnerability %s: unknown severity %q", v.ID, v.Severity)
		case math.IsNaN(v.CVSS) || v.CVSS < 0 || v.CVSS > 10:
			return invalid("vulnerability %s: cvss %.1f outside 0.0-10.0", v.ID, v.CVSS)
		case v.ImpactedAssets < 0:
			return invalid("vulnerability %s: impacted assets must not be negative", v.ID)
		case !v.Status.Valid():
			return invalid("vulnerability %s: unknown status %q", v.ID, v.Status)
		case len(v.Platforms) == 0:
			return invalid("vulnerability %s: no platforms", v.ID)
		case v.ExposureWindowHours < 0:
			return invalid("vulnerability %s: exposure window must not be negative", v.ID)
		}

		platforms := make(map[Surface]struct{}, len(v.Platforms))
		for _, p := range v.Platforms {
			if !p.Valid() {
				return invalid("vulnerability %s: unknown platform %q", v.ID, p)
			}
			if _, dup := platforms[p]; dup {
				return invalid("vulnerability %s: platform %q listed twice", v.ID, p)
			}
			platforms[p] = struct{}{}
		}
	}
	return nil
}

func validateEndpoints(endpoints []EndpointHealth) error {
	seen := make(map[string]struct{}, len(endpoints))
	for i, e := range endpoints {
		if e.Hostname == "" {
			return invalid("endpoint %d: missing hostname", i)
		}
		if _, dup := seen[e.Hostname]; dup {
			return invalid("endpoint %s: duplicate hostname", e.Hostname)
		}
		seen[e.Hostname] = struct{}{}

		switch {
		case !e.OS.Valid():
			return invalid("endpoint %s: unknown os %q", e.Hostname, e.OS)
		case !percentage(e.Compliance):
			return invalid("endpoint %s: compliance %d outside 0-100", e.Hostname, e.Compliance)
		case !percentage(e.HealthScore):
			return invalid("endpoint %s: health score %d outside 0-100", e.Hostname, e.HealthScore)
		case e.OpenAlerts < 0:
			return invalid("endpoint %s: open alerts must not be negative", e.Hostname)
		case !e.VPNStatus.Valid():
			return invalid("endpoint %s: unknown vpn status %q", e.Hostname, e.VPNStatus)
		case !e.PatchStatus.Valid():
			return invalid("endpoint %s: unknown patch status %q", e.Hostname, e.PatchStatus)
		}
	}
	return nil
}

func validateIntegrations(integrations []IntegrationStatus) error {
	seen := make(map[IntegrationName]struct{}, len(integrations))
	for _, in := range integrations {
		if !in.Name.Valid() {
			return invalid("integration %q: unknown name", in.Name)
		}
		if _, dup := seen[in.Name]; dup {
			return invalid("integration %s: listed twice", in.Name)
		}
		seen[in.Name] = struct{}{}

		switch {
		case !in.Status.Valid():
			return invalid("integration %s: unknown status %q", in.Name, in.Status)
		case in.ItemsSyncedLastHour < 0:
			return invalid("integration %s: items synced must not be negative", in.Name)
		}
	}
	return nil
}

func validateWorkflows(workflows []WorkflowRun) error {
	seen := make(map[string]struct{}, len(workflows))
	for i, w := range workflows {
		if w.ID == "" {
			return invalid("workflow %d: missing id", i)
		}
		if _, dup := seen[w.ID]; dup {
			return invalid("workflow %s: duplicate id", w.ID)
		}
		seen[w.ID] = struct{}{}

		switch {
		case !w.Type.Valid():
			return invalid("workflow %s: unknown type %q", w.ID, w.Type)
		case !percentage(w.Progress):
			return invalid("workflow %s: progress %d outside 0-100", w.ID, w.Progress)
		}
	}
	return nil
}

func validateActivity(entries []ActivityLogEntry) error {
	seen := make(map[string]struct{}, len(entries))
	for i, a := range entries {
		if a.ID == "" {
			return invalid("activity %d: missing id", i)
		}
		if _, dup := seen[a.ID]; dup {
			return invalid("activity %s: duplicate id", a.ID)
		}
		seen[a.ID] = struct{}{}

		switch {
		case !a.Category.Valid():
			return invalid("activity %s: unknown category %q", a.ID, a.Category)
		case !a.Level.Valid():
			return invalid("activity %s: unknown level %q", a.ID, a.Level)
		}
	}
	return nil
}
