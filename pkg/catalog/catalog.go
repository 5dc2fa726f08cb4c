// Package catalog is the seed data store behind the dashboard.
//
// A Catalog holds six collections (tickets, vulnerabilities, endpoints,
// integrations, workflow runs and activity entries) that are fixed when the
// catalog is built. Every record is validated at construction, and every
// accessor returns a deep copy, so nothing outside the package can change
// what the catalog holds.
//
// The embedded seed is available through Default. A replacement seed in the
// same YAML shape can be loaded with Load or LoadFile.
package catalog

import (
	"slices"

	"github.com/exploopio/opsboard/pkg/shared/severity"
)

// Seed is the on-disk shape of a catalog.
type Seed struct {
	Tickets         []SupportTicket       `yaml:"tickets"`
	Vulnerabilities []VulnerabilityRecord `yaml:"vulnerabilities"`
	Endpoints       []EndpointHealth      `yaml:"endpoints"`
	Integrations    []IntegrationStatus   `yaml:"integrations"`
	Workflows       []WorkflowRun         `yaml:"workflows"`
	Activity        []ActivityLogEntry    `yaml:"activity"`
}

// Catalog is an immutable set of seed collections.
type Catalog struct {
	tickets         []SupportTicket
	vulnerabilities []VulnerabilityRecord
	endpoints       []EndpointHealth
	integrations    []IntegrationStatus
	workflows       []WorkflowRun
	activity        []ActivityLogEntry
}

// New validates seed and builds a catalog from a private copy of it. A
// vulnerability without a severity is rated from its CVSS score.
func New(seed Seed) (*Catalog, error) {
	vulnerabilities := cloneVulnerabilities(seed.Vulnerabilities)
	for i := range vulnerabilities {
		if vulnerabilities[i].Severity == "" {
			vulnerabilities[i].Severity = severity.FromCVSS(vulnerabilities[i].CVSS)
		}
	}
	seed.Vulnerabilities = vulnerabilities

	if err := Validate(seed); err != nil {
		return nil, err
	}
	return &Catalog{
		tickets:         slices.Clone(seed.Tickets),
		vulnerabilities: vulnerabilities,
		endpoints:       cloneEndpoints(seed.Endpoints),
		integrations:    slices.Clone(seed.Integrations),
		workflows:       cloneWorkflows(seed.Workflows),
		activity:        slices.Clone(seed.Activity),
	}, nil
}

// Tickets returns the seed tickets in seed order.
func (c *Catalog) Tickets() []SupportTicket {
	return slices.Clone(c.tickets)
}

// Vulnerabilities returns the vulnerability records in seed order.
func (c *Catalog) Vulnerabilities() []VulnerabilityRecord {
	return cloneVulnerabilities(c.vulnerabilities)
}

// Vulnerability looks a record up by id.
func (c *Catalog) Vulnerability(id string) (VulnerabilityRecord, bool) {
	for _, v := range c.vulnerabilities {
		if v.ID == id {
			return cloneVulnerability(v), true
		}
	}
	return VulnerabilityRecord{}, false
}

// Endpoints returns the endpoint health records in seed order.
func (c *Catalog) Endpoints() []EndpointHealth {
	return cloneEndpoints(c.endpoints)
}

// Integrations returns the integration states in seed order.
func (c *Catalog) Integrations() []IntegrationStatus {
	return slices.Clone(c.integrations)
}

// Workflows returns the workflow runs in seed order.
func (c *Catalog) Workflows() []WorkflowRun {
	return cloneWorkflows(c.workflows)
}

// Activity returns the activity log in the order it was supplied
// (most recent first in the embedded seed). It is never re-sorted.
func (c *Catalog) Activity() []ActivityLogEntry {
	return slices.Clone(c.activity)
}

func cloneVulnerability(v VulnerabilityRecord) VulnerabilityRecord {
	v.Platforms = slices.Clone(v.Platforms)
	return v
}

func cloneVulnerabilities(in []VulnerabilityRecord) []VulnerabilityRecord {
	if in == nil {
		return nil
	}
	out := make([]VulnerabilityRecord, len(in))
	for i, v := range in {
		out[i] = cloneVulnerability(v)
	}
	return out
}

func cloneEndpoints(in []EndpointHealth) []EndpointHealth {
	if in == nil {
		return nil
	}
	out := make([]EndpointHealth, len(in))
	for i, e := range in {
		e.Tags = slices.Clone(e.Tags)
		out[i] = e
	}
	return out
}

func cloneWorkflows(in []WorkflowRun) []WorkflowRun {
	if in == nil {
		return nil
	}
	out := make([]WorkflowRun, len(in))
	for i, w := range in {
		w.Checklist = slices.Clone(w.Checklist)
		out[i] = w
	}
	return out
}
