// Package fingerprint derives stable content hashes for dashboard records
// and view state. The HTTP API serves them as entity tags so clients can
// poll the view with conditional requests.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/exploopio/opsboard/pkg/catalog"
)

// Type represents the kind of state being fingerprinted.
type Type string

const (
	// TypeTicket covers the mutable fields of a support ticket.
	TypeTicket Type = "ticket"

	// TypeViewState covers the controller state and the tickets it shows.
	TypeViewState Type = "view"

	// TypeGeneric is for input that fits neither of the above.
	TypeGeneric Type = "generic"
)

// Input contains the data needed to generate a fingerprint.
// Only the fields relevant to the type are read.
type Input struct {
	Type Type

	// Ticket fields
	ID         string
	Level      string
	Status     string
	AssignedTo string
	Playbook   string
	UpdatedAt  time.Time

	// View state fields
	LevelFilter         string
	PlatformFilter      string
	Severities          []string // order does not matter
	ActiveVulnerability string

	// Parts are fingerprints of the records covered by a view, in display
	// order.
	Parts []string
}

// Generate creates a fingerprint for the given input.
// The fingerprint is a SHA256 hash (64 hex characters).
//
//   - Ticket: id + level + status + assignee + playbook + update time
//   - View: filters + severity set + active record + ticket fingerprints
//   - Generic: id + parts
func Generate(input Input) string {
	var data string

	switch input.Type {
	case TypeTicket:
		data = fmt.Sprintf("ticket:%s:%s:%s:%s:%s:%d",
			normalize(input.ID),
			normalize(input.Level),
			normalize(input.Status),
			normalize(input.AssignedTo),
			normalize(input.Playbook),
			input.UpdatedAt.UnixNano(),
		)

	case TypeViewState:
		severities := make([]string, len(input.Severities))
		for i, s := range input.Severities {
			severities[i] = normalize(s)
		}
		slices.Sort(severities)
		data = fmt.Sprintf("view:%s:%s:%s:%s:%s",
			normalize(input.LevelFilter),
			normalize(input.PlatformFilter),
			strings.Join(severities, ","),
			normalize(input.ActiveVulnerability),
			strings.Join(input.Parts, ","),
		)

	default:
		data = fmt.Sprintf("generic:%s:%s",
			normalize(input.ID),
			strings.Join(input.Parts, ","),
		)
	}

	return Hash(data)
}

// GenerateTicket fingerprints the fields the dashboard can change on t.
func GenerateTicket(t catalog.SupportTicket) string {
	return Generate(Input{
		Type:       TypeTicket,
		ID:         t.ID,
		Level:      string(t.Level),
		Status:     string(t.Status),
		AssignedTo: t.AssignedTo,
		Playbook:   t.AutomationPlaybook,
		UpdatedAt:  t.UpdatedAt,
	})
}

// Hash computes SHA256 hash of the input string.
// Returns 64 hex characters.
func Hash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// Short returns the first 16 characters of a fingerprint.
func Short(fp string) string {
	if len(fp) <= 16 {
		return fp
	}
	return fp[:16]
}

// normalize cleans up a string for consistent fingerprinting.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DetectType attempts to detect the type from available data.
func DetectType(input Input) Type {
	if input.LevelFilter != "" || input.PlatformFilter != "" {
		return TypeViewState
	}
	if input.ID != "" && input.Status != "" {
		return TypeTicket
	}
	return TypeGeneric
}

// GenerateAuto detects the type when it is not set and generates a
// fingerprint.
func GenerateAuto(input Input) string {
	if input.Type == "" {
		input.Type = DetectType(input)
	}
	return Generate(input)
}
