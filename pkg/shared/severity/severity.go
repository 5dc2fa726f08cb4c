// Package severity provides the severity levels used to rank vulnerability
// records on the dashboard.
//
// The rank order is fixed: Critical sorts first, Low sorts last. Filtering and
// sorting of vulnerability lists both go through this package so the order is
// defined in exactly one place.
package severity

import "strings"

// Level represents a vulnerability severity.
type Level string

const (
	// Critical - Immediate action required. Actively exploited or trivially exploitable.
	Critical Level = "Critical"

	// High - Serious vulnerability that should be addressed urgently.
	High Level = "High"

	// Medium - Moderate risk, should be addressed in the normal patch cycle.
	Medium Level = "Medium"

	// Low - Minor issue, address when convenient.
	Low Level = "Low"
)

// order lists the levels by rank. Index == rank.
var order = [...]Level{Critical, High, Medium, Low}

// All returns every severity level in rank order (Critical first).
func All() []Level {
	return []Level{Critical, High, Medium, Low}
}

// String returns the string representation of the severity level.
func (l Level) String() string {
	return string(l)
}

// Valid reports whether l is one of the four known levels.
func (l Level) Valid() bool {
	return l.Rank() < len(order)
}

// Rank returns the sort position of the level: Critical=0, High=1,
// Medium=2, Low=3. Unknown levels rank after Low.
func (l Level) Rank() int {
	for i, level := range order {
		if level == l {
			return i
		}
	}
	return len(order)
}

// IsHigherThan returns true if this severity is more severe than the other.
func (l Level) IsHigherThan(other Level) bool {
	return l.Rank() < other.Rank()
}

// IsAtLeast returns true if this severity is at least as severe as the other.
func (l Level) IsAtLeast(other Level) bool {
	return l.Rank() <= other.Rank()
}

// Compare orders two levels by rank, suitable for slices.SortStableFunc:
//
//	-1 if a sorts before b (a is more severe)
//	 0 if a == b
//	+1 if a sorts after b
func Compare(a, b Level) int {
	ra, rb := a.Rank(), b.Rank()
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	default:
		return 0
	}
}

// FromString normalizes various severity spellings to a Level.
// Accepts the canonical names in any case plus the aliases scanners and
// ticketing systems commonly emit. The second return value is false when
// the input is not recognised.
func FromString(s string) (Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CRITICAL", "CRIT":
		return Critical, true
	case "HIGH", "SEVERE", "IMPORTANT":
		return High, true
	case "MEDIUM", "MODERATE", "MED":
		return Medium, true
	case "LOW", "MINOR":
		return Low, true
	default:
		return "", false
	}
}

// FromCVSS converts a CVSS score (0.0-10.0) to a severity level.
// Based on CVSS v3.0 severity ratings:
//   - 9.0-10.0: Critical
//   - 7.0-8.9: High
//   - 4.0-6.9: Medium
//   - below 4.0: Low
func FromCVSS(score float64) Level {
	switch {
	case score >= 9.0:
		return Critical
	case score >= 7.0:
		return High
	case score >= 4.0:
		return Medium
	default:
		return Low
	}
}

// CountBySeverity counts records by severity level.
type CountBySeverity struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Total    int `json:"total"`
}

// Increment increases the count for the given severity. Unknown levels only
// count towards Total.
func (c *CountBySeverity) Increment(level Level) {
	c.Total++
	switch level {
	case Critical:
		c.Critical++
	case High:
		c.High++
	case Medium:
		c.Medium++
	case Low:
		c.Low++
	}
}

// Get returns the count recorded for a level.
func (c CountBySeverity) Get(level Level) int {
	switch level {
	case Critical:
		return c.Critical
	case High:
		return c.High
	case Medium:
		return c.Medium
	case Low:
		return c.Low
	default:
		return 0
	}
}

// HighestSeverity returns the most severe level with a non-zero count.
// The second return value is false when nothing has been counted.
func (c CountBySeverity) HighestSeverity() (Level, bool) {
	for _, level := range order {
		if c.Get(level) > 0 {
			return level, true
		}
	}
	return "", false
}
