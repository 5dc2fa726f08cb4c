package dashboard

import (
	"slices"
	"strings"

	"github.com/exploopio/opsboard/pkg/catalog"
	"github.com/exploopio/opsboard/pkg/errors"
	"github.com/exploopio/opsboard/pkg/shared/severity"
)

// LevelFilter restricts the ticket list to one support level.
type LevelFilter string

const (
	LevelAll LevelFilter = "All"
	LevelOne LevelFilter = LevelFilter(catalog.Level1)
	LevelTwo LevelFilter = LevelFilter(catalog.Level2)
)

// LevelFilters returns the selectable level filters in display order.
func LevelFilters() []LevelFilter {
	return []LevelFilter{LevelAll, LevelOne, LevelTwo}
}

// Valid reports whether f is one of the selectable level filters.
func (f LevelFilter) Valid() bool {
	return f == LevelAll || f == LevelOne || f == LevelTwo
}

// Matches reports whether a ticket at level l passes the filter.
func (f LevelFilter) Matches(l catalog.SupportLevel) bool {
	return f == LevelAll || string(f) == string(l)
}

// Next returns the filter after f in display order, wrapping around.
func (f LevelFilter) Next() LevelFilter {
	return next(LevelFilters(), f)
}

// ParseLevelFilter converts user input such as "all", "level 2" or "1"
// into a LevelFilter.
func ParseLevelFilter(s string) (LevelFilter, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "all", "":
		return LevelAll, nil
	case "level 1", "level1", "l1", "1":
		return LevelOne, nil
	case "level 2", "level2", "l2", "2":
		return LevelTwo, nil
	}
	return "", errors.Errorf(errors.KindInvalidInput, "dashboard.ParseLevelFilter", "unknown level %q", s)
}

// PlatformFilter restricts the ticket list to a device family.
type PlatformFilter string

const (
	PlatformAll     PlatformFilter = "All"
	PlatformWindows PlatformFilter = PlatformFilter(catalog.PlatformWindows)
	PlatformMacOS   PlatformFilter = PlatformFilter(catalog.PlatformMacOS)
	PlatformNetwork PlatformFilter = PlatformFilter(catalog.PlatformNetwork)
)

// PlatformFilters returns the selectable platform filters in display order.
func PlatformFilters() []PlatformFilter {
	return []PlatformFilter{PlatformAll, PlatformWindows, PlatformMacOS, PlatformNetwork}
}

// Valid reports whether f is one of the selectable platform filters.
func (f PlatformFilter) Valid() bool {
	return slices.Contains(PlatformFilters(), f)
}

// Matches reports whether a ticket raised on platform p passes the filter.
// Matching is a case-insensitive substring test on the platform name.
func (f PlatformFilter) Matches(p catalog.Platform) bool {
	if f == PlatformAll {
		return true
	}
	return strings.Contains(strings.ToLower(string(p)), strings.ToLower(string(f)))
}

// Next returns the filter after f in display order, wrapping around.
func (f PlatformFilter) Next() PlatformFilter {
	return next(PlatformFilters(), f)
}

// ParsePlatformFilter converts user input such as "macos" into a
// PlatformFilter.
func ParsePlatformFilter(s string) (PlatformFilter, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return PlatformAll, nil
	}
	for _, f := range PlatformFilters() {
		if strings.EqualFold(string(f), v) {
			return f, nil
		}
	}
	return "", errors.Errorf(errors.KindInvalidInput, "dashboard.ParsePlatformFilter", "unknown platform %q", s)
}

// ParseSeverity converts user input into a severity level.
func ParseSeverity(s string) (severity.Level, error) {
	l, ok := severity.FromString(s)
	if !ok {
		return "", errors.Errorf(errors.KindInvalidInput, "dashboard.ParseSeverity", "unknown severity %q", s)
	}
	return l, nil
}

// SeveritySet is the ordered set of severities shown in the vulnerability
// list. Toggling appends newly added levels at the end; display order of
// the filtered list is always by rank regardless.
type SeveritySet []severity.Level

// AllSeverities returns a set holding every level in rank order.
func AllSeverities() SeveritySet {
	return SeveritySet(severity.All())
}

// Contains reports whether l is in the set.
func (s SeveritySet) Contains(l severity.Level) bool {
	return slices.Contains(s, l)
}

// Toggle returns a new set with l removed if present, or appended if not.
func (s SeveritySet) Toggle(l severity.Level) SeveritySet {
	if i := slices.Index(s, l); i >= 0 {
		return slices.Delete(slices.Clone(s), i, i+1)
	}
	return append(slices.Clone(s), l)
}

// Equal reports whether s and other hold the same levels, ignoring order.
func (s SeveritySet) Equal(other SeveritySet) bool {
	if len(s) != len(other) {
		return false
	}
	for _, l := range s {
		if !other.Contains(l) {
			return false
		}
	}
	return true
}

func next[T comparable](all []T, cur T) T {
	i := slices.Index(all, cur)
	return all[(i+1)%len(all)]
}
