// Package query implements the record filtering pipeline: a pure
// function of (record set, filter) with no side effects, cheap enough
// to recompute on every evaluation.
package query

import (
	"strings"

	"tally/internal/core"
)

// All matches every kind or category.
const All = "all"

// DateRange is an inclusive calendar-day range. A zero bound is open.
// Because record dates carry no time component, an end bound is
// end-of-day inclusive by construction.
type DateRange struct {
	Start core.Date `json:"start"`
	End   core.Date `json:"end"`
}

// IsZero reports whether both bounds are open.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Contains reports whether d falls inside the range.
func (r DateRange) Contains(d core.Date) bool {
	if !r.Start.IsZero() && d.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && d.After(r.End) {
		return false
	}
	return true
}

// Filter describes which records to keep. The Quick tag is a
// derived convenience over Range: selecting a non-custom tag recomputes
// the bounds, and editing the bounds directly forces the tag back to
// custom.
type Filter struct {
	Kind     string     `json:"type"`
	Category string     `json:"category"`
	Search   string     `json:"search"`
	Range    DateRange  `json:"dateRange"`
	Quick    QuickRange `json:"quickDate"`
}

// Default returns the filter that matches everything.
func Default() Filter {
	return Filter{
		Kind:     All,
		Category: All,
		Search:   "",
		Range:    DateRange{},
		Quick:    QuickCustom,
	}
}

// Reset clears every field back to defaults.
func (f Filter) Reset() Filter {
	return Default()
}

// WithQuick selects a named quick range, recomputing Start/End from
// today so the tag and the bounds stay consistent.
func (f Filter) WithQuick(q QuickRange, today core.Date, weekStart Weekday) Filter {
	f.Quick = q
	if r, ok := Resolve(q, today, weekStart); ok {
		f.Range = r
	}
	return f
}

// WithRange sets explicit bounds and forces the quick tag to custom.
func (f Filter) WithRange(r DateRange) Filter {
	f.Range = r
	f.Quick = QuickCustom
	return f
}

// Match evaluates the predicates against one record, short-circuiting
// on the first failure. The order only affects performance, never the
// result set.
func (f Filter) Match(r core.Record) bool {
	if f.Kind != "" && f.Kind != All && string(r.Kind) != f.Kind {
		return false
	}
	if f.Category != "" && f.Category != All && r.Category != f.Category {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(r.Note), strings.ToLower(f.Search)) {
		return false
	}
	return f.Range.Contains(r.Date)
}

// Apply returns the records matching the filter, preserving input
// order.
func Apply(records []core.Record, f Filter) []core.Record {
	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
