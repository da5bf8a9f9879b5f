// Package filter describes the dashboard selection: an inclusive order date
// range plus region, state and city membership lists.
package filter

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// Filter is the user's selection. An empty list means "no constraint" for
// that level; non-empty lists combine with AND.
type Filter struct {
	Start   time.Time
	End     time.Time
	Regions []string
	States  []string
	Cities  []string
}

// Options are the values a user may pick at each level of the location
// cascade. States only come from the selected regions and cities only from
// the selected states.
type Options struct {
	Regions []string `json:"regions"`
	States  []string `json:"states"`
	Cities  []string `json:"cities"`
}

// HasLocation reports whether any location list is set.
func (f Filter) HasLocation() bool {
	return len(f.Regions) > 0 || len(f.States) > 0 || len(f.Cities) > 0
}

// DateOnly drops the location lists.
func (f Filter) DateOnly() Filter {
	return Filter{Start: f.Start, End: f.End}
}

// Upto returns the filter restricted to the cascade levels above level:
// 0 keeps only dates, 1 adds regions, 2 adds states, 3 is the full filter.
func (f Filter) Upto(level int) Filter {
	out := f.DateOnly()
	if level >= 1 {
		out.Regions = f.Regions
	}
	if level >= 2 {
		out.States = f.States
	}
	if level >= 3 {
		out.Cities = f.Cities
	}
	return out
}

// WithBounds fills zero dates with the dataset bounds.
func (f Filter) WithBounds(min, max time.Time) Filter {
	if f.Start.IsZero() {
		f.Start = min
	}
	if f.End.IsZero() {
		f.End = max
	}
	return f
}

// Empty reports whether the date range can match nothing.
func (f Filter) Empty() bool {
	return !f.Start.IsZero() && !f.End.IsZero() && f.Start.After(f.End)
}

// Prune drops selections that are not available in opts, so a city picked
// before its state was deselected stops constraining the result.
func (f Filter) Prune(opts Options) Filter {
	for level := 1; level <= 3; level++ {
		f = f.PruneLevel(level, opts)
	}
	return f
}

// PruneLevel prunes a single cascade level (1 regions, 2 states, 3 cities).
func (f Filter) PruneLevel(level int, opts Options) Filter {
	switch level {
	case 1:
		f.Regions = keep(f.Regions, opts.Regions)
	case 2:
		f.States = keep(f.States, opts.States)
	case 3:
		f.Cities = keep(f.Cities, opts.Cities)
	}
	return f
}

func keep(selected, allowed []string) []string {
	if len(selected) == 0 {
		return nil
	}
	out := make([]string, 0, len(selected))
	for _, s := range selected {
		if slices.Contains(allowed, s) && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Query encodes the filter as URL parameters understood by FromQuery.
func (f Filter) Query() url.Values {
	q := url.Values{}
	if !f.Start.IsZero() {
		q.Set("start", f.Start.Format(DateLayout))
	}
	if !f.End.IsZero() {
		q.Set("end", f.End.Format(DateLayout))
	}
	for _, r := range f.Regions {
		q.Add("region", r)
	}
	for _, s := range f.States {
		q.Add("state", s)
	}
	for _, c := range f.Cities {
		q.Add("city", c)
	}
	return q
}

// FromQuery parses start/end (YYYY-MM-DD) and repeated region/state/city
// parameters. Each parameter value is one name, commas included.
func FromQuery(q url.Values) (Filter, error) {
	var f Filter
	var err error
	if f.Start, err = parseDay(q.Get("start")); err != nil {
		return Filter{}, fmt.Errorf("start: %w", err)
	}
	if f.End, err = parseDay(q.Get("end")); err != nil {
		return Filter{}, fmt.Errorf("end: %w", err)
	}
	f.Regions = cleanList(q["region"])
	f.States = cleanList(q["state"])
	f.Cities = cleanList(q["city"])
	return f, nil
}

// Parse builds a filter from CLI style inputs. The lists arrive already
// split by the flag parser, which honours quoted names such as
// "Washington, D.C.".
func Parse(start, end string, regions, states, cities []string) (Filter, error) {
	q := url.Values{"start": {start}, "end": {end}, "region": regions, "state": states, "city": cities}
	return FromQuery(q)
}

func parseDay(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("want YYYY-MM-DD, got %q", v)
	}
	return t, nil
}

// cleanList trims names and drops blanks and repeats.
func cleanList(vals []string) []string {
	var out []string
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
