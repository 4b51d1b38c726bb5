// Package metrics defines metric families, fetch selectors, and the immutable
// snapshot type that carries one family's values through an analysis run.
package metrics

import (
	"fmt"
	"time"
)

// Family names a group of related metrics fetched together.
type Family string

// Known metric families.
const (
	FamilyTraffic      Family = "traffic"
	FamilyEngagement   Family = "engagement"
	FamilySources      Family = "traffic_sources"
	FamilyTopPages     Family = "top_pages"
	FamilyDemographics Family = "demographics"
)

// Families lists every family in canonical order.
var Families = []Family{
	FamilyTraffic,
	FamilyEngagement,
	FamilySources,
	FamilyTopPages,
	FamilyDemographics,
}

// toolNames maps each family to the tool that serves it.
var toolNames = map[Family]string{
	FamilyTraffic:      "get_traffic_metrics",
	FamilyEngagement:   "get_engagement_metrics",
	FamilySources:      "get_traffic_sources",
	FamilyTopPages:     "get_top_pages",
	FamilyDemographics: "get_demographic_data",
}

// ToolName returns the tool name that serves f, or "" for an unknown family.
func (f Family) ToolName() string {
	return toolNames[f]
}

// TimeBounded reports whether the family accepts a date range.
func (f Family) TimeBounded() bool {
	return f == FamilyTraffic || f == FamilyEngagement
}

// Valid reports whether f is a known family.
func (f Family) Valid() bool {
	_, ok := toolNames[f]
	return ok
}

// ParseFamily resolves a family name. Tool names are accepted as aliases.
func ParseFamily(name string) (Family, error) {
	if f := Family(name); f.Valid() {
		return f, nil
	}
	for f, tool := range toolNames {
		if tool == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown metric family %q", name)
}

// DateLayout is the wire format for date range bounds.
const DateLayout = "2006-01-02"

// DefaultWindowDays is the length of the default analysis window.
const DefaultWindowDays = 30

// DateRange is an inclusive pair of YYYY-MM-DD dates.
type DateRange struct {
	Start string `json:"start_date"`
	End   string `json:"end_date"`
}

// DefaultRange returns the window of days ending on now's date.
func DefaultRange(now time.Time, days int) DateRange {
	if days <= 0 {
		days = DefaultWindowDays
	}
	return DateRange{
		Start: now.AddDate(0, 0, -days).Format(DateLayout),
		End:   now.Format(DateLayout),
	}
}

// Validate checks that both bounds parse and Start is not after End.
func (r DateRange) Validate() error {
	start, err := time.Parse(DateLayout, r.Start)
	if err != nil {
		return fmt.Errorf("invalid start_date %q: %w", r.Start, err)
	}
	end, err := time.Parse(DateLayout, r.End)
	if err != nil {
		return fmt.Errorf("invalid end_date %q: %w", r.End, err)
	}
	if start.After(end) {
		return fmt.Errorf("start_date %s is after end_date %s", r.Start, r.End)
	}
	return nil
}

// Selector identifies what a MetricsSource should fetch.
type Selector struct {
	Family Family
	// Range bounds time-bounded families. Nil means the default window,
	// computed when the fetch is made.
	Range *DateRange
	// Limit caps list-shaped families such as top pages. Zero means the
	// server default.
	Limit int
}

// Params builds the tool parameter object for the selector. now supplies the
// default window for time-bounded families.
func (s Selector) Params(now time.Time) map[string]any {
	params := map[string]any{}
	if s.Family.TimeBounded() {
		r := DefaultRange(now, DefaultWindowDays)
		if s.Range != nil {
			r = *s.Range
		}
		params["start_date"] = r.Start
		params["end_date"] = r.End
	}
	if s.Family == FamilyTopPages && s.Limit > 0 {
		params["limit"] = s.Limit
	}
	return params
}
