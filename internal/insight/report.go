package insight

import (
	"fmt"
	"strings"
)

// EmptyReportText is rendered when no rule fired.
const EmptyReportText = "No significant insights found in the current data."

// TopRecommendationLimit caps the top recommendations slice.
const TopRecommendationLimit = 5

// NextSteps is the fixed report footer.
var NextSteps = []string{
	"Address critical and high priority issues first",
	"Implement quick wins from medium priority optimizations",
	"Monitor the impact of changes over 2-4 weeks",
	"Run this analysis regularly to track improvements",
}

// sectionTitles maps each bucket to its report heading.
var sectionTitles = map[Severity]string{
	SeverityCritical: "CRITICAL ISSUES:",
	SeverityHigh:     "HIGH PRIORITY ITEMS:",
	SeverityMedium:   "OPTIMIZATION OPPORTUNITIES:",
	SeverityLow:      "POSITIVE INDICATORS:",
}

// Report groups insights by severity bucket.
type Report struct {
	Critical           []Insight `json:"critical"`
	High               []Insight `json:"high"`
	Medium             []Insight `json:"medium"`
	Low                []Insight `json:"low"`
	TopRecommendations []string  `json:"top_recommendations"`
}

// Aggregate concatenates the insight lists in argument order and groups them
// by severity. Arrival order is kept within each bucket. Insights with an
// unrecognised severity are dropped.
func Aggregate(lists ...[]Insight) Report {
	var r Report
	for _, list := range lists {
		for _, in := range list {
			switch in.Severity {
			case SeverityCritical:
				r.Critical = append(r.Critical, in)
			case SeverityHigh:
				r.High = append(r.High, in)
			case SeverityMedium:
				r.Medium = append(r.Medium, in)
			case SeverityLow:
				r.Low = append(r.Low, in)
			}
		}
	}

	for _, in := range append(append([]Insight{}, r.High...), r.Medium...) {
		for _, rec := range in.Recommendations {
			if len(r.TopRecommendations) == TopRecommendationLimit {
				break
			}
			r.TopRecommendations = append(r.TopRecommendations, rec)
		}
	}
	return r
}

// Bucket returns the insights in the given severity bucket.
func (r Report) Bucket(s Severity) []Insight {
	switch s {
	case SeverityCritical:
		return r.Critical
	case SeverityHigh:
		return r.High
	case SeverityMedium:
		return r.Medium
	case SeverityLow:
		return r.Low
	}
	return nil
}

// Insights returns every insight in bucket order.
func (r Report) Insights() []Insight {
	all := make([]Insight, 0, r.Len())
	for _, s := range Buckets {
		all = append(all, r.Bucket(s)...)
	}
	return all
}

// Len is the total number of insights.
func (r Report) Len() int {
	return len(r.Critical) + len(r.High) + len(r.Medium) + len(r.Low)
}

// Empty reports whether no insights were collected.
func (r Report) Empty() bool {
	return r.Len() == 0
}

// Render formats the report as plain text.
func Render(r Report) string {
	if r.Empty() {
		return EmptyReportText
	}

	lines := []string{"GOOGLE ANALYTICS INSIGHTS REPORT", strings.Repeat("=", 50), ""}

	for _, s := range Buckets {
		bucket := r.Bucket(s)
		if len(bucket) == 0 {
			continue
		}
		lines = append(lines, sectionTitles[s], "")
		for _, in := range bucket {
			lines = append(lines, "• "+in.Title, "  "+in.Description, "")
		}
	}

	if len(r.TopRecommendations) > 0 {
		lines = append(lines, "TOP RECOMMENDATIONS:", "")
		for i, rec := range r.TopRecommendations {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, rec))
		}
		lines = append(lines, "")
	}

	lines = append(lines, "Next Steps:")
	for i, step := range NextSteps {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, step))
	}

	return strings.Join(lines, "\n")
}
