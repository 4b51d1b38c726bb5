// Package insight provides the threshold rule table, per-family evaluation,
// and the severity-grouped report built from its findings.
package insight

import "github.com/blackwell-systems/siteinsight/internal/metrics"

// Kind classifies what an insight is telling the reader.
type Kind string

// Insight kinds.
const (
	KindPerformance    Kind = "performance"
	KindOptimization   Kind = "optimization"
	KindTrend          Kind = "trend"
	KindAlert          Kind = "alert"
	KindRecommendation Kind = "recommendation"
)

// Severity is a grouping tag. Severities are never compared numerically;
// Buckets fixes the order they appear in a report.
type Severity string

// Severity tags.
const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Buckets is the fixed report order of severities.
var Buckets = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// Insight is one finding emitted by a rule.
type Insight struct {
	Kind            Kind     `json:"kind"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Severity        Severity `json:"severity"`
	Recommendations []string `json:"recommendations"`
	Source          string   `json:"source"`
	Confidence      float64  `json:"confidence"`
}

// Predicate decides whether a rule fires for a snapshot.
type Predicate func(s metrics.Snapshot) bool

// Rule is one row of the threshold table.
type Rule struct {
	// Group makes rules mutually exclusive: within a family, only the first
	// firing rule of a non-empty group emits. Empty means independent.
	Group string

	// Metric names the field the rule reads, for display and auditing.
	Metric string

	When            Predicate
	Kind            Kind
	Severity        Severity
	Title           string
	Describe        func(s metrics.Snapshot) string
	Recommendations []string
	Source          string
	Confidence      float64
}

// emit builds the insight for a rule that fired. The recommendation list is
// copied so callers cannot alter the table.
func (r Rule) emit(s metrics.Snapshot) Insight {
	recs := make([]string, len(r.Recommendations))
	copy(recs, r.Recommendations)
	return Insight{
		Kind:            r.Kind,
		Title:           r.Title,
		Description:     r.Describe(s),
		Severity:        r.Severity,
		Recommendations: recs,
		Source:          r.Source,
		Confidence:      r.Confidence,
	}
}
