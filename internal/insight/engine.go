package insight

import "github.com/blackwell-systems/siteinsight/internal/metrics"

// Engine evaluates per-family rule tables against snapshots.
type Engine struct {
	rules map[metrics.Family][]Rule
}

// NewEngine creates an engine with the built-in rule tables registered.
func NewEngine() *Engine {
	return &Engine{
		rules: map[metrics.Family][]Rule{
			metrics.FamilyTraffic:    TrafficRules,
			metrics.FamilyEngagement: EngagementRules,
			metrics.FamilySources:    SourceRules,
		},
	}
}

// Rules returns the rule table registered for f.
func (e *Engine) Rules(f metrics.Family) []Rule {
	return e.rules[f]
}

// Evaluate applies the rule table for f to s. Families without rules yield
// nil.
func (e *Engine) Evaluate(f metrics.Family, s metrics.Snapshot) []Insight {
	return Apply(e.rules[f], s)
}

// Apply runs rules in order and returns the insights that fired, in rule
// order. Within a group only the first firing rule emits.
func Apply(rules []Rule, s metrics.Snapshot) []Insight {
	var insights []Insight
	fired := make(map[string]bool)
	for _, r := range rules {
		if r.Group != "" && fired[r.Group] {
			continue
		}
		if !r.When(s) {
			continue
		}
		if r.Group != "" {
			fired[r.Group] = true
		}
		insights = append(insights, r.emit(s))
	}
	return insights
}

// EvaluateTraffic applies the traffic rule table.
func EvaluateTraffic(s metrics.Snapshot) []Insight {
	return Apply(TrafficRules, s)
}

// EvaluateEngagement applies the engagement rule table.
func EvaluateEngagement(s metrics.Snapshot) []Insight {
	return Apply(EngagementRules, s)
}

// EvaluateSources applies the traffic source rule table.
func EvaluateSources(s metrics.Snapshot) []Insight {
	return Apply(SourceRules, s)
}
