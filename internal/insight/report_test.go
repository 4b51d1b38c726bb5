package insight

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/siteinsight/internal/metrics"
)

func mk(title string, sev Severity, recs ...string) Insight {
	return Insight{Title: title, Description: title + " description", Severity: sev, Recommendations: recs}
}

func TestAggregate_Empty(t *testing.T) {
	r := Aggregate()
	assert.True(t, r.Empty())
	assert.Equal(t, EmptyReportText, Render(r))

	r = Aggregate(nil, []Insight{}, nil)
	assert.Equal(t, "No significant insights found in the current data.", Render(r))
}

func TestAggregate_BucketOrderAndTopRecommendations(t *testing.T) {
	a := mk("A", SeverityHigh, "a1", "a2")
	b := mk("B", SeverityLow, "b1")
	c := mk("C", SeverityHigh, "c1", "c2")
	d := mk("D", SeverityMedium, "d1", "d2")

	r := Aggregate([]Insight{a, b, c, d})

	assert.Empty(t, r.Critical)
	assert.Equal(t, []string{"A", "C"}, titles(r.High))
	assert.Equal(t, []string{"D"}, titles(r.Medium))
	assert.Equal(t, []string{"B"}, titles(r.Low))
	assert.Equal(t, []string{"a1", "a2", "c1", "c2", "d1"}, r.TopRecommendations)
	assert.Equal(t, []string{"A", "C", "D", "B"}, titles(r.Insights()))
}

func TestAggregate_HighPrecedesMediumAcrossLists(t *testing.T) {
	medium := mk("M", SeverityMedium, "m1")
	high := mk("H", SeverityHigh, "h1")
	r := Aggregate([]Insight{medium}, []Insight{high})
	assert.Equal(t, []string{"h1", "m1"}, r.TopRecommendations)
}

func TestAggregate_LowAndCriticalExcludedFromTopRecommendations(t *testing.T) {
	r := Aggregate([]Insight{
		mk("crit", SeverityCritical, "c1"),
		mk("low", SeverityLow, "l1"),
	})
	assert.Empty(t, r.TopRecommendations)
	assert.Equal(t, 2, r.Len())

	text := Render(r)
	assert.NotContains(t, text, "TOP RECOMMENDATIONS:")
	assert.Contains(t, text, "CRITICAL ISSUES:")
}

func TestAggregate_UnknownSeverityDropped(t *testing.T) {
	r := Aggregate([]Insight{mk("odd", Severity("urgent"))})
	assert.True(t, r.Empty())
}

func TestRender_SectionOrder(t *testing.T) {
	r := Aggregate([]Insight{
		mk("LowOne", SeverityLow),
		mk("MedOne", SeverityMedium, "m1"),
		mk("CritOne", SeverityCritical),
		mk("HighOne", SeverityHigh, "h1"),
	})
	text := Render(r)

	order := []string{
		"GOOGLE ANALYTICS INSIGHTS REPORT",
		"CRITICAL ISSUES:",
		"• CritOne",
		"HIGH PRIORITY ITEMS:",
		"• HighOne",
		"OPTIMIZATION OPPORTUNITIES:",
		"• MedOne",
		"POSITIVE INDICATORS:",
		"• LowOne",
		"TOP RECOMMENDATIONS:",
		"1. h1",
		"2. m1",
		"Next Steps:",
		"4. Run this analysis regularly to track improvements",
	}
	last := -1
	for _, want := range order {
		idx := strings.Index(text, want)
		require.GreaterOrEqualf(t, idx, 0, "missing %q in report:\n%s", want, text)
		assert.Greaterf(t, idx, last, "%q out of order", want)
		last = idx
	}
}

func TestRender_OmitsEmptySections(t *testing.T) {
	text := Render(Aggregate([]Insight{mk("Only", SeverityLow)}))
	assert.NotContains(t, text, "HIGH PRIORITY ITEMS:")
	assert.NotContains(t, text, "OPTIMIZATION OPPORTUNITIES:")
	assert.Contains(t, text, "POSITIVE INDICATORS:")
	assert.True(t, strings.HasSuffix(text, "4. Run this analysis regularly to track improvements"))
}

func TestEndToEnd_SixInsightScenario(t *testing.T) {
	s := metrics.NewSnapshot(map[string]any{
		"sessions":                 300,
		"bounce_rate":              75,
		"average_session_duration": 50,
		"pages_per_session":        2.5,
		"channels": map[string]any{
			"organic_search": 80,
			"direct":         10,
			"social":         5,
		},
	})

	r := Aggregate(EvaluateTraffic(s), EvaluateEngagement(s), EvaluateSources(s))

	require.Equal(t, 6, r.Len())
	assert.Equal(t, []string{"Low Traffic Volume", "High Bounce Rate"}, titles(r.High))
	assert.Equal(t, []string{
		"Short Session Duration",
		"High Dependency on Organic Search",
		"Low Brand Recognition",
	}, titles(r.Medium))
	assert.Equal(t, []string{"Social Media Growth Opportunity"}, titles(r.Low))

	require.Len(t, r.TopRecommendations, 5)
	assert.Equal(t, "Implement SEO optimization to improve organic search visibility", r.TopRecommendations[0])
	assert.Equal(t, "Improve page loading speed (target <3 seconds)", r.TopRecommendations[4])
}

func TestScore(t *testing.T) {
	tests := []struct {
		name       string
		traffic    map[string]any
		engagement map[string]any
		want       int
	}{
		{"best", map[string]any{"sessions": 5000}, map[string]any{"bounce_rate": 25, "average_session_duration": 320}, 100},
		{"middling", map[string]any{"sessions": 600}, map[string]any{"bounce_rate": 45, "average_session_duration": 200}, 75},
		{"weak", map[string]any{"sessions": 150}, map[string]any{"bounce_rate": 65, "average_session_duration": 130}, 50},
		{"worst", map[string]any{"sessions": 20}, map[string]any{"bounce_rate": 90, "average_session_duration": 30}, 25},
		{"missing bounce counts as worst", nil, map[string]any{"average_session_duration": 0}, 25},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(metrics.NewSnapshot(tc.traffic), metrics.NewSnapshot(tc.engagement))
			if got != tc.want {
				t.Errorf("Score() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestScoreInterpretation(t *testing.T) {
	assert.Contains(t, ScoreInterpretation(100), "Excellent")
	assert.Contains(t, ScoreInterpretation(60), "Good performance")
	assert.Contains(t, ScoreInterpretation(40), "Average")
	assert.Contains(t, ScoreInterpretation(39), "Poor")
}
