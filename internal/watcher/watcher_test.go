package watcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/siteinsight/internal/agent"
	"github.com/blackwell-systems/siteinsight/internal/insight"
	"github.com/blackwell-systems/siteinsight/internal/metrics"
	"github.com/blackwell-systems/siteinsight/internal/source"
)

// scripted returns its results in order, repeating the last one.
type scripted struct {
	results []agent.Result
	calls   int
}

func (s *scripted) Analyze(context.Context, *metrics.DateRange) agent.Result {
	i := s.calls
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	s.calls++
	return s.results[i]
}

func result(score int, bounce float64, ins ...insight.Insight) agent.Result {
	return agent.Result{
		Report: insight.Aggregate(ins),
		Snapshots: map[metrics.Family]metrics.Snapshot{
			metrics.FamilyTraffic:    metrics.NewSnapshot(map[string]any{"sessions": 1000.0}),
			metrics.FamilyEngagement: metrics.NewSnapshot(map[string]any{"bounce_rate": bounce}),
		},
		Score:  score,
		Scored: true,
		RanAt:  time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}
}

func withFailure(r agent.Result, f metrics.Family) agent.Result {
	delete(r.Snapshots, f)
	r.Failures = append(r.Failures, agent.FamilyFailure{Family: f, Kind: source.KindConnection, Err: errors.New("refused")})
	r.Scored = false
	return r
}

var highBounce = insight.Insight{Title: "High Bounce Rate", Severity: insight.SeverityHigh}
var socialGrowth = insight.Insight{Title: "Social Media Growth Opportunity", Severity: insight.SeverityLow}

func levels(alerts []Alert) []string {
	out := make([]string, len(alerts))
	for i, a := range alerts {
		out[i] = a.Level + ":" + a.Title
	}
	return out
}

func TestStateFromResult(t *testing.T) {
	r := withFailure(result(75, 42, highBounce), metrics.FamilySources)
	s := StateFromResult(r)

	assert.Equal(t, 75, s.Score)
	assert.Equal(t, insight.SeverityHigh, s.Insights["High Bounce Rate"])
	assert.Equal(t, "connection", s.Failed[metrics.FamilySources])
	assert.Equal(t, 1000.0, s.Sessions)
	assert.Equal(t, 42.0, s.BounceRate)
}

func TestCompare_NewHighInsight(t *testing.T) {
	prev := StateFromResult(result(75, 40, socialGrowth))
	curr := StateFromResult(result(75, 40, socialGrowth, highBounce))

	assert.Equal(t, []string{"critical:New high priority insight: High Bounce Rate"}, levels(Compare(prev, curr)))
}

func TestCompare_ExistingHighInsightNotRepeated(t *testing.T) {
	prev := StateFromResult(result(75, 40, highBounce))
	curr := StateFromResult(result(75, 40, highBounce))
	assert.Empty(t, Compare(prev, curr))
}

func TestCompare_LowInsightIsNotCritical(t *testing.T) {
	prev := StateFromResult(result(75, 40))
	curr := StateFromResult(result(75, 40, socialGrowth))
	assert.Empty(t, Compare(prev, curr))
}

func TestCompare_Regressions(t *testing.T) {
	prev := StateFromResult(result(100, 30))
	currRes := result(75, 45)
	currRes.Snapshots[metrics.FamilyTraffic] = metrics.NewSnapshot(map[string]any{"sessions": 500.0})
	curr := StateFromResult(currRes)

	assert.Equal(t, []string{
		"warning:Performance score dropped",
		"warning:Sessions dropped",
		"warning:Bounce rate rising",
	}, levels(Compare(prev, curr)))
}

func TestCompare_ResolvedAndImproved(t *testing.T) {
	prev := StateFromResult(result(50, 60, highBounce))
	curr := StateFromResult(result(75, 40))

	assert.Equal(t, []string{
		"info:Resolved: High Bounce Rate",
		"info:Performance score improved",
	}, levels(Compare(prev, curr)))
}

func TestCompare_NoResolutionWhileFamilyFailing(t *testing.T) {
	prev := StateFromResult(result(50, 60, highBounce))
	curr := StateFromResult(withFailure(result(50, 60), metrics.FamilyEngagement))

	for _, a := range Compare(prev, curr) {
		assert.NotContains(t, a.Title, "Resolved")
	}
}

func TestCompare_Recovered(t *testing.T) {
	prev := StateFromResult(withFailure(result(75, 40), metrics.FamilySources))
	curr := StateFromResult(result(75, 40))

	assert.Equal(t, []string{"info:traffic_sources recovered"}, levels(Compare(prev, curr)))
}

func TestCheck_DedupsRepeatedAlerts(t *testing.T) {
	failing := withFailure(result(75, 40), metrics.FamilySources)
	a := &scripted{results: []agent.Result{result(75, 40), failing, failing, result(75, 40)}}
	w := New(a, time.Hour, nil)
	w.previous = w.snapshot(context.Background())

	first := w.Check(context.Background())
	assert.Equal(t, []string{"warning:traffic_sources unavailable"}, levels(first))

	second := w.Check(context.Background())
	assert.Empty(t, second, "identical alert should be suppressed")

	third := w.Check(context.Background())
	assert.Equal(t, []string{"info:traffic_sources recovered"}, levels(third))
}

func TestCheck_BaselineOutageNotRepeated(t *testing.T) {
	failing := withFailure(result(75, 40), metrics.FamilySources)
	a := &scripted{results: []agent.Result{failing, failing, result(75, 40)}}
	w := New(a, time.Hour, nil)

	base := w.baseline(context.Background())
	assert.Equal(t, []string{"warning:traffic_sources unavailable"}, levels(base))

	assert.Empty(t, w.Check(context.Background()), "outage reported at baseline should not fire again")
	assert.Equal(t, []string{"info:traffic_sources recovered"}, levels(w.Check(context.Background())))
}

func TestCheck_OnRunSeesEveryAnalysis(t *testing.T) {
	a := &scripted{results: []agent.Result{result(75, 40)}}
	w := New(a, time.Hour, nil)
	var runs int
	w.OnRun = func(agent.Result) { runs++ }

	w.previous = w.snapshot(context.Background())
	w.Check(context.Background())
	w.Check(context.Background())
	assert.Equal(t, 3, runs)
}

func TestRun_StopsOnCancel(t *testing.T) {
	a := &scripted{results: []agent.Result{withFailure(result(75, 40), metrics.FamilyTraffic)}}
	w := New(a, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_BaselineReportsFailures(t *testing.T) {
	a := &scripted{results: []agent.Result{withFailure(result(75, 40), metrics.FamilyTraffic)}}
	got := make(chan Alert, 4)
	w := New(a, time.Hour, func(al Alert) { got <- al })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	select {
	case al := <-got:
		assert.Equal(t, "traffic unavailable", al.Title)
	case <-time.After(2 * time.Second):
		t.Fatal("no baseline alert")
	}
}
