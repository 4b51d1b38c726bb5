package watcher

import (
	"fmt"
	"sort"
	"time"

	"github.com/blackwell-systems/siteinsight/internal/agent"
	"github.com/blackwell-systems/siteinsight/internal/insight"
)

// Change thresholds between consecutive runs.
const (
	ScoreChangeThreshold  = 10   // points
	BounceChangeThreshold = 10.0 // percentage points
	SessionDropRatio      = 0.25 // fraction of previous sessions
)

// Compare detects notable changes between two watch states and returns
// alerts, most severe first.
func Compare(prev, curr *WatchState) []Alert {
	var alerts []Alert

	alerts = append(alerts, compareCritical(prev, curr)...)
	alerts = append(alerts, compareWarning(prev, curr)...)
	alerts = append(alerts, compareInfo(prev, curr)...)

	return alerts
}

func isUrgent(s insight.Severity) bool {
	return s == insight.SeverityCritical || s == insight.SeverityHigh
}

// sortedTitles returns map keys in a stable order.
func sortedTitles(m map[string]insight.Severity) []string {
	titles := make([]string, 0, len(m))
	for t := range m {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	return titles
}

// compareCritical reports newly raised high and critical insights.
func compareCritical(prev, curr *WatchState) []Alert {
	var alerts []Alert
	now := time.Now()

	for _, title := range sortedTitles(curr.Insights) {
		sev := curr.Insights[title]
		if !isUrgent(sev) {
			continue
		}
		if before, ok := prev.Insights[title]; ok && isUrgent(before) {
			continue
		}
		alerts = append(alerts, Alert{
			Level:   "critical",
			Title:   fmt.Sprintf("New %s priority insight: %s", sev, title),
			Message: "Raised by the latest analysis",
			Time:    now,
		})
	}
	return alerts
}

// compareWarning reports score, traffic, and bounce regressions and newly
// failing families.
func compareWarning(prev, curr *WatchState) []Alert {
	var alerts []Alert
	now := time.Now()

	if prev.Scored && curr.Scored && prev.Score-curr.Score >= ScoreChangeThreshold {
		alerts = append(alerts, Alert{
			Level:   "warning",
			Title:   "Performance score dropped",
			Message: fmt.Sprintf("Score fell from %d to %d", prev.Score, curr.Score),
			Time:    now,
		})
	}

	if prev.hasTraffic && curr.hasTraffic && prev.Sessions > 0 &&
		(prev.Sessions-curr.Sessions)/prev.Sessions >= SessionDropRatio {
		alerts = append(alerts, Alert{
			Level:   "warning",
			Title:   "Sessions dropped",
			Message: fmt.Sprintf("Sessions fell from %.0f to %.0f", prev.Sessions, curr.Sessions),
			Time:    now,
		})
	}

	if prev.hasBounce && curr.hasBounce && curr.BounceRate-prev.BounceRate >= BounceChangeThreshold {
		alerts = append(alerts, Alert{
			Level:   "warning",
			Title:   "Bounce rate rising",
			Message: fmt.Sprintf("Bounce rate rose from %.1f%% to %.1f%%", prev.BounceRate, curr.BounceRate),
			Time:    now,
		})
	}
	return alerts
}

// compareInfo reports resolved insights, recovered families, and score
// improvements.
func compareInfo(prev, curr *WatchState) []Alert {
	var alerts []Alert
	now := time.Now()

	// An insight missing because its family failed is not a resolution.
	if len(curr.Failed) == 0 {
		for _, title := range sortedTitles(prev.Insights) {
			if _, still := curr.Insights[title]; still {
				continue
			}
			alerts = append(alerts, Alert{
				Level:   "info",
				Title:   fmt.Sprintf("Resolved: %s", title),
				Message: "No longer raised by the latest analysis",
				Time:    now,
			})
		}
	}

	for _, f := range agent.AnalysisFamilies {
		if _, was := prev.Failed[f]; !was {
			continue
		}
		if _, still := curr.Failed[f]; still {
			continue
		}
		alerts = append(alerts, Alert{
			Level:   "info",
			Title:   fmt.Sprintf("%s recovered", f),
			Message: fmt.Sprintf("%s metrics are available again", f),
			Time:    now,
		})
	}

	if prev.Scored && curr.Scored && curr.Score-prev.Score >= ScoreChangeThreshold {
		alerts = append(alerts, Alert{
			Level:   "info",
			Title:   "Performance score improved",
			Message: fmt.Sprintf("Score rose from %d to %d", prev.Score, curr.Score),
			Time:    now,
		})
	}
	return alerts
}
