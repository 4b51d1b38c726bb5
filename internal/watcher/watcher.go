// Package watcher re-runs the site analysis on an interval and emits alerts
// when the picture changes between runs.
package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/blackwell-systems/siteinsight/internal/agent"
	"github.com/blackwell-systems/siteinsight/internal/insight"
	"github.com/blackwell-systems/siteinsight/internal/metrics"
)

// Analyzer runs one analysis. *agent.Agent satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, dr *metrics.DateRange) agent.Result
}

// WatchState captures what one analysis run found.
type WatchState struct {
	Timestamp  time.Time
	Score      int
	Scored     bool
	Insights   map[string]insight.Severity // title -> severity
	Failed     map[metrics.Family]string   // family -> failure kind
	Sessions   float64
	BounceRate float64
	hasTraffic bool
	hasBounce  bool
}

// Alert represents a notable event detected by the watcher.
type Alert struct {
	Level   string // "info", "warning", "critical"
	Title   string
	Message string
	Time    time.Time
}

// Watcher re-analyzes at a regular interval and emits alerts when notable
// changes are detected.
type Watcher struct {
	analyzer      Analyzer
	interval      time.Duration
	previous      *WatchState
	alertFn       func(Alert)        // callback for emitting alerts
	lastAlertKeys map[string]bool    // dedup: suppress repeated identical alerts
	OnRun         func(agent.Result) // called after every analysis, including the first
}

// New creates a Watcher over analyzer.
func New(analyzer Analyzer, interval time.Duration, alertFn func(Alert)) *Watcher {
	return &Watcher{
		analyzer:      analyzer,
		interval:      interval,
		alertFn:       alertFn,
		lastAlertKeys: make(map[string]bool),
	}
}

// Run takes an initial baseline, then checks at every interval. Blocks
// until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	for _, a := range w.baseline(ctx) {
		w.emit(a)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, a := range w.Check(ctx) {
				w.emit(a)
			}
		}
	}
}

func (w *Watcher) emit(a Alert) {
	if w.alertFn != nil {
		w.alertFn(a)
	}
}

// baseline records the first run and returns its failure alerts. Their keys
// seed the dedup set so an outage already reported is not repeated by the
// next Check.
func (w *Watcher) baseline(ctx context.Context) []Alert {
	w.previous = w.snapshot(ctx)
	alerts := failureAlerts(w.previous)
	w.lastAlertKeys = make(map[string]bool, len(alerts))
	for _, a := range alerts {
		w.lastAlertKeys[alertKey(a)] = true
	}
	return alerts
}

func alertKey(a Alert) string {
	return a.Level + ":" + a.Title + ":" + a.Message
}

// Check runs one analysis, compares it with the previous run, and returns
// new alerts. Identical alerts are suppressed until the underlying data
// changes.
func (w *Watcher) Check(ctx context.Context) []Alert {
	curr := w.snapshot(ctx)

	var raw []Alert
	if w.previous != nil {
		raw = Compare(w.previous, curr)
	}
	raw = append(raw, failureAlerts(curr)...)

	currentKeys := make(map[string]bool, len(raw))
	var alerts []Alert
	for _, a := range raw {
		key := alertKey(a)
		currentKeys[key] = true
		if !w.lastAlertKeys[key] {
			alerts = append(alerts, a)
		}
	}
	w.lastAlertKeys = currentKeys

	w.previous = curr
	return alerts
}

// snapshot runs the analyzer and reduces the result to a WatchState.
func (w *Watcher) snapshot(ctx context.Context) *WatchState {
	res := w.analyzer.Analyze(ctx, nil)
	if w.OnRun != nil {
		w.OnRun(res)
	}
	return StateFromResult(res)
}

// StateFromResult reduces an analysis result to the fields the watcher
// compares.
func StateFromResult(res agent.Result) *WatchState {
	state := &WatchState{
		Timestamp: res.RanAt,
		Score:     res.Score,
		Scored:    res.Scored,
		Insights:  make(map[string]insight.Severity, res.Report.Len()),
		Failed:    make(map[metrics.Family]string, len(res.Failures)),
	}
	for _, in := range res.Report.Insights() {
		state.Insights[in.Title] = in.Severity
	}
	for _, f := range res.Failures {
		state.Failed[f.Family] = string(f.Kind)
	}
	if snap, ok := res.Snapshots[metrics.FamilyTraffic]; ok {
		state.Sessions = snap.Number("sessions")
		state.hasTraffic = true
	}
	if snap, ok := res.Snapshots[metrics.FamilyEngagement]; ok && snap.Has("bounce_rate") {
		state.BounceRate = snap.Number("bounce_rate")
		state.hasBounce = true
	}
	return state
}

// failureAlerts reports every family that could not be fetched.
func failureAlerts(s *WatchState) []Alert {
	var alerts []Alert
	for _, f := range agent.AnalysisFamilies {
		kind, ok := s.Failed[f]
		if !ok {
			continue
		}
		alerts = append(alerts, Alert{
			Level:   "warning",
			Title:   fmt.Sprintf("%s unavailable", f),
			Message: fmt.Sprintf("Could not fetch %s metrics (%s)", f, kind),
			Time:    s.Timestamp,
		})
	}
	return alerts
}
