// Package agent runs one analysis: fetch the analysed metric families,
// evaluate the insight rules, and aggregate a report.
package agent

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/siteinsight/internal/insight"
	"github.com/blackwell-systems/siteinsight/internal/logging"
	"github.com/blackwell-systems/siteinsight/internal/metrics"
	"github.com/blackwell-systems/siteinsight/internal/source"
)

// AnalysisFamilies are fetched and evaluated by every run, in this order.
var AnalysisFamilies = []metrics.Family{
	metrics.FamilyTraffic,
	metrics.FamilyEngagement,
	metrics.FamilySources,
}

// Options tunes an Agent.
type Options struct {
	// Parallel fetches the families concurrently. Results are buffered and
	// evaluated in AnalysisFamilies order either way.
	Parallel bool
	// WindowDays sizes the default date range. Zero means
	// metrics.DefaultWindowDays.
	WindowDays int
	Now        func() time.Time
}

// FamilyFailure records a family that contributed no insights.
type FamilyFailure struct {
	Family metrics.Family `json:"family"`
	Kind   source.Kind    `json:"kind"`
	Err    error          `json:"-"`
	Msg    string         `json:"error"`
}

// Result is the outcome of one analysis run.
type Result struct {
	// ID identifies the run across logs, history, and JSON output.
	ID        string                              `json:"id"`
	Report    insight.Report                      `json:"report"`
	Snapshots map[metrics.Family]metrics.Snapshot `json:"snapshots"`
	Failures  []FamilyFailure                     `json:"failures,omitempty"`
	Range     metrics.DateRange                   `json:"date_range"`
	// Score is set when both traffic and engagement were fetched.
	Score  int       `json:"score,omitempty"`
	Scored bool      `json:"scored"`
	RanAt  time.Time `json:"ran_at"`
}

// Text renders the report.
func (r Result) Text() string {
	return insight.Render(r.Report)
}

// Agent runs analyses against a source.
type Agent struct {
	src    source.Source
	engine *insight.Engine
	logger logging.Logger
	opts   Options
}

// New creates an agent. A nil logger discards.
func New(src source.Source, logger logging.Logger, opts Options) *Agent {
	if logger == nil {
		logger = logging.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = metrics.DefaultWindowDays
	}
	return &Agent{src: src, engine: insight.NewEngine(), logger: logger, opts: opts}
}

type fetched struct {
	snap metrics.Snapshot
	err  error
}

// Analyze runs one analysis over dr, or the default window when dr is nil.
// A family that fails to fetch is recorded in Result.Failures and the run
// continues with the rest.
func (a *Agent) Analyze(ctx context.Context, dr *metrics.DateRange) Result {
	now := a.opts.Now()
	rng := metrics.DefaultRange(now, a.opts.WindowDays)
	if dr != nil {
		rng = *dr
	}

	results := a.fetchAll(ctx, rng)

	res := Result{
		ID:        uuid.NewString(),
		Snapshots: make(map[metrics.Family]metrics.Snapshot, len(AnalysisFamilies)),
		Range:     rng,
		RanAt:     now,
	}
	lists := make([][]insight.Insight, 0, len(AnalysisFamilies))
	for i, f := range AnalysisFamilies {
		r := results[i]
		if r.err != nil {
			kind := source.KindOf(r.err)
			a.logger.WithFields(logging.Fields{
				"family": string(f),
				"kind":   string(kind),
			}).WithError(r.err).Warn("metric family unavailable")
			res.Failures = append(res.Failures, FamilyFailure{Family: f, Kind: kind, Err: r.err, Msg: r.err.Error()})
			continue
		}
		res.Snapshots[f] = r.snap
		lists = append(lists, a.engine.Evaluate(f, r.snap))
	}
	res.Report = insight.Aggregate(lists...)

	traffic, okT := res.Snapshots[metrics.FamilyTraffic]
	engagement, okE := res.Snapshots[metrics.FamilyEngagement]
	if okT && okE {
		res.Score = insight.Score(traffic, engagement)
		res.Scored = true
	}

	a.logger.WithFields(logging.Fields{
		"run":      res.ID,
		"insights": res.Report.Len(),
		"failures": len(res.Failures),
		"start":    rng.Start,
		"end":      rng.End,
	}).Info("analysis complete")
	return res
}

func (a *Agent) fetchAll(ctx context.Context, rng metrics.DateRange) []fetched {
	results := make([]fetched, len(AnalysisFamilies))
	fetch := func(i int) {
		sel := metrics.Selector{Family: AnalysisFamilies[i], Range: &rng}
		snap, err := a.src.Fetch(ctx, sel)
		results[i] = fetched{snap: snap, err: err}
	}

	if !a.opts.Parallel {
		for i := range AnalysisFamilies {
			fetch(i)
		}
		return results
	}

	var g errgroup.Group
	for i := range AnalysisFamilies {
		g.Go(func() error {
			fetch(i)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
