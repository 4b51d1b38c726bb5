package store

import (
	"encoding/json"
	"sort"

	"github.com/blackwell-systems/siteinsight/internal/agent"
	"github.com/blackwell-systems/siteinsight/internal/metrics"
)

// NewRun builds a Run from an analysis result.
func NewRun(res agent.Result, command, version string) *Run {
	run := &Run{
		UUID:         res.ID,
		RanAt:        res.RanAt,
		Command:      command,
		Version:      version,
		StartDate:    res.Range.Start,
		EndDate:      res.Range.End,
		InsightCount: res.Report.Len(),
		Report:       res.Text(),
	}
	if res.Scored {
		score := res.Score
		run.Score = &score
	}

	for _, f := range agent.AnalysisFamilies {
		snap, ok := res.Snapshots[f]
		if !ok {
			continue
		}
		run.Metrics = append(run.Metrics, flatten(f, snap)...)
	}
	for i, in := range res.Report.Insights() {
		run.Insights = append(run.Insights, InsightRow{
			Position:    i,
			Severity:    string(in.Severity),
			Kind:        string(in.Kind),
			Title:       in.Title,
			Description: in.Description,
			Source:      in.Source,
		})
	}
	for _, f := range res.Failures {
		run.Failures = append(run.Failures, Failure{
			Family:  string(f.Family),
			Kind:    string(f.Kind),
			Message: f.Msg,
		})
	}
	return run
}

// flatten extracts numeric fields and one level of numeric nested maps
// (e.g. channels.direct), sorted by name.
func flatten(f metrics.Family, snap metrics.Snapshot) []Metric {
	var out []Metric
	for name, v := range snap.Raw() {
		switch val := v.(type) {
		case map[string]any:
			for inner, iv := range val {
				if !isNumber(iv) {
					continue
				}
				out = append(out, Metric{Family: string(f), Name: name + "." + inner, Value: snap.Path(name, inner)})
			}
		default:
			if isNumber(val) {
				out = append(out, Metric{Family: string(f), Name: name, Value: snap.Number(name)})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int64, int32, json.Number:
		return true
	}
	return false
}
