// Package store persists analysis runs in SQLite so results can be compared
// over time.
package store

import "time"

// Run is one recorded analysis.
type Run struct {
	ID           int64     `json:"id"`
	UUID         string    `json:"uuid"`
	RanAt        time.Time `json:"ran_at"`
	Command      string    `json:"command"`
	Version      string    `json:"version"`
	StartDate    string    `json:"start_date"`
	EndDate      string    `json:"end_date"`
	Score        *int      `json:"score,omitempty"`
	InsightCount int       `json:"insight_count"`
	Report       string    `json:"report"`

	// Populated by GetRun and RecordRun; list queries leave them empty.
	Metrics  []Metric     `json:"metrics,omitempty"`
	Insights []InsightRow `json:"insights,omitempty"`
	Failures []Failure    `json:"failures,omitempty"`
}

// Metric is one numeric top-level field of a fetched family.
type Metric struct {
	Family string  `json:"family"`
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
}

// InsightRow is one insight in report order.
type InsightRow struct {
	Position    int    `json:"position"`
	Severity    string `json:"severity"`
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// Failure is a family that could not be fetched during a run.
type Failure struct {
	Family  string `json:"family"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// MetricPoint is one value of a metric series.
type MetricPoint struct {
	RunID int64     `json:"run_id"`
	RanAt time.Time `json:"ran_at"`
	Value float64   `json:"value"`
}
