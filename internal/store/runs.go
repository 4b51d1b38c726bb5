package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecordRun inserts a run with its metrics, insights, and failures in one
// transaction and sets run.ID.
func (db *DB) RecordRun(run *Run) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if run.RanAt.IsZero() {
		run.RanAt = time.Now()
	}
	if run.UUID == "" {
		run.UUID = uuid.NewString()
	}
	var score sql.NullInt64
	if run.Score != nil {
		score = sql.NullInt64{Int64: int64(*run.Score), Valid: true}
	}
	result, err := tx.Exec(
		`INSERT INTO runs (uuid, ran_at, command, version, start_date, end_date, score, insight_count, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.UUID, run.RanAt.UTC().Format(time.RFC3339), run.Command, run.Version,
		run.StartDate, run.EndDate, score, run.InsightCount, run.Report,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, m := range run.Metrics {
		if _, err := tx.Exec(
			"INSERT INTO run_metrics (run_id, family, metric_name, metric_value) VALUES (?, ?, ?, ?)",
			id, m.Family, m.Name, m.Value,
		); err != nil {
			return 0, fmt.Errorf("inserting metric %s.%s: %w", m.Family, m.Name, err)
		}
	}
	for _, in := range run.Insights {
		if _, err := tx.Exec(
			`INSERT INTO run_insights (run_id, position, severity, kind, title, description, source)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, in.Position, in.Severity, in.Kind, in.Title, in.Description, in.Source,
		); err != nil {
			return 0, fmt.Errorf("inserting insight %q: %w", in.Title, err)
		}
	}
	for _, f := range run.Failures {
		if _, err := tx.Exec(
			"INSERT INTO run_failures (run_id, family, kind, message) VALUES (?, ?, ?, ?)",
			id, f.Family, f.Kind, f.Message,
		); err != nil {
			return 0, fmt.Errorf("inserting failure for %s: %w", f.Family, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	run.ID = id
	return id, nil
}

const runColumns = "id, uuid, ran_at, command, version, start_date, end_date, score, insight_count, report"

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var r Run
	var ranAt string
	var score sql.NullInt64
	if err := row.Scan(&r.ID, &r.UUID, &ranAt, &r.Command, &r.Version, &r.StartDate, &r.EndDate,
		&score, &r.InsightCount, &r.Report); err != nil {
		return nil, err
	}
	r.RanAt, _ = time.Parse(time.RFC3339, ranAt)
	if score.Valid {
		s := int(score.Int64)
		r.Score = &s
	}
	return &r, nil
}

// ListRuns returns up to limit runs, newest first, without their children.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query("SELECT "+runColumns+" FROM runs ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetRun returns a run with its children, or nil if it does not exist.
func (db *DB) GetRun(id int64) (*Run, error) {
	r, err := scanRun(db.conn.QueryRow("SELECT "+runColumns+" FROM runs WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := db.loadChildren(r); err != nil {
		return nil, err
	}
	return r, nil
}

// LatestRun returns the most recent run with its children, or nil.
func (db *DB) LatestRun() (*Run, error) {
	r, err := scanRun(db.conn.QueryRow("SELECT " + runColumns + " FROM runs ORDER BY id DESC LIMIT 1"))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := db.loadChildren(r); err != nil {
		return nil, err
	}
	return r, nil
}

func (db *DB) loadChildren(r *Run) error {
	rows, err := db.conn.Query(
		"SELECT family, metric_name, metric_value FROM run_metrics WHERE run_id = ? ORDER BY id", r.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var m Metric
		if err := rows.Scan(&m.Family, &m.Name, &m.Value); err != nil {
			rows.Close()
			return err
		}
		r.Metrics = append(r.Metrics, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = db.conn.Query(
		`SELECT position, severity, kind, title, description, source
		FROM run_insights WHERE run_id = ? ORDER BY position`, r.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var in InsightRow
		if err := rows.Scan(&in.Position, &in.Severity, &in.Kind, &in.Title, &in.Description, &in.Source); err != nil {
			rows.Close()
			return err
		}
		r.Insights = append(r.Insights, in)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = db.conn.Query(
		"SELECT family, kind, message FROM run_failures WHERE run_id = ? ORDER BY id", r.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.Family, &f.Kind, &f.Message); err != nil {
			return err
		}
		r.Failures = append(r.Failures, f)
	}
	return rows.Err()
}

// MetricSeries returns the last limit values of family.name, oldest first.
func (db *DB) MetricSeries(family, name string, limit int) ([]MetricPoint, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(
		`SELECT r.id, r.ran_at, m.metric_value
		FROM run_metrics m JOIN runs r ON r.id = m.run_id
		WHERE m.family = ? AND m.metric_name = ?
		ORDER BY r.id DESC LIMIT ?`,
		family, name, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []MetricPoint
	for rows.Next() {
		var p MetricPoint
		var ranAt string
		if err := rows.Scan(&p.RunID, &ranAt, &p.Value); err != nil {
			return nil, err
		}
		p.RanAt, _ = time.Parse(time.RFC3339, ranAt)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}

// Prune deletes all but the newest keep runs and returns how many were
// removed.
func (db *DB) Prune(keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := db.conn.Exec(
		"DELETE FROM runs WHERE id NOT IN (SELECT id FROM runs ORDER BY id DESC LIMIT ?)", keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
