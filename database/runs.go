package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"inference-gateway/metrics"
	"inference-gateway/models"

	"github.com/apex/log"
)

const maxListLimit = 500

// TaskStats aggregates finished runs for one task and outcome.
type TaskStats struct {
	Task          models.TaskKind `json:"task"`
	Outcome       string          `json:"outcome"`
	Count         int64           `json:"count"`
	AvgDurationMs float64         `json:"avg_duration_ms"`
}

// InsertRun stores one run record.
func (d *Database) InsertRun(ctx context.Context, rec models.RunRecord) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO inference_runs
			(id, session, seq, task, model, outcome, error_kind, message, attempts, duration_ms, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Session, rec.Seq, string(rec.Task), rec.Model, rec.Outcome,
		string(rec.ErrorKind), rec.Message, rec.Attempts, rec.Duration.Milliseconds(), rec.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", rec.ID, err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first, optionally for a
// single task kind.
func (d *Database) ListRuns(ctx context.Context, task models.TaskKind, limit int) ([]models.RunRecord, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	query := `
		SELECT id, session, seq, task, model, outcome, error_kind, message, attempts, duration_ms, started_at
		FROM inference_runs`
	args := []any{}
	if task != "" {
		query += ` WHERE task = ?`
		args = append(args, string(task))
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []models.RunRecord{}
	for rows.Next() {
		var (
			rec        models.RunRecord
			task       string
			errorKind  string
			message    sql.NullString
			durationMs int64
		)
		if err := rows.Scan(&rec.ID, &rec.Session, &rec.Seq, &task, &rec.Model, &rec.Outcome,
			&errorKind, &message, &rec.Attempts, &durationMs, &rec.StartedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.Task = models.TaskKind(task)
		rec.ErrorKind = models.ErrorKind(errorKind)
		rec.Message = message.String
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// Stats aggregates all stored runs by task and outcome.
func (d *Database) Stats(ctx context.Context) ([]TaskStats, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT task, outcome, COUNT(*), AVG(duration_ms)
		FROM inference_runs
		GROUP BY task, outcome
		ORDER BY task, outcome`)
	if err != nil {
		return nil, fmt.Errorf("failed to query run stats: %w", err)
	}
	defer rows.Close()

	stats := []TaskStats{}
	for rows.Next() {
		var (
			s    TaskStats
			task string
			avg  sql.NullFloat64
		)
		if err := rows.Scan(&task, &s.Outcome, &s.Count, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan run stats: %w", err)
		}
		s.Task = models.TaskKind(task)
		s.AvgDurationMs = avg.Float64
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate run stats: %w", err)
	}
	return stats, nil
}

// HistoryObserver stores every finished run. Write failures are logged
// and counted, never returned to the caller of the run.
type HistoryObserver struct {
	DB      *Database
	Timeout time.Duration
}

func (h HistoryObserver) ObserveRun(rec models.RunRecord) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := h.DB.InsertRun(ctx, rec); err != nil {
		metrics.HistoryWriteErrorTotal.Inc()
		log.WithField("run_id", rec.ID).Errorf("Failed to store run: %v", err)
	}
}
