package database

import (
	"context"
	"fmt"

	"github.com/apex/log"
)

const createRunsTable = `
	CREATE TABLE IF NOT EXISTS inference_runs (
		id CHAR(36) NOT NULL PRIMARY KEY,
		session VARCHAR(255) NOT NULL DEFAULT '',
		seq BIGINT UNSIGNED NOT NULL DEFAULT 0,
		task VARCHAR(32) NOT NULL,
		model VARCHAR(255) NOT NULL,
		outcome VARCHAR(16) NOT NULL,
		error_kind VARCHAR(32) NOT NULL DEFAULT '',
		message TEXT,
		attempts INT NOT NULL DEFAULT 0,
		duration_ms BIGINT NOT NULL DEFAULT 0,
		started_at TIMESTAMP(3) NOT NULL,
		INDEX idx_inference_runs_started_at (started_at)
	)`

// RunMigrations creates the history table and applies later changes.
func (d *Database) RunMigrations(ctx context.Context) error {
	log.Info("Running database migrations...")

	if _, err := d.db.ExecContext(ctx, createRunsTable); err != nil {
		return fmt.Errorf("failed to create inference_runs table: %w", err)
	}

	if err := d.runMigration001(ctx); err != nil {
		return fmt.Errorf("migration 001 failed: %w", err)
	}

	log.Info("All migrations completed successfully")
	return nil
}

// runMigration001 indexes runs by task and outcome for the stats query.
func (d *Database) runMigration001(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, `
		CREATE INDEX idx_inference_runs_task_outcome
		ON inference_runs(task, outcome)
	`)
	if err != nil {
		log.Infof("Note: task/outcome index may already exist: %v", err)
	}
	return nil
}
