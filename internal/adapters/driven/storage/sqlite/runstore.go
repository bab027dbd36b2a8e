package sqlite

import (
	"context"
	"fmt"

	"github.com/prism-labs/prism-cli/internal/core/domain"
	"github.com/prism-labs/prism-cli/internal/core/ports/driven"
)

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

// defaultRunLimit bounds ListRuns when the caller passes no limit.
const defaultRunLimit = 20

// RecordRun persists one stage execution.
func (r *runStore) RecordRun(ctx context.Context, run *domain.PipelineRun) error {
	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO pipeline_runs (id, project, stage, started_at, ended_at, success, error, items_processed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Project, string(run.Stage), run.StartedAt, run.EndedAt, run.Success, run.Error, run.ItemsProcessed)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// ListRuns returns recent runs for a project, most recent first.
func (r *runStore) ListRuns(ctx context.Context, project string, limit int) ([]domain.PipelineRun, error) {
	if limit <= 0 {
		limit = defaultRunLimit
	}

	rows, err := r.store.db.QueryContext(ctx, `
		SELECT id, project, stage, started_at, ended_at, success, error, items_processed
		FROM pipeline_runs
		WHERE project = ?
		ORDER BY started_at DESC
		LIMIT ?
	`, project, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.PipelineRun
	for rows.Next() {
		var (
			run   domain.PipelineRun
			stage string
		)
		if err := rows.Scan(&run.ID, &run.Project, &stage, &run.StartedAt, &run.EndedAt,
			&run.Success, &run.Error, &run.ItemsProcessed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.Stage = domain.Stage(stage)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	return runs, nil
}

// Close closes the underlying store.
func (r *runStore) Close() error {
	return r.store.Close()
}
