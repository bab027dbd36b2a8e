package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/prism-labs/prism-cli/internal/core/domain"
	"github.com/prism-labs/prism-cli/internal/core/ports/driven"
	"github.com/prism-labs/prism-cli/internal/logger"
)

// recordRun persists one stage execution to the run store. Run history
// is best-effort bookkeeping: a store failure is logged, never allowed
// to fail the stage that just completed.
func recordRun(
	ctx context.Context,
	runs driven.RunStore,
	project string,
	stage domain.Stage,
	startedAt time.Time,
	itemsProcessed int,
	runErr error,
) {
	if runs == nil {
		return
	}

	run := &domain.PipelineRun{
		ID:             uuid.NewString(),
		Project:        project,
		Stage:          stage,
		StartedAt:      startedAt,
		EndedAt:        time.Now(),
		Success:        runErr == nil,
		ItemsProcessed: itemsProcessed,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}

	if err := runs.RecordRun(ctx, run); err != nil {
		logger.Debug("Failed to record %s run: %v", stage, err)
	}
}
