package driven

import (
	"context"

	"github.com/prism-labs/prism-cli/internal/core/domain"
)

// RunStore records pipeline stage executions. Run history is
// bookkeeping, not a pipeline artifact: rollback never touches it.
type RunStore interface {
	// RecordRun persists one stage execution.
	RecordRun(ctx context.Context, run *domain.PipelineRun) error

	// ListRuns returns recent runs for a project, most recent first.
	ListRuns(ctx context.Context, project string, limit int) ([]domain.PipelineRun, error)

	// Close releases resources.
	Close() error
}
