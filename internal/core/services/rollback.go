package services

import (
	"context"
	"fmt"
	"time"

	"github.com/prism-labs/prism-cli/internal/core/domain"
	"github.com/prism-labs/prism-cli/internal/core/ports/driven"
	"github.com/prism-labs/prism-cli/internal/core/ports/driving"
	"github.com/prism-labs/prism-cli/internal/logger"
)

// Ensure RollbackCoordinator implements the interface.
var _ driving.RollbackCoordinator = (*RollbackCoordinator)(nil)

// stageOutcome is what one stage handler deleted.
type stageOutcome struct {
	files     int
	resources []string
}

// RollbackCoordinator tears down pipeline stages in reverse-dependency
// order.
type RollbackCoordinator struct {
	artifacts driven.ArtifactStore
	search    driven.SearchAdmin
	status    driven.StatusStore
	runs      driven.RunStore

	handlers map[domain.Stage]func(ctx context.Context, project string) (*stageOutcome, error)
}

// NewRollbackCoordinator creates a rollback coordinator. search may be
// nil when no search service is configured: stages with no external
// resources still roll back, and stages that do have them report the
// missing service as a per-stage error. runs may be nil to disable
// run-history recording.
func NewRollbackCoordinator(
	artifacts driven.ArtifactStore,
	search driven.SearchAdmin,
	status driven.StatusStore,
	runs driven.RunStore,
) *RollbackCoordinator {
	r := &RollbackCoordinator{
		artifacts: artifacts,
		search:    search,
		status:    status,
		runs:      runs,
	}

	r.handlers = map[domain.Stage]func(ctx context.Context, project string) (*stageOutcome, error){
		domain.StageExtraction: r.rollbackExtraction,
		domain.StageChunking:   r.rollbackChunking,
		domain.StageEmbedding:  r.rollbackEmbedding,
		domain.StageIndex:      r.rollbackIndex,
		domain.StageSource:     r.rollbackSource,
		domain.StageAgent:      r.rollbackAgent,
	}

	return r
}

// Rollback deletes the artifacts of the requested stage and, when
// cascading, of every stage derived from it. Stages are torn down
// most-dependent first. A stage handler failure is recorded and the
// remaining stages still run, so a partial rollback reports both what
// was deleted and what was not.
func (r *RollbackCoordinator) Rollback(ctx context.Context, project string, stage domain.Stage, cascade bool) (result *domain.RollbackResult, err error) {
	startedAt := time.Now()
	defer func() {
		items := 0
		if result != nil {
			items = result.DeletedFileCount
		}
		recordRun(ctx, r.runs, project, stage, startedAt, items, err)
	}()

	if !stage.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownStage, stage)
	}
	if !r.artifacts.ProjectExists(ctx, project) {
		return nil, fmt.Errorf("%w: %q", domain.ErrProjectNotFound, project)
	}

	stages := domain.RollbackStages(stage, cascade)
	logger.Info("Rolling back %d stage(s) for project %s", len(stages), project)

	result = &domain.RollbackResult{
		Success: true,
		Stage:   stage,
	}

	for _, st := range stages {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		outcome, stageErr := r.handlers[st](ctx, project)
		if outcome != nil {
			result.DeletedFileCount += outcome.files
		}
		if stageErr != nil {
			result.Success = false
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", st, stageErr))
			logger.Error("Rollback of %s failed: %v", st, stageErr)
			continue
		}

		result.DeletedResourceStages = append(result.DeletedResourceStages, st)
		logger.Debug("Rolled back %s", st)
	}

	if result.Success {
		result.Message = fmt.Sprintf("Rolled back %d stage(s), deleted %d file(s)",
			len(result.DeletedResourceStages), result.DeletedFileCount)
	} else {
		result.Message = fmt.Sprintf("Partial rollback: %d of %d stage(s) rolled back, %d error(s)",
			len(result.DeletedResourceStages), len(stages), len(result.Errors))
	}

	return result, nil
}

// Preview reports what Rollback would delete, without deleting
// anything. Stages are listed in pipeline order, not teardown order.
func (r *RollbackCoordinator) Preview(ctx context.Context, project string, stage domain.Stage, cascade bool) (*domain.RollbackPreview, error) {
	if !stage.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownStage, stage)
	}
	if !r.artifacts.ProjectExists(ctx, project) {
		return nil, fmt.Errorf("%w: %q", domain.ErrProjectNotFound, project)
	}

	stages := domain.RollbackStages(stage, cascade)
	// Teardown order reversed back to pipeline order for display.
	preview := &domain.RollbackPreview{
		Stages:     make([]domain.Stage, 0, len(stages)),
		LocalFiles: make(map[string]int),
	}
	for i := len(stages) - 1; i >= 0; i-- {
		preview.Stages = append(preview.Stages, stages[i])
	}

	for _, st := range preview.Stages {
		switch st {
		case domain.StageExtraction:
			r.countDir(ctx, project, domain.DirExtractionResults, preview)
			if _, invErr := r.artifacts.ReadInventory(ctx, project); invErr == nil {
				preview.LocalFiles[domain.InventoryFile] = 1
			}
			preview.Warnings = append(preview.Warnings,
				"extraction rollback removes the extracted source documents; the project must be re-extracted before any other stage can run")

		case domain.StageChunking:
			r.countDir(ctx, project, domain.DirChunkedDocuments, preview)

		case domain.StageEmbedding:
			r.countDir(ctx, project, domain.DirEmbeddedDocuments, preview)
			r.countDir(ctx, project, domain.DirIndexingReports, preview)

		// Resource names are listed unconditionally: a real rollback
		// attempts the remote delete whenever a search service is
		// configured, regardless of the status flags.
		case domain.StageIndex:
			preview.ExternalResources = append(preview.ExternalResources, domain.IndexName(project))
			preview.Warnings = append(preview.Warnings,
				"index rollback removes all searchable content; search is unusable until chunks are re-embedded and re-uploaded")

		case domain.StageSource:
			preview.ExternalResources = append(preview.ExternalResources, domain.KnowledgeSourceName(project))

		case domain.StageAgent:
			preview.ExternalResources = append(preview.ExternalResources, domain.KnowledgeAgentName(project))
		}
	}

	if len(preview.ExternalResources) > 0 && r.search == nil {
		preview.Warnings = append(preview.Warnings,
			"no search service configured; external resources cannot be deleted")
	}
	if !cascade && len(stage.Dependents()) > 0 {
		preview.Warnings = append(preview.Warnings,
			fmt.Sprintf("cascade disabled; dependent stages %v keep artifacts derived from deleted data", stage.Dependents()))
	}

	return preview, nil
}

// countDir records a directory's file count in the preview, omitting
// empty directories.
func (r *RollbackCoordinator) countDir(ctx context.Context, project, dir string, preview *domain.RollbackPreview) {
	count, err := r.artifacts.CountFiles(ctx, project, dir)
	if err != nil {
		logger.Debug("Failed to count %s: %v", dir, err)
		return
	}
	if count > 0 {
		preview.LocalFiles[dir] = count
	}
}

// rollbackExtraction deletes the extracted documents and the inventory
// derived from them.
func (r *RollbackCoordinator) rollbackExtraction(ctx context.Context, project string) (*stageOutcome, error) {
	outcome := &stageOutcome{}

	files, err := r.artifacts.DeleteDir(ctx, project, domain.DirExtractionResults)
	outcome.files += files
	if err != nil {
		return outcome, fmt.Errorf("delete extraction results: %w", err)
	}

	files, err = r.artifacts.DeleteInventory(ctx, project)
	outcome.files += files
	if err != nil {
		return outcome, fmt.Errorf("delete inventory: %w", err)
	}

	return outcome, nil
}

func (r *RollbackCoordinator) rollbackChunking(ctx context.Context, project string) (*stageOutcome, error) {
	files, err := r.artifacts.DeleteDir(ctx, project, domain.DirChunkedDocuments)
	if err != nil {
		return &stageOutcome{files: files}, fmt.Errorf("delete chunked documents: %w", err)
	}
	return &stageOutcome{files: files}, nil
}

// rollbackEmbedding deletes the embedded documents and the indexing
// reports derived from them.
func (r *RollbackCoordinator) rollbackEmbedding(ctx context.Context, project string) (*stageOutcome, error) {
	outcome := &stageOutcome{}

	files, err := r.artifacts.DeleteDir(ctx, project, domain.DirEmbeddedDocuments)
	outcome.files += files
	if err != nil {
		return outcome, fmt.Errorf("delete embedded documents: %w", err)
	}

	files, err = r.artifacts.DeleteDir(ctx, project, domain.DirIndexingReports)
	outcome.files += files
	if err != nil {
		return outcome, fmt.Errorf("delete indexing reports: %w", err)
	}

	return outcome, nil
}

// rollbackIndex deletes the search index and clears the indexed flag.
func (r *RollbackCoordinator) rollbackIndex(ctx context.Context, project string) (*stageOutcome, error) {
	outcome := &stageOutcome{}

	status, err := r.status.GetStatus(ctx, project)
	if err != nil {
		return outcome, fmt.Errorf("get status: %w", err)
	}

	// Without a search service there is nothing to delete remotely
	// unless the status record says an index exists.
	if r.search != nil || status.IsIndexed {
		name := domain.IndexName(project)
		if err := r.deleteExternal(ctx, name, func(ctx context.Context) error {
			return r.search.DeleteIndex(ctx, name)
		}); err != nil {
			return outcome, err
		}
		outcome.resources = append(outcome.resources, name)
	}

	if err := r.updateStatus(ctx, project, func(s *domain.ProjectStatus) {
		s.IsIndexed = false
	}); err != nil {
		return outcome, err
	}

	return outcome, nil
}

func (r *RollbackCoordinator) rollbackSource(ctx context.Context, project string) (*stageOutcome, error) {
	status, err := r.status.GetStatus(ctx, project)
	if err != nil {
		return &stageOutcome{}, fmt.Errorf("get status: %w", err)
	}
	if r.search == nil && !status.IsIndexed {
		return &stageOutcome{}, nil
	}

	name := domain.KnowledgeSourceName(project)
	if err := r.deleteExternal(ctx, name, func(ctx context.Context) error {
		return r.search.DeleteKnowledgeSource(ctx, name)
	}); err != nil {
		return &stageOutcome{}, err
	}
	return &stageOutcome{resources: []string{name}}, nil
}

// rollbackAgent deletes the knowledge agent and clears the agent flags.
func (r *RollbackCoordinator) rollbackAgent(ctx context.Context, project string) (*stageOutcome, error) {
	outcome := &stageOutcome{}

	status, err := r.status.GetStatus(ctx, project)
	if err != nil {
		return outcome, fmt.Errorf("get status: %w", err)
	}

	if r.search != nil || status.HasAgent {
		name := domain.KnowledgeAgentName(project)
		if err := r.deleteExternal(ctx, name, func(ctx context.Context) error {
			return r.search.DeleteKnowledgeAgent(ctx, name)
		}); err != nil {
			return outcome, err
		}
		outcome.resources = append(outcome.resources, name)
	}

	if err := r.updateStatus(ctx, project, func(s *domain.ProjectStatus) {
		s.HasAgent = false
		s.AgentName = ""
	}); err != nil {
		return outcome, err
	}

	return outcome, nil
}

// deleteExternal runs one managed-resource delete. Adapters treat a
// missing resource as success, so re-running a rollback is idempotent.
func (r *RollbackCoordinator) deleteExternal(ctx context.Context, name string, del func(ctx context.Context) error) error {
	if r.search == nil {
		return fmt.Errorf("%w: cannot delete %s", domain.ErrSearchUnavailable, name)
	}
	if err := del(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

// updateStatus applies a mutation to the project's status record.
func (r *RollbackCoordinator) updateStatus(ctx context.Context, project string, mutate func(*domain.ProjectStatus)) error {
	status, err := r.status.GetStatus(ctx, project)
	if err != nil {
		return fmt.Errorf("get status: %w", err)
	}
	mutate(&status)
	if err := r.status.SetStatus(ctx, project, status); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}
