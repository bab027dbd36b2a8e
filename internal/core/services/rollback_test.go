package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prism-labs/prism-cli/internal/core/domain"
	"github.com/prism-labs/prism-cli/internal/logger"
)

func rollbackFixture() (*memArtifactStore, *stubSearchAdmin, *stubStatusStore) {
	store := newMemArtifactStore()
	store.dirFiles = map[string]int{
		domain.DirExtractionResults: 10,
		domain.DirChunkedDocuments:  40,
		domain.DirEmbeddedDocuments: 40,
		domain.DirIndexingReports:   2,
	}
	status := newStubStatusStore()
	status.statuses["acme"] = domain.ProjectStatus{
		IsIndexed: true,
		HasAgent:  true,
		AgentName: domain.KnowledgeAgentName("acme"),
	}
	return store, &stubSearchAdmin{}, status
}

// TestRollback_CascadeTeardownOrder tests a cascading rollback tears
// stages down most-dependent first
func TestRollback_CascadeTeardownOrder(t *testing.T) {
	store, search, status := rollbackFixture()
	svc := NewRollbackCoordinator(store, search, status, nil)

	result, err := svc.Rollback(context.Background(), "acme", domain.StageChunking, true)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, domain.StageChunking, result.Stage)
	assert.Equal(t, []domain.Stage{
		domain.StageAgent,
		domain.StageSource,
		domain.StageIndex,
		domain.StageEmbedding,
		domain.StageChunking,
	}, result.DeletedResourceStages)

	// chunked + embedded + indexing reports, extraction untouched.
	assert.Equal(t, 82, result.DeletedFileCount)
	assert.Equal(t, 10, store.dirFiles[domain.DirExtractionResults])

	assert.Equal(t, []string{
		domain.KnowledgeAgentName("acme"),
		domain.KnowledgeSourceName("acme"),
		domain.IndexName("acme"),
	}, search.deleted)

	// Status flags cleared as the resources went away.
	final := status.statuses["acme"]
	assert.False(t, final.IsIndexed)
	assert.False(t, final.HasAgent)
	assert.Empty(t, final.AgentName)
}

// TestRollback_NoCascade tests cascade off touches only the requested
// stage
func TestRollback_NoCascade(t *testing.T) {
	store, search, status := rollbackFixture()
	svc := NewRollbackCoordinator(store, search, status, nil)

	result, err := svc.Rollback(context.Background(), "acme", domain.StageEmbedding, false)

	require.NoError(t, err)
	assert.Equal(t, []domain.Stage{domain.StageEmbedding}, result.DeletedResourceStages)
	// Embedded documents plus the indexing reports derived from them.
	assert.Equal(t, 42, result.DeletedFileCount)
	assert.Empty(t, search.deleted)
	assert.Equal(t, 40, store.dirFiles[domain.DirChunkedDocuments])
}

// TestRollback_EmbeddingRemovesIndexingReports tests the embedding
// handler deletes the indexing reports alongside the embedded chunks
func TestRollback_EmbeddingRemovesIndexingReports(t *testing.T) {
	store, search, status := rollbackFixture()
	svc := NewRollbackCoordinator(store, search, status, nil)

	result, err := svc.Rollback(context.Background(), "acme", domain.StageEmbedding, false)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, store.deletedDirs, domain.DirEmbeddedDocuments)
	assert.Contains(t, store.deletedDirs, domain.DirIndexingReports)
	assert.Equal(t, 0, store.dirFiles[domain.DirIndexingReports])
}

// TestRollback_ExtractionCascade tests rolling back extraction removes
// everything including the inventory
func TestRollback_ExtractionCascade(t *testing.T) {
	store, search, status := rollbackFixture()
	require.NoError(t, store.WriteInventory(context.Background(), "acme", inventoryFor()))
	svc := NewRollbackCoordinator(store, search, status, nil)

	result, err := svc.Rollback(context.Background(), "acme", domain.StageExtraction, true)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Len(t, result.DeletedResourceStages, 6)
	// 10 + 40 + 40 + 2 files plus the inventory.
	assert.Equal(t, 93, result.DeletedFileCount)
	assert.Equal(t, 1, store.deletedInvCount)
}

// TestRollback_Idempotent tests rolling back an already-rolled-back
// stage succeeds with nothing deleted
func TestRollback_Idempotent(t *testing.T) {
	store, search, status := rollbackFixture()
	svc := NewRollbackCoordinator(store, search, status, nil)

	_, err := svc.Rollback(context.Background(), "acme", domain.StageChunking, true)
	require.NoError(t, err)

	result, err := svc.Rollback(context.Background(), "acme", domain.StageChunking, true)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 0, result.DeletedFileCount)
}

// TestRollback_PartialFailure tests a failing stage is recorded and the
// remaining stages still run
func TestRollback_PartialFailure(t *testing.T) {
	store, search, status := rollbackFixture()
	search.indexErr = errors.New("service unavailable")
	svc := NewRollbackCoordinator(store, search, status, nil)

	result, err := svc.Rollback(context.Background(), "acme", domain.StageEmbedding, true)

	require.NoError(t, err)
	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "index")

	// Embedding still rolled back after the index failure.
	assert.Contains(t, result.DeletedResourceStages, domain.StageEmbedding)
	assert.NotContains(t, result.DeletedResourceStages, domain.StageIndex)
	assert.Equal(t, 0, store.dirFiles[domain.DirEmbeddedDocuments])
	assert.Contains(t, result.Message, "Partial rollback")
}

// TestRollback_StageFailureLogged tests a failing stage handler is
// surfaced through the logger even without verbose mode
func TestRollback_StageFailureLogged(t *testing.T) {
	defer logger.SetOutput(os.Stderr)
	var buf bytes.Buffer
	logger.SetOutput(&buf)

	store, search, status := rollbackFixture()
	search.indexErr = errors.New("service unavailable")
	svc := NewRollbackCoordinator(store, search, status, nil)

	_, err := svc.Rollback(context.Background(), "acme", domain.StageIndex, false)

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "[ERROR]")
	assert.Contains(t, buf.String(), "service unavailable")
}

// TestRollback_NoSearchService tests local-only stages roll back
// without a search service while external stages report it missing
func TestRollback_NoSearchService(t *testing.T) {
	store, _, status := rollbackFixture()
	svc := NewRollbackCoordinator(store, nil, status, nil)

	result, err := svc.Rollback(context.Background(), "acme", domain.StageChunking, true)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.DeletedResourceStages, domain.StageChunking)
	assert.Contains(t, result.DeletedResourceStages, domain.StageEmbedding)
	// index and agent both had live resources they could not delete.
	assert.Len(t, result.Errors, 3)
	for _, msg := range result.Errors {
		assert.Contains(t, msg, domain.ErrSearchUnavailable.Error())
	}
}

// TestRollback_NoSearchServiceCleanProject tests a project with no
// external resources rolls back fully without a search service
func TestRollback_NoSearchServiceCleanProject(t *testing.T) {
	store, _, _ := rollbackFixture()
	svc := NewRollbackCoordinator(store, nil, newStubStatusStore(), nil)

	result, err := svc.Rollback(context.Background(), "acme", domain.StageChunking, true)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Len(t, result.DeletedResourceStages, 5)
}

// TestRollback_UnknownStage tests invalid stage names are rejected
func TestRollback_UnknownStage(t *testing.T) {
	store, search, status := rollbackFixture()
	svc := NewRollbackCoordinator(store, search, status, nil)

	_, err := svc.Rollback(context.Background(), "acme", domain.Stage("compile"), true)

	assert.ErrorIs(t, err, domain.ErrUnknownStage)
}

// TestRollback_ProjectMissing tests rollback of an unknown project is
// rejected
func TestRollback_ProjectMissing(t *testing.T) {
	store, search, status := rollbackFixture()
	store.projectMissing = true
	svc := NewRollbackCoordinator(store, search, status, nil)

	_, err := svc.Rollback(context.Background(), "acme", domain.StageChunking, true)

	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

// TestRollback_RecordsRun tests the run record carries the deleted file
// count
func TestRollback_RecordsRun(t *testing.T) {
	store, search, status := rollbackFixture()
	runs := &stubRunStore{}
	svc := NewRollbackCoordinator(store, search, status, runs)

	_, err := svc.Rollback(context.Background(), "acme", domain.StageEmbedding, false)

	require.NoError(t, err)
	require.Len(t, runs.runs, 1)
	assert.Equal(t, domain.StageEmbedding, runs.runs[0].Stage)
	assert.Equal(t, 42, runs.runs[0].ItemsProcessed)
}

// TestPreview_Cascade tests the preview lists stages in pipeline order
// with file counts and external resources, deleting nothing
func TestPreview_Cascade(t *testing.T) {
	store, search, status := rollbackFixture()
	svc := NewRollbackCoordinator(store, search, status, nil)

	preview, err := svc.Preview(context.Background(), "acme", domain.StageChunking, true)

	require.NoError(t, err)
	assert.Equal(t, []domain.Stage{
		domain.StageChunking,
		domain.StageEmbedding,
		domain.StageIndex,
		domain.StageSource,
		domain.StageAgent,
	}, preview.Stages)

	assert.Equal(t, map[string]int{
		domain.DirChunkedDocuments:  40,
		domain.DirEmbeddedDocuments: 40,
		domain.DirIndexingReports:   2,
	}, preview.LocalFiles)

	assert.Equal(t, []string{
		domain.IndexName("acme"),
		domain.KnowledgeSourceName("acme"),
		domain.KnowledgeAgentName("acme"),
	}, preview.ExternalResources)

	// Nothing was deleted.
	assert.Equal(t, 40, store.dirFiles[domain.DirChunkedDocuments])
	assert.Empty(t, search.deleted)
	assert.Empty(t, store.deletedDirs)
}

// TestPreview_ExtractionWarns tests the extraction stage carries a
// destructive-operation warning
func TestPreview_ExtractionWarns(t *testing.T) {
	store, search, status := rollbackFixture()
	require.NoError(t, store.WriteInventory(context.Background(), "acme", inventoryFor()))
	svc := NewRollbackCoordinator(store, search, status, nil)

	preview, err := svc.Preview(context.Background(), "acme", domain.StageExtraction, true)

	require.NoError(t, err)
	assert.Equal(t, 1, preview.LocalFiles[domain.InventoryFile])
	require.NotEmpty(t, preview.Warnings)
	assert.Contains(t, preview.Warnings[0], "re-extracted")
}

// TestPreview_IndexWarns tests rolling back the index stage carries a
// search-impact warning
func TestPreview_IndexWarns(t *testing.T) {
	store, search, status := rollbackFixture()
	svc := NewRollbackCoordinator(store, search, status, nil)

	preview, err := svc.Preview(context.Background(), "acme", domain.StageIndex, true)

	require.NoError(t, err)
	found := false
	for _, warning := range preview.Warnings {
		if strings.Contains(warning, "re-embedded and re-uploaded") {
			found = true
		}
	}
	assert.True(t, found)
}

// TestPreview_ListsResourcesWithoutStatusFlags tests resource names are
// previewed even when no status flags are set, matching what a rollback
// with a configured search service would attempt
func TestPreview_ListsResourcesWithoutStatusFlags(t *testing.T) {
	store, search, _ := rollbackFixture()
	svc := NewRollbackCoordinator(store, search, newStubStatusStore(), nil)

	preview, err := svc.Preview(context.Background(), "acme", domain.StageIndex, true)

	require.NoError(t, err)
	assert.Equal(t, []string{
		domain.IndexName("acme"),
		domain.KnowledgeSourceName("acme"),
		domain.KnowledgeAgentName("acme"),
	}, preview.ExternalResources)
}

// TestPreview_NoCascadeWarns tests disabling cascade warns about
// stranded dependents
func TestPreview_NoCascadeWarns(t *testing.T) {
	store, search, status := rollbackFixture()
	svc := NewRollbackCoordinator(store, search, status, nil)

	preview, err := svc.Preview(context.Background(), "acme", domain.StageChunking, false)

	require.NoError(t, err)
	assert.Equal(t, []domain.Stage{domain.StageChunking}, preview.Stages)
	require.NotEmpty(t, preview.Warnings)
	assert.Contains(t, preview.Warnings[0], "cascade disabled")
}

// TestPreview_NoSearchServiceWarns tests the preview flags external
// resources that cannot be deleted
func TestPreview_NoSearchServiceWarns(t *testing.T) {
	store, _, status := rollbackFixture()
	svc := NewRollbackCoordinator(store, nil, status, nil)

	preview, err := svc.Preview(context.Background(), "acme", domain.StageIndex, true)

	require.NoError(t, err)

	found := false
	for _, warning := range preview.Warnings {
		if warning == "no search service configured; external resources cannot be deleted" {
			found = true
		}
	}
	assert.True(t, found)
}
