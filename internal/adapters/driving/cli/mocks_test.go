package cli

import (
	"context"

	"github.com/prism-labs/prism-cli/internal/core/domain"
	"github.com/prism-labs/prism-cli/internal/core/ports/driving"
)

// mockDeduplicator implements driving.Deduplicator for testing.
type mockDeduplicator struct {
	summary *driving.DedupSummary
	err     error
	calls   *[]string
}

func (m *mockDeduplicator) Deduplicate(_ context.Context, _ string) (*driving.DedupSummary, error) {
	if m.calls != nil {
		*m.calls = append(*m.calls, "dedupe")
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

// mockChunkingService implements driving.ChunkingService for testing.
type mockChunkingService struct {
	summary *driving.ChunkingSummary
	err     error
	calls   *[]string
}

func (m *mockChunkingService) ChunkProject(_ context.Context, _ string) (*driving.ChunkingSummary, error) {
	if m.calls != nil {
		*m.calls = append(*m.calls, "chunk")
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

// mockEmbeddingGenerator implements driving.EmbeddingGenerator for
// testing. When stats are set, the progress callback is invoked once
// with the final counts.
type mockEmbeddingGenerator struct {
	stats *driving.EmbeddingStats
	err   error
	calls *[]string
}

func (m *mockEmbeddingGenerator) EmbedProject(_ context.Context, _ string, progress driving.EmbedProgress) (*driving.EmbeddingStats, error) {
	if m.calls != nil {
		*m.calls = append(*m.calls, "embed")
	}
	if m.err != nil {
		return nil, m.err
	}
	if progress != nil && m.stats != nil {
		progress(m.stats.Processed, m.stats.Processed+m.stats.Failed)
	}
	return m.stats, nil
}

// mockRollbackCoordinator implements driving.RollbackCoordinator for
// testing, recording the stage and cascade flag it was called with.
type mockRollbackCoordinator struct {
	result  *domain.RollbackResult
	preview *domain.RollbackPreview
	err     error

	gotStage   domain.Stage
	gotCascade bool
	previewed  bool
}

func (m *mockRollbackCoordinator) Rollback(_ context.Context, _ string, stage domain.Stage, cascade bool) (*domain.RollbackResult, error) {
	m.gotStage = stage
	m.gotCascade = cascade
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockRollbackCoordinator) Preview(_ context.Context, _ string, stage domain.Stage, cascade bool) (*domain.RollbackPreview, error) {
	m.previewed = true
	m.gotStage = stage
	m.gotCascade = cascade
	if m.err != nil {
		return nil, m.err
	}
	return m.preview, nil
}

// mockArtifactStore implements driven.ArtifactStore for the status
// command tests.
type mockArtifactStore struct {
	exists    bool
	counts    map[string]int
	inventory *domain.Inventory
}

func (m *mockArtifactStore) WriteInventory(_ context.Context, _ string, _ *domain.Inventory) error {
	return nil
}

func (m *mockArtifactStore) ReadInventory(_ context.Context, _ string) (*domain.Inventory, error) {
	if m.inventory == nil {
		return nil, domain.ErrMissingArtifact
	}
	return m.inventory, nil
}

func (m *mockArtifactStore) WriteChunk(_ context.Context, _ string, _ *domain.Chunk) error {
	return nil
}

func (m *mockArtifactStore) ListChunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return nil, domain.ErrMissingArtifact
}

func (m *mockArtifactStore) WriteEmbeddedChunk(_ context.Context, _ string, _ *domain.EmbeddedChunk) error {
	return nil
}

func (m *mockArtifactStore) ListEmbeddedIDs(_ context.Context, _ string) (map[string]bool, error) {
	return map[string]bool{}, nil
}

func (m *mockArtifactStore) WriteReport(_ context.Context, _, _, _, _ string) error {
	return nil
}

func (m *mockArtifactStore) DeleteDir(_ context.Context, _, _ string) (int, error) {
	return 0, nil
}

func (m *mockArtifactStore) DeleteInventory(_ context.Context, _ string) (int, error) {
	return 0, nil
}

func (m *mockArtifactStore) CountFiles(_ context.Context, _, dir string) (int, error) {
	return m.counts[dir], nil
}

func (m *mockArtifactStore) ProjectExists(_ context.Context, _ string) bool {
	return m.exists
}

// mockStatusStore implements driven.StatusStore for testing.
type mockStatusStore struct {
	status domain.ProjectStatus
}

func (m *mockStatusStore) GetStatus(_ context.Context, _ string) (domain.ProjectStatus, error) {
	return m.status, nil
}

func (m *mockStatusStore) SetStatus(_ context.Context, _ string, status domain.ProjectStatus) error {
	m.status = status
	return nil
}

// mockRunStore implements driven.RunStore for testing.
type mockRunStore struct {
	runs []domain.PipelineRun
	err  error
}

func (m *mockRunStore) RecordRun(_ context.Context, run *domain.PipelineRun) error {
	m.runs = append(m.runs, *run)
	return nil
}

func (m *mockRunStore) ListRuns(_ context.Context, _ string, limit int) ([]domain.PipelineRun, error) {
	if m.err != nil {
		return nil, m.err
	}
	if limit < len(m.runs) {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

func (m *mockRunStore) Close() error {
	return nil
}
