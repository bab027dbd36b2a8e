package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/prism-labs/prism-cli/internal/core/domain"
)

// --- Shared test doubles for the pipeline services ---

// memArtifactStore is an in-memory artifact store. Rollback tests seed
// dirFiles with per-directory file counts; chunk and inventory state is
// kept for real so resume and idempotency paths exercise actual data.
type memArtifactStore struct {
	mu sync.Mutex

	inventories map[string]*domain.Inventory
	chunks      map[string]map[string]domain.Chunk
	embedded    map[string]map[string]domain.EmbeddedChunk
	reports     map[string]string
	dirFiles    map[string]int

	projectMissing  bool
	writeChunkErr   error
	writeEmbedErr   error
	deleteDirErr    map[string]error
	deletedDirs     []string
	deletedInvCount int
}

func newMemArtifactStore() *memArtifactStore {
	return &memArtifactStore{
		inventories: make(map[string]*domain.Inventory),
		chunks:      make(map[string]map[string]domain.Chunk),
		embedded:    make(map[string]map[string]domain.EmbeddedChunk),
		reports:     make(map[string]string),
		dirFiles:    make(map[string]int),
		deleteDirErr: make(map[string]error),
	}
}

func (m *memArtifactStore) WriteInventory(_ context.Context, project string, inv *domain.Inventory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inventories[project] = inv
	return nil
}

func (m *memArtifactStore) ReadInventory(_ context.Context, project string) (*domain.Inventory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.inventories[project]
	if !ok {
		return nil, domain.ErrMissingArtifact
	}
	return inv, nil
}

func (m *memArtifactStore) WriteChunk(_ context.Context, project string, chunk *domain.Chunk) error {
	if m.writeChunkErr != nil {
		return m.writeChunkErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.chunks[project] == nil {
		m.chunks[project] = make(map[string]domain.Chunk)
	}
	m.chunks[project][chunk.ChunkID] = *chunk
	return nil
}

func (m *memArtifactStore) ListChunks(_ context.Context, project string) ([]domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byID, ok := m.chunks[project]
	if !ok {
		return nil, domain.ErrMissingArtifact
	}
	out := make([]domain.Chunk, 0, len(byID))
	for _, chunk := range byID {
		out = append(out, chunk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkID < out[j].ChunkID })
	return out, nil
}

func (m *memArtifactStore) WriteEmbeddedChunk(_ context.Context, project string, chunk *domain.EmbeddedChunk) error {
	if m.writeEmbedErr != nil {
		return m.writeEmbedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.embedded[project] == nil {
		m.embedded[project] = make(map[string]domain.EmbeddedChunk)
	}
	m.embedded[project][chunk.ChunkID] = *chunk
	return nil
}

func (m *memArtifactStore) ListEmbeddedIDs(_ context.Context, project string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make(map[string]bool, len(m.embedded[project]))
	for id := range m.embedded[project] {
		ids[id] = true
	}
	return ids, nil
}

func (m *memArtifactStore) WriteReport(_ context.Context, _ string, dir, name, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[dir+"/"+name] = content
	return nil
}

func (m *memArtifactStore) DeleteDir(_ context.Context, _ string, dir string) (int, error) {
	if err := m.deleteDirErr[dir]; err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	count := m.dirFiles[dir]
	m.dirFiles[dir] = 0
	m.deletedDirs = append(m.deletedDirs, dir)
	return count, nil
}

func (m *memArtifactStore) DeleteInventory(_ context.Context, project string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.inventories[project]; !ok {
		return 0, nil
	}
	delete(m.inventories, project)
	m.deletedInvCount++
	return 1, nil
}

func (m *memArtifactStore) CountFiles(_ context.Context, _ string, dir string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirFiles[dir], nil
}

func (m *memArtifactStore) ProjectExists(_ context.Context, _ string) bool {
	return !m.projectMissing
}

// stubDocSource serves a fixed document list and per-path contents.
type stubDocSource struct {
	docs     []domain.SourceDocument
	listErr  error
	contents map[string]string
	readErr  map[string]error
}

func (s *stubDocSource) List(_ context.Context, _ string) ([]domain.SourceDocument, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.docs, nil
}

func (s *stubDocSource) Read(_ context.Context, _ string, path string) (string, error) {
	if err := s.readErr[path]; err != nil {
		return "", err
	}
	content, ok := s.contents[path]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	return content, nil
}

// stubChunker returns canned chunks keyed by document path.
type stubChunker struct {
	chunksFor map[string][]domain.Chunk
	errFor    map[string]error
}

func (s *stubChunker) ChunkDocument(doc *domain.SourceDocument) ([]domain.Chunk, error) {
	if err := s.errFor[doc.Path]; err != nil {
		return nil, err
	}
	return s.chunksFor[doc.Path], nil
}

// stubEmbedder records every batch it receives. failRemaining makes the
// first N EmbedBatch calls fail; failTexts fails any batch containing
// one of the given texts.
type stubEmbedder struct {
	dims  int
	model string

	pingErr       error
	pingCalled    bool
	failRemaining int
	failTexts     map[string]bool
	batches       [][]string
	closed        bool
}

func newStubEmbedder() *stubEmbedder {
	return &stubEmbedder{dims: 4, model: "test-embed"}
}

func (e *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.batches = append(e.batches, texts)
	if e.failRemaining > 0 {
		e.failRemaining--
		return nil, fmt.Errorf("transient embed failure")
	}
	for _, text := range texts {
		if e.failTexts[text] {
			return nil, fmt.Errorf("poisoned text")
		}
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, e.dims)
		vec[0] = float32(len(text))
		out[i] = vec
	}
	return out, nil
}

func (e *stubEmbedder) Dimensions() int   { return e.dims }
func (e *stubEmbedder) ModelName() string { return e.model }

func (e *stubEmbedder) Ping(_ context.Context) error {
	e.pingCalled = true
	return e.pingErr
}

func (e *stubEmbedder) Close() error {
	e.closed = true
	return nil
}

// stubSearchAdmin records deletions by resource name.
type stubSearchAdmin struct {
	deleted   []string
	indexErr  error
	sourceErr error
	agentErr  error
}

func (s *stubSearchAdmin) DeleteIndex(_ context.Context, name string) error {
	if s.indexErr != nil {
		return s.indexErr
	}
	s.deleted = append(s.deleted, name)
	return nil
}

func (s *stubSearchAdmin) DeleteKnowledgeSource(_ context.Context, name string) error {
	if s.sourceErr != nil {
		return s.sourceErr
	}
	s.deleted = append(s.deleted, name)
	return nil
}

func (s *stubSearchAdmin) DeleteKnowledgeAgent(_ context.Context, name string) error {
	if s.agentErr != nil {
		return s.agentErr
	}
	s.deleted = append(s.deleted, name)
	return nil
}

// stubStatusStore keeps per-project status in memory.
type stubStatusStore struct {
	statuses map[string]domain.ProjectStatus
	getErr   error
	setErr   error
}

func newStubStatusStore() *stubStatusStore {
	return &stubStatusStore{statuses: make(map[string]domain.ProjectStatus)}
}

func (s *stubStatusStore) GetStatus(_ context.Context, project string) (domain.ProjectStatus, error) {
	if s.getErr != nil {
		return domain.ProjectStatus{}, s.getErr
	}
	return s.statuses[project], nil
}

func (s *stubStatusStore) SetStatus(_ context.Context, project string, status domain.ProjectStatus) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.statuses[project] = status
	return nil
}

// stubRunStore records runs in memory.
type stubRunStore struct {
	runs []domain.PipelineRun
}

func (s *stubRunStore) RecordRun(_ context.Context, run *domain.PipelineRun) error {
	s.runs = append(s.runs, *run)
	return nil
}

func (s *stubRunStore) ListRuns(_ context.Context, project string, limit int) ([]domain.PipelineRun, error) {
	var out []domain.PipelineRun
	for i := len(s.runs) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if s.runs[i].Project == project {
			out = append(out, s.runs[i])
		}
	}
	return out, nil
}

func (s *stubRunStore) Close() error { return nil }
