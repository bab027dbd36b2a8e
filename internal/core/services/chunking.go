package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prism-labs/prism-cli/internal/core/domain"
	"github.com/prism-labs/prism-cli/internal/core/ports/driven"
	"github.com/prism-labs/prism-cli/internal/core/ports/driving"
	"github.com/prism-labs/prism-cli/internal/logger"
)

// Ensure ChunkingService implements the interface.
var _ driving.ChunkingService = (*ChunkingService)(nil)

// ChunkReportName is the chunking report filename, written into the
// chunked-documents directory.
const ChunkReportName = "chunking_report.md"

// ChunkingService chunks every canonical document in the project's
// inventory.
type ChunkingService struct {
	source    driven.DocumentSource
	artifacts driven.ArtifactStore
	chunker   driven.Chunker
	runs      driven.RunStore
}

// NewChunkingService creates a chunking service. runs may be nil to
// disable run-history recording.
func NewChunkingService(
	source driven.DocumentSource,
	artifacts driven.ArtifactStore,
	chunker driven.Chunker,
	runs driven.RunStore,
) *ChunkingService {
	return &ChunkingService{
		source:    source,
		artifacts: artifacts,
		chunker:   chunker,
		runs:      runs,
	}
}

// ChunkProject chunks every canonical document listed in the
// inventory. Duplicates never reach the chunker: only the canonical
// copy of each content-hash group is processed. A document that fails
// to read or chunk is reported in the summary and does not stop the
// run.
func (s *ChunkingService) ChunkProject(ctx context.Context, project string) (summary *driving.ChunkingSummary, err error) {
	startedAt := time.Now()
	defer func() {
		items := 0
		if summary != nil {
			items = summary.ChunksCreated
		}
		recordRun(ctx, s.runs, project, domain.StageChunking, startedAt, items, err)
	}()

	inv, err := s.artifacts.ReadInventory(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("read inventory: %w", err)
	}
	if len(inv.Documents) == 0 {
		return nil, domain.ErrNoDocuments
	}

	logger.Info("Chunking %d documents", len(inv.Documents))

	summary = &driving.ChunkingSummary{}
	perDocument := make(map[string]int, len(inv.Documents))

	for _, entry := range inv.Documents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		chunks, chunkErr := s.chunkOne(ctx, project, entry)
		if chunkErr != nil {
			summary.DocumentsFailed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", entry.RelativePath, chunkErr))
			logger.Debug("Failed to chunk %s: %v", entry.RelativePath, chunkErr)
			continue
		}

		summary.DocumentsProcessed++
		summary.ChunksCreated += len(chunks)
		perDocument[entry.RelativePath] = len(chunks)
		logger.Debug("Chunked %s: %d chunks", entry.RelativePath, len(chunks))
	}

	report := renderChunkReport(inv, summary, perDocument)
	if reportErr := s.artifacts.WriteReport(ctx, project, domain.DirChunkedDocuments, ChunkReportName, report); reportErr != nil {
		logger.Debug("Failed to write chunking report: %v", reportErr)
	}

	logger.Info("Chunking complete: %d documents, %d chunks, %d failures",
		summary.DocumentsProcessed, summary.ChunksCreated, summary.DocumentsFailed)

	return summary, nil
}

// chunkOne reads, chunks and persists one canonical document.
func (s *ChunkingService) chunkOne(ctx context.Context, project string, entry domain.InventoryEntry) ([]domain.Chunk, error) {
	content, err := s.source.Read(ctx, project, entry.Path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	doc := &domain.SourceDocument{
		Path:         entry.Path,
		RelativePath: entry.RelativePath,
		Content:      content,
		ContentHash:  entry.ContentHash,
		SizeBytes:    entry.SizeBytes,
		ModifiedTime: entry.ModifiedTime,
	}

	chunks, err := s.chunker.ChunkDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("chunk document: %w", err)
	}

	for i := range chunks {
		if err := s.artifacts.WriteChunk(ctx, project, &chunks[i]); err != nil {
			return nil, fmt.Errorf("write chunk %s: %w", chunks[i].ChunkID, err)
		}
	}

	return chunks, nil
}

// renderChunkReport renders the human-readable chunking report.
func renderChunkReport(inv *domain.Inventory, summary *driving.ChunkingSummary, perDocument map[string]int) string {
	var b strings.Builder

	b.WriteString("# Chunking Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", time.Now().Format(time.RFC3339))
	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Documents processed: %d\n", summary.DocumentsProcessed)
	fmt.Fprintf(&b, "- Documents failed: %d\n", summary.DocumentsFailed)
	fmt.Fprintf(&b, "- Chunks created: %d\n", summary.ChunksCreated)

	b.WriteString("\n## Documents\n\n")
	for _, entry := range inv.Documents {
		if count, ok := perDocument[entry.RelativePath]; ok {
			fmt.Fprintf(&b, "- %s: %d chunks\n", entry.RelativePath, count)
		}
	}

	if len(summary.Errors) > 0 {
		b.WriteString("\n## Failures\n\n")
		for _, msg := range summary.Errors {
			fmt.Fprintf(&b, "- %s\n", msg)
		}
	}

	return b.String()
}
