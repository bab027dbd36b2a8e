package driving

import (
	"context"

	"github.com/prism-labs/prism-cli/internal/core/domain"
)

// DedupSummary reports the outcome of a deduplication run.
type DedupSummary struct {
	// TotalDocuments is the number of source documents analysed.
	TotalDocuments int

	// UniqueDocuments is the number of distinct content hashes.
	UniqueDocuments int

	// DuplicateCopies is the number of non-canonical copies set aside.
	DuplicateCopies int
}

// Deduplicator groups a project's source documents by content
// fingerprint and persists the resulting inventory.
type Deduplicator interface {
	// Deduplicate rebuilds the project's inventory. Re-running it with
	// unchanged inputs yields an identical inventory apart from the
	// generation timestamp.
	Deduplicate(ctx context.Context, project string) (*DedupSummary, error)
}

// ChunkingSummary reports the outcome of a chunking run.
type ChunkingSummary struct {
	// DocumentsProcessed is the number of canonical documents chunked.
	DocumentsProcessed int

	// DocumentsFailed is the number of documents that could not be
	// chunked. Per-document failures are reported, not fatal.
	DocumentsFailed int

	// ChunksCreated is the number of chunks persisted.
	ChunksCreated int

	// Errors holds per-document failure messages.
	Errors []string
}

// ChunkingService derives chunks for every canonical document in the
// project's inventory.
type ChunkingService interface {
	// ChunkProject chunks every inventory entry's document and persists
	// one file per chunk. Returns domain.ErrMissingArtifact when no
	// inventory exists.
	ChunkProject(ctx context.Context, project string) (*ChunkingSummary, error)
}

// EmbeddingStats aggregates an embedding run. A chunk is counted in
// exactly one of Processed, Skipped or Failed.
type EmbeddingStats struct {
	// Total is the number of chunks considered.
	Total int

	// Processed is the number of chunks newly embedded this run.
	Processed int

	// Skipped is the number of chunks that already had a persisted
	// embedded chunk (resume).
	Skipped int

	// Failed is the number of chunks whose batch exhausted its retries.
	Failed int

	// FailedChunkIDs identifies every permanently-failed chunk.
	FailedChunkIDs []string
}

// EmbedProgress is invoked as an embedding run advances, with the
// number of chunks handled so far out of the chunks to process.
type EmbedProgress func(done, total int)

// EmbeddingGenerator produces an embedded chunk for every chunk in the
// project, skipping chunks already embedded on a previous run.
type EmbeddingGenerator interface {
	// EmbedProject embeds the project's chunk set. Partial per-chunk
	// failures are reported in the stats, not returned as an error; the
	// run fails hard only when the embedding service cannot be reached
	// at all. progress may be nil.
	EmbedProject(ctx context.Context, project string, progress EmbedProgress) (*EmbeddingStats, error)
}

// RollbackCoordinator deletes the derived artifacts for a stage and,
// when cascading, for every stage that depends on it.
type RollbackCoordinator interface {
	// Rollback tears down the resolved stage set in reverse-dependency
	// order, aggregating per-stage failures while reporting what did
	// get deleted.
	Rollback(ctx context.Context, project string, stage domain.Stage, cascade bool) (*domain.RollbackResult, error)

	// Preview reports what a rollback would remove, without removing
	// anything.
	Preview(ctx context.Context, project string, stage domain.Stage, cascade bool) (*domain.RollbackPreview, error)
}
