package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/prism-labs/prism-cli/internal/core/domain"
)

// noWait removes pacing and backoff so retry paths run instantly.
func noWait(t *testing.T) []EmbeddingOption {
	t.Helper()
	return []EmbeddingOption{
		WithRateLimiter(rate.NewLimiter(rate.Inf, 1)),
		WithSleep(func(_ context.Context, _ time.Duration) error { return nil }),
	}
}

func seedChunks(t *testing.T, store *memArtifactStore, hash string, count int) []domain.Chunk {
	t.Helper()
	chunks := make([]domain.Chunk, count)
	for i := 0; i < count; i++ {
		chunks[i] = domain.Chunk{
			ChunkID:         domain.ChunkID(hash, i),
			Content:         "plain content",
			EnrichedContent: "Document: doc\n\nplain content",
			ChunkIndex:      i,
			TotalChunks:     count,
			TokenCount:      250,
			DocumentHash:    hash,
		}
		require.NoError(t, store.WriteChunk(context.Background(), "acme", &chunks[i]))
	}
	return chunks
}

const testHash = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

// TestEmbedProject_EmbedsAll tests every chunk is embedded and
// persisted with model metadata
func TestEmbedProject_EmbedsAll(t *testing.T) {
	store := newMemArtifactStore()
	chunks := seedChunks(t, store, testHash, 3)
	embedder := newStubEmbedder()

	gen := NewEmbeddingGenerator(store, embedder, nil, noWait(t)...)
	stats, err := gen.EmbedProject(context.Background(), "acme", nil)

	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 0, stats.Failed)
	assert.True(t, embedder.pingCalled)

	ids, err := store.ListEmbeddedIDs(context.Background(), "acme")
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	embedded := store.embedded["acme"][chunks[0].ChunkID]
	assert.Equal(t, "test-embed", embedded.EmbeddingModel)
	assert.Equal(t, 4, embedded.EmbeddingDimensions)
	assert.Len(t, embedded.Embedding, 4)
}

// TestEmbedProject_ResumeSkipsEmbedded tests chunks with a persisted
// embedded chunk are skipped, not re-embedded
func TestEmbedProject_ResumeSkipsEmbedded(t *testing.T) {
	store := newMemArtifactStore()
	chunks := seedChunks(t, store, testHash, 4)
	embedder := newStubEmbedder()

	// Two chunks already embedded by a previous run.
	for _, chunk := range chunks[:2] {
		require.NoError(t, store.WriteEmbeddedChunk(context.Background(), "acme", &domain.EmbeddedChunk{
			Chunk:     chunk,
			Embedding: make([]float32, 4),
		}))
	}

	gen := NewEmbeddingGenerator(store, embedder, nil, noWait(t)...)
	stats, err := gen.EmbedProject(context.Background(), "acme", nil)

	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 2, stats.Skipped)

	// Only the pending chunks reached the embedding service.
	require.Len(t, embedder.batches, 1)
	assert.Len(t, embedder.batches[0], 2)
}

// TestEmbedProject_AllAlreadyEmbedded tests a fully-embedded project
// never contacts the embedding service
func TestEmbedProject_AllAlreadyEmbedded(t *testing.T) {
	store := newMemArtifactStore()
	chunks := seedChunks(t, store, testHash, 2)
	for _, chunk := range chunks {
		require.NoError(t, store.WriteEmbeddedChunk(context.Background(), "acme", &domain.EmbeddedChunk{
			Chunk:     chunk,
			Embedding: make([]float32, 4),
		}))
	}
	embedder := newStubEmbedder()

	gen := NewEmbeddingGenerator(store, embedder, nil, noWait(t)...)
	stats, err := gen.EmbedProject(context.Background(), "acme", nil)

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 0, stats.Processed)
	assert.False(t, embedder.pingCalled)
	assert.Empty(t, embedder.batches)
}

// TestEmbedProject_UnreachableService tests a failed ping aborts the
// run before any batch is sent
func TestEmbedProject_UnreachableService(t *testing.T) {
	store := newMemArtifactStore()
	seedChunks(t, store, testHash, 2)
	embedder := newStubEmbedder()
	embedder.pingErr = errors.New("connection refused")

	gen := NewEmbeddingGenerator(store, embedder, nil, noWait(t)...)
	_, err := gen.EmbedProject(context.Background(), "acme", nil)

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Empty(t, embedder.batches)
}

// TestEmbedProject_RetriesTransientFailures tests a batch retries with
// exponential backoff and succeeds
func TestEmbedProject_RetriesTransientFailures(t *testing.T) {
	store := newMemArtifactStore()
	seedChunks(t, store, testHash, 2)
	embedder := newStubEmbedder()
	embedder.failRemaining = 2

	var backoffs []time.Duration
	gen := NewEmbeddingGenerator(store, embedder, nil,
		WithRateLimiter(rate.NewLimiter(rate.Inf, 1)),
		WithSleep(func(_ context.Context, d time.Duration) error {
			backoffs = append(backoffs, d)
			return nil
		}),
	)

	stats, err := gen.EmbedProject(context.Background(), "acme", nil)

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 0, stats.Failed)
	assert.Len(t, embedder.batches, 3)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, backoffs)
}

// TestEmbedProject_PermanentBatchFailure tests a batch that exhausts
// its retries marks its chunks failed and the run continues
func TestEmbedProject_PermanentBatchFailure(t *testing.T) {
	store := newMemArtifactStore()
	chunks := seedChunks(t, store, testHash, 3)
	embedder := newStubEmbedder()

	// Poison the middle chunk's text so only its single-chunk batch
	// fails.
	poisoned := "poisoned enriched"
	chunks[1].EnrichedContent = poisoned
	require.NoError(t, store.WriteChunk(context.Background(), "acme", &chunks[1]))
	embedder.failTexts = map[string]bool{poisoned: true}

	gen := NewEmbeddingGenerator(store, embedder, nil,
		append(noWait(t), WithBatchSize(1), WithMaxRetries(2))...)

	stats, err := gen.EmbedProject(context.Background(), "acme", nil)

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, []string{chunks[1].ChunkID}, stats.FailedChunkIDs)
}

// TestEmbedProject_ProgressReported tests the progress callback sees
// the final count
func TestEmbedProject_ProgressReported(t *testing.T) {
	store := newMemArtifactStore()
	seedChunks(t, store, testHash, 5)
	embedder := newStubEmbedder()

	var lastDone, lastTotal int
	gen := NewEmbeddingGenerator(store, embedder, nil,
		append(noWait(t), WithBatchSize(2))...)

	_, err := gen.EmbedProject(context.Background(), "acme", func(done, total int) {
		lastDone, lastTotal = done, total
	})

	require.NoError(t, err)
	assert.Equal(t, 5, lastDone)
	assert.Equal(t, 5, lastTotal)
}

// TestEmbedProject_EnrichedTextPreferred tests the enriched form is
// sent to the embedding service when present
func TestEmbedProject_EnrichedTextPreferred(t *testing.T) {
	store := newMemArtifactStore()
	chunks := seedChunks(t, store, testHash, 1)
	embedder := newStubEmbedder()

	gen := NewEmbeddingGenerator(store, embedder, nil, noWait(t)...)
	_, err := gen.EmbedProject(context.Background(), "acme", nil)

	require.NoError(t, err)
	require.Len(t, embedder.batches, 1)
	assert.Equal(t, chunks[0].EnrichedContent, embedder.batches[0][0])
}

// TestEmbedProject_NoChunks tests embedding requires a prior chunking
// run
func TestEmbedProject_NoChunks(t *testing.T) {
	gen := NewEmbeddingGenerator(newMemArtifactStore(), newStubEmbedder(), nil, noWait(t)...)

	_, err := gen.EmbedProject(context.Background(), "acme", nil)

	assert.ErrorIs(t, err, domain.ErrMissingArtifact)
}

// TestEmbedProject_RecordsRun tests the run record carries the number
// of chunks embedded this run
func TestEmbedProject_RecordsRun(t *testing.T) {
	store := newMemArtifactStore()
	seedChunks(t, store, testHash, 2)
	runs := &stubRunStore{}

	gen := NewEmbeddingGenerator(store, newStubEmbedder(), runs, noWait(t)...)
	_, err := gen.EmbedProject(context.Background(), "acme", nil)

	require.NoError(t, err)
	require.Len(t, runs.runs, 1)
	assert.Equal(t, domain.StageEmbedding, runs.runs[0].Stage)
	assert.Equal(t, 2, runs.runs[0].ItemsProcessed)
}
