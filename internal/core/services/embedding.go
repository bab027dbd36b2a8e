package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/prism-labs/prism-cli/internal/core/domain"
	"github.com/prism-labs/prism-cli/internal/core/ports/driven"
	"github.com/prism-labs/prism-cli/internal/core/ports/driving"
	"github.com/prism-labs/prism-cli/internal/logger"
)

// Ensure EmbeddingGenerator implements the interface.
var _ driving.EmbeddingGenerator = (*EmbeddingGenerator)(nil)

// EmbedReportName is the embedding report filename, written into the
// embedded-documents directory.
const EmbedReportName = "embedding_report.md"

const (
	// DefaultBatchSize is the number of chunks embedded per request.
	DefaultBatchSize = 100

	// DefaultMaxRetries is the number of attempts per batch before its
	// chunks are recorded as failed.
	DefaultMaxRetries = 3

	// interBatchInterval paces requests so sustained runs stay inside
	// provider rate limits.
	interBatchInterval = 500 * time.Millisecond
)

// EmbeddingGenerator embeds a project's chunk set, skipping chunks
// already embedded on a previous run.
type EmbeddingGenerator struct {
	artifacts driven.ArtifactStore
	embedder  driven.EmbeddingService
	runs      driven.RunStore

	limiter    *rate.Limiter
	sleep      func(ctx context.Context, d time.Duration) error
	batchSize  int
	maxRetries int
}

// EmbeddingOption configures the embedding generator.
type EmbeddingOption func(*EmbeddingGenerator)

// WithBatchSize overrides the per-request batch size.
func WithBatchSize(n int) EmbeddingOption {
	return func(g *EmbeddingGenerator) {
		if n > 0 {
			g.batchSize = n
		}
	}
}

// WithMaxRetries overrides the per-batch attempt count.
func WithMaxRetries(n int) EmbeddingOption {
	return func(g *EmbeddingGenerator) {
		if n > 0 {
			g.maxRetries = n
		}
	}
}

// WithSleep overrides the retry backoff sleep. Tests inject a no-op so
// retry paths run instantly.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) EmbeddingOption {
	return func(g *EmbeddingGenerator) {
		if sleep != nil {
			g.sleep = sleep
		}
	}
}

// WithRateLimiter overrides the inter-batch limiter.
func WithRateLimiter(limiter *rate.Limiter) EmbeddingOption {
	return func(g *EmbeddingGenerator) {
		if limiter != nil {
			g.limiter = limiter
		}
	}
}

// NewEmbeddingGenerator creates an embedding generator. runs may be
// nil to disable run-history recording.
func NewEmbeddingGenerator(
	artifacts driven.ArtifactStore,
	embedder driven.EmbeddingService,
	runs driven.RunStore,
	opts ...EmbeddingOption,
) *EmbeddingGenerator {
	g := &EmbeddingGenerator{
		artifacts:  artifacts,
		embedder:   embedder,
		runs:       runs,
		limiter:    rate.NewLimiter(rate.Every(interBatchInterval), 1),
		sleep:      sleepContext,
		batchSize:  DefaultBatchSize,
		maxRetries: DefaultMaxRetries,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// EmbedProject embeds every chunk in the project that does not already
// have a persisted embedded chunk. Each embedded chunk is written as
// soon as its batch succeeds, so an interrupted run resumes from the
// last completed batch. A batch that exhausts its retries marks its
// chunks failed and the run continues; only an unreachable embedding
// service aborts the run.
func (g *EmbeddingGenerator) EmbedProject(ctx context.Context, project string, progress driving.EmbedProgress) (stats *driving.EmbeddingStats, err error) {
	startedAt := time.Now()
	defer func() {
		items := 0
		if stats != nil {
			items = stats.Processed
		}
		recordRun(ctx, g.runs, project, domain.StageEmbedding, startedAt, items, err)
	}()

	chunks, err := g.artifacts.ListChunks(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, domain.ErrNoDocuments
	}

	// The skip set is computed once up front. Chunks embedded during
	// this run are not re-checked against it.
	done, err := g.artifacts.ListEmbeddedIDs(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("list embedded chunks: %w", err)
	}

	stats = &driving.EmbeddingStats{Total: len(chunks)}

	var pending []domain.Chunk
	for _, chunk := range chunks {
		if done[chunk.ChunkID] {
			stats.Skipped++
			continue
		}
		pending = append(pending, chunk)
	}

	if len(pending) == 0 {
		logger.Info("All %d chunks already embedded", stats.Total)
		return stats, nil
	}

	if err := g.embedder.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}

	logger.Info("Embedding %d chunks (%d already done) with %s",
		len(pending), stats.Skipped, g.embedder.ModelName())

	handled := 0
	for start := 0; start < len(pending); start += g.batchSize {
		end := start + g.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		vectors, batchErr := g.embedBatchWithRetry(ctx, batch)
		if batchErr != nil {
			if errors.Is(batchErr, context.Canceled) || errors.Is(batchErr, context.DeadlineExceeded) {
				return nil, batchErr
			}
			logger.Debug("Batch %d-%d failed permanently: %v", start, end, batchErr)
			for _, chunk := range batch {
				stats.Failed++
				stats.FailedChunkIDs = append(stats.FailedChunkIDs, chunk.ChunkID)
			}
			handled += len(batch)
			reportProgress(progress, handled, len(pending))
			continue
		}

		for i := range batch {
			embedded := &domain.EmbeddedChunk{
				Chunk:               batch[i],
				Embedding:           vectors[i],
				EmbeddingModel:      g.embedder.ModelName(),
				EmbeddingDimensions: g.embedder.Dimensions(),
			}
			if writeErr := g.artifacts.WriteEmbeddedChunk(ctx, project, embedded); writeErr != nil {
				logger.Debug("Failed to write embedded chunk %s: %v", batch[i].ChunkID, writeErr)
				stats.Failed++
				stats.FailedChunkIDs = append(stats.FailedChunkIDs, batch[i].ChunkID)
				continue
			}
			stats.Processed++
		}

		handled += len(batch)
		reportProgress(progress, handled, len(pending))
	}

	report := renderEmbedReport(stats, g.embedder.ModelName(), g.embedder.Dimensions())
	if reportErr := g.artifacts.WriteReport(ctx, project, domain.DirEmbeddedDocuments, EmbedReportName, report); reportErr != nil {
		logger.Debug("Failed to write embedding report: %v", reportErr)
	}

	logger.Info("Embedding complete: %d processed, %d skipped, %d failed",
		stats.Processed, stats.Skipped, stats.Failed)

	return stats, nil
}

// embedBatchWithRetry embeds one batch, retrying transient failures
// with exponential backoff.
func (g *EmbeddingGenerator) embedBatchWithRetry(ctx context.Context, batch []domain.Chunk) ([][]float32, error) {
	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = embeddingText(chunk)
	}

	var lastErr error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		vectors, err := g.embedder.EmbedBatch(ctx, texts)
		if err == nil {
			if len(vectors) != len(texts) {
				return nil, fmt.Errorf("embedding service returned %d vectors for %d texts", len(vectors), len(texts))
			}
			return vectors, nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}

		if attempt < g.maxRetries {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			logger.Debug("Embed attempt %d/%d failed, retrying in %s: %v", attempt, g.maxRetries, backoff, err)
			if sleepErr := g.sleep(ctx, backoff); sleepErr != nil {
				return nil, sleepErr
			}
		}
	}

	return nil, fmt.Errorf("embed batch after %d attempts: %w", g.maxRetries, lastErr)
}

// embeddingText returns the text to embed for a chunk. The enriched
// form carries document and section context; plain content is the
// fallback for chunks produced without enrichment.
func embeddingText(chunk domain.Chunk) string {
	if chunk.EnrichedContent != "" {
		return chunk.EnrichedContent
	}
	return chunk.Content
}

func reportProgress(progress driving.EmbedProgress, done, total int) {
	if progress != nil {
		progress(done, total)
	}
}

// sleepContext sleeps for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// renderEmbedReport renders the human-readable embedding report.
func renderEmbedReport(stats *driving.EmbeddingStats, model string, dimensions int) string {
	var b strings.Builder

	b.WriteString("# Embedding Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", time.Now().Format(time.RFC3339))
	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Model: %s (%d dimensions)\n", model, dimensions)
	fmt.Fprintf(&b, "- Total chunks: %d\n", stats.Total)
	fmt.Fprintf(&b, "- Embedded this run: %d\n", stats.Processed)
	fmt.Fprintf(&b, "- Skipped (already embedded): %d\n", stats.Skipped)
	fmt.Fprintf(&b, "- Failed: %d\n", stats.Failed)

	if len(stats.FailedChunkIDs) > 0 {
		b.WriteString("\n## Failed Chunks\n\n")
		for _, id := range stats.FailedChunkIDs {
			fmt.Fprintf(&b, "- %s\n", id)
		}
	}

	return b.String()
}
