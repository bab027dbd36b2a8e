package driven

import (
	"context"

	"github.com/prism-labs/prism-cli/internal/core/domain"
)

// ArtifactStore persists the pipeline's derived artifacts, addressed by
// project name: one inventory per project, one file per chunk, one file
// per embedded chunk, plus human-readable stage reports.
//
// Writes must be atomic per artifact: a crashed run never leaves a
// partially-written chunk or embedded chunk visible to readers. Each
// artifact collection is owned exclusively by its producing stage while
// being written; only rollback deletes across stages.
type ArtifactStore interface {
	// WriteInventory replaces the project's inventory.
	WriteInventory(ctx context.Context, project string, inv *domain.Inventory) error

	// ReadInventory loads the project's inventory. Returns
	// domain.ErrMissingArtifact when no inventory exists.
	ReadInventory(ctx context.Context, project string) (*domain.Inventory, error)

	// WriteChunk persists one chunk, named by its ChunkID. Rewriting an
	// unchanged chunk is an idempotent overwrite.
	WriteChunk(ctx context.Context, project string, chunk *domain.Chunk) error

	// ListChunks loads every persisted chunk for the project. Returns
	// domain.ErrMissingArtifact when the chunking stage has not run.
	ListChunks(ctx context.Context, project string) ([]domain.Chunk, error)

	// WriteEmbeddedChunk persists one embedded chunk, named by its
	// ChunkID. The write is atomic with respect to that chunk.
	WriteEmbeddedChunk(ctx context.Context, project string, chunk *domain.EmbeddedChunk) error

	// ListEmbeddedIDs returns the set of chunk IDs that already have a
	// persisted embedded chunk. An empty set when the embedding stage
	// has not run.
	ListEmbeddedIDs(ctx context.Context, project string) (map[string]bool, error)

	// WriteReport writes a human-readable stage report into the given
	// artifact directory.
	WriteReport(ctx context.Context, project, dir, name, content string) error

	// DeleteDir removes an artifact directory tree and returns the
	// number of files deleted. A missing directory is not an error and
	// reports zero.
	DeleteDir(ctx context.Context, project, dir string) (int, error)

	// DeleteInventory removes the project's inventory file. Returns the
	// number of files deleted (0 or 1); a missing file is not an error.
	DeleteInventory(ctx context.Context, project string) (int, error)

	// CountFiles returns the number of files under an artifact
	// directory, zero when it does not exist.
	CountFiles(ctx context.Context, project, dir string) (int, error)

	// ProjectExists reports whether the project directory exists.
	ProjectExists(ctx context.Context, project string) bool
}
