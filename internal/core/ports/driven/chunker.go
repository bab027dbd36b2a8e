package driven

import "github.com/prism-labs/prism-cli/internal/core/domain"

// Chunker splits one canonical source document into retrieval-sized
// chunks. For unchanged input the ordered chunk IDs and contents must
// be byte-identical across runs; this underwrites the resumability of
// the embedding stage.
type Chunker interface {
	// ChunkDocument produces zero or more chunks for the document.
	// Chunk indices are contiguous from 0 and TotalChunks is set on
	// every returned chunk.
	ChunkDocument(doc *domain.SourceDocument) ([]domain.Chunk, error)
}
