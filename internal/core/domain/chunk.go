package domain

import (
	"fmt"
	"strings"
)

// Chunking thresholds, in tokens. These drive split decisions,
// merge decisions and the final filter.
const (
	// TargetChunkTokens is the upper bound aimed for per chunk.
	TargetChunkTokens = 1000

	// ChunkOverlapTokens is the overlap between consecutive sub-chunks
	// when an oversized segment is split.
	ChunkOverlapTokens = 200

	// MinSectionTokens is the merge threshold: heading sections below it
	// are concatenated with the following section.
	MinSectionTokens = 400

	// MinChunkTokens is the filter threshold: chunks below it are
	// discarded, not merged. With 200-token overlap such a fragment
	// would be near-entirely duplicate content.
	MinChunkTokens = 200
)

// HeaderKey returns the section-hierarchy key for a heading depth,
// e.g. "Header 2" for level 2. This is also the wire format used in
// persisted chunk files.
func HeaderKey(level int) string {
	return fmt.Sprintf("Header %d", level)
}

// SectionHierarchy maps heading keys ("Header 1".."Header 4") to the
// most recent heading text seen at that depth.
type SectionHierarchy map[string]string

// Clone returns a copy of the hierarchy. A nil hierarchy clones to nil.
func (h SectionHierarchy) Clone() SectionHierarchy {
	if h == nil {
		return nil
	}
	out := make(SectionHierarchy, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// Title picks the section title from the hierarchy, preferring the
// depths authors typically use to title sections: level 2, then 3,
// then 1, then 4. Returns "" when no heading is recorded.
func (h SectionHierarchy) Title() string {
	for _, level := range []int{2, 3, 1, 4} {
		if title, ok := h[HeaderKey(level)]; ok && title != "" {
			return title
		}
	}
	return ""
}

// Chunk is one retrieval unit derived from a canonical document.
// Chunks are immutable once created; only rollback deletes them.
type Chunk struct {
	// ChunkID is the deterministic identifier: the first 8 hex chars of
	// the owning document's content hash plus a zero-padded sequence
	// number. Stable across reruns on unchanged input.
	ChunkID string `json:"chunk_id"`

	// Content is the raw chunk text.
	Content string `json:"content"`

	// EnrichedContent is Content prefixed with a document/section/page
	// context block. Embedding the context alongside the content
	// improves retrieval accuracy.
	EnrichedContent string `json:"enriched_content"`

	// SourceFile is the cleaned source document name.
	SourceFile string `json:"source_file"`

	// SourcePath is the source document's path in the extraction tree.
	SourcePath string `json:"source_path"`

	// PageNumber is the page this chunk came from (1 when the document
	// has no page markers).
	PageNumber int `json:"page_number"`

	// ChunkIndex is the 0-based position within the document, assigned
	// after filtering so indices are contiguous.
	ChunkIndex int `json:"chunk_index"`

	// TotalChunks is the count of surviving chunks for the document.
	TotalChunks int `json:"total_chunks"`

	// TokenCount is the token count of Content.
	TokenCount int `json:"token_count"`

	// EnrichedTokenCount is the token count of EnrichedContent.
	EnrichedTokenCount int `json:"enriched_token_count"`

	// DocumentHash links the chunk to its inventory entry.
	DocumentHash string `json:"document_hash"`

	// SectionTitle is the preferred heading for this chunk, if any.
	SectionTitle string `json:"section_title,omitempty"`

	// SectionHierarchy records the active headings per depth.
	SectionHierarchy SectionHierarchy `json:"section_hierarchy,omitempty"`
}

// ChunkID builds the deterministic chunk identifier for a document
// hash and sequence position.
func ChunkID(documentHash string, index int) string {
	prefix := documentHash
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("%s_chunk_%03d", prefix, index)
}

// EmbeddedChunk is a Chunk plus its vector embedding. One-to-one with
// a persisted Chunk, sharing its ChunkID.
type EmbeddedChunk struct {
	Chunk

	// Embedding is the fixed-length vector returned by the embedding
	// service.
	Embedding []float32 `json:"embedding"`

	// EmbeddingModel names the model that produced the vector.
	EmbeddingModel string `json:"embedding_model"`

	// EmbeddingDimensions is the vector length.
	EmbeddingDimensions int `json:"embedding_dimensions"`
}

// CleanSectionTitle strips markdown emphasis markers and collapses
// whitespace so titles read cleanly in context blocks.
func CleanSectionTitle(title string) string {
	title = strings.ReplaceAll(title, "**", "")
	title = strings.ReplaceAll(title, "*", "")
	return strings.Join(strings.Fields(title), " ")
}
