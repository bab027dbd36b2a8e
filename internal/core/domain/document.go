package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// SourceDocument represents one extracted markdown artifact.
// It is produced by the (external) extraction stage and is read-only
// to the pipeline: the pipeline derives from it but never mutates it.
type SourceDocument struct {
	// Path is the document's location within the extraction output tree.
	Path string

	// RelativePath is Path relative to the extraction output root.
	RelativePath string

	// Content is the full markdown text.
	Content string

	// ContentHash is the SHA-256 fingerprint of Content.
	ContentHash string

	// SizeBytes is the file size on disk.
	SizeBytes int64

	// ModifiedTime is the file modification time, used to pick the
	// canonical copy within a duplicate-content group.
	ModifiedTime time.Time
}

// HashContent returns the SHA-256 hex digest of the document text.
// The hash is the document's identity for deduplication and for
// deriving stable chunk identifiers.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Inventory is the deduplicated view of a project's source documents.
// It is rebuilt wholesale on every deduplication run, never updated
// incrementally.
type Inventory struct {
	// GeneratedAt is when the deduplication run produced this inventory.
	GeneratedAt time.Time `json:"generated_at"`

	// TotalDocuments is the number of entries (unique content hashes).
	TotalDocuments int `json:"total_documents"`

	// Documents holds one entry per distinct content hash.
	Documents []InventoryEntry `json:"documents"`
}

// InventoryEntry records the canonical document chosen for one
// content-hash group, plus the duplicates that were set aside.
type InventoryEntry struct {
	// ContentHash identifies the group.
	ContentHash string `json:"content_hash"`

	// Path is the canonical document's location.
	Path string `json:"path"`

	// RelativePath is Path relative to the extraction output root.
	RelativePath string `json:"relative_path"`

	// SizeBytes is the canonical document's size.
	SizeBytes int64 `json:"size_bytes"`

	// ModifiedTime is the canonical document's modification time.
	ModifiedTime time.Time `json:"modified_datetime"`

	// HasDuplicates is true when the group had more than one member.
	HasDuplicates bool `json:"has_duplicates"`

	// DuplicateCount is the number of non-canonical copies.
	DuplicateCount int `json:"duplicate_count"`

	// DuplicatePaths lists every non-canonical member's relative path.
	DuplicatePaths []string `json:"duplicate_paths"`
}
