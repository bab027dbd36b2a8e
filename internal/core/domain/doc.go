// Package domain defines the core business entities for Prism.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SourceDocument: An extracted markdown artifact
//   - Inventory: The deduplicated view of a project's documents
//   - Chunk: A retrieval unit produced by the chunker
//   - EmbeddedChunk: A chunk with its vector embedding
//   - Stage: A pipeline stage with its cascade dependencies
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
