// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the pipeline to function:
//
//   - DocumentSource: Reads extracted markdown documents for a project
//   - TokenCounter: Maps text to a token count
//   - ArtifactStore: Persistence for inventories, chunks and embedded chunks
//   - StatusStore: The small per-project status record
//
// # Optional Interfaces
//
// These can be nil - the affected operations fail with a clear
// configuration diagnostic instead of degrading silently:
//
//   - EmbeddingService: Generates vector embeddings. Required only by the
//     embedding stage.
//   - SearchAdmin: Deletes managed search resources. Required only when
//     rolling back the index, source or agent stages.
//   - RunStore: Pipeline run bookkeeping. When nil, runs are not recorded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
