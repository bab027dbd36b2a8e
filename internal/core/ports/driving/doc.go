// Package driving defines the interfaces through which the outside
// world drives the core (primary ports in hexagonal architecture).
//
// The CLI adapter depends on these interfaces; core services implement
// them. Each pipeline stage has one driving port:
//
//   - Deduplicator: builds the document inventory
//   - ChunkingService: derives chunks from the inventory
//   - EmbeddingGenerator: derives embedded chunks from the chunk set
//   - RollbackCoordinator: deletes derived artifacts, with cascade
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or service package
package driving
