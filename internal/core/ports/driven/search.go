package driven

import "context"

// SearchAdmin deletes managed search-service resources by name. Names
// are derived deterministically from the project (domain.IndexName and
// friends); only the rollback coordinator calls these.
//
// Deleting a resource that does not exist must succeed: rollback of an
// already-rolled-back stage is idempotent, not an error.
type SearchAdmin interface {
	// DeleteIndex removes the search index.
	DeleteIndex(ctx context.Context, name string) error

	// DeleteKnowledgeSource removes the knowledge source wrapping the
	// index.
	DeleteKnowledgeSource(ctx context.Context, name string) error

	// DeleteKnowledgeAgent removes the knowledge agent.
	DeleteKnowledgeAgent(ctx context.Context, name string) error
}
