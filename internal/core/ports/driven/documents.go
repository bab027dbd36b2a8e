package driven

import (
	"context"

	"github.com/prism-labs/prism-cli/internal/core/domain"
)

// DocumentSource reads the extraction stage's output: one markdown file
// per source document, addressed by project. The extraction stage itself
// is an external collaborator; the pipeline only consumes its tree.
type DocumentSource interface {
	// List returns every extracted document for the project, with
	// content and file metadata loaded. Returns domain.ErrNoDocuments
	// when the extraction output is absent or empty.
	List(ctx context.Context, project string) ([]domain.SourceDocument, error)

	// Read returns one document's content by its path within the
	// extraction tree.
	Read(ctx context.Context, project, path string) (string, error)
}
