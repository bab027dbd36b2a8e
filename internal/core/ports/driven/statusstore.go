package driven

import (
	"context"

	"github.com/prism-labs/prism-cli/internal/core/domain"
)

// StatusStore reads and updates the per-project status record. Both the
// pipeline (setting flags as resources are created) and the rollback
// coordinator (clearing them as resources are deleted) use it.
type StatusStore interface {
	// GetStatus loads the project's status. A project with no status
	// record yet returns the zero value, not an error.
	GetStatus(ctx context.Context, project string) (domain.ProjectStatus, error)

	// SetStatus persists the project's status.
	SetStatus(ctx context.Context, project string, status domain.ProjectStatus) error
}
