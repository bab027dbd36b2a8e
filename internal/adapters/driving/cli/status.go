package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prism-labs/prism-cli/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a project's pipeline status",
	Long: `Shows the project's per-stage artifact counts and whether external
search resources exist for it.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if artifactStore == nil || statusStore == nil {
		return errors.New("status services not configured")
	}

	project, err := requireProject()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	if !artifactStore.ProjectExists(ctx, project) {
		return fmt.Errorf("%w: %s", domain.ErrProjectNotFound, project)
	}

	cmd.Printf("Project: %s\n", project)

	dirs := []struct {
		label string
		dir   string
	}{
		{"Extracted documents", domain.DirExtractionResults},
		{"Chunks", domain.DirChunkedDocuments},
		{"Embedded chunks", domain.DirEmbeddedDocuments},
		{"Indexing reports", domain.DirIndexingReports},
	}
	for _, d := range dirs {
		count, err := artifactStore.CountFiles(ctx, project, d.dir)
		if err != nil {
			return fmt.Errorf("count %s: %w", d.dir, err)
		}
		cmd.Printf("  %-20s %d files\n", d.label+":", count)
	}

	if inv, err := artifactStore.ReadInventory(ctx, project); err == nil {
		duplicates := 0
		for _, entry := range inv.Documents {
			duplicates += entry.DuplicateCount
		}
		cmd.Printf("  %-20s %d entries (%d duplicates)\n",
			"Inventory:", len(inv.Documents), duplicates)
	} else if errors.Is(err, domain.ErrMissingArtifact) {
		cmd.Printf("  %-20s none\n", "Inventory:")
	} else {
		return fmt.Errorf("read inventory: %w", err)
	}

	status, err := statusStore.GetStatus(ctx, project)
	if err != nil {
		return fmt.Errorf("get status: %w", err)
	}

	cmd.Printf("  %-20s %t\n", "Indexed:", status.IsIndexed)
	cmd.Printf("  %-20s %t\n", "Agent:", status.HasAgent)
	if status.AgentName != "" {
		cmd.Printf("  %-20s %s\n", "Agent name:", status.AgentName)
	}

	return nil
}
