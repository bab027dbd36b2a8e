package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Deduplicate a project's extracted documents",
	Long: `Fingerprints every extracted document by content hash, picks one
canonical copy per hash group and rebuilds the project's document
inventory. Re-running after new extractions refreshes the inventory.`,
	RunE: runDedupe,
}

func init() {
	rootCmd.AddCommand(dedupeCmd)
}

func runDedupe(cmd *cobra.Command, _ []string) error {
	if deduplicator == nil {
		return errors.New("dedupe service not configured")
	}

	project, err := requireProject()
	if err != nil {
		return err
	}

	cmd.Printf("Deduplicating project %s...\n", project)

	summary, err := deduplicator.Deduplicate(cmd.Context(), project)
	if err != nil {
		return fmt.Errorf("dedupe failed: %w", err)
	}

	cmd.Printf("Analysed %d documents: %d unique, %d duplicate copies.\n",
		summary.TotalDocuments, summary.UniqueDocuments, summary.DuplicateCopies)

	return nil
}
