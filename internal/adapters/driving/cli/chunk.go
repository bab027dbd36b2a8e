package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var chunkCmd = &cobra.Command{
	Use:   "chunk",
	Short: "Chunk a project's canonical documents",
	Long: `Splits every canonical document in the project's inventory into
structure-aware chunks and persists one file per chunk. Run dedupe
first; chunking reads the inventory it produces.`,
	RunE: runChunk,
}

func init() {
	rootCmd.AddCommand(chunkCmd)
}

func runChunk(cmd *cobra.Command, _ []string) error {
	if chunkingService == nil {
		return errors.New("chunking service not configured")
	}

	project, err := requireProject()
	if err != nil {
		return err
	}

	cmd.Printf("Chunking project %s...\n", project)

	summary, err := chunkingService.ChunkProject(cmd.Context(), project)
	if err != nil {
		return fmt.Errorf("chunking failed: %w", err)
	}

	cmd.Printf("Chunked %d documents into %d chunks.\n",
		summary.DocumentsProcessed, summary.ChunksCreated)

	if summary.DocumentsFailed > 0 {
		cmd.Printf("%d documents failed:\n", summary.DocumentsFailed)
		for _, msg := range summary.Errors {
			cmd.Printf("  - %s\n", msg)
		}
	}

	return nil
}
