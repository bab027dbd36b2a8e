package cli

import (
	"errors"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/prism-labs/prism-cli/internal/adapters/driven/ai"
	"github.com/prism-labs/prism-cli/internal/core/domain"
	"github.com/prism-labs/prism-cli/internal/core/ports/driving"
	"github.com/prism-labs/prism-cli/internal/core/services"
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Generate embeddings for a project's chunks",
	Long: `Embeds every chunk that does not already have a persisted
embedding, in batches, resuming from wherever a previous run stopped.
Chunks whose batch exhausts its retries are reported and skipped; the
run aborts only when the embedding service cannot be reached.`,
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(cmd *cobra.Command, _ []string) error {
	project, err := requireProject()
	if err != nil {
		return err
	}

	generator, cleanup, err := ensureEmbedding()
	if err != nil {
		return err
	}
	defer cleanup()

	cmd.Printf("Embedding project %s...\n", project)

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(cmd.OutOrStdout()),
				progressbar.OptionSetDescription("embedding"),
				progressbar.OptionShowCount(),
			)
		}
		_ = bar.Set(done)
	}

	stats, err := generator.EmbedProject(cmd.Context(), project, progress)
	if bar != nil {
		_ = bar.Finish()
		cmd.Println()
	}
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}

	cmd.Printf("Embedded %d of %d chunks (%d skipped, %d failed).\n",
		stats.Processed, stats.Total, stats.Skipped, stats.Failed)

	if stats.Failed > 0 {
		cmd.Println("Failed chunks:")
		for _, id := range stats.FailedChunkIDs {
			cmd.Printf("  - %s\n", id)
		}
	}

	return nil
}

// ensureEmbedding returns the embedding generator, building one from
// the environment when no service has been injected. The cleanup
// function closes a freshly-built service's connection.
func ensureEmbedding() (driving.EmbeddingGenerator, func(), error) {
	if embeddingService != nil {
		return embeddingService, func() {}, nil
	}

	if artifactStore == nil {
		return nil, nil, errors.New("embedding service not configured")
	}

	svc, err := ai.CreateAndValidateEmbeddingService(ai.EmbeddingSettingsFromEnv())
	if err != nil {
		return nil, nil, err
	}
	if svc == nil {
		return nil, nil, fmt.Errorf("%w: no embedding provider configured", domain.ErrEmbeddingUnavailable)
	}

	generator := services.NewEmbeddingGenerator(artifactStore, svc, runStore)
	return generator, func() { _ = svc.Close() }, nil
}
