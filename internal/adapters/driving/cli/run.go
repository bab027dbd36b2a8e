package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full derivation pipeline",
	Long: `Runs dedupe, chunk and embed in sequence for the project. Each
stage persists its artifacts before the next starts, so a failed run
can be resumed by running it again.`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	if deduplicator == nil || chunkingService == nil {
		return errors.New("pipeline services not configured")
	}

	if _, err := requireProject(); err != nil {
		return err
	}

	if err := runDedupe(cmd, args); err != nil {
		return err
	}
	if err := runChunk(cmd, args); err != nil {
		return err
	}
	return runEmbed(cmd, args)
}
