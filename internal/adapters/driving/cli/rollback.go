package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/prism-labs/prism-cli/internal/core/domain"
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback <stage>",
	Short: "Delete a stage's artifacts and everything derived from them",
	Long: `Removes the named stage's artifacts together with every dependent
stage's artifacts, most-dependent first. Stages: extraction, chunking,
embedding, index, source, agent. Use --dry-run to see what would be
deleted, --no-cascade to roll back only the named stage.`,
	Args: cobra.ExactArgs(1),
	RunE: runRollback,
}

var (
	rollbackNoCascade bool
	rollbackDryRun    bool
)

func init() {
	rollbackCmd.Flags().BoolVar(&rollbackNoCascade, "no-cascade", false, "roll back only the named stage")
	rollbackCmd.Flags().BoolVar(&rollbackDryRun, "dry-run", false, "show what would be deleted without deleting")
	rootCmd.AddCommand(rollbackCmd)
}

func runRollback(cmd *cobra.Command, args []string) error {
	if rollbackService == nil {
		return errors.New("rollback service not configured")
	}

	project, err := requireProject()
	if err != nil {
		return err
	}

	stage, err := domain.ParseStage(args[0])
	if err != nil {
		return err
	}

	cascade := !rollbackNoCascade

	if rollbackDryRun {
		return printRollbackPreview(cmd, project, stage, cascade)
	}

	result, err := rollbackService.Rollback(cmd.Context(), project, stage, cascade)
	if err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}

	cmd.Println(result.Message)
	cmd.Printf("Deleted %d files across %d stages.\n",
		result.DeletedFileCount, len(result.DeletedResourceStages))

	if !result.Success {
		for _, msg := range result.Errors {
			cmd.Printf("  - %s\n", msg)
		}
		return errors.New("rollback completed with errors")
	}

	return nil
}

func printRollbackPreview(cmd *cobra.Command, project string, stage domain.Stage, cascade bool) error {
	preview, err := rollbackService.Preview(cmd.Context(), project, stage, cascade)
	if err != nil {
		return fmt.Errorf("rollback preview failed: %w", err)
	}

	cmd.Printf("Rollback of %s would remove:\n", stage)
	cmd.Printf("Stages: %v\n", preview.Stages)

	if len(preview.LocalFiles) > 0 {
		dirs := make([]string, 0, len(preview.LocalFiles))
		for dir := range preview.LocalFiles {
			dirs = append(dirs, dir)
		}
		sort.Strings(dirs)

		cmd.Println("Local files:")
		for _, dir := range dirs {
			cmd.Printf("  %s: %d files\n", dir, preview.LocalFiles[dir])
		}
	}

	if len(preview.ExternalResources) > 0 {
		cmd.Println("External resources:")
		for _, name := range preview.ExternalResources {
			cmd.Printf("  %s\n", name)
		}
	}

	for _, warning := range preview.Warnings {
		cmd.Printf("Warning: %s\n", warning)
	}

	return nil
}
