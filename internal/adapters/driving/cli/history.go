package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show a project's recent pipeline runs",
	RunE:  runHistory,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if runStore == nil {
		return errors.New("run history not configured")
	}

	project, err := requireProject()
	if err != nil {
		return err
	}

	runs, err := runStore.ListRuns(cmd.Context(), project, historyLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if len(runs) == 0 {
		cmd.Printf("No runs recorded for project %s.\n", project)
		return nil
	}

	for _, run := range runs {
		outcome := "ok"
		if !run.Success {
			outcome = "failed: " + run.Error
		}
		cmd.Printf("%s  %-10s %5d items  %s\n",
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Stage, run.ItemsProcessed, outcome)
	}

	return nil
}
