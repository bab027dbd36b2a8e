// Package cli implements the prism command-line interface. Each
// command lives in its own file and talks to the core through the
// driving ports; tests swap the package-level service variables for
// mocks.
package cli

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/prism-labs/prism-cli/internal/adapters/driven/ai"
	configfile "github.com/prism-labs/prism-cli/internal/adapters/driven/config/file"
	"github.com/prism-labs/prism-cli/internal/adapters/driven/extraction/filesystem"
	"github.com/prism-labs/prism-cli/internal/adapters/driven/search/azure"
	storagefile "github.com/prism-labs/prism-cli/internal/adapters/driven/storage/file"
	"github.com/prism-labs/prism-cli/internal/adapters/driven/storage/sqlite"
	"github.com/prism-labs/prism-cli/internal/adapters/driven/tokenizer"
	"github.com/prism-labs/prism-cli/internal/chunkers/markdown"
	"github.com/prism-labs/prism-cli/internal/core/ports/driven"
	"github.com/prism-labs/prism-cli/internal/core/ports/driving"
	"github.com/prism-labs/prism-cli/internal/core/services"
	"github.com/prism-labs/prism-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Persistent flag values.
var (
	projectName string
	projectsDir string
	verbose     bool
)

// Services the commands run against. Execute wires the default
// adapters; tests inject mocks instead.
var (
	deduplicator     driving.Deduplicator
	chunkingService  driving.ChunkingService
	embeddingService driving.EmbeddingGenerator
	rollbackService  driving.RollbackCoordinator
	artifactStore    driven.ArtifactStore
	statusStore      driven.StatusStore
	runStore         driven.RunStore
)

var rootCmd = &cobra.Command{
	Use:   "prism",
	Short: "Derive searchable artifacts from extracted documents",
	Long: `Prism turns a project's extracted markdown documents into
deduplicated, chunked and embedded artifacts ready for indexing.
Each stage persists its output under the project directory; rollback
removes a stage's artifacts together with everything derived from them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectName, "project", "p", "", "project name")
	rootCmd.PersistentFlags().StringVar(&projectsDir, "projects-dir", "projects", "root directory containing project trees")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute loads the environment, wires the default adapters once the
// persistent flags are parsed, and runs the root command.
func Execute() error {
	// A .env file is a convenience for credentials; its absence is fine.
	_ = godotenv.Load()

	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		return wireServices()
	}

	return rootCmd.Execute()
}

// wireServices builds the default adapter wiring. Services already set
// (by tests, or by an earlier command in the same process) are left
// alone. The embedding service is wired lazily by the commands that
// need it, since it requires credentials and a reachable endpoint.
func wireServices() error {
	if artifactStore == nil {
		artifactStore = storagefile.NewArtifactStore(projectsDir)
	}

	if statusStore == nil {
		store, err := configfile.NewStatusStore("")
		if err != nil {
			return fmt.Errorf("open status store: %w", err)
		}
		statusStore = store
	}

	if runStore == nil {
		// Run history is bookkeeping; losing it should not block the
		// pipeline.
		store, err := sqlite.NewStore("")
		if err != nil {
			logger.Warn("run history unavailable: %v", err)
		} else {
			runStore = store.RunStore()
		}
	}

	source := filesystem.NewSource(projectsDir)

	if deduplicator == nil {
		deduplicator = services.NewDeduplicator(source, artifactStore, runStore)
	}

	if chunkingService == nil {
		chunker := markdown.New(tokenizer.NewApprox())
		chunkingService = services.NewChunkingService(source, artifactStore, chunker, runStore)
	}

	if rollbackService == nil {
		rollbackService = services.NewRollbackCoordinator(artifactStore, searchAdminFromEnv(), statusStore, runStore)
	}

	return nil
}

// searchAdminFromEnv builds the search admin when the environment
// carries search credentials. Without them rollback still runs; stages
// with live external resources report the missing service per stage.
func searchAdminFromEnv() driven.SearchAdmin {
	settings := ai.SearchSettingsFromEnv()
	if !settings.IsConfigured() {
		return nil
	}

	admin, err := azure.NewSearchAdmin(azure.Config{
		Endpoint: settings.Endpoint,
		APIKey:   settings.APIKey,
	})
	if err != nil {
		logger.Warn("search service unavailable: %v", err)
		return nil
	}
	return admin
}

// requireProject validates the --project flag.
func requireProject() (string, error) {
	if projectName == "" {
		return "", errors.New("project is required (use --project)")
	}
	return projectName, nil
}
