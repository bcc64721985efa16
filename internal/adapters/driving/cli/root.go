// Package cli implements the archivist command surface with cobra.
// Commands hold no business logic: they parse flags, call the pipeline
// service and format the results.
package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archivist-cli/internal/core/ports/driving"
	"github.com/custodia-labs/archivist-cli/internal/logger"
	"github.com/custodia-labs/archivist-cli/internal/watcher"
)

var version = "dev"

var (
	verbose    bool
	configPath string
)

// Services groups everything the commands need, wired in main.
type Services struct {
	// Pipeline runs files and resolves pending plans.
	Pipeline driving.PipelineService

	// Pending is read directly by the pending list/prune commands.
	Pending driven.PendingStore

	// Audit serves the history commands.
	Audit driven.AuditStore

	// Preferences serves the preferences commands.
	Preferences driven.PreferenceStore

	// InboxDir is the default directory for run and watch.
	InboxDir string

	// WatcherConfig is the stock watcher configuration; run and watch
	// override its directory and process options from flags.
	WatcherConfig watcher.Config
}

var (
	services  *Services
	bootstrap func(configPath string) (*Services, error)
)

// SetBootstrap installs the lazy wiring function called by the first
// command that needs services. The version command never triggers it.
func SetBootstrap(fn func(configPath string) (*Services, error)) {
	bootstrap = fn
}

// SetServices injects pre-built services, bypassing the bootstrap.
func SetServices(s *Services) {
	services = s
}

// SetVersion sets the version string printed by the version command.
func SetVersion(v string) {
	version = v
}

func ensureServices() (*Services, error) {
	if services != nil {
		return services, nil
	}
	if bootstrap == nil {
		return nil, errors.New("services not configured")
	}
	s, err := bootstrap(configPath)
	if err != nil {
		return nil, err
	}
	services = s
	return s, nil
}

var rootCmd = &cobra.Command{
	Use:   "archivist",
	Short: "Classify, rename and archive documents automatically",
	Long: `Archivist watches an inbox of documents, extracts their text,
classifies them with an LLM and files them into a structured archive.

Moves are simulated by default; pass --execute to touch the filesystem.
Plans that need a human land in the pending queue for later resolution.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.archivist/config.toml)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
