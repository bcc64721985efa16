package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/archivist-cli/internal/core/ports/driving"
	"github.com/custodia-labs/archivist-cli/internal/watcher"
)

var (
	watchExecute     bool
	watchAutoApprove bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch the inbox and process documents as they arrive",
	Long: `Watches the inbox directory and runs every new document through the
pipeline as soon as it stops growing. Existing files are processed first.

Runs until interrupted. The same --execute and --auto-approve semantics
as the run command apply.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchExecute, "execute", false, "actually move files instead of simulating")
	watchCmd.Flags().BoolVar(&watchAutoApprove, "auto-approve", false, "apply valid plans without queueing for review")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	svc, err := ensureServices()
	if err != nil {
		return err
	}

	cfg := svc.WatcherConfig
	if len(args) > 0 {
		cfg.Dir = args[0]
	}
	if cfg.Dir == "" {
		return fmt.Errorf("no inbox directory: pass one or set paths.inbox in the config")
	}
	cfg.Process = driving.ProcessOptions{
		DryRun:      !watchExecute,
		AutoApprove: watchAutoApprove,
	}

	if !watchExecute {
		cmd.Println("Dry run: no files will be moved. Pass --execute to apply.")
	}
	cmd.Printf("Watching %s (Ctrl-C to stop)...\n", cfg.Dir)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = watcher.New(svc.Pipeline, cfg).Run(ctx)
	if errors.Is(err, context.Canceled) {
		cmd.Println("\nStopped.")
		return nil
	}
	return err
}
