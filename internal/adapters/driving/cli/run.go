package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/archivist-cli/internal/core/domain"
	"github.com/custodia-labs/archivist-cli/internal/core/ports/driving"
)

var (
	runLimit       int
	runExecute     bool
	runAutoApprove bool
)

var runCmd = &cobra.Command{
	Use:   "run [dir]",
	Short: "Process documents from the inbox",
	Long: `Processes every supported document in the inbox directory through
the pipeline: extract, classify, route, validate and approve.

Without --execute this is a dry run: plans are printed but no file moves.
With --auto-approve, valid plans that need no review are applied without
landing in the pending queue.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVarP(&runLimit, "limit", "n", 0, "process at most N files (0 = all)")
	runCmd.Flags().BoolVar(&runExecute, "execute", false, "actually move files instead of simulating")
	runCmd.Flags().BoolVar(&runAutoApprove, "auto-approve", false, "apply valid plans without queueing for review")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	svc, err := ensureServices()
	if err != nil {
		return err
	}

	dir := svc.InboxDir
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		return fmt.Errorf("no inbox directory: pass one or set paths.inbox in the config")
	}

	files, err := collectFiles(dir, svc.WatcherConfig.Extensions, runLimit)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		cmd.Println("Nothing to process.")
		return nil
	}

	if !runExecute {
		cmd.Println("Dry run: no files will be moved. Pass --execute to apply.")
	}

	opts := driving.ProcessOptions{
		DryRun:      !runExecute,
		AutoApprove: runAutoApprove,
	}

	counts := map[domain.Decision]int{}
	for _, path := range files {
		rec, err := svc.Pipeline.ProcessFile(cmd.Context(), path, opts)
		if err != nil {
			return fmt.Errorf("processing %s: %w", path, err)
		}
		counts[rec.Decision]++
		printRecord(cmd, rec)
	}

	cmd.Printf("\nProcessed %d file(s):", len(files))
	for _, d := range []domain.Decision{
		domain.DecisionApproved, domain.DecisionPending,
		domain.DecisionAutoRejectInvalid, domain.DecisionRejected, domain.DecisionSkipped,
	} {
		if counts[d] > 0 {
			cmd.Printf(" %s=%d", d, counts[d])
		}
	}
	cmd.Println()
	return nil
}

// collectFiles lists supported regular files in dir, sorted by name.
func collectFiles(dir string, extensions []string, limit int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading inbox: %w", err)
	}

	exts := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = struct{}{}
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if len(exts) > 0 {
			if _, ok := exts[strings.ToLower(filepath.Ext(name))]; !ok {
				continue
			}
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)

	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

// printRecord renders one audit record as a status line.
func printRecord(cmd *cobra.Command, rec domain.AuditRecord) {
	name := filepath.Base(rec.SourcePath)
	switch {
	case rec.ExecutionStatus == domain.ExecSuccess:
		cmd.Printf("  moved    %s -> %s\n", name, rec.MovedTo)
	case rec.ExecutionStatus == domain.ExecDryRun:
		cmd.Printf("  would    %s -> %s/%s\n", name, rec.Plan.DestDir, rec.Plan.NewName)
	case rec.Decision == domain.DecisionPending:
		cmd.Printf("  pending  %s (%s, confidence %.2f) -> %s\n",
			name, rec.Plan.Category, rec.Plan.Confidence, rec.PendingPath)
	case rec.Decision == domain.DecisionAutoRejectInvalid:
		cmd.Printf("  rejected %s: %s\n", name, rec.Plan.ValidationMsg)
	case rec.ExecutionStatus == domain.ExecFailed:
		cmd.Printf("  failed   %s: %s\n", name, rec.Move.Err)
	default:
		cmd.Printf("  skipped  %s (%s)\n", name, rec.Decision)
	}
}
