package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/archivist-cli/internal/core/domain"
)

var (
	pendingName    string
	pendingDir     string
	pendingExecute bool
	pruneOlderThan time.Duration
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Manage plans awaiting review",
	RunE:  runPendingList,
}

var pendingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending plans, newest first",
	RunE:  runPendingList,
}

var pendingApproveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Approve a pending plan, optionally amending it",
	Long: `Approves the pending plan and applies the move. Use --name and --dir
to amend the proposal before it runs; an amended destination teaches the
router a vendor preference for next time.`,
	Args: cobra.ExactArgs(1),
	RunE: runPendingApprove,
}

var pendingRejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Reject a pending plan; the file stays where it is",
	Args:  cobra.ExactArgs(1),
	RunE:  runPendingReject,
}

var pendingQuarantineCmd = &cobra.Command{
	Use:   "quarantine <id>",
	Short: "Park a pending plan in the quarantine area",
	Args:  cobra.ExactArgs(1),
	RunE:  runPendingQuarantine,
}

var pendingPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete pending plans older than a given age",
	RunE:  runPendingPrune,
}

func init() {
	pendingApproveCmd.Flags().StringVar(&pendingName, "name", "", "override the proposed filename")
	pendingApproveCmd.Flags().StringVar(&pendingDir, "dir", "", "override the proposed destination directory")
	pendingApproveCmd.Flags().BoolVar(&pendingExecute, "execute", false, "actually move the file instead of simulating")
	pendingPruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 30*24*time.Hour, "age threshold, e.g. 720h")

	pendingCmd.AddCommand(pendingListCmd, pendingApproveCmd, pendingRejectCmd,
		pendingQuarantineCmd, pendingPruneCmd)
	rootCmd.AddCommand(pendingCmd)
}

func runPendingList(cmd *cobra.Command, _ []string) error {
	svc, err := ensureServices()
	if err != nil {
		return err
	}

	plans, err := svc.Pending.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing pending plans: %w", err)
	}
	if len(plans) == 0 {
		cmd.Println("No pending plans.")
		return nil
	}

	for _, plan := range plans {
		cmd.Printf("%s\n", plan.ID)
		cmd.Printf("  %s -> %s/%s  (%s, confidence %.2f)\n",
			plan.OriginalName, plan.DestDir, plan.NewName, plan.Category, plan.Confidence)
		if plan.QualityIssue != nil {
			cmd.Printf("  quality: %s\n", plan.QualityIssue.Reason)
		}
		cmd.Printf("  created %s\n", plan.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	cmd.Printf("\n%d pending plan(s).\n", len(plans))
	return nil
}

func runPendingApprove(cmd *cobra.Command, args []string) error {
	svc, err := ensureServices()
	if err != nil {
		return err
	}

	res := domain.Resolution{
		Disposition: domain.DispositionApprove,
		FinalName:   pendingName,
		FinalDir:    pendingDir,
	}
	rec, err := svc.Pipeline.ResolvePending(cmd.Context(), args[0], res, !pendingExecute)
	if err != nil {
		return fmt.Errorf("approving %s: %w", args[0], err)
	}

	printRecord(cmd, rec)
	return nil
}

func runPendingReject(cmd *cobra.Command, args []string) error {
	svc, err := ensureServices()
	if err != nil {
		return err
	}

	res := domain.Resolution{Disposition: domain.DispositionReject}
	if _, err := svc.Pipeline.ResolvePending(cmd.Context(), args[0], res, false); err != nil {
		return fmt.Errorf("rejecting %s: %w", args[0], err)
	}

	cmd.Printf("Rejected %s; the file stays in place.\n", args[0])
	return nil
}

func runPendingQuarantine(cmd *cobra.Command, args []string) error {
	svc, err := ensureServices()
	if err != nil {
		return err
	}

	res := domain.Resolution{Disposition: domain.DispositionQuarantine}
	if _, err := svc.Pipeline.ResolvePending(cmd.Context(), args[0], res, false); err != nil {
		return fmt.Errorf("quarantining %s: %w", args[0], err)
	}

	cmd.Printf("Quarantined %s.\n", args[0])
	return nil
}

func runPendingPrune(cmd *cobra.Command, _ []string) error {
	svc, err := ensureServices()
	if err != nil {
		return err
	}

	removed, err := svc.Pending.Prune(cmd.Context(), pruneOlderThan)
	if err != nil {
		return fmt.Errorf("pruning pending plans: %w", err)
	}

	cmd.Printf("Pruned %d pending plan(s) older than %s.\n", removed, pruneOlderThan)
	return nil
}
