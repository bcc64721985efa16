package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
)

var (
	historyLimit    int
	historyCategory string
	historyVendor   string
	historyDecision string
	statsWindow     time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently processed files",
	RunE:  runHistory,
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise recent activity",
	RunE:  runHistoryStats,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of records")
	historyCmd.Flags().StringVar(&historyCategory, "category", "", "filter by category")
	historyCmd.Flags().StringVar(&historyVendor, "vendor", "", "filter by vendor substring")
	historyCmd.Flags().StringVar(&historyDecision, "decision", "", "filter by decision")
	historyStatsCmd.Flags().DurationVar(&statsWindow, "window", 24*time.Hour, "activity window, e.g. 168h")

	historyCmd.AddCommand(historyStatsCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	svc, err := ensureServices()
	if err != nil {
		return err
	}

	records, err := svc.Audit.ListRecent(cmd.Context(), driven.AuditFilter{
		Category: historyCategory,
		Vendor:   historyVendor,
		Decision: historyDecision,
		Limit:    historyLimit,
	})
	if err != nil {
		return fmt.Errorf("listing history: %w", err)
	}
	if len(records) == 0 {
		cmd.Println("No matching records.")
		return nil
	}

	for _, rec := range records {
		destination := rec.MovedTo
		if destination == "" {
			destination = "-"
		}
		cmd.Printf("%s  %-20s  %-12s  %s -> %s\n",
			rec.Timestamp.Local().Format("2006-01-02 15:04"),
			rec.Decision, rec.Plan.Category,
			filepath.Base(rec.SourcePath), destination)
	}
	return nil
}

func runHistoryStats(cmd *cobra.Command, _ []string) error {
	svc, err := ensureServices()
	if err != nil {
		return err
	}

	stats, err := svc.Audit.Stats(cmd.Context(), statsWindow)
	if err != nil {
		return fmt.Errorf("computing stats: %w", err)
	}

	cmd.Printf("Total records: %d\n", stats.Total)
	cmd.Printf("Last %s: %d\n", statsWindow, stats.Recent)
	if stats.AvgElapsed > 0 {
		cmd.Printf("Avg processing time: %s\n", stats.AvgElapsed.Round(time.Millisecond))
	}
	for decision, count := range stats.ByDecision {
		cmd.Printf("  %-20s %d\n", decision, count)
	}
	if len(stats.TopVendors) > 0 {
		cmd.Println("Top vendors:")
		for _, vc := range stats.TopVendors {
			cmd.Printf("  %-20s %d\n", vc.Vendor, vc.Count)
		}
	}
	return nil
}
