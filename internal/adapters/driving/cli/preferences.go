package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
)

var preferencesCmd = &cobra.Command{
	Use:   "preferences",
	Short: "Show learned folder preferences",
	RunE:  runPreferencesList,
}

var preferencesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List learned vendor-folder preferences",
	RunE:  runPreferencesList,
}

var preferencesDisableCmd = &cobra.Command{
	Use:   "disable <vendor> <category>",
	Short: "Stop a learned preference from influencing routing",
	Args:  cobra.ExactArgs(2),
	RunE:  runPreferencesDisable,
}

func init() {
	preferencesCmd.AddCommand(preferencesListCmd, preferencesDisableCmd)
	rootCmd.AddCommand(preferencesCmd)
}

func runPreferencesList(cmd *cobra.Command, _ []string) error {
	svc, err := ensureServices()
	if err != nil {
		return err
	}

	prefs, err := svc.Preferences.List(cmd.Context(), driven.KindVendorFolder)
	if err != nil {
		return fmt.Errorf("listing preferences: %w", err)
	}
	if len(prefs) == 0 {
		cmd.Println("No learned preferences.")
		return nil
	}

	for _, pref := range prefs {
		cmd.Printf("%-20s %-14s -> %-30s confidence %.2f (%d samples)\n",
			pref.Key.Vendor, pref.Key.Category, pref.Value, pref.Confidence, pref.SampleCount)
	}
	return nil
}

func runPreferencesDisable(cmd *cobra.Command, args []string) error {
	svc, err := ensureServices()
	if err != nil {
		return err
	}

	key := driven.PreferenceKey{Vendor: args[0], Category: args[1]}
	if err := svc.Preferences.Disable(cmd.Context(), driven.KindVendorFolder, key); err != nil {
		return fmt.Errorf("disabling preference: %w", err)
	}

	cmd.Printf("Disabled preference for %s/%s.\n", args[0], args[1])
	return nil
}
