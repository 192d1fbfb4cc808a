// file: cmd/diagnostics.go
// version: 2.0.0
// guid: c8f6a0d4-2a8b-48cf-9d08-02cc9915d9fc

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hvtag/hvtag/internal/config"
	"github.com/hvtag/hvtag/internal/database"
	"github.com/hvtag/hvtag/internal/interactive"
	"github.com/hvtag/hvtag/internal/models"
)

var (
	diagnosticsCmd = &cobra.Command{
		Use:   "diagnostics",
		Short: "Debugging and cleanup helpers",
		Long:  "Diagnostic utilities for inspecting and repairing the hvtag database.",
	}

	pruneCmd = &cobra.Command{
		Use:   "prune",
		Short: "Forget works whose folders no longer exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("yes")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			var confirm func(string) (bool, error)
			if !force {
				confirm = func(msg string) (bool, error) {
					return interactive.SurveyPrompter{}.Confirm(msg, false)
				}
			}
			return runPrune(cmd.OutOrStdout(), dryRun, confirm)
		},
	}
)

func init() {
	pruneCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
	pruneCmd.Flags().Bool("dry-run", false, "List missing works without deleting")

	diagnosticsCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(diagnosticsCmd)
}

func ensureDiagnosticsStore() (func(), error) {
	if err := database.InitializeStore(
		config.AppConfig.DatabaseType,
		config.AppConfig.DatabasePath,
		config.AppConfig.EnableSQLite,
	); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return func() { _ = database.CloseStore() }, nil
}

// runPrune deletes stored works whose path is gone. A nil confirm skips
// the prompt.
func runPrune(out io.Writer, dryRun bool, confirm func(string) (bool, error)) error {
	closer, err := ensureDiagnosticsStore()
	if err != nil {
		return err
	}
	defer closer()

	fmt.Fprintf(out, "Inspecting works in %s (%s)\n", config.AppConfig.DatabasePath, config.AppConfig.DatabaseType)

	missing, err := missingWorks(database.GlobalStore)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		fmt.Fprintln(out, "No missing work folders detected.")
		return nil
	}

	fmt.Fprintf(out, "Found %d missing works:\n", len(missing))
	for i, w := range missing {
		fmt.Fprintf(out, "%2d. %s  %s\n", i+1, w.RJCode, w.Name)
		fmt.Fprintf(out, "    Path: %s\n", w.Path)
	}

	if dryRun {
		fmt.Fprintln(out, "Dry run enabled; no deletions were performed.")
		return nil
	}

	if confirm != nil {
		ok, err := confirm(fmt.Sprintf("Delete %d works and their history", len(missing)))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Aborted. No works deleted.")
			return nil
		}
	}

	deleted := 0
	for _, w := range missing {
		if err := database.GlobalStore.DeleteWork(w.RJCode); err != nil {
			fmt.Fprintf(out, "Failed to delete %s: %v\n", w.RJCode, err)
			continue
		}
		deleted++
	}
	fmt.Fprintf(out, "Deleted %d works.\n", deleted)
	return nil
}

func missingWorks(store database.Store) ([]models.Work, error) {
	works, err := store.GetAllWorks()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch works: %w", err)
	}
	var missing []models.Work
	for _, w := range works {
		if w.Path == "" {
			continue
		}
		if _, err := os.Stat(w.Path); errors.Is(err, os.ErrNotExist) {
			missing = append(missing, w)
		}
	}
	return missing, nil
}
