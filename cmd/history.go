// file: cmd/history.go
// version: 1.0.0
// guid: a93f4c17-e2d8-4b50-96c1-0f7b3d82e6a5

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hvtag/hvtag/internal/models"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history RJCODE",
	Short: "Show processing history, errors and files of a work",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := models.ParseRJCode(args[0])
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		work, err := store.GetWorkByRJCode(code)
		if err != nil {
			return err
		}
		if work == nil {
			return fmt.Errorf("work %s is not recorded", code)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s  %s\n  path: %s\n", work.RJCode, work.Name, work.Path)
		if work.TaggedAt != nil {
			fmt.Fprintf(out, "  tagged: %s\n", work.TaggedAt.Format(time.RFC3339))
		}

		events, err := store.GetProcessingEvents(code)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nEvents (%d):\n", len(events))
		for _, e := range events {
			fmt.Fprintf(out, "  %s  %-8s %-10s %dms", e.ExecutedAt.Format(time.RFC3339), e.Operation, e.Status, e.DurationMS)
			if e.ErrorMessage != "" {
				fmt.Fprintf(out, "  %s", e.ErrorMessage)
			}
			fmt.Fprintln(out)
		}

		werrs, err := store.GetWorkErrors(code)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nErrors (%d):\n", len(werrs))
		for _, e := range werrs {
			retry := ""
			if e.Retryable {
				retry = " (retryable)"
			}
			fmt.Fprintf(out, "  %s  %-10s %s%s\n", e.OccurredAt.Format(time.RFC3339), e.Category, e.Details, retry)
		}

		files, err := store.GetFileProcessing(code)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nFiles (%d):\n", len(files))
		for _, f := range files {
			track := "--"
			if f.TrackNumber != nil {
				track = fmt.Sprintf("%02d", *f.TrackNumber)
			}
			fmt.Fprintf(out, "  [%s] %-9s %s\n", track, f.Status, f.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
