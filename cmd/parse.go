// file: cmd/parse.go
// version: 1.0.0
// guid: 6c9e2d51-b047-4a8f-93e6-d8a1f0c75b32

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hvtag/hvtag/internal/interactive"
	"github.com/hvtag/hvtag/internal/trackparser"
)

var parseStrategy string
var parseDelimiter string

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse FILE...",
	Short: "Show the track numbers parsed from file names",
	Long: `Parse track numbers from the given file names without touching any file.
With --strategy the names are previewed under that strategy; otherwise the
standard cascade runs and the failure ratio is reported.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		names := make([]string, len(args))
		for i, a := range args {
			names[i] = filepath.Base(a)
		}
		out := cmd.OutOrStdout()

		if parseStrategy != "" {
			pref, err := preferenceFromArgs(parseStrategy, parseDelimiter)
			if err != nil {
				return err
			}
			interactive.BuildPreview(names, pref).Render(out)
			return nil
		}

		for _, r := range trackparser.ParseAll(names, nil) {
			if r.OK {
				fmt.Fprintf(out, "  [%d] %s\n", r.Track, r.Filename)
			} else {
				fmt.Fprintf(out, "  [??] %s\n", r.Filename)
			}
		}
		fmt.Fprintf(out, "Failure ratio: %.0f%%\n", trackparser.FailureRatio(names)*100)
		if trackparser.NeedsDecision(names) {
			fmt.Fprintln(out, "A parsing decision would be requested for these files")
		}
		return nil
	},
}

func init() {
	parseCmd.Flags().StringVar(&parseStrategy, "strategy", "", "preview a specific strategy")
	parseCmd.Flags().StringVar(&parseDelimiter, "delimiter", "", "delimiter for custom_delimiter")
	rootCmd.AddCommand(parseCmd)
}
