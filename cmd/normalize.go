// file: cmd/normalize.go
// version: 1.0.0
// guid: d41b7e08-6a93-4f2c-8e5d-27c0f9b3a164

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hvtag/hvtag/internal/normalizer"
)

var normalizeDryRun bool

// normalizeCmd represents the normalize command
var normalizeCmd = &cobra.Command{
	Use:   "normalize DIR",
	Short: "Flatten a work folder's disc, language or format subfolders",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		pattern, err := normalizer.DetectFolderPattern(dir)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %s\n", dir, pattern)
		if normalizeDryRun {
			return nil
		}
		moved, err := normalizer.NormalizeFolderStructure(dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Moved %d files\n", moved)
		return nil
	},
}

func init() {
	normalizeCmd.Flags().BoolVar(&normalizeDryRun, "dry-run", false, "only report the detected layout")
	rootCmd.AddCommand(normalizeCmd)
}
