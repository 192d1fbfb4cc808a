// file: cmd/config_cmd.go
// version: 1.0.0
// guid: f0a5c3e8-1d27-4b96-8c40-e9b62d7a15f3

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hvtag/hvtag/internal/config"
)

// configCmd groups configuration helpers.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the hvtag configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [PATH]",
	Short: "Write a commented sample configuration",
	Long:  `Write a sample configuration to PATH (default $HOME/.hvtag.yaml). An existing file is never overwritten.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var path string
		if len(args) == 1 {
			path = args[0]
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("cannot locate home directory: %w", err)
			}
			path = filepath.Join(home, ".hvtag.yaml")
		}
		if err := config.WriteSample(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
