// file: cmd/scan.go
// version: 1.0.0
// guid: 9d14c6a0-52b7-4e3f-8a19-e70c3b5d2f86

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Find work folders under the library root",
	Long:  `Scan the library root for RJ work folders and record them in the database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := requireRootDir()
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		folders, created, err := syncLibrary(store, root, time.Now())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, f := range folders {
			state := "untagged"
			if f.IsTagged {
				state = "tagged"
			}
			fmt.Fprintf(out, "  %s  %-8s %s\n", f.RJCode, state, f.Path)
		}
		fmt.Fprintf(out, "Found %d works (%d new)\n", len(folders), created)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
