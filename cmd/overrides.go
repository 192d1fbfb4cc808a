// file: cmd/overrides.go
// version: 1.0.0
// guid: 1e7c94b2-a05d-4f38-b6e1-3d8f20c9a75e

package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/hvtag/hvtag/internal/database"
	"github.com/hvtag/hvtag/internal/processor"
)

// tagsCmd groups genre tag overrides.
var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Rename or hide DLsite genre tags in written files",
}

var tagsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tag overrides",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		mappings, err := store.GetTagMappings()
		if err != nil {
			return err
		}
		sources := make([]string, 0, len(mappings))
		for s := range mappings {
			sources = append(sources, s)
		}
		sort.Strings(sources)

		out := cmd.OutOrStdout()
		for _, s := range sources {
			m := mappings[s]
			if m.Ignored {
				fmt.Fprintf(out, "  %s  (ignored)\n", s)
			} else {
				fmt.Fprintf(out, "  %s -> %s\n", s, m.Custom)
			}
		}
		fmt.Fprintf(out, "%d overrides\n", len(sources))
		return nil
	},
}

var tagsMapCmd = &cobra.Command{
	Use:   "map TAG REPLACEMENT",
	Short: "Write REPLACEMENT wherever DLsite lists TAG",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOverride(cmd, func(s database.Store) (int, error) {
			return processor.MapTag(s, args[0], args[1], time.Now())
		})
	},
}

var tagsIgnoreCmd = &cobra.Command{
	Use:   "ignore TAG",
	Short: "Never write TAG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOverride(cmd, func(s database.Store) (int, error) {
			return processor.IgnoreTag(s, args[0], time.Now())
		})
	},
}

var tagsUnmapCmd = &cobra.Command{
	Use:   "unmap TAG",
	Short: "Remove the override for TAG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOverride(cmd, func(s database.Store) (int, error) {
			return processor.UnmapTag(s, args[0], time.Now())
		})
	},
}

// circleCmd groups circle name overrides.
var circleCmd = &cobra.Command{
	Use:   "circle",
	Short: "Override circle names written as album artist",
}

var circleSetCmd = &cobra.Command{
	Use:   "set CIRCLE_CODE [NAME]",
	Short: "Use NAME for a circle; omit NAME to restore the DLsite name",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 2 {
			name = args[1]
		}
		return runOverride(cmd, func(s database.Store) (int, error) {
			return processor.SetCircleName(s, args[0], name, time.Now())
		})
	},
}

func init() {
	tagsCmd.AddCommand(tagsListCmd, tagsMapCmd, tagsIgnoreCmd, tagsUnmapCmd)
	circleCmd.AddCommand(circleSetCmd)
	rootCmd.AddCommand(tagsCmd, circleCmd)
}

func runOverride(cmd *cobra.Command, apply func(database.Store) (int, error)) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	marked, err := apply(store)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved; %d works marked for retagging\n", marked)
	return nil
}
