// file: cmd/tag.go
// version: 1.0.0
// guid: c5a03e9f-7b21-4d68-91f4-2e8d6b0a4c17

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hvtag/hvtag/internal/config"
	"github.com/hvtag/hvtag/internal/models"
)

var tagForce bool
var tagConvert bool

// tagCmd represents the tag command
var tagCmd = &cobra.Command{
	Use:   "tag [RJCODE...]",
	Short: "Write tags, cover art and track numbers into work folders",
	Long: `Tag every work under the library root, or only the given RJ codes.
Works already tagged are skipped unless their metadata changed or --force
is given. Missing metadata is fetched on demand.`,
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

		client, err := newDLsiteClient()
		if err != nil {
			return err
		}

		folders, _, err := syncLibrary(store, root, time.Now())
		if err != nil {
			return err
		}
		folders, err = selectFolders(folders, args)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		p := newProcessor(store, client, processorOptions(tagForce, tagConvert), out)
		sum, err := p.ProcessAll(cmd.Context(), folders)
		printSummary(out, sum)
		if err != nil {
			return err
		}
		if sum.Failed > 0 {
			return fmt.Errorf("%d of %d works failed", sum.Failed, len(folders))
		}
		return nil
	},
}

// organizeCmd represents the organize command
var organizeCmd = &cobra.Command{
	Use:   "organize",
	Short: "Scan, fetch metadata, tag and optionally move every work",
	Long: `Run the whole pipeline over the library: discover works, fetch missing
metadata concurrently, tag each work and, with --move, relocate tagged works
into the destination directory.`,
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

		client, err := newDLsiteClient()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		folders, created, err := syncLibrary(store, root, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Found %d works (%d new)\n", len(folders), created)

		var pending []models.Work
		for _, f := range folders {
			w, err := store.GetWorkByRJCode(f.RJCode)
			if err != nil {
				return err
			}
			if w != nil && w.Active && !w.HasMetadata() {
				pending = append(pending, *w)
			}
		}
		if len(pending) > 0 {
			report, err := fetchMetadata(cmd.Context(), store, client, pending, config.AppConfig.DLsite.Concurrency, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Fetched: %d, removed from DLsite: %d, failed: %d\n", report.Fetched, report.Removed, report.Failed)
		}

		p := newProcessor(store, client, processorOptions(tagForce, tagConvert), out)
		sum, err := p.ProcessAll(cmd.Context(), folders)
		printSummary(out, sum)
		if err != nil {
			return err
		}
		if sum.Failed > 0 {
			return fmt.Errorf("%d of %d works failed", sum.Failed, len(folders))
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{tagCmd, organizeCmd} {
		c.Flags().BoolVar(&tagForce, "force", false, "retag works that are already tagged")
		c.Flags().BoolVar(&tagConvert, "convert", false, "convert FLAC files to MP3 after tagging")
		rootCmd.AddCommand(c)
	}
}
