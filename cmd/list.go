// file: cmd/list.go
// version: 1.0.0
// guid: 7e20b5d9-4c83-4a16-bf07-93d5e1c62a08

package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/cobra"

	"github.com/hvtag/hvtag/internal/models"
)

var listFilter string
var listUntagged bool

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded works",
	Long: `List works stored in the database. --filter matches loosely against the
RJ code, title, circle and voice actors.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		works, err := store.GetAllWorks()
		if err != nil {
			return err
		}
		works = filterWorks(works, listFilter, listUntagged)
		printWorks(cmd.OutOrStdout(), works)
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listFilter, "filter", "", "fuzzy filter on code, title, circle or cast")
	listCmd.Flags().BoolVar(&listUntagged, "untagged", false, "only works that need tagging")
	rootCmd.AddCommand(listCmd)
}

// filterWorks keeps works matching filter and, with untagged, only those
// needing a tag pass. The result is sorted by RJ code.
func filterWorks(works []models.Work, filter string, untagged bool) []models.Work {
	out := make([]models.Work, 0, len(works))
	for _, w := range works {
		if untagged && !w.NeedsRetag() {
			continue
		}
		if filter != "" && !matchesWork(w, filter) {
			continue
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RJCode < out[j].RJCode })
	return out
}

func matchesWork(w models.Work, filter string) bool {
	fields := append([]string{string(w.RJCode), w.Name, w.CircleName}, w.VoiceActors...)
	for _, f := range fields {
		if f != "" && fuzzy.MatchNormalizedFold(filter, f) {
			return true
		}
	}
	return false
}

func printWorks(w io.Writer, works []models.Work) {
	for _, work := range works {
		state := "tagged"
		switch {
		case !work.Active:
			state = "removed"
		case work.TaggedAt == nil:
			state = "untagged"
		case work.NeedsRetag():
			state = "stale"
		}
		name := work.Name
		if name == "" {
			name = "(no metadata)"
		}
		line := fmt.Sprintf("%s  %-8s %s", work.RJCode, state, name)
		if work.CircleName != "" {
			line += " / " + work.CircleName
		}
		if len(work.VoiceActors) > 0 {
			line += " [CV: " + strings.Join(work.VoiceActors, ", ") + "]"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "%d works\n", len(works))
}
