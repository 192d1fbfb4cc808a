// file: cmd/preference.go
// version: 1.0.0
// guid: 58d2a0e6-3f19-4c7b-a4e5-b1096c8d7f23

package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hvtag/hvtag/internal/interactive"
	"github.com/hvtag/hvtag/internal/models"
	"github.com/hvtag/hvtag/internal/scanner"
	"github.com/hvtag/hvtag/internal/trackparser"
)

var preferenceDelimiter string

// preferenceCmd groups the track parsing preference commands.
var preferenceCmd = &cobra.Command{
	Use:   "preference",
	Short: "Inspect or set per-work track parsing preferences",
}

var preferenceShowCmd = &cobra.Command{
	Use:   "show RJCODE",
	Short: "Show the stored preference and a parsing preview",
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

		pref, err := store.GetTrackParsingPreference(code)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if pref == nil {
			fmt.Fprintf(out, "%s: no stored preference (standard cascade)\n", code)
		} else {
			fmt.Fprintf(out, "%s: %s\n", code, pref)
		}

		work, err := store.GetWorkByRJCode(code)
		if err != nil || work == nil || work.Path == "" {
			return err
		}
		if _, statErr := os.Stat(work.Path); statErr != nil {
			return nil
		}
		files, err := scanner.ListAudioFiles(work.Path)
		if err != nil {
			return err
		}
		effective := trackparser.NewPreference(trackparser.Standard, "")
		if pref != nil {
			effective = *pref
		}
		interactive.BuildPreview(models.Names(files), effective).Render(out)
		return nil
	},
}

var preferenceSetCmd = &cobra.Command{
	Use:   "set RJCODE STRATEGY",
	Short: "Store a parsing strategy for a work",
	Long: `Store a parsing strategy for a work and mark it for retagging.
Strategies: ` + strings.Join(strategyNames(), ", ") + `.
custom_delimiter requires --delimiter.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := models.ParseRJCode(args[0])
		if err != nil {
			return err
		}
		pref, err := preferenceFromArgs(args[1], preferenceDelimiter)
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.SaveTrackParsingPreference(code, pref); err != nil {
			return err
		}
		work, err := store.GetWorkByRJCode(code)
		if err != nil {
			return err
		}
		if work != nil {
			if err := store.MarkWorkForRetag(code, time.Now()); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: saved %s\n", code, pref)
		return nil
	},
}

func init() {
	preferenceSetCmd.Flags().StringVar(&preferenceDelimiter, "delimiter", "", "delimiter for custom_delimiter")
	preferenceCmd.AddCommand(preferenceShowCmd, preferenceSetCmd)
	rootCmd.AddCommand(preferenceCmd)
}

func strategyNames() []string {
	strategies := []trackparser.Strategy{
		trackparser.Standard,
		trackparser.AsianFullwidth,
		trackparser.AsianBrackets,
		trackparser.AsianKanjiEpisode,
		trackparser.FirstNumber,
		trackparser.CustomDelimiter,
	}
	names := make([]string, len(strategies))
	for i, s := range strategies {
		names[i] = s.String()
	}
	return names
}

// preferenceFromArgs builds a validated preference from a strategy name.
// Unknown names are rejected rather than falling back to standard.
func preferenceFromArgs(name, delimiter string) (trackparser.Preference, error) {
	s := trackparser.ParseStrategy(name)
	if s.String() != name {
		return trackparser.Preference{}, fmt.Errorf("unknown strategy %q (want one of %s)", name, strings.Join(strategyNames(), ", "))
	}
	pref := trackparser.NewPreference(s, delimiter)
	if err := pref.Validate(); err != nil {
		return trackparser.Preference{}, err
	}
	return pref, nil
}
