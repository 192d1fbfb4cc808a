// file: cmd/fetch.go
// version: 1.0.0
// guid: 41c8e7b3-0a6d-4f95-b2e8-6d3f19a07c52

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hvtag/hvtag/internal/config"
	"github.com/hvtag/hvtag/internal/database"
	"github.com/hvtag/hvtag/internal/dlsite"
	"github.com/hvtag/hvtag/internal/logging"
	"github.com/hvtag/hvtag/internal/models"
	"github.com/hvtag/hvtag/internal/processor"
)

var fetchForce bool

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [RJCODE...]",
	Short: "Fetch DLsite metadata for recorded works",
	Long: `Fetch product metadata from DLsite for works found by scan. Works that
already have metadata are skipped unless --force is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		client, err := newDLsiteClient()
		if err != nil {
			return err
		}

		works, err := worksToFetch(store, args, fetchForce)
		if err != nil {
			return err
		}
		if len(works) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to fetch")
			return nil
		}

		report, err := fetchMetadata(cmd.Context(), store, client, works, config.AppConfig.DLsite.Concurrency, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Fetched: %d, removed from DLsite: %d, failed: %d\n",
			report.Fetched, report.Removed, report.Failed)
		return nil
	},
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchForce, "force", false, "refetch works that already have metadata")
	rootCmd.AddCommand(fetchCmd)
}

// worksToFetch returns the stored works named by codes, or every active
// work when codes is empty.
func worksToFetch(store database.Store, codes []string, force bool) ([]models.Work, error) {
	var works []models.Work
	if len(codes) == 0 {
		all, err := store.GetAllWorks()
		if err != nil {
			return nil, err
		}
		for _, w := range all {
			if w.Active && (force || !w.HasMetadata()) {
				works = append(works, w)
			}
		}
		return works, nil
	}
	for _, arg := range codes {
		code, err := models.ParseRJCode(arg)
		if err != nil {
			return nil, err
		}
		w, err := store.GetWorkByRJCode(code)
		if err != nil {
			return nil, err
		}
		if w == nil {
			return nil, fmt.Errorf("work %s is not recorded; run scan first", code)
		}
		if force || !w.HasMetadata() {
			works = append(works, *w)
		}
	}
	return works, nil
}

type fetchReport struct {
	Fetched int
	Removed int
	Failed  int
}

// fetchMetadata downloads details for works with at most concurrency
// requests in flight. Per-work failures are recorded and counted; only
// cancellation aborts the batch.
func fetchMetadata(ctx context.Context, store database.Store, src processor.MetadataSource, works []models.Work, concurrency int, progress io.Writer) (fetchReport, error) {
	var (
		report fetchReport
		mu     sync.Mutex
		log    = logging.L()
	)
	if concurrency < 1 {
		concurrency = 1
	}

	bar := progressbar.NewOptions(len(works),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("fetching metadata"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range works {
		work := works[i]
		g.Go(func() error {
			defer func() { _ = bar.Add(1) }()

			details, err := src.FetchWork(gctx, work.RJCode)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}

			mu.Lock()
			defer mu.Unlock()
			now := time.Now()
			switch {
			case errors.Is(err, dlsite.ErrRemovedWork):
				report.Removed++
				work.Active = false
				if uerr := store.UpsertWork(&work); uerr != nil {
					return uerr
				}
				recordFetchError(store, work.RJCode, false, err, now)
				log.Warn("work removed from DLsite", zap.String("work", string(work.RJCode)))
			case err != nil:
				report.Failed++
				recordFetchError(store, work.RJCode, true, err, now)
				log.Error("metadata fetch failed", zap.String("work", string(work.RJCode)), zap.Error(err))
			default:
				report.Fetched++
				work.ApplyDetails(details, now)
				work.Active = true
				if uerr := store.UpsertWork(&work); uerr != nil {
					return uerr
				}
				log.Debug("metadata fetched", zap.String("work", string(work.RJCode)), zap.String("name", work.Name))
			}
			return nil
		})
	}
	err := g.Wait()
	_ = bar.Finish()
	return report, err
}

func recordFetchError(store database.Store, code models.RJCode, retryable bool, err error, now time.Time) {
	werr := &models.WorkError{
		RJCode:     code,
		Category:   processor.CategoryMetadata,
		Details:    err.Error(),
		Retryable:  retryable,
		OccurredAt: now,
	}
	if rerr := store.RecordWorkError(werr); rerr != nil {
		logging.L().Error("failed to record work error", zap.String("work", string(code)), zap.Error(rerr))
	}
}
