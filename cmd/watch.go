// file: cmd/watch.go
// version: 1.1.0
// guid: 2f86d1c4-9e05-4b7a-83d6-5c1a7e09b3f4

package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hvtag/hvtag/internal/config"
	"github.com/hvtag/hvtag/internal/database"
	"github.com/hvtag/hvtag/internal/logging"
	"github.com/hvtag/hvtag/internal/metrics"
	"github.com/hvtag/hvtag/internal/models"
	"github.com/hvtag/hvtag/internal/processor"
	"github.com/hvtag/hvtag/internal/watcher"
)

var watchDebounce time.Duration

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Tag new works as they appear in the library",
	Long: `Watch the library root and tag works whenever audio files settle.
Watch mode never prompts: works with unclear track numbers stay pending
until tagged interactively. Set metrics_addr to expose /metrics.`,
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

		metrics.Register()
		ctx := cmd.Context()
		if addr := config.AppConfig.MetricsAddr; addr != "" {
			srv := startMetricsServer(addr)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
		}

		opts := processorOptions(false, false)
		opts.Interactive = false
		p := newProcessor(store, client, opts, cmd.OutOrStdout())

		// Catch up on the whole library before watching.
		if folders, _, err := syncLibrary(store, root, time.Now()); err != nil {
			return err
		} else if _, err := p.ProcessAll(ctx, folders); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		w := watcher.New(root, watchDebounce, batchRunner(store, p))
		if err := w.Start(ctx); err != nil {
			return err
		}
		<-w.Done()
		logging.L().Info("watch stopped")
		return nil
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "quiet period before processing changes")
	rootCmd.AddCommand(watchCmd)
}

// batchRunner returns a watcher handler that rescans the library and
// processes the works named in the batch.
func batchRunner(store database.Store, p *processor.Processor) watcher.Handler {
	return func(ctx context.Context, b watcher.Batch) {
		log := logging.L()
		folders, _, err := syncLibrary(store, b.Root, time.Now())
		if err != nil {
			log.Error("library scan failed", zap.Error(err))
			return
		}
		changed := foldersFor(folders, b.Works)
		log.Info("processing changed works", zap.Int("works", len(changed)))
		if _, err := p.ProcessAll(ctx, changed); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("processing stopped", zap.Error(err))
		}
	}
}

// foldersFor keeps the folders whose code is in codes. Codes without a
// folder, such as works deleted since the event, are dropped.
func foldersFor(folders []models.ManagedFolder, codes []models.RJCode) []models.ManagedFolder {
	want := make(map[models.RJCode]bool, len(codes))
	for _, c := range codes {
		want[c] = true
	}
	var out []models.ManagedFolder
	for _, f := range folders {
		if want[f.RJCode] {
			out = append(out, f)
		}
	}
	return out
}

func startMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.L().Error("metrics server failed", zap.String("addr", addr), zap.Error(err))
		}
	}()
	logging.L().Info("serving metrics", zap.String("addr", addr))
	return srv
}
