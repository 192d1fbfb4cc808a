// file: cmd/helpers.go
// version: 1.0.0
// guid: 3b7e0f42-c916-4d8a-a5e3-0d92f61b7c48

package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hvtag/hvtag/internal/config"
	"github.com/hvtag/hvtag/internal/database"
	"github.com/hvtag/hvtag/internal/dlsite"
	"github.com/hvtag/hvtag/internal/interactive"
	"github.com/hvtag/hvtag/internal/metrics"
	"github.com/hvtag/hvtag/internal/models"
	"github.com/hvtag/hvtag/internal/processor"
	"github.com/hvtag/hvtag/internal/scanner"
)

func openStore() (database.Store, error) {
	store, err := database.OpenStore(config.AppConfig.DatabaseType, config.AppConfig.DatabasePath, config.AppConfig.EnableSQLite)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

func newDLsiteClient() (*dlsite.Client, error) {
	c := config.AppConfig.DLsite
	return dlsite.NewClient(dlsite.Config{
		BaseURL:           c.BaseURL,
		Locale:            c.Locale,
		RequestsPerSecond: c.RequestsPerSecond,
		Timeout:           c.Timeout,
		CacheTTL:          c.CacheTTL,
		UserAgent:         dlsite.DefaultConfig().UserAgent,
	})
}

func requireRootDir() (string, error) {
	root := config.AppConfig.RootDir
	if root == "" {
		return "", fmt.Errorf("root directory not specified (use --dir or root_dir)")
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("cannot read root directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("root directory %s is not a directory", root)
	}
	return root, nil
}

func processorOptions(force, convert bool) processor.Options {
	c := config.AppConfig
	return processor.Options{
		Interactive:      c.Interactive,
		Force:            force,
		DownloadCover:    c.DownloadCover,
		CoverSize:        c.CoverSize,
		EmbedCover:       c.EmbedCover,
		ConvertToMP3:     convert || c.ConvertToMP3,
		TargetBitrate:    c.TargetBitrate,
		Separator:        c.CustomSeparator,
		UseNullSeparator: c.UseNullSeparator,
		MoveDestination:  c.MoveDestination,
	}
}

func newProcessor(store database.Store, client *dlsite.Client, opts processor.Options, out io.Writer) *processor.Processor {
	options := []processor.Option{
		processor.WithMetadataSource(client),
		processor.WithCoverFetcher(client),
	}
	if opts.Interactive {
		selector := interactive.NewSelector(interactive.SurveyPrompter{PageSize: 10}, out)
		options = append(options, processor.WithDecider(selector))
	}
	return processor.New(store, opts, options...)
}

// syncLibrary scans root and records every work folder. It returns the
// folders and how many were new to the store.
func syncLibrary(store database.Store, root string, now time.Time) ([]models.ManagedFolder, int, error) {
	folders, err := scanner.ScanLibrary(root)
	if err != nil {
		return nil, 0, fmt.Errorf("scan error: %w", err)
	}
	created := 0
	for _, f := range folders {
		work, err := store.GetWorkByRJCode(f.RJCode)
		if err != nil {
			return nil, created, err
		}
		if work == nil {
			work = &models.Work{RJCode: f.RJCode, Active: true}
			created++
		}
		work.Path = f.Path
		work.LastScan = now
		if err := store.UpsertWork(work); err != nil {
			return nil, created, fmt.Errorf("failed to save %s: %w", f.RJCode, err)
		}
	}
	metrics.SetLibraryWorks(len(folders))
	return folders, created, nil
}

// selectFolders narrows folders to the given codes, keeping their order.
// No codes selects everything.
func selectFolders(folders []models.ManagedFolder, codes []string) ([]models.ManagedFolder, error) {
	if len(codes) == 0 {
		return folders, nil
	}
	byCode := make(map[models.RJCode]models.ManagedFolder, len(folders))
	for _, f := range folders {
		byCode[f.RJCode] = f
	}
	selected := make([]models.ManagedFolder, 0, len(codes))
	for _, arg := range codes {
		code, err := models.ParseRJCode(arg)
		if err != nil {
			return nil, err
		}
		f, ok := byCode[code]
		if !ok {
			return nil, fmt.Errorf("work %s not found under the library root", code)
		}
		selected = append(selected, f)
	}
	return selected, nil
}

func printSummary(w io.Writer, sum processor.Summary) {
	for _, r := range sum.Results {
		switch r.Outcome {
		case processor.Failed:
			fmt.Fprintf(w, "  %s  %-10s %v\n", r.RJCode, r.Outcome, r.Err)
		case processor.Tagged:
			line := fmt.Sprintf("  %s  %-10s %d files", r.RJCode, r.Outcome, r.FilesTagged)
			if r.Converted > 0 {
				line += fmt.Sprintf(", %d converted", r.Converted)
			}
			if r.Unnumbered > 0 {
				line += fmt.Sprintf(", %d without track number", r.Unnumbered)
			}
			fmt.Fprintln(w, line)
		default:
			fmt.Fprintf(w, "  %s  %s\n", r.RJCode, r.Outcome)
		}
	}
	fmt.Fprintf(w, "Tagged: %d, up to date: %d, skipped: %d, pending: %d, failed: %d\n",
		sum.Tagged, sum.UpToDate, sum.Deferred, sum.Pending, sum.Failed)
}
