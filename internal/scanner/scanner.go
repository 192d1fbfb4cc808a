// file: internal/scanner/scanner.go
// version: 2.0.0
// guid: 3c4d5e6f-7a8b-9c0d-1e2f-3a4b5c6d7e8f

// Package scanner discovers work folders in a library root.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hvtag/hvtag/internal/logging"
	"github.com/hvtag/hvtag/internal/models"
	"github.com/hvtag/hvtag/internal/normalizer"
)

// ScanLibrary returns the work folders directly under root.
func ScanLibrary(root string) ([]models.ManagedFolder, error) {
	return ScanLibraryParallel(root, 1)
}

// ScanLibraryParallel inspects candidate folders with up to workers
// goroutines. A folder qualifies when its name is a valid RJ code and it
// holds audio at its root or one level down. Results are sorted by RJ code.
func ScanLibraryParallel(root string, workers int) ([]models.ManagedFolder, error) {
	if workers < 1 {
		workers = 1
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read library root %s: %w", root, err)
	}

	var (
		mu      sync.Mutex
		folders []models.ManagedFolder
		g       errgroup.Group
	)
	g.SetLimit(workers)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		code, err := models.ParseRJCode(entry.Name())
		if err != nil {
			continue
		}
		dir := filepath.Join(root, entry.Name())

		g.Go(func() error {
			folder, ok := inspect(dir, code)
			if !ok {
				return nil
			}
			mu.Lock()
			folders = append(folders, folder)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(folders, func(i, j int) bool { return folders[i].RJCode < folders[j].RJCode })
	logging.L().Debug("scanned library", zap.String("root", root), zap.Int("works", len(folders)))
	return folders, nil
}

// inspect reports whether dir holds audio and collects its markers.
// Unreadable folders are skipped.
func inspect(dir string, code models.RJCode) (models.ManagedFolder, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logging.L().Warn("skipping unreadable folder", zap.String("path", dir), zap.Error(err))
		return models.ManagedFolder{}, false
	}

	folder := models.ManagedFolder{RJCode: code, Path: dir}
	hasAudio := false
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			if !hasAudio && subdirHasAudio(filepath.Join(dir, name)) {
				hasAudio = true
			}
			continue
		}
		switch {
		case name == models.TaggedMarker:
			folder.IsTagged = true
		case name == models.CoverFile:
			folder.HasCover = true
		case normalizer.IsAudioFile(name):
			hasAudio = true
		}
	}
	return folder, hasAudio
}

func subdirHasAudio(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && normalizer.IsAudioFile(e.Name()) {
			return true
		}
	}
	return false
}

// ListAudioFiles returns the audio files at the root of dir sorted by name.
func ListAudioFiles(dir string) ([]models.AudioFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var files []models.AudioFile
	for _, e := range entries {
		if e.IsDir() || !normalizer.IsAudioFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", e.Name(), err)
		}
		files = append(files, models.NewAudioFile(filepath.Join(dir, e.Name()), info.Size()))
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}
