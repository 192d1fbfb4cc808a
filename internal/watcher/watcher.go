// file: internal/watcher/watcher.go
// version: 4.0.0
// guid: b2c3d4e5-f6a7-8901-bcde-f23456789012

// Package watcher reports which work folders under a library root changed.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hvtag/hvtag/internal/logging"
	"github.com/hvtag/hvtag/internal/models"
	"github.com/hvtag/hvtag/internal/normalizer"
)

// DefaultDebounce is the default debounce period.
const DefaultDebounce = 5 * time.Second

// Batch is one settled set of changes, by work folder.
type Batch struct {
	Root  string
	Works []models.RJCode
}

// Handler receives settled batches. Calls never overlap.
type Handler func(ctx context.Context, b Batch)

// Watcher collects audio changes per work folder and hands them to a
// Handler once the tree has been quiet for the debounce period. Audio
// outside RJ work folders is ignored, as the scanner ignores it.
type Watcher struct {
	root     string
	debounce time.Duration
	handle   Handler

	mu      sync.Mutex
	pending map[models.RJCode]bool
	timer   *time.Timer

	runMu sync.Mutex
	done  chan struct{}
}

// New creates a Watcher for root. Pass 0 for debounce to use
// DefaultDebounce.
func New(root string, debounce time.Duration, handle Handler) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		root:     root,
		debounce: debounce,
		handle:   handle,
		pending:  make(map[models.RJCode]bool),
		done:     make(chan struct{}),
	}
}

// Start watches the tree and handles events in the background until ctx
// is done. Watches are in place when Start returns.
func (w *Watcher) Start(ctx context.Context) error {
	info, err := os.Stat(w.root)
	if err != nil {
		return fmt.Errorf("cannot watch %s: %w", w.root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("cannot watch %s: not a directory", w.root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	w.watchTree(fsw, w.root)

	go w.loop(ctx, fsw)
	logging.L().Info("watching library", zap.String("root", w.root), zap.Duration("debounce", w.debounce))
	return nil
}

// Done is closed after ctx ends and any running handler has returned.
func (w *Watcher) Done() <-chan struct{} { return w.done }

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer close(w.done)
	defer fsw.Close()

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
				w.timer = nil
			}
			w.mu.Unlock()
			// Wait for a handler already in flight.
			w.runMu.Lock()
			w.runMu.Unlock()
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.observe(ctx, fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logging.L().Error("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) watchTree(fsw *fsnotify.Watcher, dir string) {
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if err := fsw.Add(path); err != nil {
			logging.L().Warn("cannot watch directory", zap.String("path", path), zap.Error(err))
		}
		return nil
	})
}

func (w *Watcher) observe(ctx context.Context, fsw *fsnotify.Watcher, ev fsnotify.Event) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			w.watchTree(fsw, ev.Name)
			// A folder moved in whole produces no per-file events.
			if containsAudio(ev.Name) {
				w.mark(ctx, ev.Name)
			}
			return
		}
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	if normalizer.IsAudioFile(ev.Name) {
		w.mark(ctx, ev.Name)
	}
}

func (w *Watcher) mark(ctx context.Context, path string) {
	code, ok := workOf(w.root, path)
	if !ok {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[code] = true
	if w.timer != nil {
		w.timer.Reset(w.debounce)
		return
	}
	w.timer = time.AfterFunc(w.debounce, func() { w.flush(ctx) })
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	batch := Batch{Root: w.root}
	for code := range w.pending {
		batch.Works = append(batch.Works, code)
	}
	w.pending = make(map[models.RJCode]bool)
	w.timer = nil
	w.mu.Unlock()

	// A timer reset after it fired can flush an already drained set.
	if len(batch.Works) == 0 || ctx.Err() != nil {
		return
	}
	sort.Slice(batch.Works, func(i, j int) bool { return batch.Works[i] < batch.Works[j] })

	w.runMu.Lock()
	defer w.runMu.Unlock()
	logging.L().Info("changes settled", zap.Int("works", len(batch.Works)))
	if w.handle != nil {
		w.handle(ctx, batch)
	}
}

// workOf maps path to the work folder directly under root that holds it.
func workOf(root, path string) (models.RJCode, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	first, _, _ := strings.Cut(rel, string(filepath.Separator))
	code, err := models.ParseRJCode(first)
	if err != nil {
		return "", false
	}
	return code, true
}

func containsAudio(dir string) bool {
	found := false
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return filepath.SkipDir
		}
		if !d.IsDir() && normalizer.IsAudioFile(d.Name()) {
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	return found
}
