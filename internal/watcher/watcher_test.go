// file: internal/watcher/watcher_test.go
// version: 3.0.0
// guid: a1b2c3d4-e5f6-7890-abcd-ef1234567890

package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hvtag/hvtag/internal/models"
)

type recorder struct {
	mu      sync.Mutex
	batches []Batch
}

func (r *recorder) handle(_ context.Context, b Batch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, b)
}

func (r *recorder) snapshot() []Batch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Batch(nil), r.batches...)
}

func startWatcher(t *testing.T, root string, debounce time.Duration) *recorder {
	t.Helper()
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	w := New(root, debounce, rec.handle)
	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() {
		cancel()
		<-w.Done()
	})
	return rec
}

func mkdir(t *testing.T, parts ...string) string {
	t.Helper()
	dir := filepath.Join(parts...)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return dir
}

func TestSingleWorkBatch(t *testing.T) {
	root := t.TempDir()
	work := mkdir(t, root, "RJ000001")
	rec := startWatcher(t, root, 100*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(work, "01 a.mp3"), []byte("data"), 0o644))

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 2*time.Second, 20*time.Millisecond)
	b := rec.snapshot()[0]
	assert.Equal(t, root, b.Root)
	assert.Equal(t, []models.RJCode{"RJ000001"}, b.Works)
}

func TestEventsCoalesceAcrossWorks(t *testing.T) {
	root := t.TempDir()
	w2 := mkdir(t, root, "RJ000002")
	w1 := mkdir(t, root, "RJ000001")
	rec := startWatcher(t, root, 200*time.Millisecond)

	for i := 0; i < 3; i++ {
		_ = os.WriteFile(filepath.Join(w2, fmt.Sprintf("%02d.flac", i)), []byte("data"), 0o644)
		_ = os.WriteFile(filepath.Join(w1, fmt.Sprintf("%02d.mp3", i)), []byte("data"), 0o644)
		time.Sleep(30 * time.Millisecond)
	}

	time.Sleep(600 * time.Millisecond)
	batches := rec.snapshot()
	require.Len(t, batches, 1)
	assert.Equal(t, []models.RJCode{"RJ000001", "RJ000002"}, batches[0].Works)
}

func TestIgnoredChanges(t *testing.T) {
	root := t.TempDir()
	work := mkdir(t, root, "RJ000001")
	misc := mkdir(t, root, "misc")
	rec := startWatcher(t, root, 100*time.Millisecond)

	_ = os.WriteFile(filepath.Join(work, "readme.txt"), []byte("hi"), 0o644)
	_ = os.WriteFile(filepath.Join(work, models.CoverFile), []byte("img"), 0o644)
	_ = os.WriteFile(filepath.Join(work, "01.mp3.tmp"), []byte("tmp"), 0o644)
	_ = os.WriteFile(filepath.Join(root, "loose.mp3"), []byte("audio"), 0o644)
	_ = os.WriteFile(filepath.Join(misc, "01.mp3"), []byte("audio"), 0o644)

	time.Sleep(400 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}

func TestNestedSubfolder(t *testing.T) {
	root := t.TempDir()
	sub := mkdir(t, root, "RJ123456", "mp3")
	rec := startWatcher(t, root, 100*time.Millisecond)

	_ = os.WriteFile(filepath.Join(sub, "01.ogg"), []byte("audio"), 0o644)

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, []models.RJCode{"RJ123456"}, rec.snapshot()[0].Works)
}

func TestWorkFolderMovedIn(t *testing.T) {
	root := t.TempDir()
	staging := t.TempDir()
	work := mkdir(t, staging, "RJ123456")
	require.NoError(t, os.WriteFile(filepath.Join(work, "01.mp3"), []byte("audio"), 0o644))

	rec := startWatcher(t, root, 100*time.Millisecond)
	if err := os.Rename(work, filepath.Join(root, "RJ123456")); err != nil {
		t.Skipf("cannot rename across temp dirs: %v", err)
	}

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, []models.RJCode{"RJ123456"}, rec.snapshot()[0].Works)
}

func TestDeleteTriggers(t *testing.T) {
	root := t.TempDir()
	work := mkdir(t, root, "RJ000001")
	f := filepath.Join(work, "01.mp3")
	require.NoError(t, os.WriteFile(f, []byte("data"), 0o644))
	rec := startWatcher(t, root, 100*time.Millisecond)

	require.NoError(t, os.Remove(f))

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 2*time.Second, 20*time.Millisecond)
}

func TestCancelStopsWatcher(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	w := New(root, 0, nil)
	assert.Equal(t, DefaultDebounce, w.debounce)
	require.NoError(t, w.Start(ctx))
	cancel()

	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestStartMissingRoot(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing"), 0, nil)
	assert.Error(t, w.Start(context.Background()))
}

func TestWorkOf(t *testing.T) {
	root := filepath.Join("/library")
	tests := []struct {
		path string
		want models.RJCode
		ok   bool
	}{
		{filepath.Join(root, "RJ000001", "01.mp3"), "RJ000001", true},
		{filepath.Join(root, "RJ000001", "disc1", "01.mp3"), "RJ000001", true},
		{filepath.Join(root, "RJ000001"), "RJ000001", true},
		{filepath.Join(root, "loose.mp3"), "", false},
		{filepath.Join(root, "misc", "01.mp3"), "", false},
		{root, "", false},
		{"/elsewhere/RJ000001/01.mp3", "", false},
	}
	for _, tt := range tests {
		got, ok := workOf(root, tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
}
