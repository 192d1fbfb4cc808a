// file: internal/scanner/scanner_test.go
// version: 2.0.0
// guid: 6d1a8f43-c27e-4b90-a5d3-0f9e4c7b2a18

package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hvtag/hvtag/internal/models"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
}

func buildLibrary(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	touch(t, filepath.Join(root, "RJ100002", "01.mp3"))
	touch(t, filepath.Join(root, "RJ100002", models.TaggedMarker))
	touch(t, filepath.Join(root, "RJ100002", models.CoverFile))
	touch(t, filepath.Join(root, "RJ100001", "mp3", "01.MP3"))
	touch(t, filepath.Join(root, "RJ100003", "readme.txt"))
	touch(t, filepath.Join(root, "RJ100004", "a", "b", "01.mp3"))
	touch(t, filepath.Join(root, "RJ12", "01.mp3"))
	touch(t, filepath.Join(root, "Other", "01.mp3"))
	touch(t, filepath.Join(root, "RJ999999.mp3"))
	return root
}

func TestScanLibrary(t *testing.T) {
	root := buildLibrary(t)

	folders, err := ScanLibrary(root)
	require.NoError(t, err)
	require.Len(t, folders, 2)

	assert.Equal(t, models.RJCode("RJ100001"), folders[0].RJCode)
	assert.Equal(t, filepath.Join(root, "RJ100001"), folders[0].Path)
	assert.False(t, folders[0].IsTagged)
	assert.False(t, folders[0].HasCover)

	assert.Equal(t, models.RJCode("RJ100002"), folders[1].RJCode)
	assert.True(t, folders[1].IsTagged)
	assert.True(t, folders[1].HasCover)
}

func TestScanLibraryParallel_MatchesSequential(t *testing.T) {
	root := buildLibrary(t)
	for i := 0; i < 20; i++ {
		touch(t, filepath.Join(root, fmt.Sprintf("RJ2000%02d", i), "01.flac"))
	}

	seq, err := ScanLibrary(root)
	require.NoError(t, err)
	par, err := ScanLibraryParallel(root, 8)
	require.NoError(t, err)
	assert.Equal(t, seq, par)
}

func TestScanLibrary_MissingRoot(t *testing.T) {
	_, err := ScanLibrary(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestListAudioFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "10.mp3"))
	touch(t, filepath.Join(dir, "02.FLAC"))
	touch(t, filepath.Join(dir, "cover.jpg"))
	touch(t, filepath.Join(dir, "sub", "03.mp3"))

	files, err := ListAudioFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "02.FLAC", files[0].Name)
	assert.Equal(t, "flac", files[0].Format)
	assert.Equal(t, int64(4), files[0].Size)
	assert.Equal(t, "10.mp3", files[1].Name)
	assert.Nil(t, files[1].TrackNumber)

	_, err = ListAudioFiles(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
