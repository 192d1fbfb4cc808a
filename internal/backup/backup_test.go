// file: internal/backup/backup_test.go
// version: 2.0.0
// guid: c3d4e5f6-a7b8-9c0d-1e2f-3a4b5c6d7e8f

package backup

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "backups", cfg.BackupDir)
	assert.Equal(t, 10, cfg.MaxBackups)
	assert.Equal(t, gzip.BestCompression, cfg.CompressionLevel)
}

func makePebbleDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "hvtag.pebble")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "MANIFEST"), []byte("manifest"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "000001.sst"), []byte("table"), 0o644))
	return dir
}

func TestCreateAndRestoreDirectory(t *testing.T) {
	db := makePebbleDir(t)
	cfg := Config{BackupDir: filepath.Join(t.TempDir(), "backups"), MaxBackups: 5, CompressionLevel: gzip.DefaultCompression}
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	info, err := Create(db, "pebble", cfg, now)
	require.NoError(t, err)
	assert.Equal(t, "hvtag_pebble_20240301_120000.tar.gz", info.Filename)
	assert.Len(t, info.Checksum, 64)
	assert.Positive(t, info.Size)

	target := filepath.Join(t.TempDir(), "restored.pebble")
	require.NoError(t, Restore(info.Path, target))

	data, err := os.ReadFile(filepath.Join(target, "MANIFEST"))
	require.NoError(t, err)
	assert.Equal(t, "manifest", string(data))
	data, err = os.ReadFile(filepath.Join(target, "sub", "000001.sst"))
	require.NoError(t, err)
	assert.Equal(t, "table", string(data))

	err = Restore(info.Path, target)
	assert.ErrorIs(t, err, ErrTargetExists)
}

func TestCreateAndRestoreFile(t *testing.T) {
	db := filepath.Join(t.TempDir(), "hvtag.db")
	require.NoError(t, os.WriteFile(db, []byte("sqlite"), 0o600))
	cfg := Config{BackupDir: t.TempDir(), MaxBackups: 5, CompressionLevel: gzip.DefaultCompression}

	info, err := Create(db, "sqlite", cfg, time.Now())
	require.NoError(t, err)

	target := filepath.Join(t.TempDir(), "copy.db")
	require.NoError(t, Restore(info.Path, target))
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", string(data))
}

func TestCreateMissingDatabase(t *testing.T) {
	cfg := Config{BackupDir: t.TempDir(), MaxBackups: 5, CompressionLevel: gzip.DefaultCompression}
	_, err := Create(filepath.Join(t.TempDir(), "missing"), "pebble", cfg, time.Now())
	require.Error(t, err)

	backups, err := List(cfg.BackupDir)
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestListAndPrune(t *testing.T) {
	db := makePebbleDir(t)
	cfg := Config{BackupDir: t.TempDir(), MaxBackups: 2, CompressionLevel: gzip.DefaultCompression}
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := Create(db, "pebble", cfg, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	backups, err := List(cfg.BackupDir)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	names := []string{backups[0].Filename, backups[1].Filename}
	assert.NotContains(t, names, "hvtag_pebble_20240301_120000.tar.gz")
	assert.Equal(t, "pebble", backups[0].DatabaseType)
}

func TestListMissingDirectory(t *testing.T) {
	backups, err := List(filepath.Join(t.TempDir(), "none"))
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestRestorePathRejectsEscapes(t *testing.T) {
	_, err := restorePath("/tmp/db", "../evil")
	assert.Error(t, err)

	got, err := restorePath("/tmp/db", "old.pebble/sub/x")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/db", "sub", "x"), got)

	got, err = restorePath("/tmp/db", "old.db")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/db", got)
}
