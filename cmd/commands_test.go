// file: cmd/commands_test.go
// version: 2.1.0
// guid: 4d1f8a6b-3c27-4e95-b0d8-71a2c6e9f354

package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hvtag/hvtag/internal/normalizer"
	"github.com/hvtag/hvtag/internal/trackparser"
)

// runCLI executes the root command with args and returns its output.
// Flag-bound globals are reset first since cobra keeps them between runs.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	cfgFile = ""
	parseStrategy, parseDelimiter = "", ""
	normalizeDryRun = false
	listFilter, listUntagged = "", false
	preferenceDelimiter = ""

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestParseCommand(t *testing.T) {
	out, err := runCLI(t, "parse", "01 opening.mp3", "bonus.mp3")
	require.NoError(t, err)
	assert.Contains(t, out, "[1] 01 opening.mp3")
	assert.Contains(t, out, "[??] bonus.mp3")
	assert.Contains(t, out, "Failure ratio: 50%")
	assert.Contains(t, out, "A parsing decision would be requested")
}

func TestParseCommandWithStrategy(t *testing.T) {
	out, err := runCLI(t, "parse", "--strategy", "first_number", "part1.mp3", "part2.mp3")
	require.NoError(t, err)
	assert.Contains(t, out, "[1] part1.mp3")
	assert.Contains(t, out, "[2] part2.mp3")
	assert.Contains(t, out, "Success: 2/2")

	_, err = runCLI(t, "parse", "--strategy", "custom_delimiter", "a_1.mp3")
	assert.Error(t, err)
}

func TestNormalizeCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "RJ000001")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "mp3"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mp3", "01 a.mp3"), []byte("x"), 0o644))

	out, err := runCLI(t, "normalize", "--dry-run", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "mp3_subfolder")
	assert.NotContains(t, out, "Moved")

	out, err = runCLI(t, "normalize", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Moved 1 files")
}

func TestNormalizeCommandConfiguredExtensions(t *testing.T) {
	t.Cleanup(func() {
		viper.Set("supported_extensions", []string{".mp3", ".flac", ".wav", ".ogg"})
		normalizer.SetAudioExtensions(nil)
	})
	cfg := filepath.Join(t.TempDir(), "hvtag.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("supported_extensions: [\".m4a\", \".mp3\"]\n"), 0o644))

	dir := filepath.Join(t.TempDir(), "RJ000001")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "audio"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "audio", "01 a.m4a"), []byte("x"), 0o644))

	out, err := runCLI(t, "--config", cfg, "normalize", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Moved 1 files")
	assert.FileExists(t, filepath.Join(dir, "01 a.m4a"))
}

func TestConfigInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hvtag.yaml")
	out, err := runCLI(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)
	assert.FileExists(t, path)

	_, err = runCLI(t, "config", "init", path)
	assert.Error(t, err)
}

func TestScanListAndPreferenceCommands(t *testing.T) {
	root := t.TempDir()
	db := filepath.Join(t.TempDir(), "db")
	makeWork(t, root, "RJ000001", "01 a.mp3", "02 b.mp3")
	makeWork(t, root, "RJ000002", "part1.mp3", "part2.mp3")

	out, err := runCLI(t, "scan", "--dir", root, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Found 2 works (2 new)")

	out, err = runCLI(t, "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "RJ000001  untagged (no metadata)")
	assert.Contains(t, out, "2 works")

	out, err = runCLI(t, "preference", "set", "--db", db, "RJ000002", "first_number")
	require.NoError(t, err)
	assert.Contains(t, out, "RJ000002: saved first_number")

	out, err = runCLI(t, "preference", "show", "--db", db, "RJ000002")
	require.NoError(t, err)
	assert.Contains(t, out, "RJ000002: first_number")
	assert.Contains(t, out, "[2] part2.mp3")

	store := openTestDB(t, db)
	pref, err := store.GetTrackParsingPreference("RJ000002")
	require.NoError(t, err)
	require.NotNil(t, pref)
	assert.Equal(t, trackparser.FirstNumber, pref.Strategy)
}

func TestTagOverrideCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "db")

	out, err := runCLI(t, "tags", "map", "--db", db, "ASMR", "Whisper")
	require.NoError(t, err)
	assert.Contains(t, out, "0 works marked for retagging")

	_, err = runCLI(t, "tags", "ignore", "--db", db, "Binaural")
	require.NoError(t, err)

	out, err = runCLI(t, "tags", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "ASMR -> Whisper")
	assert.Contains(t, out, "Binaural  (ignored)")
	assert.Contains(t, out, "2 overrides")

	_, err = runCLI(t, "circle", "set", "--db", db, "RG001", "Nice Circle")
	require.NoError(t, err)
	store := openTestDB(t, db)
	name, err := store.GetCircleName("RG001")
	require.NoError(t, err)
	assert.Equal(t, "Nice Circle", name)
}

func TestDiagnosticsPrune(t *testing.T) {
	root := t.TempDir()
	db := filepath.Join(t.TempDir(), "db")
	dir := makeWork(t, root, "RJ000001", "01 a.mp3")
	makeWork(t, root, "RJ000002", "01 a.mp3")

	_, err := runCLI(t, "scan", "--dir", root, "--db", db)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	out, err := runCLI(t, "diagnostics", "prune", "--db", db, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 missing works")
	assert.Contains(t, out, "Dry run enabled")

	out, err = runCLI(t, "diagnostics", "prune", "--db", db, "--dry-run=false", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 1 works.")

	store := openTestDB(t, db)
	w, err := store.GetWorkByRJCode("RJ000001")
	require.NoError(t, err)
	assert.Nil(t, w)
	w, err = store.GetWorkByRJCode("RJ000002")
	require.NoError(t, err)
	assert.NotNil(t, w)
}

func TestBackupCommands(t *testing.T) {
	root := t.TempDir()
	db := filepath.Join(t.TempDir(), "db")
	backups := filepath.Join(t.TempDir(), "backups")
	makeWork(t, root, "RJ000001", "01 a.mp3")

	_, err := runCLI(t, "scan", "--dir", root, "--db", db)
	require.NoError(t, err)

	out, err := runCLI(t, "backup", "create", "--db", db, "--backup-dir", backups)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote ")

	out, err = runCLI(t, "backup", "list", "--backup-dir", backups)
	require.NoError(t, err)
	assert.Contains(t, out, "1 backups")

	entries, err := os.ReadDir(backups)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	restored := filepath.Join(t.TempDir(), "restored")
	_, err = runCLI(t, "backup", "restore", "--db", restored, filepath.Join(backups, entries[0].Name()))
	require.NoError(t, err)

	store := openTestDB(t, restored)
	w, err := store.GetWorkByRJCode("RJ000001")
	require.NoError(t, err)
	assert.NotNil(t, w)
}
