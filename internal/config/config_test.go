// file: internal/config/config_test.go
// version: 2.0.0
// guid: b2c3d4e5-f6a7-8b9c-0d1e-2f3a4b5c6d7e

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	InitConfig()

	assert.Equal(t, "pebble", AppConfig.DatabaseType)
	assert.Equal(t, "hvtag.pebble", AppConfig.DatabasePath)
	assert.False(t, AppConfig.EnableSQLite)
	assert.True(t, AppConfig.DownloadCover)
	assert.Equal(t, 300, AppConfig.CoverSize)
	assert.False(t, AppConfig.ConvertToMP3)
	assert.Equal(t, 320, AppConfig.TargetBitrate)
	assert.Equal(t, "https://www.dlsite.com", AppConfig.DLsite.BaseURL)
	assert.Equal(t, "en_US", AppConfig.DLsite.Locale)
	assert.Equal(t, 30*time.Second, AppConfig.DLsite.Timeout)
	assert.Equal(t, time.Hour, AppConfig.DLsite.CacheTTL)
	assert.Equal(t, 4, AppConfig.DLsite.Concurrency)
	assert.True(t, AppConfig.Interactive)
	assert.Equal(t, "info", AppConfig.LogLevel)
	assert.Equal(t, []string{".mp3", ".flac", ".wav", ".ogg"}, AppConfig.SupportedExtensions)
}

func TestInitConfig_Overrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("database_type", "SQLite3")
	viper.Set("dlsite.concurrency", 0)
	viper.Set("root_dir", "/library")
	InitConfig()

	assert.Equal(t, "sqlite", AppConfig.DatabaseType)
	assert.Equal(t, 1, AppConfig.DLsite.Concurrency)
	assert.Equal(t, "/library", AppConfig.RootDir)
}

func TestInitConfig_Env(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("HVTAG_LOG_LEVEL", "debug")

	viper.SetEnvPrefix("hvtag")
	viper.AutomaticEnv()
	InitConfig()

	assert.Equal(t, "debug", AppConfig.LogLevel)
}

func TestWriteSample_RoundTrip(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "hvtag.yaml")
	require.NoError(t, WriteSample(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# pebble or sqlite")
	assert.Contains(t, string(data), "timeout: 30s")

	viper.Reset()
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())
	InitConfig()
	assert.Equal(t, 30*time.Second, AppConfig.DLsite.Timeout)
	assert.Equal(t, 300, AppConfig.CoverSize)
	assert.Equal(t, "; ", AppConfig.CustomSeparator)

	assert.Error(t, WriteSample(path))
}
