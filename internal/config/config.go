// file: internal/config/config.go
// version: 2.0.0
// guid: 7b8c9d0e-1f2a-3b4c-5d6e-7f8a9b0c1d2e

package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DLsiteConfig holds metadata fetch settings.
type DLsiteConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Locale            string        `yaml:"locale"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout"`
	CacheTTL          time.Duration `yaml:"cache_ttl"`
	Concurrency       int           `yaml:"concurrency"`
}

// Config holds application configuration
type Config struct {
	RootDir         string `yaml:"root_dir"`
	DatabasePath    string `yaml:"database_path"`
	DatabaseType    string `yaml:"database_type"` // "pebble" (default) or "sqlite"
	EnableSQLite    bool   `yaml:"enable_sqlite3_i_know_the_risks"`
	MoveDestination string `yaml:"move_destination"`

	DownloadCover bool `yaml:"download_cover"`
	CoverSize     int  `yaml:"cover_size"`
	EmbedCover    bool `yaml:"embed_cover"`

	ConvertToMP3  bool `yaml:"convert_to_mp3"`
	TargetBitrate int  `yaml:"target_bitrate"`

	UseNullSeparator bool   `yaml:"use_null_separator"`
	CustomSeparator  string `yaml:"custom_separator"`

	DLsite DLsiteConfig `yaml:"dlsite"`

	Interactive         bool     `yaml:"interactive"`
	MetricsAddr         string   `yaml:"metrics_addr"`
	LogLevel            string   `yaml:"log_level"`
	SupportedExtensions []string `yaml:"supported_extensions"`
}

// AppConfig is populated by InitConfig.
var AppConfig Config

// SetDefaults registers default values with viper.
func SetDefaults() {
	viper.SetDefault("database_path", "hvtag.pebble")
	viper.SetDefault("database_type", "pebble")
	viper.SetDefault("enable_sqlite3_i_know_the_risks", false)
	viper.SetDefault("move_destination", "")

	viper.SetDefault("download_cover", true)
	viper.SetDefault("cover_size", 300)
	viper.SetDefault("embed_cover", true)

	viper.SetDefault("convert_to_mp3", false)
	viper.SetDefault("target_bitrate", 320)

	viper.SetDefault("use_null_separator", false)
	viper.SetDefault("custom_separator", "; ")

	viper.SetDefault("dlsite.base_url", "https://www.dlsite.com")
	viper.SetDefault("dlsite.locale", "en_US")
	viper.SetDefault("dlsite.requests_per_second", 1.0)
	viper.SetDefault("dlsite.timeout", 30*time.Second)
	viper.SetDefault("dlsite.cache_ttl", time.Hour)
	viper.SetDefault("dlsite.concurrency", 4)

	viper.SetDefault("interactive", true)
	viper.SetDefault("metrics_addr", "")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("supported_extensions", []string{".mp3", ".flac", ".wav", ".ogg"})
}

// InitConfig reads viper state into AppConfig.
func InitConfig() {
	SetDefaults()

	AppConfig = Config{
		RootDir:         viper.GetString("root_dir"),
		DatabasePath:    viper.GetString("database_path"),
		DatabaseType:    strings.ToLower(viper.GetString("database_type")),
		EnableSQLite:    viper.GetBool("enable_sqlite3_i_know_the_risks"),
		MoveDestination: viper.GetString("move_destination"),

		DownloadCover: viper.GetBool("download_cover"),
		CoverSize:     viper.GetInt("cover_size"),
		EmbedCover:    viper.GetBool("embed_cover"),

		ConvertToMP3:  viper.GetBool("convert_to_mp3"),
		TargetBitrate: viper.GetInt("target_bitrate"),

		UseNullSeparator: viper.GetBool("use_null_separator"),
		CustomSeparator:  viper.GetString("custom_separator"),

		DLsite: DLsiteConfig{
			BaseURL:           viper.GetString("dlsite.base_url"),
			Locale:            viper.GetString("dlsite.locale"),
			RequestsPerSecond: viper.GetFloat64("dlsite.requests_per_second"),
			Timeout:           viper.GetDuration("dlsite.timeout"),
			CacheTTL:          viper.GetDuration("dlsite.cache_ttl"),
			Concurrency:       viper.GetInt("dlsite.concurrency"),
		},

		Interactive:         viper.GetBool("interactive"),
		MetricsAddr:         viper.GetString("metrics_addr"),
		LogLevel:            viper.GetString("log_level"),
		SupportedExtensions: viper.GetStringSlice("supported_extensions"),
	}

	if AppConfig.DatabaseType == "sqlite3" {
		AppConfig.DatabaseType = "sqlite"
	}
	if AppConfig.DatabaseType == "" {
		AppConfig.DatabaseType = "pebble"
	}
	if AppConfig.DLsite.Concurrency < 1 {
		AppConfig.DLsite.Concurrency = 1
	}
}
