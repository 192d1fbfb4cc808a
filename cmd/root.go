// file: cmd/root.go
// version: 2.1.0
// guid: 6a7b8c9d-0e1f-2a3b-4c5d-6e7f8a9b0c1d

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hvtag/hvtag/internal/config"
	"github.com/hvtag/hvtag/internal/logging"
	"github.com/hvtag/hvtag/internal/normalizer"
)

var cfgFile string
var rootDir string
var databasePath string
var databaseType string
var enableSQLite bool
var moveDestination string
var logLevel string
var nonInteractive bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hvtag",
	Short: "Tag and organize DLsite voice works",
	Long: `hvtag scans a library of DLsite voice works (folders named by RJ code),
fetches their metadata, works out track numbers from the file names and
writes tags, cover art and optional MP3 conversions into each folder.

When file names are ambiguous it asks once per work how to number the
tracks and remembers the answer.`,
	SilenceUsage: true,
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer logging.Sync()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.hvtag.yaml)")
	rootCmd.PersistentFlags().StringVar(&rootDir, "dir", "", "library root containing RJ work folders")
	rootCmd.PersistentFlags().StringVar(&databasePath, "db", "hvtag.pebble", "path to the database")
	rootCmd.PersistentFlags().StringVar(&databaseType, "db-type", "pebble", "database type: pebble or sqlite")
	rootCmd.PersistentFlags().BoolVar(&enableSQLite, "enable-sqlite3-i-know-the-risks", false, "allow the SQLite backend")
	rootCmd.PersistentFlags().StringVar(&moveDestination, "move", "", "move tagged works into this directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "never prompt; leave ambiguous works pending")

	_ = viper.BindPFlag("root_dir", rootCmd.PersistentFlags().Lookup("dir"))
	_ = viper.BindPFlag("database_path", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("database_type", rootCmd.PersistentFlags().Lookup("db-type"))
	_ = viper.BindPFlag("enable_sqlite3_i_know_the_risks", rootCmd.PersistentFlags().Lookup("enable-sqlite3-i-know-the-risks"))
	_ = viper.BindPFlag("move_destination", rootCmd.PersistentFlags().Lookup("move"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".hvtag")
		viper.SetConfigType("yaml")
	}

	// HVTAG_* variables may also come from a .env file in the working directory.
	envErr := godotenv.Load()
	if errors.Is(envErr, os.ErrNotExist) {
		envErr = nil
	}

	viper.SetEnvPrefix("hvtag")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	readErr := viper.ReadInConfig()

	if nonInteractive {
		viper.Set("interactive", false)
	}
	config.InitConfig()
	normalizer.SetAudioExtensions(config.AppConfig.SupportedExtensions)

	if err := logging.Init(config.AppConfig.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	if envErr != nil {
		logging.L().Warn("failed to load .env", zap.Error(envErr))
	}
	if readErr == nil {
		logging.L().Debug("using config file", zap.String("path", viper.ConfigFileUsed()))
	} else if cfgFile != "" {
		logging.L().Warn("failed to read config file", zap.String("path", cfgFile), zap.Error(readErr))
	}
}
