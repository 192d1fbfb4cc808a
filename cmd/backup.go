// file: cmd/backup.go
// version: 1.0.0
// guid: 83b5d0f1-6e2a-4c97-b418-0fd7a9c2e365

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hvtag/hvtag/internal/backup"
	"github.com/hvtag/hvtag/internal/config"
)

var backupDir string
var backupKeep int

// backupCmd groups database backup commands.
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Archive or restore the hvtag database",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Write a compressed copy of the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := backup.DefaultConfig()
		cfg.BackupDir = backupDir
		cfg.MaxBackups = backupKeep
		info, err := backup.Create(config.AppConfig.DatabasePath, config.AppConfig.DatabaseType, cfg, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes, sha256 %s)\n", info.Path, info.Size, info.Checksum)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backups, err := backup.List(backupDir)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, b := range backups {
			fmt.Fprintf(out, "  %s  %-7s %10d  %s\n", b.CreatedAt.Format(time.RFC3339), b.DatabaseType, b.Size, b.Filename)
		}
		fmt.Fprintf(out, "%d backups\n", len(backups))
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore ARCHIVE",
	Short: "Restore an archive to the configured database path",
	Long:  `Restore ARCHIVE to the database path. The path must not exist; move the current database aside first.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := backup.Restore(args[0], config.AppConfig.DatabasePath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored %s to %s\n", args[0], config.AppConfig.DatabasePath)
		return nil
	},
}

func init() {
	backupCmd.PersistentFlags().StringVar(&backupDir, "backup-dir", backup.DefaultConfig().BackupDir, "directory holding backups")
	backupCreateCmd.Flags().IntVar(&backupKeep, "keep", backup.DefaultConfig().MaxBackups, "number of backups to keep")
	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupRestoreCmd)
	rootCmd.AddCommand(backupCmd)
}
