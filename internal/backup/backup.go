// file: internal/backup/backup.go
// version: 2.0.0
// guid: 8f9e0a1b-2c3d-4e5f-6a7b-8c9d0e1f2a3b

// Package backup archives and restores the hvtag database.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hvtag/hvtag/internal/fileops"
	"github.com/hvtag/hvtag/internal/logging"
)

// ErrTargetExists is returned when a restore would overwrite a database.
var ErrTargetExists = errors.New("restore target already exists")

const archiveSuffix = ".tar.gz"

// Info describes one backup archive.
type Info struct {
	Filename     string    `json:"filename"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	Checksum     string    `json:"checksum"`
	DatabaseType string    `json:"database_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// Config holds backup settings.
type Config struct {
	BackupDir        string
	MaxBackups       int
	CompressionLevel int
}

// DefaultConfig returns default backup settings.
func DefaultConfig() Config {
	return Config{
		BackupDir:        "backups",
		MaxBackups:       10,
		CompressionLevel: gzip.BestCompression,
	}
}

// Create archives the database at databasePath (a pebble directory or a
// sqlite file). The database must not be open for writing. Archives beyond
// cfg.MaxBackups are removed oldest first.
func Create(databasePath, databaseType string, cfg Config, now time.Time) (*Info, error) {
	if err := os.MkdirAll(cfg.BackupDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := fmt.Sprintf("hvtag_%s_%s%s", databaseType, now.Format("20060102_150405"), archiveSuffix)
	path := filepath.Join(cfg.BackupDir, name)

	if err := writeArchive(path, databasePath, cfg.CompressionLevel); err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup file: %w", err)
	}
	sum, err := fileops.ComputeFileHash(path)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate checksum: %w", err)
	}

	if cfg.MaxBackups > 0 {
		if err := prune(cfg.BackupDir, cfg.MaxBackups); err != nil {
			logging.L().Warn("failed to clean up old backups", zap.Error(err))
		}
	}

	return &Info{
		Filename:     name,
		Path:         path,
		Size:         fi.Size(),
		Checksum:     sum,
		DatabaseType: databaseType,
		CreatedAt:    now,
	}, nil
}

func writeArchive(archivePath, databasePath string, level int) error {
	out, err := os.OpenFile(archivePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer out.Close()

	gz, err := gzip.NewWriterLevel(out, level)
	if err != nil {
		return fmt.Errorf("failed to create gzip writer: %w", err)
	}
	tw := tar.NewWriter(gz)

	if err := addToArchive(tw, databasePath); err != nil {
		return fmt.Errorf("failed to add files to archive: %w", err)
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to close tar writer: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return out.Close()
}

// addToArchive stores path under its base name.
func addToArchive(tw *tar.Writer, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("failed to stat database path: %w", err)
	}
	parent := filepath.Dir(path)
	return filepath.Walk(path, func(file string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		header, err := tar.FileInfoHeader(fi, "")
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(parent, file)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
}

// Restore extracts archivePath so the database appears at targetPath,
// whatever name it had when archived. An existing target is refused.
func Restore(archivePath, targetPath string) error {
	if _, err := os.Stat(targetPath); err == nil {
		return fmt.Errorf("%w: %s", ErrTargetExists, targetPath)
	}

	in, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer in.Close()

	gz, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar header: %w", err)
		}

		target, err := restorePath(targetPath, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("failed to create parent directory for %s: %w", target, err)
			}
			if err := extractFile(tr, target, os.FileMode(header.Mode).Perm()); err != nil {
				return err
			}
		default:
			logging.L().Warn("skipping unsupported archive entry", zap.String("name", header.Name))
		}
	}
}

// restorePath maps an archive entry onto targetPath by replacing the
// entry's first path element.
func restorePath(targetPath, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry escapes target: %s", name)
	}
	_, rest, found := strings.Cut(clean, string(filepath.Separator))
	if !found {
		return targetPath, nil
	}
	return filepath.Join(targetPath, rest), nil
}

func extractFile(r io.Reader, target string, mode os.FileMode) error {
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", target, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("failed to write file %s: %w", target, err)
	}
	return out.Close()
}

// List returns the archives in backupDir, newest first. A missing
// directory yields no backups.
func List(backupDir string) ([]Info, error) {
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), archiveSuffix) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}

		dbType := "unknown"
		switch {
		case strings.Contains(entry.Name(), "_pebble_"):
			dbType = "pebble"
		case strings.Contains(entry.Name(), "_sqlite_"):
			dbType = "sqlite"
		}

		backups = append(backups, Info{
			Filename:     entry.Name(),
			Path:         filepath.Join(backupDir, entry.Name()),
			Size:         fi.Size(),
			DatabaseType: dbType,
			CreatedAt:    fi.ModTime(),
		})
	}
	sort.Slice(backups, func(i, j int) bool {
		if backups[i].CreatedAt.Equal(backups[j].CreatedAt) {
			return backups[i].Filename > backups[j].Filename
		}
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// prune removes the oldest archives beyond keep.
func prune(backupDir string, keep int) error {
	backups, err := List(backupDir)
	if err != nil {
		return err
	}
	var errs []error
	for _, b := range backups[min(keep, len(backups)):] {
		if err := os.Remove(b.Path); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
