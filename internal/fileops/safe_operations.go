// file: internal/fileops/safe_operations.go
// version: 2.0.0
// guid: 8f7e6d5c-4b3a-2918-7f6e-5d4c3b2a1908

// Package fileops relocates files with copy, verify and remove steps.
package fileops

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hvtag/hvtag/internal/logging"
)

var (
	// ErrDestinationExists is returned instead of overwriting a file.
	ErrDestinationExists = errors.New("destination already exists")
	// ErrChecksumMismatch is returned when a copy does not match its source.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// OperationConfig configures safe file operation behavior
type OperationConfig struct {
	// VerifyChecksums enables SHA256 verification after copying
	VerifyChecksums bool
	// PreserveOriginal keeps the source after a successful copy
	PreserveOriginal bool
}

// DefaultConfig returns the default safe operation configuration
func DefaultConfig() OperationConfig {
	return OperationConfig{
		VerifyChecksums:  true,
		PreserveOriginal: false,
	}
}

// FileOperation moves one file. The target is removed again if any step
// after the copy fails.
type FileOperation struct {
	config       OperationConfig
	originalPath string
	targetPath   string
	originalHash string
	completed    bool
}

// NewFileOperation prepares a move from originalPath to targetPath.
func NewFileOperation(originalPath, targetPath string, config OperationConfig) (*FileOperation, error) {
	if _, err := os.Lstat(targetPath); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDestinationExists, targetPath)
	}

	op := &FileOperation{
		config:       config,
		originalPath: originalPath,
		targetPath:   targetPath,
	}

	if config.VerifyChecksums {
		hash, err := ComputeFileHash(originalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate checksum: %w", err)
		}
		op.originalHash = hash
	}
	return op, nil
}

// Execute copies, verifies and removes the source.
func (op *FileOperation) Execute() error {
	if err := copyFile(op.originalPath, op.targetPath); err != nil {
		_ = os.Remove(op.targetPath)
		return fmt.Errorf("failed to copy file: %w", err)
	}

	if op.config.VerifyChecksums {
		targetHash, err := ComputeFileHash(op.targetPath)
		if err != nil {
			_ = os.Remove(op.targetPath)
			return fmt.Errorf("failed to verify target checksum: %w", err)
		}
		if targetHash != op.originalHash {
			_ = os.Remove(op.targetPath)
			return fmt.Errorf("%w: %s", ErrChecksumMismatch, op.targetPath)
		}
	}

	op.completed = true

	if !op.config.PreserveOriginal {
		if err := os.Remove(op.originalPath); err != nil {
			logging.L().Warn("failed to remove original file",
				zap.String("path", op.originalPath), zap.Error(err))
		}
	}
	return nil
}

// Completed reports whether Execute succeeded.
func (op *FileOperation) Completed() bool {
	return op.completed
}

// copyFile copies a file from src to dst and syncs it to disk.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	destFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	if err := destFile.Sync(); err != nil {
		return err
	}

	sourceInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dst, sourceInfo.Mode())
}

// SafeMove moves one file with verification.
func SafeMove(src, dst string, config OperationConfig) error {
	op, err := NewFileOperation(src, dst, config)
	if err != nil {
		return err
	}
	return op.Execute()
}
