// file: internal/fileops/move_work.go
// version: 1.0.0
// guid: 46c1e9a7-0d2b-4f85-93ea-7b5c2f8d1e60

package fileops

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hvtag/hvtag/internal/logging"
)

// MoveWork relocates the work directory src under destRoot, keeping its
// name. Files are moved one by one with SafeMove and src is removed once
// empty. It returns the new directory and the number of files moved.
func MoveWork(src, destRoot string, config OperationConfig) (string, int, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", 0, fmt.Errorf("failed to stat work directory: %w", err)
	}
	if !info.IsDir() {
		return "", 0, fmt.Errorf("%s is not a directory", src)
	}

	dest := filepath.Join(destRoot, filepath.Base(src))
	if same, _ := samePath(src, dest); same {
		return dest, 0, nil
	}
	if _, err := os.Lstat(dest); err == nil {
		return "", 0, fmt.Errorf("%w: %s", ErrDestinationExists, dest)
	}

	moved := 0
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := SafeMove(path, target, config); err != nil {
			return fmt.Errorf("failed to move %s: %w", rel, err)
		}
		moved++
		return nil
	})
	if err != nil {
		return "", moved, err
	}

	if !config.PreserveOriginal {
		if err := os.RemoveAll(src); err != nil {
			logging.L().Warn("failed to remove work directory after move",
				zap.String("path", src), zap.Error(err))
		}
	}

	logging.L().Info("moved work",
		zap.String("from", src), zap.String("to", dest), zap.Int("files", moved))
	return dest, moved, nil
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}
