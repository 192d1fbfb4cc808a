// file: internal/normalizer/normalize.go
// version: 1.0.0
// guid: 0f5a9d3c-7e12-4b86-a1c4-5b8e2f9d06a7

package normalizer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hvtag/hvtag/internal/logging"
)

// maxCollisionAttempts bounds the _N suffix search.
const maxCollisionAttempts = 999

type audioEntry struct {
	path   string
	subdir string // relative to the work root, slash separated; "" at root
}

// NormalizeFolderStructure moves every audio file under dir to dir itself
// and returns how many files were moved. Flat directories are left alone.
//
// Filesystem errors abort and are retryable. A file whose name cannot be
// freed is left in place and reported as a *CollisionError once the rest
// of the work has been moved.
func NormalizeFolderStructure(dir string) (int, error) {
	log := logging.L().With(zap.String("dir", dir))

	pattern, err := DetectFolderPattern(dir)
	if err != nil {
		return 0, err
	}
	log.Debug("detected folder pattern", zap.Stringer("pattern", pattern))

	if pattern == Flat {
		return 0, nil
	}
	if pattern == Mixed {
		// No special handling: the generic relocation below runs as usual.
		log.Info("mixed folder layout, relocating with name heuristics")
	}

	files, err := collectAudioFiles(dir)
	if err != nil {
		return 0, err
	}

	moved := 0
	var collisions []error
	for _, f := range files {
		if f.subdir == "" {
			continue
		}

		name := filepath.Base(f.path)
		if preserveSubdirPrefix(pattern, f.subdir) {
			name = strings.ReplaceAll(f.subdir, "/", "_") + "_" + name
		}

		dest, err := resolveCollision(filepath.Join(dir, name))
		if err != nil {
			var collision *CollisionError
			if errors.As(err, &collision) {
				log.Warn("filename collision", zap.String("file", f.path), zap.Error(err))
				collisions = append(collisions, err)
				continue
			}
			return moved, err
		}

		log.Debug("moving file", zap.String("from", f.path), zap.String("to", filepath.Base(dest)))
		if err := os.Rename(f.path, dest); err != nil {
			return moved, &FSError{Op: "rename", Path: f.path, Err: err}
		}
		moved++
	}

	removeEmptySubdirs(dir)

	log.Info("normalized folder structure", zap.Int("moved", moved), zap.Stringer("pattern", pattern))
	return moved, errors.Join(collisions...)
}

// collectAudioFiles walks dir in lexical order.
func collectAudioFiles(dir string) ([]audioEntry, error) {
	var files []audioEntry
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return &FSError{Op: "walk", Path: path, Err: err}
		}
		if d.IsDir() || !IsAudioFile(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(dir, filepath.Dir(path))
		if err != nil {
			return &FSError{Op: "relative path", Path: path, Err: err}
		}
		if rel == "." {
			rel = ""
		}
		files = append(files, audioEntry{path: path, subdir: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// preserveSubdirPrefix reports whether the originating subdirectory carries
// disc or language context worth keeping in the file name.
func preserveSubdirPrefix(pattern FolderPattern, subdir string) bool {
	switch pattern {
	case DiscSubfolders, LanguageSubfolders:
		return true
	case Mixed:
		return isDiscName(subdir) || isLanguageName(subdir)
	default:
		return false
	}
}

// resolveCollision returns path if free, otherwise the first free
// stem_N.ext for N in 1..maxCollisionAttempts.
func resolveCollision(path string) (string, error) {
	free, err := isFree(path)
	if err != nil || free {
		return path, err
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 1; i <= maxCollisionAttempts; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		free, err := isFree(candidate)
		if err != nil {
			return "", err
		}
		if free {
			return candidate, nil
		}
	}
	return "", &CollisionError{Path: path, Attempts: maxCollisionAttempts}
}

func isFree(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	return false, &FSError{Op: "stat", Path: path, Err: err}
}

// removeEmptySubdirs removes every empty directory below dir, deepest
// first. Directories that still hold files stay; failures are ignored.
func removeEmptySubdirs(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			pruneDir(filepath.Join(dir, entry.Name()))
		}
	}
}

func pruneDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			pruneDir(filepath.Join(dir, entry.Name()))
		}
	}
	_ = os.Remove(dir)
}
