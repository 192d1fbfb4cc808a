// file: internal/normalizer/pattern.go
// version: 1.1.0
// guid: 91d6c2e8-3a47-4b0f-9e15-c8a2d7f4b360

// Package normalizer flattens a work directory so every audio file sits at
// its root before parsing and tagging.
package normalizer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
)

// FolderPattern classifies the layout of one work directory.
type FolderPattern int

const (
	// Flat: RJ123456/track01.mp3
	Flat FolderPattern = iota
	// Mp3Subfolder: RJ123456/mp3/track01.mp3
	Mp3Subfolder
	// AudioSubfolder: RJ123456/audio/track01.mp3
	AudioSubfolder
	// FormatSubfolder: RJ123456/wav/track01.wav
	FormatSubfolder
	// DiscSubfolders: RJ123456/disc1/track01.mp3
	DiscSubfolders
	// LanguageSubfolders: RJ123456/jp/track01.mp3
	LanguageSubfolders
	// Mixed means more than one of the above was confirmed.
	Mixed
)

func (p FolderPattern) String() string {
	switch p {
	case Flat:
		return "flat"
	case Mp3Subfolder:
		return "mp3_subfolder"
	case AudioSubfolder:
		return "audio_subfolder"
	case FormatSubfolder:
		return "format_subfolder"
	case DiscSubfolders:
		return "disc_subfolders"
	case LanguageSubfolders:
		return "language_subfolders"
	case Mixed:
		return "mixed"
	default:
		return fmt.Sprintf("FolderPattern(%d)", int(p))
	}
}

// baseAudioExtensions are always recognized, whatever the configuration adds.
var baseAudioExtensions = []string{".mp3", ".flac", ".wav", ".ogg"}

var audioExtensions atomic.Pointer[map[string]bool]

func init() {
	SetAudioExtensions(nil)
}

// SetAudioExtensions replaces the recognized extension set with the base
// formats plus exts. Entries may omit the leading dot.
func SetAudioExtensions(exts []string) {
	set := make(map[string]bool, len(baseAudioExtensions)+len(exts))
	for _, ext := range baseAudioExtensions {
		set[ext] = true
	}
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = true
	}
	audioExtensions.Store(&set)
}

// IsAudioFile reports whether name carries a recognized audio extension.
func IsAudioFile(name string) bool {
	return (*audioExtensions.Load())[strings.ToLower(filepath.Ext(name))]
}

var (
	formatDirNames   = map[string]bool{"wav": true, "flac": true, "ogg": true}
	languageDirNames = map[string]bool{"jp": true, "en": true, "cn": true, "kr": true}
)

func isDiscName(name string) bool {
	name = strings.ToLower(name)
	return strings.HasPrefix(name, "disc") || strings.HasPrefix(name, "cd")
}

func isLanguageName(name string) bool {
	return languageDirNames[strings.ToLower(name)]
}

// classifyDir maps a subdirectory name to the pattern it would confirm.
func classifyDir(name string) (FolderPattern, bool) {
	lower := strings.ToLower(name)
	switch {
	case lower == "mp3":
		return Mp3Subfolder, true
	case lower == "audio":
		return AudioSubfolder, true
	case formatDirNames[lower]:
		return FormatSubfolder, true
	case isDiscName(lower):
		return DiscSubfolders, true
	case isLanguageName(lower):
		return LanguageSubfolders, true
	}
	return Flat, false
}

// DetectFolderPattern inspects the immediate children of dir. A named
// subdirectory only counts when it directly holds an audio file.
func DetectFolderPattern(dir string) (FolderPattern, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Flat, &FSError{Op: "read dir", Path: dir, Err: err}
	}

	audioInRoot := false
	confirmed := make(map[FolderPattern]bool)

	for _, entry := range entries {
		if !entry.IsDir() {
			if entry.Type().IsRegular() && IsAudioFile(entry.Name()) {
				audioInRoot = true
			}
			continue
		}
		pattern, ok := classifyDir(entry.Name())
		if !ok || confirmed[pattern] {
			continue
		}
		sub := filepath.Join(dir, entry.Name())
		hasAudio, err := hasAudioFiles(sub)
		if err != nil {
			return Flat, err
		}
		if hasAudio {
			confirmed[pattern] = true
		}
	}

	if len(confirmed) > 1 {
		return Mixed, nil
	}
	if audioInRoot && len(confirmed) == 0 {
		return Flat, nil
	}
	// Priority order matches the declaration order of the patterns.
	for _, p := range []FolderPattern{Mp3Subfolder, AudioSubfolder, FormatSubfolder, DiscSubfolders, LanguageSubfolders} {
		if confirmed[p] {
			return p, nil
		}
	}
	return Flat, nil
}

// hasAudioFiles checks one directory level only.
func hasAudioFiles(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, &FSError{Op: "read dir", Path: dir, Err: err}
	}
	for _, entry := range entries {
		if entry.Type().IsRegular() && IsAudioFile(entry.Name()) {
			return true, nil
		}
	}
	return false, nil
}
