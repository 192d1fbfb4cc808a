// file: internal/tagger/tagger.go
// version: 2.0.0
// guid: 3b4c5d6e-7f8a-9b0c-1d2e-3f4a5b6c7d8e

// Package tagger writes work metadata into audio file tags.
package tagger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"

	"github.com/hvtag/hvtag/internal/models"
)

var (
	// ErrUnsupportedFormat is returned for extensions with no writer.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrNoTrackNumber is returned when a file carries no track number tag.
	ErrNoTrackNumber = errors.New("no track number tag")
)

// NullSeparator separates multi-valued ID3v2.4 text frames.
const NullSeparator = "\x00"

// DefaultSeparator joins multi-valued fields when the null separator is off.
const DefaultSeparator = "; "

// AudioMetadata is what one file receives.
type AudioMetadata struct {
	Title       string
	Album       string
	Artists     []string
	AlbumArtist string
	Genres      []string
	Date        string
	Track       int
}

// FromWork builds tag values for one track of a work.
func FromWork(w *models.Work, track int) AudioMetadata {
	return AudioMetadata{
		Title:       w.Name,
		Album:       w.Name,
		Artists:     append([]string(nil), w.VoiceActors...),
		AlbumArtist: w.CircleName,
		Genres:      append([]string(nil), w.Tags...),
		Date:        releaseDate(w.ReleaseDate),
		Track:       track,
	}
}

// releaseDate trims the time part DLsite appends to release dates.
func releaseDate(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	return strings.ReplaceAll(s, "/", "-")
}

// Options controls how values are written.
type Options struct {
	// Separator joins artists and genres. Empty means DefaultSeparator.
	Separator string
	// UseNullSeparator writes multi-valued fields as separate values.
	UseNullSeparator bool
	// Cover is embedded as the front cover when set.
	Cover []byte
}

func (o Options) join(values []string) string {
	if o.UseNullSeparator {
		return strings.Join(values, NullSeparator)
	}
	sep := o.Separator
	if sep == "" {
		sep = DefaultSeparator
	}
	return strings.Join(values, sep)
}

// WriteTags replaces the tags of path with meta.
func WriteTags(path string, meta AudioMetadata, opts Options) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("audio file not found: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		return writeMP3(path, meta, opts)
	case ".flac":
		return writeFLAC(path, meta, opts)
	case ".ogg", ".wav":
		return writeTaglib(path, meta, opts)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// ReadTrackNumber reads the track number back from a tagged file.
func ReadTrackNumber(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return 0, fmt.Errorf("failed to read tags from %s: %w", path, err)
	}
	track, _ := m.Track()
	if track <= 0 {
		return 0, ErrNoTrackNumber
	}
	return track, nil
}

func trackString(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}
