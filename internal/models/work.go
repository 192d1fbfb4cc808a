// file: internal/models/work.go
// version: 1.0.0
// guid: 5a8d1e6f-2c93-4b07-9f4e-a1c7b3d80e52

package models

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// RJCode identifies a work on DLsite, e.g. "RJ01234567".
type RJCode string

// ParseRJCode validates s as a work identifier.
func ParseRJCode(s string) (RJCode, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "RJ") || len(s) < 6 {
		return "", fmt.Errorf("invalid RJ code format: %q", s)
	}
	return RJCode(s), nil
}

func (c RJCode) String() string { return string(c) }

// Work is the stored state of one purchased work.
type Work struct {
	RJCode      RJCode    `json:"rjcode"`
	Path        string    `json:"path"`
	Name        string    `json:"name,omitempty"`
	CircleCode  string    `json:"circle_code,omitempty"`
	CircleName  string    `json:"circle_name,omitempty"`
	AgeCategory string    `json:"age_category,omitempty"`
	Rating      float64   `json:"rating,omitempty"`
	ImageLink   string    `json:"image_link,omitempty"`
	ReleaseDate string    `json:"release_date,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	VoiceActors []string  `json:"voice_actors,omitempty"`
	Active      bool      `json:"active"`
	LastScan    time.Time `json:"last_scan"`

	MetadataUpdatedAt *time.Time `json:"metadata_updated_at,omitempty"`
	TaggedAt          *time.Time `json:"tagged_at,omitempty"`
}

// HasMetadata reports whether the DLsite fields were fetched.
func (w *Work) HasMetadata() bool {
	return w.MetadataUpdatedAt != nil && w.Name != ""
}

// NeedsRetag is true for works never tagged, or whose metadata changed
// after the last tag write.
func (w *Work) NeedsRetag() bool {
	if w.TaggedAt == nil {
		return true
	}
	return w.MetadataUpdatedAt != nil && w.MetadataUpdatedAt.After(*w.TaggedAt)
}

// ApplyDetails copies fetched metadata into the work and stamps it.
func (w *Work) ApplyDetails(d *WorkDetails, now time.Time) {
	w.Name = d.Name
	w.CircleCode = d.CircleCode
	w.CircleName = d.CircleName
	w.AgeCategory = d.AgeCategory
	w.Rating = d.Rating
	w.ImageLink = d.ImageLink
	w.ReleaseDate = d.ReleaseDate
	w.Tags = append([]string(nil), d.Tags...)
	w.VoiceActors = append([]string(nil), d.VoiceActors...)
	w.MetadataUpdatedAt = &now
}

// WorkDetails is what the metadata fetcher returns for one work.
type WorkDetails struct {
	RJCode      RJCode   `json:"rjcode"`
	Name        string   `json:"name"`
	CircleCode  string   `json:"circle_code"`
	CircleName  string   `json:"circle_name"`
	AgeCategory string   `json:"age_category"`
	Rating      float64  `json:"rating"`
	ImageLink   string   `json:"image_link"`
	ReleaseDate string   `json:"release_date"`
	Tags        []string `json:"tags"`
	VoiceActors []string `json:"voice_actors"`
}

// ManagedFolder is a work directory found on disk.
type ManagedFolder struct {
	RJCode   RJCode
	Path     string
	IsTagged bool
	HasCover bool
}

// Marker files kept at the root of a work directory.
const (
	TaggedMarker = ".tagged"
	CoverFile    = "folder.jpeg"
)

// AudioFile is one file of the managed set. TrackNumber is nil when no
// strategy could read it.
type AudioFile struct {
	Path        string
	Name        string
	Format      string
	Size        int64
	TrackNumber *int
}

// NewAudioFile derives Name and Format from path.
func NewAudioFile(path string, size int64) AudioFile {
	name := filepath.Base(path)
	return AudioFile{
		Path:   path,
		Name:   name,
		Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."),
		Size:   size,
	}
}

// Names returns the file names in order.
func Names(files []AudioFile) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return names
}

// Processing status values for FileRecord.Status.
const (
	StatusPending   = "pending"
	StatusTagged    = "tagged"
	StatusConverted = "converted"
	StatusFailed    = "failed"
)

// FileRecord tracks one file through tagging and conversion.
type FileRecord struct {
	RJCode          RJCode     `json:"rjcode"`
	Path            string     `json:"path"`
	Name            string     `json:"name"`
	Extension       string     `json:"extension"`
	SizeBytes       int64      `json:"size_bytes"`
	TrackNumber     *int       `json:"track_number,omitempty"`
	IsTagged        bool       `json:"is_tagged"`
	TaggedAt        *time.Time `json:"tagged_at,omitempty"`
	IsConverted     bool       `json:"is_converted"`
	ConvertedAt     *time.Time `json:"converted_at,omitempty"`
	ConversionError string     `json:"conversion_error,omitempty"`
	Status          string     `json:"status"`
	LastProcessed   time.Time  `json:"last_processed"`
}

// ProcessingEvent is one entry in a work's history.
type ProcessingEvent struct {
	ID           string            `json:"id"`
	RJCode       RJCode            `json:"rjcode"`
	Operation    string            `json:"operation"`
	Stage        string            `json:"stage"`
	Status       string            `json:"status"`
	ErrorMessage string            `json:"error_message,omitempty"`
	DurationMS   int64             `json:"duration_ms"`
	ExecutedAt   time.Time         `json:"executed_at"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// WorkError records a failure for later inspection or retry.
type WorkError struct {
	ID         string    `json:"id"`
	RJCode     RJCode    `json:"rjcode"`
	Category   string    `json:"category"`
	Details    string    `json:"details"`
	Retryable  bool      `json:"retryable"`
	OccurredAt time.Time `json:"occurred_at"`
	Resolved   bool      `json:"resolved"`
}

// TagMapping renames or hides a DLsite genre tag in written file tags.
type TagMapping struct {
	Source    string    `json:"source"`
	Custom    string    `json:"custom,omitempty"`
	Ignored   bool      `json:"ignored"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ApplyTagMappings returns tags with renames applied and ignored tags
// dropped. Duplicates produced by renames collapse to the first one.
func ApplyTagMappings(tags []string, mappings map[string]TagMapping) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		if m, ok := mappings[tag]; ok {
			if m.Ignored {
				continue
			}
			if m.Custom != "" {
				tag = m.Custom
			}
		}
		if seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
