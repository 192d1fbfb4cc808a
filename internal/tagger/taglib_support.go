// file: internal/tagger/taglib_support.go
// version: 1.0.0
// guid: 5d2e8a46-b19c-4f73-9e05-c8a1f47b3d20

//go:build taglib

package tagger

import (
	"fmt"
	"path/filepath"

	taglib "go.senan.xyz/taglib"
)

// TaglibAvailable reports whether OGG and WAV writing is compiled in.
const TaglibAvailable = true

func writeTaglib(path string, meta AudioMetadata, opts Options) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	tags := make(map[string][]string)
	put := func(key string, values ...string) {
		var nonEmpty []string
		for _, v := range values {
			if v != "" {
				nonEmpty = append(nonEmpty, v)
			}
		}
		if len(nonEmpty) > 0 {
			tags[key] = nonEmpty
		}
	}
	multi := func(key string, values []string) {
		if opts.UseNullSeparator {
			put(key, values...)
			return
		}
		put(key, opts.join(values))
	}

	put(taglib.Title, meta.Title)
	put(taglib.Album, meta.Album)
	multi(taglib.Artist, meta.Artists)
	put(taglib.AlbumArtist, meta.AlbumArtist)
	multi(taglib.Genre, meta.Genres)
	put(taglib.Date, meta.Date)
	put(taglib.TrackNumber, trackString(meta.Track))

	if err := taglib.WriteTags(abs, tags, taglib.Clear); err != nil {
		return fmt.Errorf("taglib write failed: %w", err)
	}
	return nil
}
