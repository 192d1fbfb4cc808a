// file: internal/tagger/flac.go
// version: 1.0.0
// guid: 1c7a5e93-d04b-4f68-8a2e-6b9f3d1c07e5

package tagger

import (
	"fmt"

	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
)

func writeFLAC(path string, meta AudioMetadata, opts Options) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("failed to parse FLAC file: %w", err)
	}

	// Drop existing comments and, when a new cover is supplied, pictures.
	kept := f.Meta[:0]
	for _, block := range f.Meta {
		if block.Type == flac.VorbisComment {
			continue
		}
		if block.Type == flac.Picture && len(opts.Cover) > 0 {
			continue
		}
		kept = append(kept, block)
	}
	f.Meta = kept

	cmt := flacvorbis.New()
	addField(cmt, flacvorbis.FIELD_TITLE, meta.Title)
	addField(cmt, flacvorbis.FIELD_ALBUM, meta.Album)
	addMulti(cmt, flacvorbis.FIELD_ARTIST, meta.Artists, opts)
	addField(cmt, "ALBUMARTIST", meta.AlbumArtist)
	addMulti(cmt, flacvorbis.FIELD_GENRE, meta.Genres, opts)
	addField(cmt, flacvorbis.FIELD_DATE, meta.Date)
	addField(cmt, flacvorbis.FIELD_TRACKNUMBER, trackString(meta.Track))

	block := cmt.Marshal()
	f.Meta = append(f.Meta, &block)

	if len(opts.Cover) > 0 {
		pic, err := flacCoverBlock(opts.Cover)
		if err != nil {
			return err
		}
		f.Meta = append(f.Meta, pic)
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("failed to save FLAC file: %w", err)
	}
	return nil
}

func addField(cmt *flacvorbis.MetaDataBlockVorbisComment, field, value string) {
	if value != "" {
		_ = cmt.Add(field, value)
	}
}

// addMulti writes one comment per value with the null separator, otherwise
// a single joined comment.
func addMulti(cmt *flacvorbis.MetaDataBlockVorbisComment, field string, values []string, opts Options) {
	if !opts.UseNullSeparator {
		addField(cmt, field, opts.join(values))
		return
	}
	for _, v := range values {
		addField(cmt, field, v)
	}
}
