// file: internal/tagger/mp3.go
// version: 1.0.0
// guid: 8f2d4b17-6e3a-4c90-b5d1-0a7e9c3f2b64

package tagger

import (
	"fmt"

	"github.com/bogem/id3v2/v2"
)

func writeMP3(path string, meta AudioMetadata, opts Options) error {
	t, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open ID3 tag: %w", err)
	}
	defer t.Close()

	t.DeleteAllFrames()
	t.SetVersion(4)
	t.SetDefaultEncoding(id3v2.EncodingUTF8)

	setText(t, "TIT2", meta.Title)
	setText(t, "TALB", meta.Album)
	setText(t, "TPE1", opts.join(meta.Artists))
	setText(t, "TPE2", meta.AlbumArtist)
	setText(t, "TCON", opts.join(meta.Genres))
	setText(t, "TDRC", meta.Date)
	setText(t, "TRCK", trackString(meta.Track))

	if len(opts.Cover) > 0 {
		embedMP3Cover(t, opts.Cover)
	}

	if err := t.Save(); err != nil {
		return fmt.Errorf("failed to save ID3 tag: %w", err)
	}
	return nil
}

func setText(t *id3v2.Tag, id, value string) {
	if value == "" {
		return
	}
	t.AddTextFrame(id, id3v2.EncodingUTF8, value)
}
