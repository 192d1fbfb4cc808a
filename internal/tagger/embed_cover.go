// file: internal/tagger/embed_cover.go
// version: 2.0.0
// guid: a1b2c3d4-e5f6-7a8b-9c0d-1e2f3a4b5c6d

package tagger

import (
	"fmt"
	"net/http"

	"github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/go-flac"
)

// embedMP3Cover replaces any attached pictures with a front cover.
func embedMP3Cover(t *id3v2.Tag, data []byte) {
	t.DeleteFrames(t.CommonID("Attached picture"))
	t.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    http.DetectContentType(data),
		PictureType: id3v2.PTFrontCover,
		Description: "Cover",
		Picture:     data,
	})
}

func flacCoverBlock(data []byte) (*flac.MetaDataBlock, error) {
	pic, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "Front Cover", data, http.DetectContentType(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build FLAC picture: %w", err)
	}
	block := pic.Marshal()
	return &block, nil
}
