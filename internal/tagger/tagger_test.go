// file: internal/tagger/tagger_test.go
// version: 2.0.0
// guid: 7e3b9d51-2a6c-4f08-b4e7-c1d58f2a9063

package tagger

import (
	"bytes"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hvtag/hvtag/internal/models"
)

func sampleMeta() AudioMetadata {
	return AudioMetadata{
		Title:       "Test Work",
		Album:       "Test Work",
		Artists:     []string{"Alice", "Bob"},
		AlbumArtist: "Test Circle",
		Genres:      []string{"ASMR", "Binaural"},
		Date:        "2023-01-01",
		Track:       3,
	}
}

func writeFakeMP3(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "01.mp3")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{0xFF, 0xFB, 0x90, 0x00}, 64), 0o644))
	return path
}

// writeMinimalFLAC writes a stream marker and an empty STREAMINFO block.
func writeMinimalFLAC(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "01.flac")
	data := append([]byte("fLaC"), 0x80, 0x00, 0x00, 0x22)
	data = append(data, make([]byte, 34)...)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8)), nil))
	return buf.Bytes()
}

func TestWriteTags_MP3(t *testing.T) {
	path := writeFakeMP3(t)
	require.NoError(t, WriteTags(path, sampleMeta(), Options{Cover: jpegBytes(t)}))

	tg, err := id3v2.Open(path, id3v2.Options{Parse: true})
	require.NoError(t, err)
	defer tg.Close()

	assert.Equal(t, "Test Work", tg.Title())
	assert.Equal(t, "Test Work", tg.Album())
	assert.Equal(t, "Alice; Bob", tg.Artist())
	assert.Equal(t, "Test Circle", tg.GetTextFrame("TPE2").Text)
	assert.Equal(t, "ASMR; Binaural", tg.Genre())
	assert.Equal(t, "2023-01-01", tg.GetTextFrame("TDRC").Text)
	assert.Len(t, tg.GetFrames(tg.CommonID("Attached picture")), 1)

	track, err := ReadTrackNumber(path)
	require.NoError(t, err)
	assert.Equal(t, 3, track)
}

func TestWriteTags_MP3Retag(t *testing.T) {
	path := writeFakeMP3(t)
	require.NoError(t, WriteTags(path, sampleMeta(), Options{}))

	meta := sampleMeta()
	meta.Title = "Renamed"
	meta.Track = 7
	require.NoError(t, WriteTags(path, meta, Options{Separator: ", "}))

	tg, err := id3v2.Open(path, id3v2.Options{Parse: true})
	require.NoError(t, err)
	defer tg.Close()
	assert.Equal(t, "Renamed", tg.Title())
	assert.Equal(t, "Alice, Bob", tg.Artist())
	assert.Len(t, tg.GetFrames("TIT2"), 1)

	track, err := ReadTrackNumber(path)
	require.NoError(t, err)
	assert.Equal(t, 7, track)
}

func TestWriteTags_MP3NullSeparator(t *testing.T) {
	path := writeFakeMP3(t)
	require.NoError(t, WriteTags(path, sampleMeta(), Options{UseNullSeparator: true}))

	tg, err := id3v2.Open(path, id3v2.Options{Parse: true})
	require.NoError(t, err)
	defer tg.Close()
	artist := tg.Artist()
	assert.Contains(t, artist, "Alice")
	assert.Contains(t, artist, "Bob")
	assert.NotContains(t, artist, DefaultSeparator)
}

func flacComments(t *testing.T, path string) []string {
	t.Helper()
	f, err := flac.ParseFile(path)
	require.NoError(t, err)
	for _, block := range f.Meta {
		if block.Type == flac.VorbisComment {
			cmt, err := flacvorbis.ParseFromMetaDataBlock(*block)
			require.NoError(t, err)
			return cmt.Comments
		}
	}
	t.Fatal("no vorbis comment block")
	return nil
}

func TestWriteTags_FLAC(t *testing.T) {
	path := writeMinimalFLAC(t)
	require.NoError(t, WriteTags(path, sampleMeta(), Options{}))

	comments := flacComments(t, path)
	assert.Contains(t, comments, "TITLE=Test Work")
	assert.Contains(t, comments, "ARTIST=Alice; Bob")
	assert.Contains(t, comments, "ALBUMARTIST=Test Circle")
	assert.Contains(t, comments, "GENRE=ASMR; Binaural")
	assert.Contains(t, comments, "TRACKNUMBER=3")

	track, err := ReadTrackNumber(path)
	require.NoError(t, err)
	assert.Equal(t, 3, track)
}

func TestWriteTags_FLACNullSeparatorAndCover(t *testing.T) {
	path := writeMinimalFLAC(t)
	require.NoError(t, WriteTags(path, sampleMeta(), Options{UseNullSeparator: true, Cover: jpegBytes(t)}))
	require.NoError(t, WriteTags(path, sampleMeta(), Options{UseNullSeparator: true, Cover: jpegBytes(t)}))

	comments := flacComments(t, path)
	assert.Contains(t, comments, "ARTIST=Alice")
	assert.Contains(t, comments, "ARTIST=Bob")

	f, err := flac.ParseFile(path)
	require.NoError(t, err)
	pictures, vorbis := 0, 0
	for _, block := range f.Meta {
		switch block.Type {
		case flac.Picture:
			pictures++
		case flac.VorbisComment:
			vorbis++
		}
	}
	assert.Equal(t, 1, pictures)
	assert.Equal(t, 1, vorbis)
}

func TestWriteTags_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.m4a")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	assert.ErrorIs(t, WriteTags(path, sampleMeta(), Options{}), ErrUnsupportedFormat)

	assert.Error(t, WriteTags(filepath.Join(t.TempDir(), "missing.mp3"), sampleMeta(), Options{}))
}

func TestWriteTags_OggWithoutTaglib(t *testing.T) {
	if TaglibAvailable {
		t.Skip("taglib compiled in")
	}
	path := filepath.Join(t.TempDir(), "a.ogg")
	require.NoError(t, os.WriteFile(path, []byte("OggS"), 0o644))
	assert.ErrorIs(t, WriteTags(path, sampleMeta(), Options{}), ErrUnsupportedFormat)
}

func TestReadTrackNumber_Untagged(t *testing.T) {
	path := writeFakeMP3(t)
	require.NoError(t, WriteTags(path, AudioMetadata{Title: "x"}, Options{}))
	_, err := ReadTrackNumber(path)
	assert.ErrorIs(t, err, ErrNoTrackNumber)
}

func TestFromWork(t *testing.T) {
	w := &models.Work{
		RJCode:      "RJ123456",
		Name:        "Work",
		CircleName:  "Circle",
		ReleaseDate: "2023/01/01 16:00:00",
		Tags:        []string{"ASMR"},
		VoiceActors: []string{"Alice"},
	}
	m := FromWork(w, 4)
	assert.Equal(t, "Work", m.Title)
	assert.Equal(t, "Work", m.Album)
	assert.Equal(t, "Circle", m.AlbumArtist)
	assert.Equal(t, []string{"Alice"}, m.Artists)
	assert.Equal(t, []string{"ASMR"}, m.Genres)
	assert.Equal(t, "2023-01-01", m.Date)
	assert.Equal(t, 4, m.Track)

	m.Artists[0] = "changed"
	assert.Equal(t, "Alice", w.VoiceActors[0])
}
