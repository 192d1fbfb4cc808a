// file: internal/cover/cover_test.go
// version: 1.0.0
// guid: c51e8f37-2b06-4d9a-9e71-f4a03b6d28c1

package cover

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	data  []byte
	err   error
	calls int
}

func (s *stubFetcher) DownloadImage(_ context.Context, _ string) ([]byte, error) {
	s.calls++
	return s.data, s.err
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func TestResize(t *testing.T) {
	tests := []struct {
		name       string
		w, h, size int
		wantW      int
		wantH      int
	}{
		{"landscape", 600, 400, 300, 300, 200},
		{"portrait", 400, 800, 300, 150, 300},
		{"square", 560, 560, 300, 300, 300},
		{"small kept", 120, 80, 300, 120, 80},
		{"default size", 900, 900, 0, DefaultSize, DefaultSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Resize(pngBytes(t, tt.w, tt.h), tt.size)
			require.NoError(t, err)
			w, h := decodeSize(t, out)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestResize_InvalidData(t *testing.T) {
	_, err := Resize([]byte("not an image"), 300)
	assert.Error(t, err)
}

func TestFetch(t *testing.T) {
	dir := t.TempDir()
	f := &stubFetcher{data: pngBytes(t, 600, 600)}

	path, err := Fetch(context.Background(), f, "https://img.example.com/a.jpg", dir, 300)
	require.NoError(t, err)
	assert.Equal(t, Path(dir), path)

	data, err := Load(dir)
	require.NoError(t, err)
	w, h := decodeSize(t, data)
	assert.Equal(t, 300, w)
	assert.Equal(t, 300, h)

	// second call keeps the existing file
	_, err = Fetch(context.Background(), f, "https://img.example.com/a.jpg", dir, 300)
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls)
}

func TestFetch_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Fetch(context.Background(), &stubFetcher{}, "", dir, 300)
	assert.Error(t, err)

	boom := errors.New("boom")
	_, err = Fetch(context.Background(), &stubFetcher{err: boom}, "u", dir, 300)
	assert.ErrorIs(t, err, boom)

	_, err = Fetch(context.Background(), &stubFetcher{data: []byte("junk")}, "u", dir, 300)
	assert.Error(t, err)

	_, statErr := os.Stat(Path(dir))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoad_Missing(t *testing.T) {
	data, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, data)
}
