// file: internal/cover/cover.go
// version: 1.0.0
// guid: 3a9d6e21-7c58-4f0b-a4e3-81b2f6d0c95a

// Package cover downloads work artwork and stores it as folder.jpeg.
package cover

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // decoder registration
	"image/jpeg"
	_ "image/png" // decoder registration
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // decoder registration

	"github.com/hvtag/hvtag/internal/models"
)

// DefaultSize is the edge length covers are fitted into.
const DefaultSize = 300

const jpegQuality = 90

// Fetcher downloads raw image bytes.
type Fetcher interface {
	DownloadImage(ctx context.Context, url string) ([]byte, error)
}

// Path returns the cover location for a work directory.
func Path(dir string) string {
	return filepath.Join(dir, models.CoverFile)
}

// Fetch downloads url, fits it into size×size and writes folder.jpeg into
// dir. An existing cover is kept.
func Fetch(ctx context.Context, fetcher Fetcher, url, dir string, size int) (string, error) {
	dest := Path(dir)
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}
	if url == "" {
		return "", errors.New("empty cover URL")
	}

	data, err := fetcher.DownloadImage(ctx, url)
	if err != nil {
		return "", err
	}
	encoded, err := Resize(data, size)
	if err != nil {
		return "", err
	}

	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0o644); err != nil {
		return "", fmt.Errorf("failed to write cover file: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to write cover file: %w", err)
	}
	return dest, nil
}

// Resize decodes data and re-encodes it as JPEG fitted into size×size with
// the aspect ratio preserved. Smaller images are not upscaled.
func Resize(data []byte, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode cover: %w", err)
	}

	w, h := fit(src.Bounds().Dx(), src.Bounds().Dy(), size)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode cover: %w", err)
	}
	return buf.Bytes(), nil
}

func fit(width, height, size int) (int, int) {
	if width <= size && height <= size {
		return width, height
	}
	if width >= height {
		h := height * size / width
		return size, max(h, 1)
	}
	w := width * size / height
	return max(w, 1), size
}

// Load reads folder.jpeg from dir. A missing cover returns nil, nil.
func Load(dir string) ([]byte, error) {
	data, err := os.ReadFile(Path(dir))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cover: %w", err)
	}
	return data, nil
}
