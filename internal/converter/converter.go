// file: internal/converter/converter.go
// version: 1.0.0
// guid: f2c86a3d-9b41-4e05-8d7a-3e61b0c9f5a8

// Package converter transcodes audio to MP3 with ffmpeg.
package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hvtag/hvtag/internal/logging"
)

// ErrToolNotFound is returned when ffmpeg is not installed.
var ErrToolNotFound = errors.New("required external tool not found")

// DefaultBitrate is the MP3 bitrate in kbps.
const DefaultBitrate = 320

// ffmpegBinary is swapped in tests.
var ffmpegBinary = "ffmpeg"

func findTool(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return path, nil
}

// Available reports whether ffmpeg is on PATH.
func Available() bool {
	_, err := findTool(ffmpegBinary)
	return err == nil
}

// ConvertToMP3 encodes in to out with libmp3lame at bitrate kbps.
func ConvertToMP3(ctx context.Context, in, out string, bitrate int) error {
	ffmpeg, err := findTool(ffmpegBinary)
	if err != nil {
		return err
	}
	if bitrate <= 0 {
		bitrate = DefaultBitrate
	}

	args := []string{
		"-i", in,
		"-codec:a", "libmp3lame",
		"-b:a", fmt.Sprintf("%dk", bitrate),
		"-f", "mp3",
		"-y",
		out,
	}
	cmd := exec.CommandContext(ctx, ffmpeg, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w\noutput: %s", err, string(output))
	}
	return nil
}

// MP3Path returns path with its extension replaced by .mp3.
func MP3Path(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".mp3"
}

// ConvertInPlace converts path to an .mp3 next to it and removes the source.
// The output is written to a temporary name first and renamed on success.
func ConvertInPlace(ctx context.Context, path string, bitrate int) (string, error) {
	dest := MP3Path(path)
	if dest == path {
		return path, nil
	}
	tmp := dest + ".tmp"
	defer os.Remove(tmp)

	if err := ConvertToMP3(ctx, path, tmp, bitrate); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, dest); err != nil {
		return "", fmt.Errorf("failed to replace %s: %w", dest, err)
	}
	if err := os.Remove(path); err != nil {
		logging.L().Warn("failed to remove converted source", zap.String("path", path), zap.Error(err))
	}
	logging.L().Debug("converted to mp3", zap.String("src", path), zap.String("dest", dest))
	return dest, nil
}
