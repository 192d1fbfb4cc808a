// file: internal/tagger/taglib_stub.go
// version: 1.0.0
// guid: 9a4f1c62-3e8d-4b57-a0c6-d25e7b18f943

//go:build !taglib

package tagger

import (
	"fmt"
	"path/filepath"
)

// TaglibAvailable reports whether OGG and WAV writing is compiled in.
const TaglibAvailable = false

func writeTaglib(path string, _ AudioMetadata, _ Options) error {
	return fmt.Errorf("%w: %s (build with -tags taglib)", ErrUnsupportedFormat, filepath.Ext(path))
}
