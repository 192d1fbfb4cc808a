// file: internal/config/sample.go
// version: 1.0.0
// guid: 58e3c2a9-7b10-4d6f-a84e-1c9f0b2d7e35

package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var sampleComments = map[string]string{
	"root_dir":                        "Library folder holding RJ work directories.",
	"database_type":                   "pebble or sqlite",
	"enable_sqlite3_i_know_the_risks": "Required to use the sqlite backend.",
	"move_destination":                "When set, tagged works are moved here.",
	"cover_size":                      "Covers are fitted into a square of this many pixels.",
	"convert_to_mp3":                  "Transcode FLAC to MP3 with ffmpeg after tagging.",
	"use_null_separator":              "Write multi-valued tags as separate values instead of joining them.",
	"interactive":                     "Ask for a parsing strategy when track numbers are unclear.",
	"metrics_addr":                    "Serve Prometheus metrics on this address in watch mode, e.g. :9090",
	"log_level":                       "debug, info, warn or error",
}

// Sample returns the default configuration as commented YAML.
func Sample() ([]byte, error) {
	SetDefaults()
	InitConfig()

	var doc yaml.Node
	if err := doc.Encode(AppConfig); err != nil {
		return nil, fmt.Errorf("failed to encode sample config: %w", err)
	}
	doc.HeadComment = "hvtag configuration"
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i]
		if c, ok := sampleComments[key.Value]; ok {
			key.HeadComment = c
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("failed to encode sample config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteSample writes Sample to path without overwriting an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	data, err := Sample()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
