// file: internal/models/work_test.go
// version: 1.0.0
// guid: b7e0c4a2-9d16-4f85-a3b9-0e2f71c5d864

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRJCode(t *testing.T) {
	code, err := ParseRJCode(" RJ01234567 ")
	require.NoError(t, err)
	assert.Equal(t, RJCode("RJ01234567"), code)

	for _, bad := range []string{"", "RJ12", "VJ012345", "rj012345"} {
		_, err := ParseRJCode(bad)
		assert.Error(t, err, bad)
	}
}

func TestWorkNeedsRetag(t *testing.T) {
	earlier := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	later := earlier.Add(time.Hour)

	assert.True(t, (&Work{}).NeedsRetag(), "never tagged")
	assert.False(t, (&Work{TaggedAt: &later, MetadataUpdatedAt: &earlier}).NeedsRetag())
	assert.True(t, (&Work{TaggedAt: &earlier, MetadataUpdatedAt: &later}).NeedsRetag())
	assert.False(t, (&Work{TaggedAt: &earlier}).NeedsRetag())
}

func TestApplyDetails(t *testing.T) {
	now := time.Now()
	w := &Work{RJCode: "RJ000001", Path: "/lib/RJ000001"}
	d := &WorkDetails{Name: "Sleep", CircleName: "Circle", Tags: []string{"ASMR"}, VoiceActors: []string{"A", "B"}}

	w.ApplyDetails(d, now)
	assert.Equal(t, "Sleep", w.Name)
	assert.Equal(t, []string{"A", "B"}, w.VoiceActors)
	assert.True(t, w.HasMetadata())
	require.NotNil(t, w.MetadataUpdatedAt)

	d.Tags[0] = "changed"
	assert.Equal(t, "ASMR", w.Tags[0], "details are copied")
}

func TestNewAudioFile(t *testing.T) {
	f := NewAudioFile("/lib/RJ000001/01 Intro.FLAC", 42)
	assert.Equal(t, "01 Intro.FLAC", f.Name)
	assert.Equal(t, "flac", f.Format)
	assert.Nil(t, f.TrackNumber)
	assert.Equal(t, []string{"01 Intro.FLAC"}, Names([]AudioFile{f}))
}

func TestApplyTagMappings(t *testing.T) {
	mappings := map[string]TagMapping{
		"Binaural": {Source: "Binaural", Custom: "3D Audio"},
		"Dummy":    {Source: "Dummy", Ignored: true},
		"Dolby":    {Source: "Dolby", Custom: "3D Audio"},
	}
	got := ApplyTagMappings([]string{"ASMR", "Binaural", "Dummy", "Dolby"}, mappings)
	assert.Equal(t, []string{"ASMR", "3D Audio"}, got)
	assert.Empty(t, ApplyTagMappings(nil, mappings))
}
