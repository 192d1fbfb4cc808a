// file: internal/trackparser/asian_test.go
// version: 1.1.0
// guid: c51e7a02-94d3-4b1f-8f0a-6e2d3c7b9a41

package trackparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAsianText(t *testing.T) {
	tests := map[string]string{
		"第０１話":      "第01話",
		"［０３］":      "[03]",
		"０１　タイトル":   "01 タイトル",
		"【12】":       "【12】",
		"「05」":       "「05」",
		"ｶﾀｶﾅ":       "カタカナ",
		"₩":          "₩",
		"":           "",
		"01 - Track": "01 - Track",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeAsianText(in), "input %q", in)
	}
}

func TestNormalizeAsianText_ASCIIIdentity(t *testing.T) {
	for _, s := range []string{"0123456789", "disc1-01", "#3-A.titre", "Track 999"} {
		assert.Equal(t, s, NormalizeAsianText(s))
	}
}

func TestConfidence(t *testing.T) {
	assert.Zero(t, FailureRatio(nil))
	assert.False(t, NeedsDecision(nil))

	oneOfThree := []string{"01 a.mp3", "02 b.mp3", "c.mp3"}
	assert.InDelta(t, 1.0/3.0, FailureRatio(oneOfThree), 1e-9)
	assert.True(t, NeedsDecision(oneOfThree))

	ideographic := []string{"01\u3000はじめに.mp3", "02\u3000本編.mp3", "03\u3000おわり.mp3"}
	assert.Zero(t, FailureRatio(ideographic))
	assert.False(t, NeedsDecision(ideographic))

	oneOfFour := []string{"01 a.mp3", "02 b.mp3", "03 c.mp3", "d.mp3"}
	assert.False(t, NeedsDecision(oneOfFour))

	// Exactly 30% is not low confidence.
	tenth := []string{"01 a", "02 a", "03 a", "04 a", "05 a", "06 a", "07 a", "x", "y", "z"}
	assert.InDelta(t, 0.3, FailureRatio(tenth), 1e-9)
	assert.False(t, NeedsDecision(tenth))
}
