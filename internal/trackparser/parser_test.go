// file: internal/trackparser/parser_test.go
// version: 1.1.0
// guid: 3f6c1d0e-2b8a-4c55-8e71-0a9d4b6f2c38

package trackparser

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTrackNumber(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     int
		wantOK   bool
	}{
		{"leading dash", "01 - Track.mp3", 1, true},
		{"leading dot", "01.Track.flac", 1, true},
		{"leading underscore", "01_Track.mp3", 1, true},
		{"single digit", "1.Track.mp3", 1, true},
		{"interior", "prefix_01_Track.mp3", 1, true},
		{"trailing after code", "RJ123456_05.mp3", 5, true},
		{"hash", "#3-A.titre.mp3", 3, true},
		{"hash only", "#10.mp3", 10, true},
		{"short prefix", "tr07 intro.mp3", 7, true},
		{"short prefix upper", "TK12_x.wav", 12, true},
		{"disc dash", "disc1-01.mp3", 1, true},
		{"cd second number", "CD2-05.flac", 5, true},
		{"trailing", "Track 01.mp3", 1, true},
		{"trailing two digits", "Song 15.flac", 15, true},
		{"leading wins over later numbers", "05 - Track 12.mp3", 5, true},
		{"no extension", "03 epilogue", 3, true},
		{"no number", "NoNumber.mp3", 0, false},
		{"word only", "Track.flac", 0, false},
		{"zero", "0.mp3", 0, false},
		{"four digits", "1000.mp3", 0, false},
		{"full width digits untouched", "０１　タイトル.mp3", 0, false},
		{"ideographic space leading", "01\u3000タイトル.mp3", 1, true},
		{"ideographic space trailing", "トラック\u300005.mp3", 5, true},
		{"ideographic space interior", "本編\u300002\u3000後半.mp3", 2, true},
		{"ideographic space short prefix", "tr03\u3000intro.mp3", 3, true},
		{"ideographic space disc", "disc1\u300004.mp3", 4, true},
		{"no-break space leading", "07\u00a0bonus.mp3", 7, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTrackNumber(tt.filename)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTrackNumber_OutOfBoundFallsThrough(t *testing.T) {
	// The leading "000" is rejected; the trailing number is still found.
	got, ok := ParseTrackNumber("000 - Part 7.mp3")
	require.True(t, ok)
	assert.Equal(t, 7, got)
}

func TestParseWithStrategy(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		pref     Preference
		want     int
		wantOK   bool
	}{
		{"fullwidth", "０１　タイトル.mp3", NewPreference(AsianFullwidth, ""), 1, true},
		{"lenticular", "【01】オープニング.mp3", NewPreference(AsianBrackets, ""), 1, true},
		{"fullwidth square", "［０３］本編.wav", NewPreference(AsianBrackets, ""), 3, true},
		{"tortoise shell", "〔12〕おまけ.mp3", NewPreference(AsianBrackets, ""), 12, true},
		{"fullwidth paren", "（04）x.mp3", NewPreference(AsianBrackets, ""), 4, true},
		{"corner", "「05」x.mp3", NewPreference(AsianBrackets, ""), 5, true},
		{"white corner", "『06』x.mp3", NewPreference(AsianBrackets, ""), 6, true},
		{"bracket zero", "【0】x.mp3", NewPreference(AsianBrackets, ""), 0, false},
		{"kanji episode", "第０１話　出会い.mp3", NewPreference(AsianKanjiEpisode, ""), 1, true},
		{"kanji chapter", "第3章.flac", NewPreference(AsianKanjiEpisode, ""), 3, true},
		{"kanji zero", "第0話.mp3", NewPreference(AsianKanjiEpisode, ""), 0, false},
		{"first number", "voice12track.mp3", NewPreference(FirstNumber, ""), 12, true},
		{"first number none", "abc.mp3", NewPreference(FirstNumber, ""), 0, false},
		{"first number zero", "part0001.mp3", NewPreference(FirstNumber, ""), 0, false},
		{"custom kanji", "ボイス02話.mp3", NewPreference(CustomDelimiter, "話"), 2, true},
		{"custom literal dot", "x 7.part.mp3", NewPreference(CustomDelimiter, "."), 7, true},
		{"custom dot is not wildcard", "x7apart.mp3", NewPreference(CustomDelimiter, "."), 0, false},
		{"custom empty", "01 - a.mp3", Preference{Strategy: CustomDelimiter}, 0, false},
		{"standard", "01 - a.mp3", Preference{}, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseWithStrategy(tt.filename, tt.pref)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTrackNumberWithPreference_FallsBackToCascade(t *testing.T) {
	filenames := []string{
		"01 - Track.mp3", "CD2-05.flac", "NoNumber.mp3", "Track 01.mp3",
		"#3-A.titre.mp3", "1000.mp3", "x7apart.mp3",
	}
	prefs := []Preference{
		NewPreference(AsianBrackets, ""),
		NewPreference(AsianKanjiEpisode, ""),
		NewPreference(CustomDelimiter, "話"),
	}

	for _, pref := range prefs {
		for _, name := range filenames {
			t.Run(fmt.Sprintf("%s/%s", pref, name), func(t *testing.T) {
				if _, ok := ParseWithStrategy(name, pref); ok {
					t.Skip("preferred strategy matched")
				}
				wantN, wantOK := ParseTrackNumber(name)
				gotN, gotOK := ParseTrackNumberWithPreference(name, &pref)
				assert.Equal(t, wantOK, gotOK)
				assert.Equal(t, wantN, gotN)
			})
		}
	}
}

func TestParseTrackNumberWithPreference_PreferredFirst(t *testing.T) {
	pref := NewPreference(AsianBrackets, "")
	got, ok := ParseTrackNumberWithPreference("01 -【07】x.mp3", &pref)
	require.True(t, ok)
	assert.Equal(t, 7, got)

	got, ok = ParseTrackNumberWithPreference("01 -【07】x.mp3", nil)
	require.True(t, ok)
	assert.Equal(t, 1, got)
}

func TestBoundsAcrossStrategies(t *testing.T) {
	names := []string{"0 - a.mp3", "#0.mp3", "tr0_a.mp3", "disc1-0.mp3", "a_0_b.mp3", "a 0.mp3",
		"1000 - a.mp3", "第0話.mp3", "【000】.mp3", "000.mp3"}
	strategies := []Strategy{Standard, AsianFullwidth, AsianBrackets, AsianKanjiEpisode, FirstNumber, CustomDelimiter}

	for _, s := range strategies {
		pref := NewPreference(s, " ")
		for _, name := range names {
			n, ok := ParseWithStrategy(name, pref)
			if ok {
				assert.GreaterOrEqual(t, n, MinTrack, "%s on %q", s, name)
				assert.LessOrEqual(t, n, MaxTrack, "%s on %q", s, name)
			}
		}
	}
}

func TestParseAll(t *testing.T) {
	results := ParseAll([]string{"01 a.mp3", "b.mp3"}, nil)
	require.Len(t, results, 2)
	assert.Equal(t, Result{Filename: "01 a.mp3", Track: 1, OK: true}, results[0])
	assert.Equal(t, Result{Filename: "b.mp3"}, results[1])
}

func TestStrategyNames(t *testing.T) {
	for s, name := range strategyNames {
		assert.Equal(t, name, s.String())
		assert.Equal(t, s, ParseStrategy(name))
	}
	assert.Equal(t, Standard, ParseStrategy("bogus"))
	assert.Equal(t, "standard", Strategy(42).String())
}

func TestPreferenceJSON_UnknownStrategyDecodesToStandard(t *testing.T) {
	var p Preference
	require.NoError(t, json.Unmarshal([]byte(`{"strategy_name":"regex_v2","use_asian_conversion":true}`), &p))
	assert.Equal(t, Standard, p.Strategy)
	assert.True(t, p.UseAsianConversion)

	data, err := json.Marshal(NewPreference(CustomDelimiter, "-"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"strategy_name":"custom_delimiter","custom_delimiter":"-","use_asian_conversion":false}`, string(data))
}

func TestPreferenceValidate(t *testing.T) {
	assert.ErrorIs(t, Preference{Strategy: CustomDelimiter}.Validate(), ErrEmptyDelimiter)
	assert.NoError(t, NewPreference(CustomDelimiter, "_").Validate())
	assert.NoError(t, NewPreference(FirstNumber, "").Validate())
}

func TestNewPreference(t *testing.T) {
	p := NewPreference(AsianKanjiEpisode, "ignored")
	assert.True(t, p.UseAsianConversion)
	assert.Equal(t, AsianFormatKanjiEpisode, p.AsianFormat)
	assert.Empty(t, p.CustomDelimiter)
}
