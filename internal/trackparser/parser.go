// file: internal/trackparser/parser.go
// version: 1.1.0
// guid: a7210e78-d6b6-4298-b77d-81e7eb7e1c26

package trackparser

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
)

const (
	// MinTrack and MaxTrack bound every accepted track number.
	MinTrack = 1
	MaxTrack = 999
)

var (
	// Separators include Unicode space separators such as U+3000.
	// "01 - Track", "01.Track", "01_Track", "01　タイトル"
	leadingPattern = regexp.MustCompile(`^(\d{1,3})[\s\p{Zs}\-._]`)
	// "#3-A.titre", "#10"
	hashPattern = regexp.MustCompile(`#(\d{1,3})`)
	// "tr01_", "tk05 ", "track03-", "bgm2."
	shortPrefixPattern = regexp.MustCompile(`(?i)^(?:tr|tk|track|ch|se|bgm)(\d{1,3})[\s\p{Zs}\-._]`)
	// "disc1-01", "CD2-05", "track 1_02" (second number is the track)
	discPattern = regexp.MustCompile(`(?i)(?:disc|cd|track)[\s\p{Zs}\-._]?(\d{1,3})[\s\p{Zs}\-._](\d{1,3})`)
	// "prefix_01_Track"
	interiorPattern = regexp.MustCompile(`[\s\p{Zs}\-._](\d{1,3})[\s\p{Zs}\-._]`)
	// "Track 01", "RJ123456_05"
	trailingPattern = regexp.MustCompile(`[\s\p{Zs}\-._](\d{1,3})$`)

	// 【01】 ［01］ [01] 〔01〕 （01） (01) 「01」 『01』
	bracketPatterns = []*regexp.Regexp{
		regexp.MustCompile(`【(\d{1,3})】`),
		regexp.MustCompile(`[［\[](\d{1,3})[］\]]`),
		regexp.MustCompile(`〔(\d{1,3})〕`),
		regexp.MustCompile(`[（(](\d{1,3})[）)]`),
		regexp.MustCompile(`「(\d{1,3})」`),
		regexp.MustCompile(`『(\d{1,3})』`),
	}
	// 第01話 第2章 第3部 第4巻
	kanjiEpisodePattern = regexp.MustCompile(`第(\d{1,3})[話章部巻]`)
	firstNumberPattern  = regexp.MustCompile(`\d{1,3}`)

	delimiterPatterns sync.Map // delimiter -> *regexp.Regexp
)

// cascadeStep pairs a pattern with the submatch index holding the track.
type cascadeStep struct {
	re    *regexp.Regexp
	group int
}

var standardCascade = []cascadeStep{
	{leadingPattern, 1},
	{hashPattern, 1},
	{shortPrefixPattern, 1},
	{discPattern, 2},
	{interiorPattern, 1},
	{trailingPattern, 1},
}

// Result is the parse outcome for a single filename.
type Result struct {
	Filename string
	Track    int
	OK       bool
}

// ParseTrackNumber runs the standard cascade against filename with its
// extension removed. The first strategy whose match lies in 1..999 wins.
func ParseTrackNumber(filename string) (int, bool) {
	return runCascade(stripExtension(filename))
}

// ParseWithStrategy applies exactly one strategy. Standard runs the whole
// cascade.
func ParseWithStrategy(filename string, pref Preference) (int, bool) {
	stem := stripExtension(filename)

	switch pref.Strategy {
	case AsianFullwidth:
		return runCascade(NormalizeAsianText(stem))
	case AsianBrackets:
		stem = NormalizeAsianText(stem)
		for _, re := range bracketPatterns {
			if n, ok := matchGroup(re, stem, 1); ok {
				return n, true
			}
		}
		return 0, false
	case AsianKanjiEpisode:
		return matchGroup(kanjiEpisodePattern, NormalizeAsianText(stem), 1)
	case FirstNumber:
		if pref.UseAsianConversion {
			stem = NormalizeAsianText(stem)
		}
		return matchGroup(firstNumberPattern, stem, 0)
	case CustomDelimiter:
		re := delimiterPattern(pref.CustomDelimiter)
		if re == nil {
			return 0, false
		}
		if pref.UseAsianConversion {
			stem = NormalizeAsianText(stem)
		}
		return matchGroup(re, stem, 1)
	default:
		if pref.UseAsianConversion {
			stem = NormalizeAsianText(stem)
		}
		return runCascade(stem)
	}
}

// ParseTrackNumberWithPreference tries the preferred strategy first and
// always falls back to the standard cascade when it yields nothing.
func ParseTrackNumberWithPreference(filename string, pref *Preference) (int, bool) {
	if pref != nil {
		if n, ok := ParseWithStrategy(filename, *pref); ok {
			return n, true
		}
	}
	return ParseTrackNumber(filename)
}

// ParseAll parses every filename, preserving order.
func ParseAll(filenames []string, pref *Preference) []Result {
	results := make([]Result, len(filenames))
	for i, name := range filenames {
		n, ok := ParseTrackNumberWithPreference(name, pref)
		results[i] = Result{Filename: name, Track: n, OK: ok}
	}
	return results
}

func runCascade(stem string) (int, bool) {
	for _, step := range standardCascade {
		if n, ok := matchGroup(step.re, stem, step.group); ok {
			return n, true
		}
	}
	return 0, false
}

func matchGroup(re *regexp.Regexp, s string, group int) (int, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil || group >= len(m) {
		return 0, false
	}
	n, err := strconv.Atoi(m[group])
	if err != nil || n < MinTrack || n > MaxTrack {
		return 0, false
	}
	return n, true
}

// delimiterPattern compiles digits followed by the literal delimiter once
// per distinct delimiter.
func delimiterPattern(delim string) *regexp.Regexp {
	if delim == "" {
		return nil
	}
	if cached, ok := delimiterPatterns.Load(delim); ok {
		return cached.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`(\d{1,3})` + regexp.QuoteMeta(delim))
	delimiterPatterns.Store(delim, re)
	return re
}

func stripExtension(filename string) string {
	if i := strings.LastIndexByte(filename, '.'); i >= 0 {
		return filename[:i]
	}
	return filename
}
