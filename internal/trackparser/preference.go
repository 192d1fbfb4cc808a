// file: internal/trackparser/preference.go
// version: 1.0.0
// guid: 7dd2e5dc-9b9f-4186-b373-04f47a665be9

package trackparser

import (
	"errors"
	"fmt"
)

// ErrEmptyDelimiter is returned when a custom-delimiter preference has no
// delimiter text.
var ErrEmptyDelimiter = errors.New("custom delimiter must not be empty")

// Strategy selects how a track number is extracted from a filename.
type Strategy int

const (
	Standard Strategy = iota
	AsianFullwidth
	AsianBrackets
	AsianKanjiEpisode
	FirstNumber
	CustomDelimiter
)

var strategyNames = map[Strategy]string{
	Standard:          "standard",
	AsianFullwidth:    "asian_fullwidth",
	AsianBrackets:     "asian_brackets",
	AsianKanjiEpisode: "asian_kanji_episode",
	FirstNumber:       "first_number",
	CustomDelimiter:   "custom_delimiter",
}

// Asian format sub-selectors stored alongside Asian strategies.
const (
	AsianFormatFullwidth    = "fullwidth"
	AsianFormatBrackets     = "asian_brackets"
	AsianFormatKanjiEpisode = "kanji_episode"
)

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return strategyNames[Standard]
}

// ParseStrategy maps a stored name back to a Strategy. Unknown names
// decode to Standard so older or foreign records still parse.
func ParseStrategy(name string) Strategy {
	for s, n := range strategyNames {
		if n == name {
			return s
		}
	}
	return Standard
}

func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Strategy) UnmarshalText(text []byte) error {
	*s = ParseStrategy(string(text))
	return nil
}

// Preference records the strategy chosen for one work.
type Preference struct {
	Strategy           Strategy `json:"strategy_name"`
	CustomDelimiter    string   `json:"custom_delimiter,omitempty"`
	UseAsianConversion bool     `json:"use_asian_conversion"`
	AsianFormat        string   `json:"asian_format_type,omitempty"`
}

// NewPreference builds the canonical preference for a strategy. delimiter
// is only consulted for CustomDelimiter.
func NewPreference(s Strategy, delimiter string) Preference {
	switch s {
	case AsianFullwidth:
		return Preference{Strategy: s, UseAsianConversion: true, AsianFormat: AsianFormatFullwidth}
	case AsianBrackets:
		return Preference{Strategy: s, UseAsianConversion: true, AsianFormat: AsianFormatBrackets}
	case AsianKanjiEpisode:
		return Preference{Strategy: s, UseAsianConversion: true, AsianFormat: AsianFormatKanjiEpisode}
	case CustomDelimiter:
		return Preference{Strategy: s, CustomDelimiter: delimiter}
	default:
		return Preference{Strategy: s}
	}
}

// Validate checks the invariant that a custom-delimiter preference carries
// a delimiter.
func (p Preference) Validate() error {
	if p.Strategy == CustomDelimiter && p.CustomDelimiter == "" {
		return fmt.Errorf("strategy %s: %w", p.Strategy, ErrEmptyDelimiter)
	}
	return nil
}

func (p Preference) String() string {
	if p.Strategy == CustomDelimiter {
		return fmt.Sprintf("%s(%q)", p.Strategy, p.CustomDelimiter)
	}
	return p.Strategy.String()
}
