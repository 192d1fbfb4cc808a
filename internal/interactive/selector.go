// file: internal/interactive/selector.go
// version: 1.0.0
// guid: 2a7e9c04-b5d1-4f38-8c62-e0f4a1b7d395

// Package interactive asks the operator how to number the tracks of a work
// whose filenames the standard parser cannot read.
package interactive

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hvtag/hvtag/internal/trackparser"
)

// PreviewLimit is how many filenames are listed in context and preview.
const PreviewLimit = 10

// maxDelimiterAttempts bounds the re-prompt loop for an empty delimiter.
const maxDelimiterAttempts = 3

// ErrUserSkipped means the operator deferred the work. It is not a fault.
var ErrUserSkipped = errors.New("user skipped folder")

type menuItem struct {
	label    string
	strategy trackparser.Strategy
	skip     bool
}

var menu = []menuItem{
	{label: "Asian full-width numbers (０１２ → 012)", strategy: trackparser.AsianFullwidth},
	{label: "Asian brackets 【01】［01］〔01〕（01）", strategy: trackparser.AsianBrackets},
	{label: "Kanji episode markers (第01話、第01章)", strategy: trackparser.AsianKanjiEpisode},
	{label: "Custom delimiter (I'll specify)", strategy: trackparser.CustomDelimiter},
	{label: "First number found (no delimiter)", strategy: trackparser.FirstNumber},
	{label: "Skip this folder (don't tag)", skip: true},
}

// MenuOptions returns the menu labels in display order.
func MenuOptions() []string {
	opts := make([]string, len(menu))
	for i, item := range menu {
		opts[i] = item.label
	}
	return opts
}

// Outcome is the terminal state of one decision.
type Outcome int

const (
	// Confirmed: the preference is authoritative and must be persisted
	// before any file is tagged.
	Confirmed Outcome = iota + 1
	// Declined: the candidate is discarded; tagging goes on without it.
	Declined
)

func (o Outcome) String() string {
	switch o {
	case Confirmed:
		return "confirmed"
	case Declined:
		return "declined"
	default:
		return "unknown"
	}
}

// Decision is the result of a completed prompt.
type Decision struct {
	Outcome    Outcome
	Preference trackparser.Preference
}

// Selector drives one decision per work. It never re-enters for the same
// work within a run.
type Selector struct {
	Prompter Prompter
	Out      io.Writer
}

// NewSelector returns a selector printing context to out.
func NewSelector(p Prompter, out io.Writer) *Selector {
	return &Selector{Prompter: p, Out: out}
}

// Decide shows the files of rjcode, asks for a strategy, previews it over
// the whole batch and asks for confirmation. Choosing skip returns
// ErrUserSkipped.
func (s *Selector) Decide(rjcode string, filenames []string) (Decision, error) {
	s.printContext(rjcode, filenames)

	idx, err := s.Prompter.Select("Select parsing strategy", MenuOptions())
	if err != nil {
		return Decision{}, err
	}
	if idx < 0 || idx >= len(menu) {
		return Decision{}, fmt.Errorf("menu index %d out of range", idx)
	}
	item := menu[idx]
	if item.skip {
		return Decision{}, ErrUserSkipped
	}

	var delimiter string
	if item.strategy == trackparser.CustomDelimiter {
		delimiter, err = s.askDelimiter()
		if err != nil {
			return Decision{}, err
		}
	}

	pref := trackparser.NewPreference(item.strategy, delimiter)
	if err := pref.Validate(); err != nil {
		return Decision{}, err
	}

	preview := BuildPreview(filenames, pref)
	preview.Render(s.out())

	ok, err := s.Prompter.Confirm("Use this strategy?", true)
	if err != nil {
		return Decision{}, err
	}
	if !ok {
		return Decision{Outcome: Declined, Preference: pref}, nil
	}
	return Decision{Outcome: Confirmed, Preference: pref}, nil
}

func (s *Selector) out() io.Writer {
	if s.Out == nil {
		return io.Discard
	}
	return s.Out
}

func (s *Selector) askDelimiter() (string, error) {
	for attempt := 1; attempt <= maxDelimiterAttempts; attempt++ {
		delim, err := s.Prompter.Input("Enter the delimiter character(s) after track numbers")
		if err != nil {
			return "", err
		}
		if delim != "" {
			return delim, nil
		}
		fmt.Fprintln(s.out(), "Delimiter cannot be empty.")
	}
	return "", trackparser.ErrEmptyDelimiter
}

func (s *Selector) printContext(rjcode string, filenames []string) {
	var b strings.Builder
	fmt.Fprintf(&b, "\n=== Track Number Parsing Failed ===\nWork: %s\n\nFiles in this folder:\n", rjcode)
	for i, name := range filenames {
		if i == PreviewLimit {
			break
		}
		fmt.Fprintf(&b, "  %d. %s\n", i+1, name)
	}
	if len(filenames) > PreviewLimit {
		fmt.Fprintf(&b, "  ... and %d more files\n", len(filenames)-PreviewLimit)
	}
	b.WriteString("\nAutomatic track number detection failed for these files.\n")
	io.WriteString(s.out(), b.String())
}
