// file: internal/interactive/preview.go
// version: 1.0.0
// guid: f0b36d81-4c7a-49e2-a5d3-7b2e8c1f6049

package interactive

import (
	"fmt"
	"io"
	"strings"

	"github.com/hvtag/hvtag/internal/trackparser"
)

// Preview is the parse outcome of a candidate preference. Rows holds at
// most PreviewLimit entries; the counts always cover every file.
type Preview struct {
	Rows      []trackparser.Result
	Remaining int
	Succeeded int
	Failed    int
	Total     int
}

// BuildPreview applies pref, with the usual cascade fallback, to every
// filename.
func BuildPreview(filenames []string, pref trackparser.Preference) Preview {
	results := trackparser.ParseAll(filenames, &pref)
	p := Preview{Total: len(results)}
	for _, r := range results {
		if r.OK {
			p.Succeeded++
		} else {
			p.Failed++
		}
	}
	if len(results) > PreviewLimit {
		p.Rows = results[:PreviewLimit]
		p.Remaining = len(results) - PreviewLimit
	} else {
		p.Rows = results
	}
	return p
}

// Render writes the preview table.
func (p Preview) Render(w io.Writer) {
	var b strings.Builder
	b.WriteString("\n=== Parsing Preview ===\n")
	for _, r := range p.Rows {
		if r.OK {
			fmt.Fprintf(&b, "  [%d] %s\n", r.Track, r.Filename)
		} else {
			fmt.Fprintf(&b, "  [??] %s\n", r.Filename)
		}
	}
	if p.Remaining > 0 {
		fmt.Fprintf(&b, "  ... and %d more files\n", p.Remaining)
	}
	fmt.Fprintf(&b, "\nSuccess: %d/%d\nFailed: %d/%d\n", p.Succeeded, p.Total, p.Failed, p.Total)
	if p.Failed > 0 {
		b.WriteString("\nWarning: some files could not be parsed with this strategy.\n")
		b.WriteString("They will be tagged without track numbers.\n")
	}
	io.WriteString(w, b.String())
}
