// file: internal/trackparser/confidence.go
// version: 1.0.0
// guid: 8a2f3c71-52e4-4e0b-9a64-2d1b7f0c9e15

package trackparser

// LowConfidenceThreshold is the failure ratio above which a work needs a
// human decision. A single odd bonus track in a short work stays below it.
const LowConfidenceThreshold = 0.3

// FailureRatio returns the fraction of filenames the standard cascade
// cannot parse. An empty set has ratio 0.
func FailureRatio(filenames []string) float64 {
	if len(filenames) == 0 {
		return 0
	}
	failed := 0
	for _, name := range filenames {
		if _, ok := ParseTrackNumber(name); !ok {
			failed++
		}
	}
	return float64(failed) / float64(len(filenames))
}

// NeedsDecision reports whether the batch is low confidence.
func NeedsDecision(filenames []string) bool {
	return FailureRatio(filenames) > LowConfidenceThreshold
}
