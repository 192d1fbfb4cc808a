// file: internal/trackparser/asian.go
// version: 1.1.0
// guid: 4b0bba39-bbfd-4f15-9390-ca9bdddf63e8

package trackparser

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// fullwidthDigits maps the full-width digit block (U+FF10..U+FF19) that can
// survive NFKC when the input carries unusual combining sequences.
var fullwidthDigits = strings.NewReplacer(
	"０", "0", "１", "1", "２", "2", "３", "3", "４", "4",
	"５", "5", "６", "6", "７", "7", "８", "8", "９", "9",
)

// NormalizeAsianText canonicalizes full-width characters to their ASCII
// equivalents. Characters with no compatibility mapping pass through.
//
//	NormalizeAsianText("第０１話") == "第01話"
//	NormalizeAsianText("［０３］") == "[03]"
func NormalizeAsianText(s string) string {
	if isASCII(s) {
		return s
	}
	return fullwidthDigits.Replace(norm.NFKC.String(s))
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
