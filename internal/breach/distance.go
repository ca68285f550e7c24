package breach

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// NormalizedDistance returns the Levenshtein distance between a and b divided
// by the rune length of the longer string. Distances are computed over Unicode
// code points, case-sensitively, with unit cost for insertion, deletion and
// substitution. The result lies in [0,1]; two empty strings are at distance 0.
func NormalizedDistance(a, b string) float64 {
	return normalizedDistance(a, b, runeLen(a), runeLen(b))
}

func normalizedDistance(a, b string, la, lb int) float64 {
	longest := max(la, lb)
	if longest == 0 {
		return 0
	}
	if a == b {
		return 0
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(longest)
}

// distanceLowerBound is the smallest normalized distance two strings of the
// given rune lengths can have: at least |la-lb| edits are always needed.
func distanceLowerBound(la, lb int) float64 {
	longest := max(la, lb)
	if longest == 0 {
		return 0
	}
	diff := la - lb
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) / float64(longest)
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
