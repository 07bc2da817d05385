package utils

import "golang.org/x/text/width"

// Message length limits are expressed in full-width-equivalent characters:
// a full-width character (kanji, kana, full-width punctuation) counts as 1
// and a half-width character counts as 0.5. Internally we count in
// half-width units to stay in integers.

func halfWidthUnits(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}

// FullWidthLen returns the length of s in half-width units. Divide by two
// for the full-width-equivalent count.
func FullWidthLen(s string) int {
	units := 0
	for _, r := range s {
		units += halfWidthUnits(r)
	}
	return units
}

// ClipFullWidth truncates s so its full-width-equivalent length does not
// exceed maxFullWidth. Truncation happens at a rune boundary; a half-width
// character that still fits in the remaining half unit is kept.
func ClipFullWidth(s string, maxFullWidth int) string {
	budget := maxFullWidth * 2
	units := 0
	for i, r := range s {
		units += halfWidthUnits(r)
		if units > budget {
			return s[:i]
		}
	}
	return s
}

// ExceedsFullWidth reports whether s is longer than maxFullWidth
// full-width-equivalent characters.
func ExceedsFullWidth(s string, maxFullWidth int) bool {
	return FullWidthLen(s) > maxFullWidth*2
}
