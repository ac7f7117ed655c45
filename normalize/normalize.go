// Package normalize folds text into the form used for drug name matching:
// lower case, no diacritics, no surrounding whitespace.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Text lower-cases s, decomposes it (NFD), drops the combining marks and
// trims surrounding whitespace. Text(Text(s)) == Text(s).
func Text(s string) string {
	if s == "" {
		return ""
	}

	// A chain keeps internal state, so build one per call
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))

	folded, _, err := transform.String(stripMarks, strings.ToLower(s))
	if err != nil {
		// Only reachable on malformed input; fall back to the case-folded text
		folded = strings.ToLower(s)
	}

	return strings.TrimSpace(folded)
}

// Contains reports whether the normalized form of name occurs in an
// already normalized haystack.
func Contains(normalizedHaystack, name string) bool {
	needle := Text(name)
	if needle == "" {
		return false
	}
	return strings.Contains(normalizedHaystack, needle)
}
