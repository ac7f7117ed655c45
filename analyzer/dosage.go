// Package analyzer finds drug mentions in document text and classifies them
// against the compatibility table for a trimester.
package analyzer

import (
	"regexp"
	"sync"

	"github.com/giygas/drugchecker-api/normalize"
)

const (
	// quantity and unit, anywhere after the name within the same sentence
	dosageQuantity = `[^.]*?\d+\s*(?:mcg|mg|ml|g)\b`
	// optional frequency, still within the sentence and before any other number
	dosageFrequency = `(?:[^.\d]*?\d*\s*(?:veces(?: al dia)?|al dia|diario|semanal|mensual))?`
)

// dosagePatterns caches the compiled pattern of every name seen so far.
// Names come from the lexicon, so the cache stays small.
var dosagePatterns sync.Map // normalized name -> *regexp.Regexp

func dosagePattern(normalizedName string) *regexp.Regexp {
	if re, ok := dosagePatterns.Load(normalizedName); ok {
		return re.(*regexp.Regexp)
	}

	re := regexp.MustCompile(regexp.QuoteMeta(normalizedName) + dosageQuantity + dosageFrequency)
	actual, _ := dosagePatterns.LoadOrStore(normalizedName, re)
	return actual.(*regexp.Regexp)
}

// ExtractDosage returns the dosage phrases that follow name in rawText:
// the name, a quantity with a unit (mg, g, ml, mcg) in the same sentence and,
// when present, a frequency (veces, al día, diario, semanal, mensual).
// Matching is done on normalized text and the phrases are returned in that
// form, in document order. No phrase is not an error: the result is empty.
func ExtractDosage(rawText, name string) []string {
	return extractNormalized(normalize.Text(rawText), name)
}

func extractNormalized(normalizedText, name string) []string {
	normalizedName := normalize.Text(name)
	if normalizedName == "" || normalizedText == "" {
		return []string{}
	}

	matches := dosagePattern(normalizedName).FindAllString(normalizedText, -1)
	if matches == nil {
		return []string{}
	}
	return matches
}
