// Package matching implements text canonicalization and candidate scoring for
// catalog resolution.
//
// Matching is tiered rather than metric-based: exact matches on normalized text
// outrank substring containment, which outranks word-overlap fuzzing. The
// steepest tier gates first so weaker comparisons never run when a strong
// match already decides the score.
package matching

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stopWords are filler tokens that carry no matching signal in track or artist names.
var stopWords = map[string]bool{
	"the":       true,
	"a":         true,
	"an":        true,
	"feat":      true,
	"ft":        true,
	"featuring": true,
}

var nonWord = regexp.MustCompile(`[^\w\s]`)

// stripMarks decomposes to NFD and removes combining marks, re-composing the remainder.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize canonicalizes free text for matching: accents are stripped via
// Unicode decomposition and surrounding whitespace is trimmed.
//
// Normalize is pure and idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	stripped, _, err := transform.String(stripMarks, s)
	if err != nil {
		// transform only fails on malformed input; fall back to the raw string
		stripped = s
	}
	return strings.TrimSpace(stripped)
}

// Clean lowercases, strips non-word characters, removes stop words, and drops
// short tokens, producing an ordered word list for containment comparison.
func Clean(s string) []string {
	lowered := strings.ToLower(Normalize(s))
	lowered = nonWord.ReplaceAllString(lowered, "")

	words := []string{}
	for _, w := range strings.Fields(lowered) {
		if stopWords[w] || len(w) <= 2 {
			continue
		}
		words = append(words, w)
	}

	return words
}

// NormalizeTrackKey builds a stable comparison key for a (title, artist) pair.
func NormalizeTrackKey(title, artist string) string {
	t := strings.ToLower(strings.Join(strings.Fields(title), " "))
	a := strings.ToLower(strings.Join(strings.Fields(artist), " "))
	return t + "|" + a
}
