package matching

import "strings"

// Scoring weights. Fixed at compile time, not tunable at runtime.
const (
	trackExact    = 0.5
	trackContains = 0.3
	trackOverlap  = 0.2

	artistExact    = 0.5
	artistContains = 0.3
	artistOverlap  = 0.1

	// Credit awarded when the caller supplied no target artist, so that
	// partial-information requests can still clear the acceptance threshold.
	noArtistCredit = 0.2

	// overlapRatio is the share of the smaller word list that must appear in
	// the other name for the fuzzy tier to fire.
	overlapRatio = 0.6
)

// Score rates a candidate (title, artist) against a target track name and
// optional target artist. The result is always within [0, 1].
//
// The track component contributes at most 0.5 and the artist component the
// remaining 0.5; when no target artist is supplied a flat credit replaces the
// artist component.
func Score(candidateTitle, candidateArtist, targetTrack, targetArtist string) float64 {
	score := nameScore(candidateTitle, targetTrack, trackExact, trackContains, trackOverlap)

	if targetArtist == "" {
		score += noArtistCredit
	} else {
		score += nameScore(candidateArtist, targetArtist, artistExact, artistContains, artistOverlap)
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// nameScore applies the three-tier comparison (exact, containment, overlap)
// with the given tier weights.
func nameScore(candidate, target string, exact, contains, overlap float64) float64 {
	c := strings.ToLower(Normalize(candidate))
	t := strings.ToLower(Normalize(target))

	if c == "" || t == "" {
		return 0
	}

	if c == t {
		return exact
	}

	if strings.Contains(c, t) || strings.Contains(t, c) {
		return contains
	}

	if wordsOverlap(candidate, target) {
		return overlap
	}

	return 0
}

// wordsOverlap reports whether at least overlapRatio of the smaller cleaned
// word list appears as substrings of the other name.
func wordsOverlap(a, b string) bool {
	wordsA := Clean(a)
	wordsB := Clean(b)

	if len(wordsA) == 0 || len(wordsB) == 0 {
		return false
	}

	smaller, other := wordsA, wordsB
	if len(wordsB) < len(wordsA) {
		smaller, other = wordsB, wordsA
	}

	haystack := strings.Join(other, " ")
	found := 0
	for _, w := range smaller {
		if strings.Contains(haystack, w) {
			found++
		}
	}

	return float64(found)/float64(len(smaller)) >= overlapRatio
}
