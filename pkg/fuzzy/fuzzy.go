// Package fuzzy provides edit-distance based string matching used to
// reconcile free-text geography against master data.
package fuzzy

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// DefaultThreshold is the score a candidate must strictly exceed to be
// considered a match when callers have no stronger opinion.
const DefaultThreshold = 0.85

// Similarity returns a score in [0,1] where 1 means identical and 0 means
// maximally different. Inputs are compared case-folded and trimmed.
func Similarity(a, b string) float64 {
	a = fold(a)
	b = fold(b)
	if a == b {
		return 1
	}
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1 - float64(distance)/float64(longest)
}

// FindBestMatch returns the highest-scoring candidate whose similarity to
// input strictly exceeds threshold. An exact case-insensitive match wins
// immediately. Ties break to the first candidate in iteration order, so
// callers must supply candidates in a stable order. Empty input never
// matches.
func FindBestMatch(input string, candidates []string, threshold float64) (string, bool) {
	folded := fold(input)
	if folded == "" {
		return "", false
	}

	for _, candidate := range candidates {
		if fold(candidate) == folded {
			return candidate, true
		}
	}

	best := ""
	bestScore := threshold
	found := false
	for _, candidate := range candidates {
		score := Similarity(folded, candidate)
		if score > bestScore {
			best = candidate
			bestScore = score
			found = true
		}
	}
	return best, found
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
