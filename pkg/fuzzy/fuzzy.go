// Package fuzzy provides case-insensitive edit-distance matching.
package fuzzy

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Distance Levenshtein distance between the lowercased inputs, in runes
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(strings.ToLower(a), strings.ToLower(b))
}

// Similarity 1 - distance/maxLen; two empty strings are identical
func Similarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	maxLen := max(la, lb)
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(Distance(a, b))/float64(maxLen)
}

// Match best candidate and its score
type Match[T any] struct {
	Item  T
	Score float64
}

// Best scans candidates in order and returns the highest scoring one whose
// score is strictly above threshold. An exact match stops the scan.
func Best[T any](query string, candidates []T, name func(T) string, threshold float64) (Match[T], bool) {
	var best Match[T]

	for _, c := range candidates {
		score := Similarity(query, name(c))
		if score > best.Score {
			best = Match[T]{Item: c, Score: score}
		}
		if score == 1 {
			break
		}
	}

	if best.Score <= threshold {
		return Match[T]{}, false
	}
	return best, true
}
