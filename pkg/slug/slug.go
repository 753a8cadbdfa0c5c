// Package slug turns titles into URL-safe identifiers.
package slug

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fallback used when a title has no sluggable characters
const Fallback = "thread"

var (
	invalidChars = regexp.MustCompile(`[^a-z0-9_\s-]`)
	whitespace   = regexp.MustCompile(`\s+`)
	hyphens      = regexp.MustCompile(`-+`)
	validSlug    = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// Make lowercases, strips diacritics and punctuation, and joins words with "-".
// Returns an empty string when nothing survives.
func Make(title string) string {
	s := strings.ToLower(title)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}

	s = invalidChars.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = whitespace.ReplaceAllString(s, "-")
	s = hyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// MakeOrFallback is Make with Fallback for empty results
func MakeOrFallback(title string) string {
	if s := Make(title); s != "" {
		return s
	}
	return Fallback
}

// WithSuffix base-n
func WithSuffix(base string, n int) string {
	return base + "-" + strconv.Itoa(n)
}

// IsValid lowercase letters, digits and hyphens only
func IsValid(s string) bool {
	return validSlug.MatchString(s)
}
