// Package nlp provides the text canonicalization used before embedding and
// rule matching.
package nlp

import "strings"

// Normalize canonicalizes free text: whitespace runs collapse to single
// spaces, the result is trimmed and lowercased. Empty input yields the empty
// string. Normalize is pure and total.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// NormalizeAll maps Normalize over a slice, returning a new slice of the same
// length. A nil input yields an empty, non-nil slice.
func NormalizeAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = Normalize(t)
	}
	return out
}
