// Package tagmatch compares asset identifying tags (service tags, serial
// numbers) using a forgiving normalization so that "abc-1234" submitted by an
// employee reconciles against "ABC1234" on record.
package tagmatch

import "strings"

// Normalize uppercases the tag and strips every character outside [A-Z0-9].
func Normalize(tag string) string {
	var b strings.Builder
	b.Grow(len(tag))
	for _, r := range strings.ToUpper(tag) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Matches reports whether the candidate tag reconciles against the expected
// tag after normalization. An empty candidate never matches, even when the
// expected tag is also empty: absence of evidence is not a match.
func Matches(expected, candidate string) bool {
	normalized := Normalize(candidate)
	if normalized == "" {
		return false
	}
	return Normalize(expected) == normalized
}
