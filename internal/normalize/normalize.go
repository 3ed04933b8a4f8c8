// Package normalize canonicalizes free-text identity and geo signals
// into the fixed wire format the attribution API expects, and hashes
// them. Every function is deterministic and idempotent: the same input
// always produces the same output, across processes and over time.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// fold applies the shared first three steps of the pipeline: trim
// surrounding whitespace, strip combining diacritical marks, and
// lower-case. "São Paulo" folds to "sao paulo".
func fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// City folds the input and strips every character that is not a
// lowercase ASCII letter, dropping spaces, hyphens and apostrophes.
func City(s string) string {
	folded := fold(s)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// State maps a Brazilian state name to its two-letter code. Inputs
// that are already a recognized code pass through. Anything
// unrecognized normalizes to the empty string so the field is omitted
// downstream rather than hashed as garbage.
func State(s string) string {
	folded := fold(s)
	if folded == "" {
		return ""
	}
	if code, ok := stateCodes[folded]; ok {
		return code
	}
	if _, ok := validStateCodes[folded]; ok {
		return folded
	}
	return ""
}

// Country maps a country name or code to its ISO 3166-1 alpha-2 code.
// Unrecognized input normalizes to the empty string.
func Country(s string) string {
	folded := fold(s)
	if folded == "" {
		return ""
	}
	if code, ok := countryCodes[folded]; ok {
		return code
	}
	return ""
}

// Postal strips all non-digit characters and truncates to the first
// five digits. Shorter results are passed through as-is, never padded.
func Postal(s string) string {
	folded := fold(s)
	var b strings.Builder
	for _, r := range folded {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == 5 {
				break
			}
		}
	}
	return b.String()
}

// Email applies only the shared folding steps.
func Email(s string) string {
	return fold(s)
}

// Phone strips all non-digit characters.
func Phone(s string) string {
	folded := fold(s)
	var b strings.Builder
	for _, r := range folded {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ExternalID applies only the shared folding steps. Session ids and
// external ids are opaque tokens; no field-specific transform applies.
func ExternalID(s string) string {
	return fold(s)
}

// Hash computes the unsalted SHA-256 digest of s and returns it
// hex-encoded. Callers must pass already-normalized values.
func Hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashField hashes an already-normalized value, or returns the empty
// string when the value is empty so the field can be omitted entirely.
// An empty-string hash must never be emitted.
func HashField(normalized string) string {
	if normalized == "" {
		return ""
	}
	return Hash(normalized)
}
