// Package textnorm prepares title and author strings for catalog queries.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NAPattern values are treated the same as an empty field.
var naValues = map[string]bool{
	"":    true,
	"N/A": true,
	"NA":  true,
	"n/a": true,
}

// IsNA reports whether a manifest field is effectively empty.
func IsNA(s string) bool {
	return naValues[strings.TrimSpace(s)]
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lower-cases s, folds diacritics to their base letters, drops
// punctuation, and collapses runs of whitespace to single spaces.
func Normalize(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
