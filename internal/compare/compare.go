// Package compare provides the fuzzy-match helpers used to verify
// candidate records against the manifest: thresholded string similarity,
// university-name folding, and ebook sniffing.
package compare

import (
	"math"
	"strings"

	"github.com/joemull/ebook-ident/internal/formats"
	"github.com/joemull/ebook-ident/internal/textnorm"
)

// CompareFunc builds a predicate that reports whether a candidate string
// is at least threshold percent similar to reference. Both sides are
// normalized, then passed through any extra transforms, before scoring.
func CompareFunc(reference string, threshold int, transforms ...func(string) string) func(string) bool {
	ref := applyTransforms(reference, transforms)
	return func(candidate string) bool {
		cand := applyTransforms(candidate, transforms)
		return Similarity(ref, cand)*100 >= float64(threshold)
	}
}

func applyTransforms(s string, transforms []func(string) string) string {
	s = textnorm.Normalize(s)
	for _, tf := range transforms {
		s = tf(s)
	}
	return s
}

// LooksLikeEbook reports whether a physical-description string describes
// an electronic edition.
func LooksLikeEbook(physicalDescription string) bool {
	return formats.Classify(physicalDescription).Format == formats.Ebook
}

// stateNames expands two-letter US state abbreviations that university
// presses abbreviate inconsistently ("University of MI Press").
var stateNames = map[string]string{
	"al": "alabama", "ak": "alaska", "az": "arizona", "ar": "arkansas",
	"ca": "california", "co": "colorado", "ct": "connecticut",
	"de": "delaware", "fl": "florida", "ga": "georgia", "hi": "hawaii",
	"id": "idaho", "il": "illinois", "in": "indiana", "ia": "iowa",
	"ks": "kansas", "ky": "kentucky", "la": "louisiana", "me": "maine",
	"md": "maryland", "ma": "massachusetts", "mi": "michigan",
	"mn": "minnesota", "ms": "mississippi", "mo": "missouri",
	"mt": "montana", "ne": "nebraska", "nv": "nevada",
	"nh": "new hampshire", "nj": "new jersey", "nm": "new mexico",
	"ny": "new york", "nc": "north carolina", "nd": "north dakota",
	"oh": "ohio", "ok": "oklahoma", "or": "oregon", "pa": "pennsylvania",
	"ri": "rhode island", "sc": "south carolina", "sd": "south dakota",
	"tn": "tennessee", "tx": "texas", "ut": "utah", "vt": "vermont",
	"va": "virginia", "wa": "washington", "wv": "west virginia",
	"wi": "wisconsin", "wy": "wyoming",
}

// NormalizeUniv folds abbreviated university-press imprints onto their
// spelled-out form. Input is assumed already normalized (lower case, no
// punctuation).
func NormalizeUniv(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		switch {
		case f == "univ" || f == "u":
			fields[i] = "university"
		case stateNames[f] != "":
			fields[i] = stateNames[f]
		}
	}
	return strings.Join(fields, " ")
}

// Similarity scores two strings from 0.0 (disjoint) to 1.0 (identical)
// using Levenshtein distance over the longer string's length.
func Similarity(s1, s2 string) float64 {
	s1 = strings.TrimSpace(s1)
	s2 = strings.TrimSpace(s2)

	if s1 == s2 {
		return 1.0
	}

	distance := levenshteinDistance(s1, s2)
	maxLen := math.Max(float64(len(s1)), float64(len(s2)))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - (float64(distance) / maxLen)
}

// levenshteinDistance calculates the edit distance between two strings.
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}

			matrix[i][j] = minOf(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(s1)][len(s2)]
}

func minOf(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
