// Package formats maps free-text form descriptions onto the four binding
// formats the output table tracks.
package formats

import (
	"log/slog"
	"strings"
)

// Format is one of the binding formats an ISBN can be qualified with.
type Format string

const (
	Paper     Format = "paper"
	Hardcover Format = "hardcover"
	Ebook     Format = "ebook"
	Unknown   Format = "unknown"
)

// Result carries a classification plus whether keywords from more than one
// format matched the same description.
type Result struct {
	Format   Format
	Conflict bool
}

// Keyword lists scanned in this fixed order. Classification is
// last-match-wins: a later keyword hit overwrites an earlier one.
// Downstream ISBN slotting relies on this evaluation order, so the
// behavior is preserved as-is even though it looks backwards; conflicts
// are logged rather than resolved.
var scanOrder = []struct {
	format   Format
	keywords []string
}{
	{Paper, []string{"paper", "pbk"}},
	{Hardcover, []string{"hard", "cloth"}},
	{Ebook, []string{"ebook", "e-book", "electronic"}},
}

// Classify lower-cases formText and scans the keyword lists in order,
// returning the last format whose keyword is contained in the text, or
// Unknown when nothing matches.
func Classify(formText string) Result {
	text := strings.ToLower(formText)

	res := Result{Format: Unknown}
	for _, entry := range scanOrder {
		for _, kw := range entry.keywords {
			if !strings.Contains(text, kw) {
				continue
			}
			if res.Format != Unknown && res.Format != entry.format {
				res.Conflict = true
				slog.Warn("conflicting format keywords; keeping later match",
					"text", formText,
					"earlier", res.Format,
					"later", entry.format)
			}
			res.Format = entry.format
		}
	}
	return res
}
