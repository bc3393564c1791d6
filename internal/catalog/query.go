package catalog

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/joemull/ebook-ident/internal/models"
	"github.com/joemull/ebook-ident/internal/mods"
	"github.com/joemull/ebook-ident/internal/textnorm"
)

// QueryEngine looks up one book in the catalog using the primary /
// fallback / supplementary query strategy.
type QueryEngine struct {
	Client *Client
	Parser *mods.Parser
	Limit  int
}

// TitleQuery builds the boolean title phrase: main title AND subtitle,
// each normalized and parenthesized, when a usable subtitle exists;
// otherwise just the normalized main title.
func TitleQuery(book models.BookRecord) string {
	title := textnorm.Normalize(book.MainTitle)
	if textnorm.IsNA(book.Subtitle) {
		return title
	}
	return "(" + title + ")+AND+(" + textnorm.Normalize(book.Subtitle) + ")"
}

// AuthorQuery builds the normalized "given initial family" phrase for the
// primary author.
func AuthorQuery(book models.BookRecord) string {
	return textnorm.Normalize(strings.Join([]string{
		book.Author1Given, book.Author1Initial, book.Author1Family,
	}, " "))
}

// Lookup runs the query strategy for book and returns the merged record
// map. A query that fails, returns nothing, or returns unusable XML
// contributes nothing; the result is an empty map rather than an error.
//
//   - primary: title + name + limit + publisher
//   - fallback: the same query without publisher, issued once when the
//     primary response parses to zero records
//   - supplement: publisher replaced by the copyright holder when the two
//     differ; its records overwrite same-key records from earlier queries
func (e *QueryEngine) Lookup(ctx context.Context, book models.BookRecord) map[string]mods.Record {
	params := map[string]string{
		"title":     TitleQuery(book),
		"name":      AuthorQuery(book),
		"limit":     strconv.Itoa(e.Limit),
		"publisher": book.Publisher,
	}

	records := make(map[string]mods.Record)
	next := 0

	if body := e.Client.Fetch(ctx, params); body != "" {
		e.mergeParsed(body, book, records, &next)
		if len(records) == 0 {
			// Broaden the search: the publisher filter is often what
			// excludes the only usable hit.
			delete(params, "publisher")
			if body := e.Client.Fetch(ctx, params); body != "" {
				e.mergeParsed(body, book, records, &next)
			}
		}
	}

	if book.Publisher != book.CopyrightHolder {
		params["publisher"] = book.CopyrightHolder
		if body := e.Client.Fetch(ctx, params); body != "" {
			e.mergeParsed(body, book, records, &next)
		}
	}

	return records
}

// mergeParsed parses body and merges the result into dst. New keys are
// appended in the parse's own order; colliding keys are overwritten in
// place, keeping their original position.
func (e *QueryEngine) mergeParsed(body string, book models.BookRecord, dst map[string]mods.Record, next *int) {
	parsed, err := e.Parser.Parse([]byte(body), book)
	if err != nil {
		slog.Warn("unusable catalog response", "book", book.ID, "err", err)
		return
	}

	ordered := make([]mods.Record, 0, len(parsed))
	for _, rec := range parsed {
		ordered = append(ordered, rec)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	for _, rec := range ordered {
		if existing, ok := dst[rec.Key]; ok {
			rec.Order = existing.Order
		} else {
			rec.Order = *next
			*next++
		}
		dst[rec.Key] = rec
	}
}
