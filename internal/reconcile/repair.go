package reconcile

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joemull/ebook-ident/internal/catalog"
	"github.com/joemull/ebook-ident/internal/models"
	"github.com/joemull/ebook-ident/internal/mods"
)

var isbnColumns = []string{
	models.ColEbookISBN,
	models.ColHardcoverISBN,
	models.ColPaperISBN,
	models.ColUncatISBN,
}

// PrependSortIDs repairs match rows whose sort key lost the parent book
// prefix. It walks the table in order, tracking the current top-level
// book, and rewrites any match row's key to bookID_recordKey. Returns
// the number of rows fixed.
//
// Top-level rows are recognized by an empty Source cell; match rows
// always carry the catalog source.
func PrependSortIDs(rows []models.Row) int {
	var bookID string
	fixed := 0
	for _, row := range rows {
		sortKey := row[models.ColSort]
		if row[models.ColSource] == "" {
			if !strings.Contains(sortKey, "_") {
				bookID = row[models.ColID]
			}
			continue
		}
		if bookID != "" && !strings.HasPrefix(sortKey, bookID+"_") {
			row[models.ColSort] = bookID + "_" + sortKey
			fixed++
		}
	}
	return fixed
}

// Repairer re-resolves the ISBN columns of an existing output table by
// re-running each parent book's lookup (usually served from the request
// cache) and copying the freshly classified ISBNs over the stale cells.
// The engine's parser must not carry a match cache, or the re-parse
// would drop every already-seen record.
type Repairer struct {
	Engine *catalog.QueryEngine
}

// RefreshISBNs rewrites the four ISBN columns of every match row whose
// parent book can be found and re-resolved. Cells of rows the lookup no
// longer returns are left untouched. Returns the number of rows
// refreshed.
func (r *Repairer) RefreshISBNs(ctx context.Context, rows []models.Row) int {
	books := make(map[string]models.Row)
	for _, row := range rows {
		if row[models.ColSource] == "" && row.IsTopLevel() {
			books[row[models.ColID]] = row
		}
	}

	lookups := make(map[string]map[string]mods.Record)
	refreshed := 0

	for _, row := range rows {
		if row[models.ColSource] == "" {
			continue
		}
		key := row[models.ColSort]
		bookID, _, ok := strings.Cut(key, "_")
		if !ok {
			continue
		}
		parent, ok := books[bookID]
		if !ok {
			slog.Warn("match row without parent book", "key", key)
			continue
		}

		records, ok := lookups[bookID]
		if !ok {
			records = r.Engine.Lookup(ctx, models.BookFromRow(parent))
			lookups[bookID] = records
		}

		rec, ok := records[key]
		if !ok {
			continue
		}
		row[models.ColEbookISBN] = rec.EbookISBN
		row[models.ColHardcoverISBN] = rec.HardcoverISBN
		row[models.ColPaperISBN] = rec.PaperISBN
		row[models.ColUncatISBN] = rec.UncategorizedISBN
		refreshed++
	}
	return refreshed
}
