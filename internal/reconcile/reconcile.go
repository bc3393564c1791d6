// Package reconcile drives the per-book lookup pipeline and assembles
// the ordered output table: each manifest book's own row followed by the
// rows of its catalog matches.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joemull/ebook-ident/internal/catalog"
	"github.com/joemull/ebook-ident/internal/compare"
	"github.com/joemull/ebook-ident/internal/config"
	"github.com/joemull/ebook-ident/internal/models"
	"github.com/joemull/ebook-ident/internal/mods"
)

// Status is the terminal state of one book in a run.
type Status int

const (
	StatusSkipped Status = iota // already processed in an earlier run
	StatusMatched
	StatusUnmatched
)

// BookResult holds one book's rows: its own top-level row first, then
// one row per catalog match in retrieval order.
type BookResult struct {
	Book   models.BookRecord
	Status Status
	Rows   []models.Row
}

// NewRunID returns a run identifier that sorts by start time and still
// cannot collide between runs started in the same second.
func NewRunID() string {
	return time.Now().Format("20060102150405") + "_" + uuid.NewString()[:8]
}

// Aggregator runs the lookup for every manifest book and flattens the
// results into the output table.
type Aggregator struct {
	Engine *catalog.QueryEngine
	Cfg    *config.Config
	RunID  string

	// Skip holds book IDs already present in earlier outputs; their
	// lookups are not re-run.
	Skip map[string]struct{}

	// TitleThreshold, when positive, drops matches whose main title is
	// less than this percent similar to the manifest title.
	TitleThreshold int
}

// Run processes books with the configured concurrency and returns the
// flattened rows plus the run summary. Seed rows from earlier outputs
// come first, then each book's block in manifest order: top-level row,
// then matches by retrieval order. Output order is deterministic
// regardless of concurrency. Seed rows take part in the rightsholder
// tally so ranks stay correct across resumed runs.
func (a *Aggregator) Run(ctx context.Context, books []models.BookRecord, seed []models.Row) ([]models.Row, *Summary) {
	if a.Cfg.TestMode.On && len(books) > a.Cfg.TestMode.NumRecords {
		slog.Info("Test mode: truncating manifest", "books", a.Cfg.TestMode.NumRecords)
		books = books[:a.Cfg.TestMode.NumRecords]
	}

	slog.Info("Processing books", "count", len(books), "concurrency", a.Cfg.Concurrency, "run", a.RunID)

	start := time.Now()
	results := make([]BookResult, len(books))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, a.Cfg.Concurrency)

	for i, book := range books {
		if _, ok := a.Skip[book.ID]; ok {
			results[i] = BookResult{Book: book, Status: StatusSkipped}
			continue
		}

		wg.Add(1)
		go func(idx int, book models.BookRecord) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			slog.Info("Processing book", "id", book.ID, "progress", fmt.Sprintf("%d/%d", idx+1, len(books)))
			results[idx] = a.process(ctx, book)
		}(i, book)
	}

	wg.Wait()

	rows := make([]models.Row, 0, len(seed))
	for _, row := range seed {
		rows = append(rows, row.Clone())
	}
	for _, res := range results {
		rows = append(rows, res.Rows...)
	}

	a.applyRightsholderStats(rows)

	summary := summarize(a.RunID, results)
	summary.Elapsed = time.Since(start)
	return rows, summary
}

func (a *Aggregator) process(ctx context.Context, book models.BookRecord) BookResult {
	result := BookResult{
		Book: book,
		Rows: []models.Row{book.Row()},
	}

	matches := a.Engine.Lookup(ctx, book)
	if len(matches) == 0 {
		result.Status = StatusUnmatched
		return result
	}

	ordered := make([]mods.Record, 0, len(matches))
	for _, rec := range matches {
		ordered = append(ordered, rec)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	var titleOK func(string) bool
	if a.TitleThreshold > 0 {
		titleOK = compare.CompareFunc(book.MainTitle, a.TitleThreshold)
	}

	for _, rec := range ordered {
		if titleOK != nil && !titleOK(rec.MainTitle) {
			slog.Debug("dropping match on title mismatch", "key", rec.Key, "title", rec.MainTitle)
			continue
		}
		result.Rows = append(result.Rows, rec.Row())
	}

	if len(result.Rows) == 1 {
		result.Status = StatusUnmatched
		return result
	}
	result.Status = StatusMatched
	return result
}

// applyRightsholderStats fills the two derived columns: Rightsholder
// Rank is how many top-level rows share the book's copyright holder,
// attached to the book row and every match row under it; New
// Rightsholder marks top-level rows whose publisher/holder pair differs
// and is not on the configured allow-list.
func (a *Aggregator) applyRightsholderStats(rows []models.Row) {
	counts := HolderCounts(rows)

	// The rank propagates from each top-level row to the match rows that
	// follow it.
	var rank string
	for _, row := range rows {
		if row.IsTopLevel() {
			rank = ""
			holder := row[models.ColCopyrightHolder]
			if holder == "" {
				continue
			}
			rank = fmt.Sprintf("%d", counts[holder])
			if holder != row[models.ColPublisher] && !a.Cfg.Allowed(row[models.ColPublisher], holder) {
				row[models.ColNewRightsholder] = "true"
			}
		}
		if rank != "" {
			row[models.ColRightsRank] = rank
		}
	}
}
