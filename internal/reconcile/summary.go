package reconcile

import (
	"fmt"
	"sort"
	"time"

	"github.com/joemull/ebook-ident/internal/models"
)

// HolderCounts tallies how many top-level rows name each copyright
// holder.
func HolderCounts(rows []models.Row) map[string]int {
	counts := make(map[string]int)
	for _, row := range rows {
		if !row.IsTopLevel() {
			continue
		}
		if holder := row[models.ColCopyrightHolder]; holder != "" {
			counts[holder]++
		}
	}
	return counts
}

// Summary aggregates counts for one run.
type Summary struct {
	RunID        string
	TotalBooks   int
	Skipped      int
	Matched      int
	Unmatched    int
	MatchRecords int
	Elapsed      time.Duration
}

func summarize(runID string, results []BookResult) *Summary {
	summary := &Summary{
		RunID:      runID,
		TotalBooks: len(results),
	}

	for _, res := range results {
		switch res.Status {
		case StatusSkipped:
			summary.Skipped++
		case StatusMatched:
			summary.Matched++
			summary.MatchRecords += len(res.Rows) - 1
		case StatusUnmatched:
			summary.Unmatched++
		}
	}
	return summary
}

// PrintSummary writes the run summary to stdout.
func PrintSummary(summary *Summary, holderCounts map[string]int) {
	fmt.Println("\n========================================")
	fmt.Println("Identification Summary")
	fmt.Println("========================================")
	fmt.Printf("Run ID:             %s\n", summary.RunID)
	fmt.Printf("Total Books:        %d\n", summary.TotalBooks)
	fmt.Printf("Matched:            %d\n", summary.Matched)
	fmt.Printf("Unmatched:          %d\n", summary.Unmatched)
	fmt.Printf("Skipped:            %d\n", summary.Skipped)
	fmt.Printf("Match Records:      %d\n", summary.MatchRecords)
	fmt.Printf("Elapsed:            %s\n", summary.Elapsed.Round(time.Millisecond))

	if len(holderCounts) > 0 {
		fmt.Println()
		fmt.Println("Copyright Holders:")

		holders := make([]string, 0, len(holderCounts))
		for holder := range holderCounts {
			holders = append(holders, holder)
		}
		sort.Slice(holders, func(i, j int) bool {
			if holderCounts[holders[i]] != holderCounts[holders[j]] {
				return holderCounts[holders[i]] > holderCounts[holders[j]]
			}
			return holders[i] < holders[j]
		})

		for _, holder := range holders {
			fmt.Printf("  %s: %d\n", holder, holderCounts[holder])
		}
	}
	fmt.Println("========================================")
}
