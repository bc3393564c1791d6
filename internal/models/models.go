// Package models holds the fixed record types shared across the pipeline.
package models

import "strings"

// Output column names. The output table is column-keyed so rows derived
// from input books and rows derived from catalog records can share one
// schema; the configured column order selects and orders these at export.
const (
	ColSort            = "Sort"
	ColID              = "ID"
	ColSource          = "Source"
	ColMainTitle       = "Main Title"
	ColSubtitle        = "Subtitle"
	ColAuthor1Given    = "Author 1 Given"
	ColAuthor1Initial  = "Author 1 Initial"
	ColAuthor1Family   = "Author 1 Family"
	ColAuthor2Given    = "Author 2 Given"
	ColAuthor2Initial  = "Author 2 Initial"
	ColAuthor2Family   = "Author 2 Family"
	ColAuthor3Name     = "Author 3 Name"
	ColPublisher       = "Publisher"
	ColCopyrightHolder = "Copyright Holder"
	ColPubCity         = "Pub City"
	ColYear            = "Year"
	ColEbookISBN       = "ebook ISBN"
	ColHardcoverISBN   = "hardcover ISBN"
	ColPaperISBN       = "paper ISBN"
	ColUncatISBN       = "Uncategorized ISBN"
	ColOnlineLink      = "Online Link"
	ColNewRightsholder = "New Rightsholder"
	ColRightsRank      = "Rightsholder Rank"
)

// DefaultOutputColumns is the export order used when the config does not
// override it.
var DefaultOutputColumns = []string{
	ColSort, ColID, ColSource, ColMainTitle, ColSubtitle,
	ColAuthor1Given, ColAuthor1Initial, ColAuthor1Family,
	ColAuthor2Given, ColAuthor2Initial, ColAuthor2Family,
	ColAuthor3Name,
	ColPublisher, ColCopyrightHolder, ColPubCity, ColYear,
	ColEbookISBN, ColHardcoverISBN, ColPaperISBN, ColUncatISBN,
	ColOnlineLink, ColNewRightsholder, ColRightsRank,
}

// Row is one output-table row, keyed by column name.
type Row map[string]string

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// IsTopLevel reports whether the row represents an input book rather than
// a catalog match (match rows carry the composite bookID_recordID key).
func (r Row) IsTopLevel() bool {
	return !strings.Contains(r[ColSort], "_")
}

// BookFromRow rebuilds a manifest book from its top-level output row,
// for passes that re-run lookups against an existing output table.
func BookFromRow(r Row) BookRecord {
	return BookRecord{
		ID:              r[ColID],
		MainTitle:       r[ColMainTitle],
		Subtitle:        r[ColSubtitle],
		Author1Given:    r[ColAuthor1Given],
		Author1Initial:  r[ColAuthor1Initial],
		Author1Family:   r[ColAuthor1Family],
		Author2Given:    r[ColAuthor2Given],
		Author2Initial:  r[ColAuthor2Initial],
		Author2Family:   r[ColAuthor2Family],
		Author3Name:     r[ColAuthor3Name],
		Publisher:       r[ColPublisher],
		CopyrightHolder: r[ColCopyrightHolder],
	}
}

// BookRecord is one input manifest row. Read-only to the pipeline.
type BookRecord struct {
	ID              string `json:"id" parquet:"id"`
	MainTitle       string `json:"main_title" parquet:"main_title"`
	Subtitle        string `json:"subtitle" parquet:"subtitle"`
	Author1Given    string `json:"author_1_given" parquet:"author_1_given"`
	Author1Initial  string `json:"author_1_initial" parquet:"author_1_initial"`
	Author1Family   string `json:"author_1_family" parquet:"author_1_family"`
	Author2Given    string `json:"author_2_given" parquet:"author_2_given"`
	Author2Initial  string `json:"author_2_initial" parquet:"author_2_initial"`
	Author2Family   string `json:"author_2_family" parquet:"author_2_family"`
	Author3Name     string `json:"author_3_name" parquet:"author_3_name"`
	Publisher       string `json:"publisher" parquet:"publisher"`
	CopyrightHolder string `json:"copyright_holder" parquet:"copyright_holder"`
}

// Row converts the book to its top-level output row.
func (b BookRecord) Row() Row {
	return Row{
		ColSort:            b.ID,
		ColID:              b.ID,
		ColMainTitle:       b.MainTitle,
		ColSubtitle:        b.Subtitle,
		ColAuthor1Given:    b.Author1Given,
		ColAuthor1Initial:  b.Author1Initial,
		ColAuthor1Family:   b.Author1Family,
		ColAuthor2Given:    b.Author2Given,
		ColAuthor2Initial:  b.Author2Initial,
		ColAuthor2Family:   b.Author2Family,
		ColAuthor3Name:     b.Author3Name,
		ColPublisher:       b.Publisher,
		ColCopyrightHolder: b.CopyrightHolder,
	}
}
