package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "books.csv",
		"ID,Main Title,Subtitle,Author 1 Given,Author 1 Initial,Author 1 Family,Publisher,Copyright Holder\n"+
			"HEB001,The Hound of the Baskervilles,,Arthur,C.,Doyle,George Newnes,George Newnes\n"+
			"HEB002,Walden,Or Life in the Woods,Henry,D.,Thoreau,Ticknor and Fields,Thoreau Estate\n"+
			",No ID Row,,,,,Nobody,Nobody\n")

	books, err := NewLoader(path).Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(books) != 2 {
		t.Fatalf("got %d books, want 2 (row without ID skipped)", len(books))
	}

	first := books[0]
	if first.ID != "HEB001" || first.MainTitle != "The Hound of the Baskervilles" {
		t.Errorf("first book = %+v", first)
	}
	if first.Author1Family != "Doyle" {
		t.Errorf("Author1Family = %q", first.Author1Family)
	}

	second := books[1]
	if second.Subtitle != "Or Life in the Woods" || second.CopyrightHolder != "Thoreau Estate" {
		t.Errorf("second book = %+v", second)
	}
}

func TestLoadJSONL(t *testing.T) {
	path := writeFile(t, "books.jsonl",
		`{"id":"HEB001","main_title":"Hound","publisher":"MIT Press","copyright_holder":"MIT Press"}`+"\n"+
			"\n"+
			`{"id":"HEB002","main_title":"Walden","publisher":"Ticknor","copyright_holder":"Ticknor"}`+"\n")

	books, err := NewLoader(path).Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(books) != 2 {
		t.Fatalf("got %d books, want 2", len(books))
	}
	if books[0].ID != "HEB001" || books[1].MainTitle != "Walden" {
		t.Errorf("books = %+v", books)
	}
}

func TestLoadIDs(t *testing.T) {
	path := writeFile(t, "already.csv", "ID,Main Title\nHEB001,Hound\nHEB003,Emma\n")

	ids, err := NewLoader(path).LoadIDs()
	if err != nil {
		t.Fatal(err)
	}
	if !ids["HEB001"] || !ids["HEB003"] || ids["HEB002"] {
		t.Errorf("ids = %v", ids)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := writeFile(t, "books.xlsx", "not really")
	if _, err := NewLoader(path).Load(); err == nil {
		t.Fatal("Load succeeded on unsupported format")
	}
}
