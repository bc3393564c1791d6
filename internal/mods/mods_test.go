package mods

import (
	"testing"

	"github.com/joemull/ebook-ident/internal/cache"
	"github.com/joemull/ebook-ident/internal/models"
)

const sampleResponse = `<?xml version="1.0" encoding="UTF-8"?>
<results xmlns:mods="http://www.loc.gov/mods/v3">
  <pagination>
    <numFound>2</numFound>
  </pagination>
  <items>
    <mods:mods>
      <mods:titleInfo>
        <mods:nonSort>The</mods:nonSort>
        <mods:title>Hound of the Baskervilles</mods:title>
        <mods:subTitle>another adventure of Sherlock Holmes</mods:subTitle>
      </mods:titleInfo>
      <mods:name>
        <mods:namePart>Doyle, Arthur Conan</mods:namePart>
      </mods:name>
      <mods:name>
        <mods:namePart>Paget, Sidney E.</mods:namePart>
      </mods:name>
      <mods:name>
        <mods:namePart>Morley</mods:namePart>
        <mods:namePart>Christopher</mods:namePart>
      </mods:name>
      <mods:originInfo>
        <mods:publisher>George Newnes</mods:publisher>
        <mods:publisher>George Newnes</mods:publisher>
        <mods:publisher>Grosset &amp; Dunlap</mods:publisher>
        <mods:place>
          <mods:placeTerm type="text">London</mods:placeTerm>
        </mods:place>
        <mods:place>
          <mods:placeTerm type="code" authority="marccountry">enk</mods:placeTerm>
        </mods:place>
        <mods:place>
          <mods:placeTerm type="text" authority="marccountry">England</mods:placeTerm>
        </mods:place>
        <mods:dateIssued>1902</mods:dateIssued>
        <mods:dateIssued>1902</mods:dateIssued>
        <mods:dateIssued>1905</mods:dateIssued>
      </mods:originInfo>
      <mods:identifier type="isbn">0-306-40615-2 (pbk.)</mods:identifier>
      <mods:identifier type="isbn">9780306406157 (ebook)</mods:identifier>
      <mods:identifier type="isbn">123456789 (large print)</mods:identifier>
      <mods:identifier type="oclc">ocm1234567</mods:identifier>
      <mods:recordInfo>
        <mods:recordIdentifier>990001</mods:recordIdentifier>
      </mods:recordInfo>
    </mods:mods>
    <mods:mods>
      <mods:titleInfo>
        <mods:title>Untitled fragment</mods:title>
      </mods:titleInfo>
    </mods:mods>
  </items>
</results>`

func testBook() models.BookRecord {
	return models.BookRecord{
		ID:              "HEB001",
		MainTitle:       "The Hound of the Baskervilles",
		Publisher:       "George Newnes",
		CopyrightHolder: "George Newnes",
	}
}

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	matches, err := cache.OpenMatchCache(t.TempDir(), "test-session")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { matches.Close() })
	return &Parser{
		Source:       "Harvard Library",
		LinkTemplate: "https://api.lib.harvard.edu/v2/items?q=%s",
		Matches:      matches,
	}
}

func TestParse(t *testing.T) {
	p := newTestParser(t)

	records, err := p.Parse([]byte(sampleResponse), testBook())
	if err != nil {
		t.Fatal(err)
	}

	// The identifier-less second item is skipped.
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	rec, ok := records["HEB001_990001"]
	if !ok {
		t.Fatalf("missing composite key HEB001_990001; got keys %v", keys(records))
	}

	if rec.ID != "990001" {
		t.Errorf("ID = %q", rec.ID)
	}
	if rec.Source != "Harvard Library" {
		t.Errorf("Source = %q", rec.Source)
	}
	if rec.MainTitle != "The Hound of the Baskervilles" {
		t.Errorf("MainTitle = %q (nonSort prefix not applied)", rec.MainTitle)
	}
	if rec.Subtitle != "another adventure of Sherlock Holmes" {
		t.Errorf("Subtitle = %q", rec.Subtitle)
	}
	if rec.Author1Given != "Arthur" || rec.Author1Initial != "Conan" || rec.Author1Family != "Doyle" {
		t.Errorf("Author 1 = %q %q %q", rec.Author1Given, rec.Author1Initial, rec.Author1Family)
	}
	if rec.Author2Given != "Sidney" || rec.Author2Initial != "E." || rec.Author2Family != "Paget" {
		t.Errorf("Author 2 = %q %q %q", rec.Author2Given, rec.Author2Initial, rec.Author2Family)
	}
	if rec.Author3Name != "Morley Christopher" {
		t.Errorf("Author 3 = %q", rec.Author3Name)
	}
	if rec.Publisher != "George Newnes ; Grosset & Dunlap" {
		t.Errorf("Publisher = %q (want deduplicated, semicolon-joined)", rec.Publisher)
	}
	if rec.PubCity != "London" {
		t.Errorf("PubCity = %q (coded or authority place terms must be excluded)", rec.PubCity)
	}
	if rec.Year != "1902 ; 1905" {
		t.Errorf("Year = %q (want deduplicated, semicolon-joined)", rec.Year)
	}
	if rec.PaperISBN != "0306406152" {
		t.Errorf("paper ISBN = %q", rec.PaperISBN)
	}
	if rec.EbookISBN != "9780306406157" {
		t.Errorf("ebook ISBN = %q", rec.EbookISBN)
	}
	if rec.HardcoverISBN != "" {
		t.Errorf("hardcover ISBN = %q, want empty", rec.HardcoverISBN)
	}
	// "123456789" happens to validate as an ISBN-10 after zero padding.
	if rec.UncategorizedISBN != "0123456789" {
		t.Errorf("Uncategorized ISBN = %q", rec.UncategorizedISBN)
	}
	if rec.OnlineLink != "https://worldcat.org/oclc/1234567" {
		t.Errorf("Online Link = %q", rec.OnlineLink)
	}
}

func TestParseDeduplicatesAcrossCalls(t *testing.T) {
	p := newTestParser(t)
	book := testBook()

	first, err := p.Parse([]byte(sampleResponse), book)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 1 {
		t.Fatalf("first parse: %d records", len(first))
	}

	second, err := p.Parse([]byte(sampleResponse), book)
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 0 {
		t.Errorf("second parse returned %d records, want 0 (match cache)", len(second))
	}
}

func TestParseMalformedXML(t *testing.T) {
	p := newTestParser(t)
	if _, err := p.Parse([]byte("this is not xml <"), testBook()); err == nil {
		t.Fatal("Parse succeeded on malformed XML")
	}
}

func TestParseHOLLISLinkPreferred(t *testing.T) {
	body := `<results>
  <pagination><numFound>1</numFound></pagination>
  <items>
    <mods>
      <titleInfo><title>Linked</title></titleInfo>
      <relatedItem otherType="HOLLIS record">
        <location><url>https://id.lib.harvard.edu/alma/990002/catalog</url></location>
      </relatedItem>
      <identifier type="oclc">7654321</identifier>
      <recordInfo><recordIdentifier>990002</recordIdentifier></recordInfo>
    </mods>
  </items>
</results>`

	p := newTestParser(t)
	records, err := p.Parse([]byte(body), testBook())
	if err != nil {
		t.Fatal(err)
	}
	rec := records["HEB001_990002"]
	if rec.OnlineLink != "https://id.lib.harvard.edu/alma/990002/catalog" {
		t.Errorf("Online Link = %q, want HOLLIS url", rec.OnlineLink)
	}
}

func TestParseLinkTemplateFallback(t *testing.T) {
	body := `<results>
  <pagination><numFound>1</numFound></pagination>
  <items>
    <mods>
      <titleInfo><title>Fallback</title></titleInfo>
      <identifier type="isbn">9780306406157</identifier>
      <recordInfo><recordIdentifier>990003</recordIdentifier></recordInfo>
    </mods>
  </items>
</results>`

	p := newTestParser(t)
	records, err := p.Parse([]byte(body), testBook())
	if err != nil {
		t.Fatal(err)
	}
	rec := records["HEB001_990003"]
	if rec.OnlineLink != "https://api.lib.harvard.edu/v2/items?q=990003" {
		t.Errorf("Online Link = %q, want items-API template", rec.OnlineLink)
	}
	// An unqualified ISBN has no parenthetical and classifies off the
	// whole string, landing in Uncategorized.
	if rec.UncategorizedISBN != "9780306406157" {
		t.Errorf("Uncategorized ISBN = %q", rec.UncategorizedISBN)
	}
}

func TestRowContainsAllColumns(t *testing.T) {
	rec := Record{Key: "B1_990001", ID: "990001", Source: "Harvard Library"}
	row := rec.Row()
	for _, col := range []string{models.ColSort, models.ColID, models.ColEbookISBN, models.ColOnlineLink} {
		if _, ok := row[col]; !ok {
			t.Errorf("row missing column %q", col)
		}
	}
	if row.IsTopLevel() {
		t.Error("match row reported as top-level")
	}
}

func TestParseHyphenatedEbookISBN(t *testing.T) {
	body := `<results>
  <pagination><numFound>1</numFound></pagination>
  <items>
    <mods>
      <titleInfo><title>Hound</title></titleInfo>
      <identifier type="isbn">978-0-262-01234-5 (ebook)</identifier>
      <recordInfo><recordIdentifier>990055</recordIdentifier></recordInfo>
    </mods>
  </items>
</results>`

	p := newTestParser(t)
	book := models.BookRecord{ID: "B1", MainTitle: "Hound", Publisher: "MIT Press", CopyrightHolder: "MIT Press"}

	records, err := p.Parse([]byte(body), book)
	if err != nil {
		t.Fatal(err)
	}
	rec, ok := records["B1_990055"]
	if !ok {
		t.Fatalf("record missing; got keys %v", keys(records))
	}
	if rec.EbookISBN != "9780262012345" {
		t.Errorf("ebook ISBN = %q, want 9780262012345", rec.EbookISBN)
	}
	if rec.PaperISBN != "" || rec.HardcoverISBN != "" {
		t.Errorf("paper/hardcover should be empty, got %q / %q", rec.PaperISBN, rec.HardcoverISBN)
	}
}

func keys(m map[string]Record) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
