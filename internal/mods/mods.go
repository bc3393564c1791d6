// Package mods normalizes LibraryCloud MODS search responses into flat
// catalog records.
package mods

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joemull/ebook-ident/internal/cache"
	"github.com/joemull/ebook-ident/internal/formats"
	"github.com/joemull/ebook-ident/internal/isbn"
	"github.com/joemull/ebook-ident/internal/models"
)

// joinSep separates accumulated multi-value fields in the output table.
const joinSep = " ; "

// Record is one normalized bibliographic hit.
type Record struct {
	Key    string // sourceBookID + "_" + catalog record ID
	Order  int    // insertion sequence within the parse
	ID     string
	Source string

	MainTitle string
	Subtitle  string

	Author1Given   string
	Author1Initial string
	Author1Family  string
	Author2Given   string
	Author2Initial string
	Author2Family  string
	Author3Name    string

	Publisher string
	PubCity   string
	Year      string

	EbookISBN         string
	HardcoverISBN     string
	PaperISBN         string
	UncategorizedISBN string

	OnlineLink string
}

// Row converts the record to its output-table row, keyed by the composite
// record key.
func (r Record) Row() models.Row {
	return models.Row{
		models.ColSort:           r.Key,
		models.ColID:             r.ID,
		models.ColSource:         r.Source,
		models.ColMainTitle:      r.MainTitle,
		models.ColSubtitle:       r.Subtitle,
		models.ColAuthor1Given:   r.Author1Given,
		models.ColAuthor1Initial: r.Author1Initial,
		models.ColAuthor1Family:  r.Author1Family,
		models.ColAuthor2Given:   r.Author2Given,
		models.ColAuthor2Initial: r.Author2Initial,
		models.ColAuthor2Family:  r.Author2Family,
		models.ColAuthor3Name:    r.Author3Name,
		models.ColPublisher:      r.Publisher,
		models.ColPubCity:        r.PubCity,
		models.ColYear:           r.Year,
		models.ColEbookISBN:      r.EbookISBN,
		models.ColHardcoverISBN:  r.HardcoverISBN,
		models.ColPaperISBN:      r.PaperISBN,
		models.ColUncatISBN:      r.UncategorizedISBN,
		models.ColOnlineLink:     r.OnlineLink,
	}
}

// Wire types for the LibraryCloud search response. Tags match local
// element names, so the mods: namespace prefix is irrelevant to decoding.

type searchResponse struct {
	XMLName  xml.Name `xml:"results"`
	NumFound string   `xml:"pagination>numFound"`
	Items    struct {
		Records []modsItem `xml:"mods"`
	} `xml:"items"`
}

type modsItem struct {
	TitleInfos []struct {
		NonSort  string `xml:"nonSort"`
		Title    string `xml:"title"`
		SubTitle string `xml:"subTitle"`
	} `xml:"titleInfo"`
	Names []struct {
		NameParts []string `xml:"namePart"`
	} `xml:"name"`
	OriginInfos []struct {
		Publishers []string `xml:"publisher"`
		Places     []struct {
			Terms []placeTerm `xml:"placeTerm"`
		} `xml:"place"`
		DatesIssued []string `xml:"dateIssued"`
	} `xml:"originInfo"`
	Identifiers []struct {
		Type  string `xml:"type,attr"`
		Value string `xml:",chardata"`
	} `xml:"identifier"`
	RelatedItems []struct {
		OtherType string `xml:"otherType,attr"`
		URL       string `xml:"location>url"`
	} `xml:"relatedItem"`
	RecordInfo struct {
		RecordIdentifier string `xml:"recordIdentifier"`
	} `xml:"recordInfo"`
}

type placeTerm struct {
	Type      string `xml:"type,attr"`
	Authority string `xml:"authority,attr"`
	Value     string `xml:",chardata"`
}

// Parser turns response bodies into records, filtering through the match
// cache so a (book, record) pair is emitted at most once per session.
type Parser struct {
	Source       string
	LinkTemplate string
	Matches      *cache.MatchCache
}

// Parse normalizes one response body for book. Items without a record
// identifier are skipped; any other missing field becomes an empty string.
// Keys already present in the match cache are dropped, and emitted keys
// are recorded as a side effect. Unparseable XML is an error, which
// callers treat as an empty result for that query.
func (p *Parser) Parse(body []byte, book models.BookRecord) (map[string]Record, error) {
	var resp searchResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse catalog response: %w", err)
	}
	slog.Debug("parsing catalog response", "book", book.ID, "numFound", resp.NumFound)

	records := make(map[string]Record)
	order := 0
	for _, item := range resp.Items.Records {
		rec, ok := p.normalize(item, book)
		if !ok {
			continue
		}
		if p.Matches != nil && p.Matches.Seen(rec.Key) {
			slog.Debug("skipping already-emitted record", "key", rec.Key)
			continue
		}
		rec.Order = order
		order++
		records[rec.Key] = rec
	}
	return records, nil
}

func (p *Parser) normalize(item modsItem, book models.BookRecord) (Record, bool) {
	if item.RecordInfo.RecordIdentifier == "" {
		slog.Warn("catalog item missing record identifier; skipping",
			"book", book.ID, "title", book.MainTitle)
		return Record{}, false
	}

	rec := Record{
		ID:     strings.TrimSpace(item.RecordInfo.RecordIdentifier),
		Source: p.Source,
	}
	rec.Key = book.ID + "_" + rec.ID

	if len(item.TitleInfos) > 0 {
		ti := item.TitleInfos[0]
		rec.MainTitle = strings.TrimSpace(ti.Title)
		if nonSort := strings.TrimSpace(ti.NonSort); nonSort != "" {
			rec.MainTitle = nonSort + " " + rec.MainTitle
		}
		rec.Subtitle = strings.TrimSpace(ti.SubTitle)
	}

	p.normalizeAuthors(item, &rec)
	p.normalizeOrigin(item, &rec)
	p.normalizeIdentifiers(item, &rec)

	return rec, true
}

func (p *Parser) normalizeAuthors(item modsItem, rec *Record) {
	if len(item.Names) > 0 {
		rec.Author1Given, rec.Author1Initial, rec.Author1Family = splitStructuredName(firstNamePart(item.Names[0].NameParts))
	}
	if len(item.Names) > 1 {
		rec.Author2Given, rec.Author2Initial, rec.Author2Family = splitStructuredName(firstNamePart(item.Names[1].NameParts))
	}
	if len(item.Names) > 2 {
		var parts []string
		for _, np := range item.Names[2].NameParts {
			if s := strings.TrimSpace(np); s != "" {
				parts = append(parts, s)
			}
		}
		rec.Author3Name = strings.Join(parts, " ")
	}
}

func firstNamePart(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// splitStructuredName parses "Family, Given Initial". Names that do not
// carry all three pieces come back entirely empty rather than partially
// filled.
func splitStructuredName(namePart string) (given, initial, family string) {
	fam, rest, found := strings.Cut(namePart, ", ")
	if !found {
		return "", "", ""
	}
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return "", "", ""
	}
	return fields[0], fields[1], strings.TrimSpace(fam)
}

func (p *Parser) normalizeOrigin(item modsItem, rec *Record) {
	var publishers, cities, years []string
	for _, oi := range item.OriginInfos {
		for _, pub := range oi.Publishers {
			pub = strings.TrimSpace(pub)
			if pub != "" && !contains(publishers, pub) {
				publishers = append(publishers, pub)
			}
		}
		for _, place := range oi.Places {
			for _, term := range place.Terms {
				// Coded place terms (with an authority) duplicate the
				// human-readable ones.
				if term.Type == "text" && term.Authority == "" {
					if city := strings.TrimSpace(term.Value); city != "" {
						cities = append(cities, city)
					}
				}
			}
		}
		for _, date := range oi.DatesIssued {
			date = strings.TrimSpace(date)
			if date != "" && !contains(years, date) {
				years = append(years, date)
			}
		}
	}
	rec.Publisher = strings.Join(publishers, joinSep)
	rec.PubCity = strings.Join(cities, joinSep)
	rec.Year = strings.Join(years, joinSep)
}

// classifiedISBN pairs a canonical ISBN with the format its qualifier
// text classified to.
type classifiedISBN struct {
	canon  string
	format formats.Format
}

func (p *Parser) normalizeIdentifiers(item modsItem, rec *Record) {
	var isbns []classifiedISBN
	var oclc, lastISBN string

	for _, ident := range item.Identifiers {
		value := strings.TrimSpace(ident.Value)
		switch ident.Type {
		case "isbn":
			canon := isbn.Classify(value).Canon
			res := formats.Classify(qualifierText(value))
			entry := classifiedISBN{canon: canon, format: res.Format}
			if !containsClassified(isbns, entry) {
				isbns = append(isbns, entry)
			}
			lastISBN = canon
		case "oclc":
			oclc = isbn.Canon(value)
		}
	}

	for _, entry := range isbns {
		switch entry.format {
		case formats.Ebook:
			rec.EbookISBN = entry.canon
		case formats.Hardcover:
			rec.HardcoverISBN = entry.canon
		case formats.Paper:
			rec.PaperISBN = entry.canon
		case formats.Unknown:
			if rec.UncategorizedISBN == "" {
				rec.UncategorizedISBN = entry.canon
			} else {
				rec.UncategorizedISBN += joinSep + entry.canon
			}
		}
	}

	rec.OnlineLink = p.onlineLink(item, rec.ID, oclc, lastISBN)
}

// onlineLink prefers the HOLLIS record link the catalog provides, then a
// WorldCat link when an OCLC number is present, then the items-API URL
// synthesized from the record identifier.
func (p *Parser) onlineLink(item modsItem, recordID, oclc, lastISBN string) string {
	for _, related := range item.RelatedItems {
		if related.OtherType == "HOLLIS record" && related.URL != "" {
			return strings.TrimSpace(related.URL)
		}
	}
	if oclc != "" {
		return "https://worldcat.org/oclc/" + oclc
	}
	if lastISBN != "" && p.LinkTemplate != "" {
		return fmt.Sprintf(p.LinkTemplate, recordID)
	}
	return ""
}

func qualifierText(identValue string) string {
	if open := strings.LastIndex(identValue, "("); open >= 0 {
		rest := identValue[open+1:]
		if closing := strings.Index(rest, ")"); closing >= 0 {
			return rest[:closing]
		}
		return rest
	}
	return identValue
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsClassified(list []classifiedISBN, entry classifiedISBN) bool {
	for _, v := range list {
		if v == entry {
			return true
		}
	}
	return false
}
