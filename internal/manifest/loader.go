// Package manifest loads the publisher's book manifest from CSV, JSONL,
// or Parquet files.
package manifest

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joemull/ebook-ident/internal/models"
	"github.com/parquet-go/parquet-go"
)

// Loader reads book records from a manifest file, with the format chosen
// by file extension.
type Loader struct {
	path string
}

// NewLoader creates a loader for the manifest at path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads all book records from the manifest.
func (l *Loader) Load() ([]models.BookRecord, error) {
	ext := strings.ToLower(filepath.Ext(l.path))

	switch ext {
	case ".parquet":
		return l.loadParquet()
	case ".jsonl", ".json":
		return l.loadJSONL()
	case ".csv":
		return l.loadCSV()
	default:
		return nil, fmt.Errorf("unsupported manifest format: %s (supported: .csv, .jsonl, .parquet)", ext)
	}
}

// LoadIDs reads the manifest and returns the set of its book IDs, used
// for already-processed skip lists.
func (l *Loader) LoadIDs() (map[string]bool, error) {
	books, err := l.Load()
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(books))
	for _, b := range books {
		ids[b.ID] = true
	}
	return ids, nil
}

// csvColumns maps manifest header names onto BookRecord fields.
var csvColumns = map[string]func(*models.BookRecord, string){
	models.ColID:              func(b *models.BookRecord, v string) { b.ID = v },
	models.ColMainTitle:       func(b *models.BookRecord, v string) { b.MainTitle = v },
	models.ColSubtitle:        func(b *models.BookRecord, v string) { b.Subtitle = v },
	models.ColAuthor1Given:    func(b *models.BookRecord, v string) { b.Author1Given = v },
	models.ColAuthor1Initial:  func(b *models.BookRecord, v string) { b.Author1Initial = v },
	models.ColAuthor1Family:   func(b *models.BookRecord, v string) { b.Author1Family = v },
	models.ColAuthor2Given:    func(b *models.BookRecord, v string) { b.Author2Given = v },
	models.ColAuthor2Initial:  func(b *models.BookRecord, v string) { b.Author2Initial = v },
	models.ColAuthor2Family:   func(b *models.BookRecord, v string) { b.Author2Family = v },
	models.ColAuthor3Name:     func(b *models.BookRecord, v string) { b.Author3Name = v },
	models.ColPublisher:       func(b *models.BookRecord, v string) { b.Publisher = v },
	models.ColCopyrightHolder: func(b *models.BookRecord, v string) { b.CopyrightHolder = v },
}

func (l *Loader) loadCSV() ([]models.BookRecord, error) {
	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest header: %w", err)
	}

	setters := make([]func(*models.BookRecord, string), len(header))
	for i, col := range header {
		setters[i] = csvColumns[strings.TrimSpace(col)]
	}

	var books []models.BookRecord
	line := 1
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest line %d: %w", line, err)
		}

		var book models.BookRecord
		for i, value := range fields {
			if i < len(setters) && setters[i] != nil {
				setters[i](&book, strings.TrimSpace(value))
			}
		}
		if book.ID == "" {
			slog.Warn("skipping manifest row without ID", "line", line)
			continue
		}
		books = append(books, book)
	}

	slog.Debug("manifest loaded", "path", l.path, "books", len(books))
	return books, nil
}

func (l *Loader) loadJSONL() ([]models.BookRecord, error) {
	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	var books []models.BookRecord
	scanner := bufio.NewScanner(file)

	const maxCapacity = 1024 * 1024
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var book models.BookRecord
		if err := json.Unmarshal(line, &book); err != nil {
			return nil, fmt.Errorf("failed to parse manifest line %d: %w", lineNum, err)
		}
		if book.ID == "" {
			slog.Warn("skipping manifest row without ID", "line", lineNum)
			continue
		}
		books = append(books, book)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading manifest: %w", err)
	}

	slog.Debug("manifest loaded", "path", l.path, "books", len(books))
	return books, nil
}

func (l *Loader) loadParquet() ([]models.BookRecord, error) {
	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat manifest: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet manifest: %w", err)
	}

	reader := parquet.NewGenericReader[models.BookRecord](pf)
	defer reader.Close()

	var books []models.BookRecord
	rows := make([]models.BookRecord, 128)
	for {
		n, err := reader.Read(rows)
		if n > 0 {
			for _, book := range rows[:n] {
				if book.ID == "" {
					slog.Warn("skipping manifest row without ID")
					continue
				}
				books = append(books, book)
			}
		}
		if err != nil {
			break
		}
	}

	slog.Debug("manifest loaded", "path", l.path, "books", len(books))
	return books, nil
}
