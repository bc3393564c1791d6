// Package output writes reconciliation results to timestamped files in
// the output directory. Two sinks are provided: CSV for the spreadsheet
// workflow and YAML for downstream tooling.
package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joemull/ebook-ident/internal/models"
)

// Sink persists an ordered set of result rows and returns the path of
// the file it wrote.
type Sink interface {
	Write(rows []models.Row) (string, error)
}

// timestamp is swapped out in tests for deterministic filenames.
var timestamp = func() string {
	return time.Now().Format("2006-01-02_15-04-05")
}

// CSVSink writes rows as <timestamp>-output.csv with a fixed column
// order. Missing cells are left empty.
type CSVSink struct {
	Dir     string
	Columns []string
}

// NewCSVSink returns a CSV sink for dir. If columns is nil the default
// output columns are used.
func NewCSVSink(dir string, columns []string) *CSVSink {
	if columns == nil {
		columns = models.DefaultOutputColumns
	}
	return &CSVSink{Dir: dir, Columns: columns}
}

func (s *CSVSink) Write(rows []models.Row) (string, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(s.Dir, fmt.Sprintf("%s-output.csv", timestamp()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(s.Columns); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(s.Columns))
	for _, row := range rows {
		for i, col := range s.Columns {
			record[i] = row[col]
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("failed to write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush output: %w", err)
	}
	return path, nil
}

// ReadCSV loads a previously written output file back into rows, for
// repair passes over older outputs. It returns the header columns in
// file order alongside the rows.
func ReadCSV(path string) ([]models.Row, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open output file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}

	rows := make([]models.Row, 0, len(records))
	for _, record := range records {
		row := models.Row{}
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, header, nil
}

// runSpec is the YAML document shape: a config header followed by the
// result rows.
type runSpec struct {
	Config runConfig    `yaml:"config"`
	Rows   []models.Row `yaml:"rows"`
}

type runConfig struct {
	Source    string `yaml:"source"`
	RunID     string `yaml:"runid"`
	Timestamp string `yaml:"timestamp"`
	RowCount  int    `yaml:"rowcount"`
}

// YAMLSink writes rows as <timestamp>-output.yaml with a config header
// recording the catalog source and run ID.
type YAMLSink struct {
	Dir    string
	Source string
	RunID  string
}

func NewYAMLSink(dir, source, runID string) *YAMLSink {
	return &YAMLSink{Dir: dir, Source: source, RunID: runID}
}

func (s *YAMLSink) Write(rows []models.Row) (string, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	ts := timestamp()
	spec := runSpec{
		Config: runConfig{
			Source:    s.Source,
			RunID:     s.RunID,
			Timestamp: ts,
			RowCount:  len(rows),
		},
		Rows: rows,
	}

	data, err := yaml.Marshal(&spec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	path := filepath.Join(s.Dir, fmt.Sprintf("%s-output.yaml", ts))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}
	return path, nil
}
