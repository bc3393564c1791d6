package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/joemull/ebook-ident/internal/cache"
	"github.com/joemull/ebook-ident/internal/catalog"
	"github.com/joemull/ebook-ident/internal/config"
	"github.com/joemull/ebook-ident/internal/manifest"
	"github.com/joemull/ebook-ident/internal/models"
	"github.com/joemull/ebook-ident/internal/mods"
	"github.com/joemull/ebook-ident/internal/output"
	"github.com/joemull/ebook-ident/internal/reconcile"
)

func newIdentifyCmd() *cobra.Command {
	var booksPath string
	var alreadyPath string
	var configPath string
	var outputDir string
	var limit int
	var concurrency int
	var titleThreshold int
	var writeYAML bool

	cmd := &cobra.Command{
		Use:   "identify",
		Short: "Look up manifest books and write the reconciled output table",
		Long: `Reads a book manifest (CSV, JSONL, or Parquet), looks each book up in
the configured bibliographic API, and writes a timestamped output table
pairing every manifest row with its catalog matches.

Pass a previous output file with --already to resume: its books are not
re-queried and its rows are carried into the new output.`,
		Example: `  # Process a manifest
  ebook-ident identify --books manifest.csv

  # Resume, skipping books already in an earlier output
  ebook-ident identify --books manifest.csv --already outputs/2024-01-02_03-04-05-output.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeIdentify(cmd.Context(), identifyOptions{
				booksPath:      booksPath,
				alreadyPath:    alreadyPath,
				configPath:     configPath,
				outputDir:      outputDir,
				limit:          limit,
				concurrency:    concurrency,
				titleThreshold: titleThreshold,
				writeYAML:      writeYAML,
			})
		},
	}

	cmd.Flags().StringVar(&booksPath, "books", "", "Path to the book manifest (.csv, .jsonl, or .parquet)")
	cmd.Flags().StringVar(&alreadyPath, "already", "", "Previous output CSV whose books are skipped and re-emitted")
	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "Path to the run configuration")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Override the configured output directory")
	cmd.Flags().IntVar(&limit, "limit", 0, "Override the configured per-query record limit")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Override the configured number of concurrent lookups")
	cmd.Flags().IntVar(&titleThreshold, "title-threshold", 0, "Drop matches whose title similarity falls below this percent (0 disables)")
	cmd.Flags().BoolVar(&writeYAML, "yaml", false, "Also write a YAML copy of the output")
	_ = cmd.MarkFlagRequired("books")

	return cmd
}

type identifyOptions struct {
	booksPath      string
	alreadyPath    string
	configPath     string
	outputDir      string
	limit          int
	concurrency    int
	titleThreshold int
	writeYAML      bool
}

func executeIdentify(ctx context.Context, opts identifyOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.outputDir != "" {
		cfg.OutputDir = opts.outputDir
	}
	if opts.limit > 0 {
		cfg.Catalog.Limit = opts.limit
	}
	if opts.concurrency > 0 {
		cfg.Concurrency = opts.concurrency
	}

	slog.Info("Loading manifest", "path", opts.booksPath)
	books, err := manifest.NewLoader(opts.booksPath).Load()
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}
	slog.Info("Manifest loaded", "books", len(books))

	var seed []models.Row
	skip := make(map[string]struct{})
	if opts.alreadyPath != "" {
		rows, _, err := output.ReadCSV(opts.alreadyPath)
		if err != nil {
			return fmt.Errorf("failed to load previous output: %w", err)
		}
		seed = rows
		for _, row := range rows {
			if row.IsTopLevel() && row[models.ColID] != "" {
				skip[row[models.ColID]] = struct{}{}
			}
		}
		slog.Info("Resuming from previous output", "rows", len(rows), "skipped_books", len(skip))
	}

	runID := reconcile.NewRunID()

	requests, err := cache.OpenRequestCache(cfg.CacheDir)
	if err != nil {
		return fmt.Errorf("failed to open request cache: %w", err)
	}
	defer requests.Close()

	matches, err := cache.OpenMatchCache(cfg.CacheDir, runID)
	if err != nil {
		return fmt.Errorf("failed to open match cache: %w", err)
	}
	defer matches.Close()

	agg := &reconcile.Aggregator{
		Engine: &catalog.QueryEngine{
			Client: catalog.NewClient(
				cfg.Catalog.BaseURL,
				cfg.APIKey,
				time.Duration(cfg.Catalog.TimeoutSeconds)*time.Second,
				requests,
			),
			Parser: &mods.Parser{
				Source:       cfg.Catalog.Source,
				LinkTemplate: cfg.Catalog.LinkTemplate,
				Matches:      matches,
			},
			Limit: cfg.Catalog.Limit,
		},
		Cfg:            cfg,
		RunID:          runID,
		Skip:           skip,
		TitleThreshold: opts.titleThreshold,
	}

	rows, summary := agg.Run(ctx, books, seed)

	sink := output.NewCSVSink(cfg.OutputDir, cfg.OutputColumns)
	path, err := sink.Write(rows)
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if opts.writeYAML {
		yamlSink := output.NewYAMLSink(cfg.OutputDir, cfg.Catalog.Source, runID)
		if _, err := yamlSink.Write(rows); err != nil {
			return fmt.Errorf("failed to write YAML output: %w", err)
		}
	}

	reconcile.PrintSummary(summary, reconcile.HolderCounts(rows))
	fmt.Printf("\nOutput saved to: %s\n", path)

	return nil
}
