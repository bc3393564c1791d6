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
	"github.com/joemull/ebook-ident/internal/mods"
	"github.com/joemull/ebook-ident/internal/output"
	"github.com/joemull/ebook-ident/internal/reconcile"
)

func newFixCmd() *cobra.Command {
	var inputPath string
	var configPath string
	var outputDir string
	var refreshISBNs bool

	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Repair an existing output table",
		Long: `Repairs an output file from an earlier run: restores the parent book
prefix on match-row sort keys and, with --refresh-isbns, re-resolves the
ISBN columns of every match row by re-running its book's lookup (served
from the request cache when possible).`,
		Example: `  # Fix sort keys only
  ebook-ident fix --input outputs/2024-01-02_03-04-05-output.csv

  # Also re-resolve the ISBN columns
  ebook-ident fix --input outputs/2024-01-02_03-04-05-output.csv --refresh-isbns`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeFix(cmd.Context(), inputPath, configPath, outputDir, refreshISBNs)
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "Output CSV to repair")
	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "Path to the run configuration")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Override the configured output directory")
	cmd.Flags().BoolVar(&refreshISBNs, "refresh-isbns", false, "Re-resolve the ISBN columns of match rows")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func executeFix(ctx context.Context, inputPath, configPath, outputDir string, refreshISBNs bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}

	rows, columns, err := output.ReadCSV(inputPath)
	if err != nil {
		return fmt.Errorf("failed to load output file: %w", err)
	}
	slog.Info("Repairing output", "path", inputPath, "rows", len(rows))

	fixed := reconcile.PrependSortIDs(rows)
	slog.Info("Sort keys repaired", "fixed", fixed)

	if refreshISBNs {
		requests, err := cache.OpenRequestCache(cfg.CacheDir)
		if err != nil {
			return fmt.Errorf("failed to open request cache: %w", err)
		}
		defer requests.Close()

		// No match cache here: the repair re-parses records the original
		// run already emitted.
		repairer := &reconcile.Repairer{
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
				},
				Limit: cfg.Catalog.Limit,
			},
		}
		refreshed := repairer.RefreshISBNs(ctx, rows)
		slog.Info("ISBN columns refreshed", "rows", refreshed)
	}

	sink := output.NewCSVSink(cfg.OutputDir, columns)
	path, err := sink.Write(rows)
	if err != nil {
		return fmt.Errorf("failed to write repaired output: %w", err)
	}

	fmt.Printf("Repaired output saved to: %s\n", path)
	return nil
}
