package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ebook-ident",
		Short: "Book manifest reconciliation against bibliographic catalogs",
		Long: `ebook-ident looks up each book in a publisher manifest against a
bibliographic search API, classifies the ISBNs of every match by binding
format, and writes a combined output table of manifest rows and their
catalog matches.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newIdentifyCmd())
	cmd.AddCommand(newFixCmd())

	return cmd
}
