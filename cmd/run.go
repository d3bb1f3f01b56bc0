package cmd

import (
	"github.com/spf13/cobra"
)

// runCmd runs every stage, fetch through blast
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, combine, align, inspect and search in one go",
	Long: `Fetch, combine, align, inspect and search in one go.

A species without a record is skipped. With fewer than two records the
alignment and inspection are skipped and only the search runs. With no
records at all the run fails.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return requireEmail()
	},
	RunE: runExec,
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.StringP("gene", "g", "", "gene symbol to fetch (default COX1)")
	flags.StringSliceP("species", "s", nil, "species to compare (default from settings)")
	flags.StringP("query", "q", "", "FASTA file to search with (default the first combined record)")
	setting(flags, "gene", "gene")
	setting(flags, "species", "species")
}

func runExec(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	query, _ := cmd.Flags().GetString("query")
	return newPipeline(cmd).Run(ctx, query)
}
