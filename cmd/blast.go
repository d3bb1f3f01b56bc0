package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

// blastCmd runs a remote BLAST search for a FASTA record
var blastCmd = &cobra.Command{
	Use:   "blast [query.fasta]",
	Short: "Search NCBI BLAST with the first record of a FASTA file",
	Long: `Search NCBI BLAST with the first record of a FASTA file.

The search is submitted, polled until it's ready, and its XML report is
saved. The top hits are printed with their score, identity and the start
of the query, match and subject rows. The query defaults to the first
combined record.`,
	Example: `  cox1 blast sequences/Homo_sapiens_COX1.fasta --hits 5 --json hits.json`,
	Args:    cobra.MaximumNArgs(1),
	RunE:    blastExec,
}

func init() {
	rootCmd.AddCommand(blastCmd)

	flags := blastCmd.Flags()
	flags.StringP("out", "o", "", "BLAST XML report (default blast.xml)")
	flags.StringP("program", "p", "", "BLAST program (default blastn)")
	flags.String("database", "", "BLAST database (default nt)")
	flags.IntP("hits", "n", 0, "hits to print (default 3)")
	flags.IntP("width", "w", 0, "symbols of each alignment row to print (default 75)")
	flags.Float64("min-identity", 0, "drop hits with a smaller fraction of identical columns, ex: 0.9")
	flags.String("json", "", "also write the parsed hits to this JSON file")
	setting(flags, "out", "paths.blast")
	setting(flags, "program", "blast.program")
	setting(flags, "database", "blast.database")
	setting(flags, "hits", "blast.hits")
	setting(flags, "width", "blast.width")
	setting(flags, "min-identity", "blast.min-identity")
}

func blastExec(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	query := conf.Paths.Combined
	if len(args) > 0 {
		query = args[0]
	}

	start := time.Now()
	p := newPipeline(cmd)
	hits, err := p.Search(ctx, query)
	if err != nil {
		return err
	}

	if out, _ := cmd.Flags().GetString("json"); out != "" {
		return p.WriteHits(out, query, hits, start)
	}
	return nil
}
