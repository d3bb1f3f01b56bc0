package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	pb "gopkg.in/cheggaaa/pb.v1"
)

// fetchCmd saves each species' gene record as FASTA
var fetchCmd = &cobra.Command{
	Use:   "fetch [species...]",
	Short: "Fetch a gene's nucleotide record for each species",
	Long: `Fetch a gene's nucleotide record for each species from NCBI Entrez.

The first record matching "<species>"[Organism] AND <gene>[Gene] is saved,
as returned, to <sequences>/<Genus>_<species>_<gene>.fasta. Species without
a matching record are logged and skipped. Species are read from the
settings file unless they're passed as arguments.`,
	Example: `  cox1 fetch
  cox1 fetch "Mus musculus" "Rattus norvegicus" --gene COX2`,
	RunE: fetchExec,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	flags := fetchCmd.Flags()
	flags.StringP("gene", "g", "", "gene symbol to fetch (default COX1)")
	flags.StringP("dir", "d", "", "directory to save records in (default sequences)")
	flags.Bool("no-progress", false, "don't draw a progress bar")
	setting(flags, "gene", "gene")
	setting(flags, "dir", "paths.sequences")
}

func fetchExec(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	species := conf.Species
	if len(args) > 0 {
		species = args
	}

	p := newPipeline(cmd)

	noProgress, _ := cmd.Flags().GetBool("no-progress")
	if !noProgress && !logJSON {
		bar := pb.New(len(species))
		bar.Output = cmd.ErrOrStderr()
		bar.ShowTimeLeft = false
		bar.Prefix(conf.Gene + " ")
		bar.Start()
		defer bar.Finish()
		p.Progress = func(string) { bar.Increment() }
	}

	paths, err := p.Fetch(ctx, species)
	if err != nil {
		return err
	}

	for _, path := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	if len(paths) < 1 {
		return fmt.Errorf("no %s records found for %d species", conf.Gene, len(species))
	}
	return nil
}
